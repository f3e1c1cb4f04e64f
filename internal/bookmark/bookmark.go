// Package bookmark keeps the learner's saved-question list.
package bookmark

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/store"
)

// SlotKey is the durable key owned by this store.
const SlotKey = "bookmarks"

type document struct {
	QuestionIDs []string `json:"questionIds"`
}

// Store owns the bookmark slot.
type Store struct {
	mu   sync.Mutex
	slot *store.Slot[document]
	log  logrus.FieldLogger
}

func New(s *store.Store, log logrus.FieldLogger) *Store {
	return &Store{
		slot: store.NewSlot[document](s, SlotKey),
		log:  log,
	}
}

func (b *Store) load() document {
	doc, err := b.slot.Load()
	if err != nil {
		b.log.WithError(err).Debug("bookmark: load failed, starting empty")
	}
	return doc
}

// Toggle flips a question's bookmarked state and reports the new state.
func (b *Store) Toggle(questionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc := b.load()
	for i, id := range doc.QuestionIDs {
		if id == questionID {
			doc.QuestionIDs = append(doc.QuestionIDs[:i], doc.QuestionIDs[i+1:]...)
			b.persist(doc)
			return false
		}
	}
	doc.QuestionIDs = append(doc.QuestionIDs, questionID)
	b.persist(doc)
	return true
}

// Contains reports whether a question is bookmarked.
func (b *Store) Contains(questionID string) bool {
	for _, id := range b.load().QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// All returns the bookmarked question IDs sorted for stable display.
func (b *Store) All() []string {
	doc := b.load()
	out := make([]string, len(doc.QuestionIDs))
	copy(out, doc.QuestionIDs)
	sort.Strings(out)
	return out
}

// Count returns the number of bookmarked questions.
func (b *Store) Count() int {
	return len(b.load().QuestionIDs)
}

// Reset clears all bookmarks.
func (b *Store) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.slot.Clear(); err != nil {
		b.log.WithError(err).Warn("bookmark: reset failed")
	}
}

func (b *Store) persist(doc document) {
	if err := b.slot.Save(doc); err != nil {
		b.log.WithError(err).Warn("bookmark: save failed, keeping in-memory state only")
	}
}
