// Package daily builds and tracks the bounded "5 minute" daily session.
// Selection is a deterministic priority fill: due review questions first,
// then weak-topic questions, then random fill from the rest of the bank.
package daily

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/outbox"
	"github.com/thayduy/lythuyet/internal/store"
)

// SlotKey is the durable key owned by this builder.
const SlotKey = "daily_sessions"

// DefaultCount is the daily session size.
const DefaultCount = 10

// keepDays is how many session dates the rolling log retains.
const keepDays = 7

// sessionMinutes is the nominal daily session length reported in the
// completion snapshot.
const sessionMinutes = 5

// Session is one calendar day's question set.
type Session struct {
	DateKey      string   `json:"dateKey"`
	QuestionIDs  []string `json:"questionIds"`
	CompletedIDs []string `json:"completedIds"`
	Completed    bool     `json:"completed"`
}

type document struct {
	Sessions map[string]Session `json:"sessions"`
}

// Syncer receives the completion side effects. Satisfied by *outbox.Engine.
type Syncer interface {
	SyncEvent(eventType string, payload map[string]any)
	SyncDailySnapshot(snap outbox.DailySnapshot)
}

// SnapshotFunc assembles the aggregate study snapshot at completion time.
// Injected so the builder reads other stores without depending on them.
type SnapshotFunc func() outbox.DailySnapshot

// Builder owns the daily-session slot.
type Builder struct {
	mu       sync.Mutex
	slot     *store.Slot[document]
	clock    dates.Clock
	log      logrus.FieldLogger
	rng      *rand.Rand
	syncer   Syncer
	snapshot SnapshotFunc
}

// New creates a Builder. syncer and snapshot may be nil for local-only use.
func New(s *store.Store, clock dates.Clock, log logrus.FieldLogger, syncer Syncer, snapshot SnapshotFunc) *Builder {
	return &Builder{
		slot:     store.NewSlot[document](s, SlotKey),
		clock:    clock,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		syncer:   syncer,
		snapshot: snapshot,
	}
}

func (b *Builder) load() document {
	doc, err := b.slot.Load()
	if err != nil {
		b.log.WithError(err).Debug("daily: load failed, starting empty")
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]Session)
	}
	return doc
}

func (b *Builder) persist(doc document) {
	if err := b.slot.Save(doc); err != nil {
		b.log.WithError(err).Warn("daily: save failed, keeping in-memory state only")
	}
}

// BuildSession selects up to count unique question IDs: dueIDs in their
// given order, then weakTopicIDs, then a shuffled fill from allIDs.
// Returns fewer than count when the pools run out.
func (b *Builder) BuildSession(dueIDs, weakTopicIDs, allIDs []string, count int) []string {
	if count <= 0 {
		count = DefaultCount
	}

	selected := make([]string, 0, count)
	seen := make(map[string]bool)

	take := func(ids []string) {
		for _, id := range ids {
			if len(selected) >= count {
				return
			}
			if !seen[id] {
				selected = append(selected, id)
				seen[id] = true
			}
		}
	}

	take(dueIDs)
	take(weakTopicIDs)

	shuffled := make([]string, len(allIDs))
	copy(shuffled, allIDs)
	b.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	take(shuffled)

	return selected
}

// TodaySession returns today's session, false when none was built yet.
func (b *Builder) TodaySession() (Session, bool) {
	doc := b.load()
	session, ok := doc.Sessions[b.clock.Today()]
	return session, ok
}

// SaveTodaySession stores a fresh session for today and prunes the log to
// the most recent dates. A session already present for today is replaced;
// callers create at most one per day via TodaySession.
func (b *Builder) SaveTodaySession(questionIDs []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc := b.load()
	today := b.clock.Today()
	doc.Sessions[today] = Session{
		DateKey:      today,
		QuestionIDs:  questionIDs,
		CompletedIDs: []string{},
		Completed:    false,
	}

	// Prune oldest beyond the rolling window. Date keys sort
	// chronologically as strings.
	keys := lo.Keys(doc.Sessions)
	if len(keys) > keepDays {
		sort.Strings(keys)
		for _, k := range keys[:len(keys)-keepDays] {
			delete(doc.Sessions, k)
		}
	}
	b.persist(doc)
}

// MarkCompleted records one answered question in today's session. On the
// transition to fully completed it fires the DAILY_COMPLETED event plus
// the aggregate daily snapshot, exactly once per session.
func (b *Builder) MarkCompleted(questionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc := b.load()
	today := b.clock.Today()
	session, ok := doc.Sessions[today]
	if !ok {
		return
	}
	// Only session questions count toward completion.
	if !lo.Contains(session.QuestionIDs, questionID) {
		return
	}

	wasCompleted := session.Completed
	if !lo.Contains(session.CompletedIDs, questionID) {
		session.CompletedIDs = append(session.CompletedIDs, questionID)
	}
	session.Completed = len(session.CompletedIDs) >= len(session.QuestionIDs)
	doc.Sessions[today] = session
	b.persist(doc)

	if session.Completed && !wasCompleted {
		b.fireCompletion(session)
	}
}

// TodayComplete reports whether today's session is done.
func (b *Builder) TodayComplete() bool {
	session, ok := b.TodaySession()
	return ok && session.Completed
}

// Reset clears the session log.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.slot.Clear(); err != nil {
		b.log.WithError(err).Warn("daily: reset failed")
	}
}

func (b *Builder) fireCompletion(session Session) {
	if b.syncer == nil {
		return
	}

	b.syncer.SyncEvent("DAILY_COMPLETED", map[string]any{
		"questions": len(session.QuestionIDs),
		"correct":   len(session.CompletedIDs),
	})

	if b.snapshot == nil {
		return
	}
	snap := b.snapshot()
	snap.Minutes = sessionMinutes
	b.syncer.SyncDailySnapshot(snap)
}
