// Package review schedules wrong-answered questions for spaced repetition
// using an SM-2 variant with a fixed answer quality.
//
// Lifecycle per question: created on the first wrong answer, rescheduled on
// every review, deleted (graduated) after five consecutive correct reviews.
// A wrong answer at any point resets repetitions and the interval.
package review

import (
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/store"
)

// SlotKey is the durable key owned by this scheduler.
const SlotKey = "review"

const (
	initialEase    = 2.5
	minEase        = 1.3
	graduationReps = 5

	// quality is fixed: a correct review always counts as a "4" on the
	// SM-2 0-5 scale, a wrong one takes the lapse path.
	quality = 4
)

// Item is the review state of one scheduled question.
type Item struct {
	QuestionID   string  `json:"questionId"`
	TopicID      string  `json:"topicId"`
	DueAt        string  `json:"dueAt"` // calendar date key
	IntervalDays int     `json:"intervalDays"`
	Repetitions  int     `json:"repetitions"`
	EaseFactor   float64 `json:"easeFactor"`
	Lapses       int     `json:"lapses"`
	CreatedAt    int64   `json:"createdAt"` // epoch ms
}

type document struct {
	Items map[string]Item `json:"items"`
}

// Scheduler owns the review slot.
type Scheduler struct {
	mu    sync.Mutex
	slot  *store.Slot[document]
	clock dates.Clock
	log   logrus.FieldLogger
}

// New creates a Scheduler.
func New(s *store.Store, clock dates.Clock, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		slot:  store.NewSlot[document](s, SlotKey),
		clock: clock,
		log:   log,
	}
}

func (s *Scheduler) load() document {
	doc, err := s.slot.Load()
	if err != nil {
		s.log.WithError(err).Debug("review: load failed, starting empty")
	}
	if doc.Items == nil {
		doc.Items = make(map[string]Item)
	}
	return doc
}

func (s *Scheduler) persist(doc document) {
	if err := s.slot.Save(doc); err != nil {
		s.log.WithError(err).Warn("review: save failed, keeping in-memory state only")
	}
}

// reschedule applies the SM-2 update and returns the item with its new due
// date. The interval schedule is not pure SM-2: the first two repetitions
// use fixed 1- and 3-day intervals before the ease factor takes over.
func (s *Scheduler) reschedule(item Item, correct bool) Item {
	if correct {
		item.Repetitions++
		switch item.Repetitions {
		case 1:
			item.IntervalDays = 1
		case 2:
			item.IntervalDays = 3
		default:
			item.IntervalDays = int(math.Round(float64(item.IntervalDays) * item.EaseFactor))
		}
		item.EaseFactor = math.Max(minEase,
			item.EaseFactor+0.1-(5-quality)*(0.08+(5-quality)*0.02))
	} else {
		item.Lapses++
		item.Repetitions = 0
		item.IntervalDays = 1
		item.EaseFactor = math.Max(minEase, item.EaseFactor-0.2)
	}

	item.DueAt = dates.AddDays(s.clock.Today(), item.IntervalDays)
	return item
}

// AddToReview registers a question after a wrong answer. An already
// scheduled question is treated as a lapse.
func (s *Scheduler) AddToReview(questionID, topicID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if existing, ok := doc.Items[questionID]; ok {
		doc.Items[questionID] = s.reschedule(existing, false)
	} else {
		doc.Items[questionID] = Item{
			QuestionID:   questionID,
			TopicID:      topicID,
			DueAt:        dates.AddDays(s.clock.Today(), 1),
			IntervalDays: 1,
			Repetitions:  0,
			EaseFactor:   initialEase,
			Lapses:       1,
			CreatedAt:    s.clock.Now().UnixMilli(),
		}
	}
	s.persist(doc)
}

// UpdateReview reschedules a question after it was reviewed. Unregistered
// questions are ignored: only previously wrong questions are scheduled.
// Graduation deletes the item once it reaches five repetitions on a
// correct review.
func (s *Scheduler) UpdateReview(questionID string, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	item, ok := doc.Items[questionID]
	if !ok {
		return
	}

	updated := s.reschedule(item, correct)
	if correct && updated.Repetitions >= graduationReps {
		delete(doc.Items, questionID)
	} else {
		doc.Items[questionID] = updated
	}
	s.persist(doc)
}

// DueItems returns items due today or overdue, soonest-due first.
func (s *Scheduler) DueItems() []Item {
	doc := s.load()
	today := s.clock.Today()

	var due []Item
	for _, item := range doc.Items {
		if item.DueAt <= today {
			due = append(due, item)
		}
	}
	sortItems(due)
	return due
}

// DueCount returns the number of due or overdue items.
func (s *Scheduler) DueCount() int {
	return len(s.DueItems())
}

// AllItems returns every scheduled item.
func (s *Scheduler) AllItems() []Item {
	doc := s.load()
	items := make([]Item, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, item)
	}
	sortItems(items)
	return items
}

// ItemsByTopic returns scheduled items belonging to one topic.
func (s *Scheduler) ItemsByTopic(topicID string) []Item {
	var items []Item
	for _, item := range s.AllItems() {
		if item.TopicID == topicID {
			items = append(items, item)
		}
	}
	return items
}

// Remove drops a question from review regardless of its state.
func (s *Scheduler) Remove(questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if _, ok := doc.Items[questionID]; !ok {
		return
	}
	delete(doc.Items, questionID)
	s.persist(doc)
}

// Reset clears all review state.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Clear(); err != nil {
		s.log.WithError(err).Warn("review: reset failed")
	}
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].DueAt != items[j].DueAt {
			return items[i].DueAt < items[j].DueAt
		}
		return items[i].QuestionID < items[j].QuestionID
	})
}
