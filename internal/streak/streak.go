// Package streak counts consecutive days of study activity.
package streak

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/store"
)

// SlotKey is the durable key owned by this tracker.
const SlotKey = "streak"

// State is the singleton streak document.
type State struct {
	CurrentStreak  int    `json:"currentStreak"`
	LongestStreak  int    `json:"longestStreak"`
	LastActiveDate string `json:"lastActiveDate"` // calendar date key, "" = never
}

// Tracker owns the streak slot.
type Tracker struct {
	mu    sync.Mutex
	slot  *store.Slot[State]
	clock dates.Clock
	log   logrus.FieldLogger
}

// New creates a Tracker.
func New(s *store.Store, clock dates.Clock, log logrus.FieldLogger) *Tracker {
	return &Tracker{
		slot:  store.NewSlot[State](s, SlotKey),
		clock: clock,
		log:   log,
	}
}

func (t *Tracker) load() State {
	st, err := t.slot.Load()
	if err != nil {
		t.log.WithError(err).Debug("streak: load failed, starting empty")
	}
	return st
}

// RecordActivity bumps the streak for today. Idempotent per calendar day:
// the first call on a new day mutates, every later call is a no-op.
func (t *Tracker) RecordActivity() {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.clock.Today()
	st := t.load()

	if st.LastActiveDate == today {
		return
	}

	switch st.LastActiveDate {
	case t.clock.Yesterday():
		st.CurrentStreak++
	default:
		// First ever, or gap of more than one day.
		st.CurrentStreak = 1
	}

	if st.CurrentStreak > st.LongestStreak {
		st.LongestStreak = st.CurrentStreak
	}
	st.LastActiveDate = today

	if err := t.slot.Save(st); err != nil {
		t.log.WithError(err).Warn("streak: save failed, keeping in-memory state only")
	}
}

// Streak returns the current state. A streak broken by inactivity reads as
// zero without mutating the stored value; the stored counter is corrected
// lazily on the next RecordActivity.
func (t *Tracker) Streak() State {
	st := t.load()
	if st.LastActiveDate != t.clock.Today() && st.LastActiveDate != t.clock.Yesterday() {
		st.CurrentStreak = 0
	}
	return st
}

// Reset clears the streak state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.slot.Clear(); err != nil {
		t.log.WithError(err).Warn("streak: reset failed")
	}
}
