package streak

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/store"
)

func newTestTracker(t *testing.T, day string) (*Tracker, *dates.Fake) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	clock := dates.NewFake(day)
	return New(s, clock, log), clock
}

func TestRecordActivity_FirstEver(t *testing.T) {
	tr, _ := newTestTracker(t, "2026-02-19")
	tr.RecordActivity()

	st := tr.Streak()
	if st.CurrentStreak != 1 || st.LongestStreak != 1 {
		t.Errorf("streak = %d/%d, want 1/1", st.CurrentStreak, st.LongestStreak)
	}
	if st.LastActiveDate != "2026-02-19" {
		t.Errorf("LastActiveDate = %s, want 2026-02-19", st.LastActiveDate)
	}
}

func TestRecordActivity_IdempotentSameDay(t *testing.T) {
	tr, _ := newTestTracker(t, "2026-02-19")
	tr.RecordActivity()
	tr.RecordActivity()

	if st := tr.Streak(); st.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1 after two same-day calls", st.CurrentStreak)
	}
}

func TestRecordActivity_ConsecutiveDay(t *testing.T) {
	tr, clock := newTestTracker(t, "2026-02-19")
	tr.RecordActivity()
	clock.Advance(1)
	tr.RecordActivity()
	clock.Advance(1)
	tr.RecordActivity()
	clock.Advance(1)
	tr.RecordActivity()
	clock.Advance(1)
	tr.RecordActivity()

	st := tr.Streak()
	if st.CurrentStreak != 5 {
		t.Errorf("CurrentStreak = %d, want 5", st.CurrentStreak)
	}
	if st.LongestStreak < 5 {
		t.Errorf("LongestStreak = %d, want >= 5", st.LongestStreak)
	}
}

func TestRecordActivity_GapResetsToOne(t *testing.T) {
	tr, clock := newTestTracker(t, "2026-02-19")
	for i := 0; i < 7; i++ {
		tr.RecordActivity()
		clock.Advance(1)
	}
	if st := tr.Streak(); st.CurrentStreak != 7 {
		t.Fatalf("CurrentStreak = %d, want 7", st.CurrentStreak)
	}

	clock.Advance(2) // 3 days since last activity
	tr.RecordActivity()

	st := tr.Streak()
	if st.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1 after gap", st.CurrentStreak)
	}
	if st.LongestStreak != 7 {
		t.Errorf("LongestStreak = %d, want 7 unchanged", st.LongestStreak)
	}
}

func TestStreak_LazyZeroWithoutMutation(t *testing.T) {
	tr, clock := newTestTracker(t, "2026-02-19")
	tr.RecordActivity()

	clock.Advance(3)
	if st := tr.Streak(); st.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0 reported after gap", st.CurrentStreak)
	}

	// The stored value is untouched: stepping back shows it again.
	clock.Advance(-3)
	if st := tr.Streak(); st.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want stored 1", st.CurrentStreak)
	}
}

func TestStreak_ValidYesterday(t *testing.T) {
	tr, clock := newTestTracker(t, "2026-02-19")
	tr.RecordActivity()
	clock.Advance(1)

	if st := tr.Streak(); st.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1 when last active yesterday", st.CurrentStreak)
	}
}
