package review

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/store"
)

func newTestScheduler(t *testing.T, day string) (*Scheduler, *dates.Fake) {
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

func item(t *testing.T, s *Scheduler, questionID string) Item {
	t.Helper()
	for _, it := range s.AllItems() {
		if it.QuestionID == questionID {
			return it
		}
	}
	t.Fatalf("item %s not found", questionID)
	return Item{}
}

func TestAddToReview_CreatesItem(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")

	it := item(t, s, "q1")
	if it.IntervalDays != 1 || it.Repetitions != 0 || it.Lapses != 1 {
		t.Errorf("item = %+v, want interval 1, reps 0, lapses 1", it)
	}
	if it.EaseFactor != 2.5 {
		t.Errorf("EaseFactor = %v, want 2.5", it.EaseFactor)
	}
	if it.DueAt != "2026-02-20" {
		t.Errorf("DueAt = %s, want 2026-02-20", it.DueAt)
	}
}

func TestAddToReview_ExistingItemIsLapse(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")
	s.AddToReview("q1", "t-bien-bao")

	it := item(t, s, "q1")
	if it.Lapses != 2 {
		t.Errorf("Lapses = %d, want 2", it.Lapses)
	}
	if it.Repetitions != 0 || it.IntervalDays != 1 {
		t.Errorf("item = %+v, want reps 0 and interval 1 after lapse", it)
	}
	if math.Abs(it.EaseFactor-2.3) > 1e-9 {
		t.Errorf("EaseFactor = %v, want 2.3", it.EaseFactor)
	}
}

func TestUpdateReview_AbsentItemIsNoop(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.UpdateReview("missing", true)

	if n := len(s.AllItems()); n != 0 {
		t.Errorf("items = %d, want 0", n)
	}
}

func TestUpdateReview_FixedEarlyIntervals(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")

	s.UpdateReview("q1", true)
	if it := item(t, s, "q1"); it.IntervalDays != 1 || it.Repetitions != 1 {
		t.Errorf("after 1st correct: %+v, want interval 1, reps 1", it)
	}

	s.UpdateReview("q1", true)
	if it := item(t, s, "q1"); it.IntervalDays != 3 || it.Repetitions != 2 {
		t.Errorf("after 2nd correct: %+v, want interval 3, reps 2", it)
	}

	// Third correct review switches to interval * ease.
	s.UpdateReview("q1", true)
	it := item(t, s, "q1")
	if it.Repetitions != 3 {
		t.Errorf("Repetitions = %d, want 3", it.Repetitions)
	}
	// ease stayed 2.5 (quality 4 adjustment is zero), round(3 * 2.5) = 8.
	if it.IntervalDays != 8 {
		t.Errorf("IntervalDays = %d, want 8", it.IntervalDays)
	}
}

func TestUpdateReview_LapseReset(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")
	s.UpdateReview("q1", true)
	s.UpdateReview("q1", true)
	s.UpdateReview("q1", true)

	before := item(t, s, "q1")
	if before.Repetitions != 3 {
		t.Fatalf("Repetitions = %d, want 3 before lapse", before.Repetitions)
	}

	s.UpdateReview("q1", false)
	it := item(t, s, "q1")
	if it.Repetitions != 0 || it.IntervalDays != 1 {
		t.Errorf("after lapse: %+v, want reps 0, interval 1", it)
	}
	if math.Abs(it.EaseFactor-(before.EaseFactor-0.2)) > 1e-9 {
		t.Errorf("EaseFactor = %v, want %v", it.EaseFactor, before.EaseFactor-0.2)
	}
	if it.DueAt != "2026-02-20" {
		t.Errorf("DueAt = %s, want 2026-02-20", it.DueAt)
	}
}

func TestUpdateReview_EaseFloor(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")

	// Lapse repeatedly: ease drops 0.2 per lapse but never below 1.3.
	for i := 0; i < 10; i++ {
		s.UpdateReview("q1", false)
	}
	if it := item(t, s, "q1"); it.EaseFactor != 1.3 {
		t.Errorf("EaseFactor = %v, want floor 1.3", it.EaseFactor)
	}
}

func TestGraduation_RemovedAfterFiveCorrect(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")

	for i := 0; i < 5; i++ {
		s.UpdateReview("q1", true)
	}
	if n := len(s.AllItems()); n != 0 {
		t.Errorf("items after graduation = %d, want 0", n)
	}
}

func TestGraduation_WrongAnswerReRegisters(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")
	for i := 0; i < 5; i++ {
		s.UpdateReview("q1", true)
	}

	s.AddToReview("q1", "t-bien-bao")
	it := item(t, s, "q1")
	if it.Repetitions != 0 || it.EaseFactor != 2.5 {
		t.Errorf("re-registered item = %+v, want a fresh item", it)
	}
}

func TestDueItems_InclusiveOfToday(t *testing.T) {
	s, clock := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao") // due 2026-02-20
	s.AddToReview("q2", "t-khai-niem")

	if n := len(s.DueItems()); n != 0 {
		t.Errorf("due before due date = %d, want 0", n)
	}

	clock.Advance(1)
	if n := len(s.DueItems()); n != 2 {
		t.Errorf("due on due date = %d, want 2", n)
	}

	clock.Advance(3)
	if n := len(s.DueItems()); n != 2 {
		t.Errorf("overdue items = %d, want 2", n)
	}
}

func TestItemsByTopic(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")
	s.AddToReview("q2", "t-khai-niem")
	s.AddToReview("q3", "t-bien-bao")

	items := s.ItemsByTopic("t-bien-bao")
	if len(items) != 2 {
		t.Errorf("ItemsByTopic = %d items, want 2", len(items))
	}
}

func TestRemoveAndReset(t *testing.T) {
	s, _ := newTestScheduler(t, "2026-02-19")
	s.AddToReview("q1", "t-bien-bao")
	s.AddToReview("q2", "t-bien-bao")

	s.Remove("q1")
	if n := len(s.AllItems()); n != 1 {
		t.Errorf("items after Remove = %d, want 1", n)
	}

	s.Reset()
	if n := len(s.AllItems()); n != 0 {
		t.Errorf("items after Reset = %d, want 0", n)
	}
}
