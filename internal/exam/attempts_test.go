package exam

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/outbox"
	"github.com/thayduy/lythuyet/internal/store"
)

type recordingSyncer struct {
	summaries []outbox.AttemptSummary
	events    []string
}

func (r *recordingSyncer) SyncAttemptSummary(sum outbox.AttemptSummary) {
	r.summaries = append(r.summaries, sum)
}

func (r *recordingSyncer) SyncEvent(eventType string, payload map[string]any) {
	r.events = append(r.events, eventType)
}

func newTestStore(t *testing.T) (*AttemptStore, *recordingSyncer) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	syncer := &recordingSyncer{}
	return New(s, dates.NewFake("2026-02-19"), log, syncer), syncer
}

func resp(questionID, topicID string, correct bool) Response {
	return Response{QuestionID: questionID, AnswerID: "a1", TopicID: topicID, Correct: correct}
}

func TestCreateAttempt_CapsAtTwenty(t *testing.T) {
	a, _ := newTestStore(t)

	var first string
	for i := 0; i < 21; i++ {
		id := a.CreateAttempt("B", 30, 20, 27)
		if i == 0 {
			first = id
		}
	}

	attempts := a.Attempts()
	if len(attempts) != 20 {
		t.Fatalf("len(Attempts) = %d, want 20", len(attempts))
	}
	for _, att := range attempts {
		if att.ID == first {
			t.Errorf("oldest attempt %s survived the cap", first)
		}
	}
}

func TestFinishAttempt_GradesAndSortsWeakestFirst(t *testing.T) {
	a, _ := newTestStore(t)
	id := a.CreateAttempt("B", 5, 20, 3)

	result, ok := a.FinishAttempt(id, []Response{
		resp("q1", "t-bien-bao", true),
		resp("q2", "t-bien-bao", true),
		resp("q3", "t-diem-liet", false),
		resp("q4", "t-diem-liet", false),
		resp("q5", "t-tinh-huong", true),
	})
	if !ok {
		t.Fatal("FinishAttempt returned ok = false")
	}

	if result.Correct != 3 || result.Wrong != 2 || result.Total != 5 {
		t.Errorf("result = %d/%d correct, total %d, want 3/2, 5", result.Correct, result.Wrong, result.Total)
	}
	if result.ScorePercent != 60 {
		t.Errorf("ScorePercent = %d, want 60", result.ScorePercent)
	}
	if !result.Passed {
		t.Error("Passed = false, want true with threshold 3")
	}

	got := make([]string, len(result.TopicBreakdown))
	for i, tb := range result.TopicBreakdown {
		got[i] = tb.TopicID
	}
	want := []string{"t-diem-liet", "t-bien-bao", "t-tinh-huong"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("breakdown order = %v, want %v", got, want)
		}
	}
}

func TestFinishAttempt_FailBelowThreshold(t *testing.T) {
	a, _ := newTestStore(t)
	id := a.CreateAttempt("B", 3, 20, 3)

	result, _ := a.FinishAttempt(id, []Response{
		resp("q1", "t-bien-bao", true),
		resp("q2", "t-bien-bao", true),
		resp("q3", "t-bien-bao", false),
	})
	if result.Passed {
		t.Error("Passed = true with 2 correct against threshold 3")
	}
}

func TestFinishAttempt_UnknownID(t *testing.T) {
	a, _ := newTestStore(t)

	if _, ok := a.FinishAttempt("mock_missing", nil); ok {
		t.Error("FinishAttempt on unknown ID returned ok = true")
	}
}

func TestFinishAttempt_FiresSyncOnce(t *testing.T) {
	a, syncer := newTestStore(t)
	id := a.CreateAttempt("B", 2, 20, 1)

	a.FinishAttempt(id, []Response{
		resp("q1", "t-bien-bao", true),
		resp("q2", "t-bien-bao", false),
	})

	if len(syncer.summaries) != 1 {
		t.Fatalf("got %d attempt summaries, want 1", len(syncer.summaries))
	}
	sum := syncer.summaries[0]
	if sum.Mode != "MOCK" || sum.Score != 1 || sum.Total != 2 || sum.Accuracy != 50 {
		t.Errorf("summary = %+v, want MOCK 1/2 at 50%%", sum)
	}
	if len(syncer.events) != 1 || syncer.events[0] != "MOCK_FINISHED" {
		t.Errorf("events = %v, want [MOCK_FINISHED]", syncer.events)
	}
}

func TestFinishAttempt_NonBClassKeepsModeName(t *testing.T) {
	a, syncer := newTestStore(t)
	id := a.CreateAttempt("A1", 1, 19, 1)

	a.FinishAttempt(id, []Response{resp("q1", "t-bien-bao", true)})

	if len(syncer.summaries) != 1 {
		t.Fatalf("got %d attempt summaries, want 1", len(syncer.summaries))
	}
	if got := syncer.summaries[0].Mode; got != "A1" {
		t.Errorf("Mode = %q, want A1", got)
	}
}

func TestLatestResult(t *testing.T) {
	a, _ := newTestStore(t)

	if _, ok := a.LatestResult(); ok {
		t.Error("LatestResult on empty log returned ok = true")
	}

	id1 := a.CreateAttempt("B", 1, 20, 1)
	a.FinishAttempt(id1, []Response{resp("q1", "t-bien-bao", false)})

	id2 := a.CreateAttempt("B", 1, 20, 1)
	a.FinishAttempt(id2, []Response{resp("q2", "t-bien-bao", true)})

	// A running attempt after the finished ones must not shadow them.
	a.CreateAttempt("B", 1, 20, 1)

	result, ok := a.LatestResult()
	if !ok {
		t.Fatal("LatestResult returned ok = false")
	}
	if result.Correct != 1 {
		t.Errorf("latest result Correct = %d, want 1 from the second attempt", result.Correct)
	}
}

func TestWeakTopics_ThresholdAndWindow(t *testing.T) {
	a, _ := newTestStore(t)

	// Old attempt: t-tinh-huong all wrong. Pushed outside the 5-attempt
	// window by the finished attempts below.
	old := a.CreateAttempt("B", 2, 20, 1)
	a.FinishAttempt(old, []Response{
		resp("q1", "t-tinh-huong", false),
		resp("q2", "t-tinh-huong", false),
	})

	for i := 0; i < 5; i++ {
		id := a.CreateAttempt("B", 3, 20, 1)
		a.FinishAttempt(id, []Response{
			resp("q1", "t-bien-bao", true),   // 100%, strong
			resp("q2", "t-diem-liet", false), // 0%, weak
			resp("q3", "t-tinh-huong", true), // 100% within window
		})
	}

	weak := a.WeakTopics()
	if len(weak) != 1 {
		t.Fatalf("WeakTopics = %+v, want exactly t-diem-liet", weak)
	}
	if weak[0].TopicID != "t-diem-liet" || weak[0].Accuracy != 0 {
		t.Errorf("weak topic = %+v, want t-diem-liet at 0%%", weak[0])
	}
}

func TestReset(t *testing.T) {
	a, _ := newTestStore(t)
	a.CreateAttempt("B", 1, 20, 1)

	a.Reset()

	if got := a.Attempts(); len(got) != 0 {
		t.Errorf("Attempts after Reset = %d, want 0", len(got))
	}
}
