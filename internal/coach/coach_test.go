package coach

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/outbox"
)

type recordingSyncer struct {
	summaries []outbox.AISummary
}

func (r *recordingSyncer) SyncAISummary(sum outbox.AISummary) {
	r.summaries = append(r.summaries, sum)
}

func quietLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

var validDiagnostic = json.RawMessage(`{
	"passProbability": 72,
	"strengths": ["Biển báo đường bộ"],
	"weaknesses": ["Câu hỏi điểm liệt"],
	"todayPlan": ["Ôn 10 câu điểm liệt", "Làm 1 đề thi thử"]
}`)

func TestDiagnose_ParsesAndSyncs(t *testing.T) {
	provider := NewMockProvider(MockResponse{Content: validDiagnostic})
	syncer := &recordingSyncer{}
	svc := New(provider, syncer, quietLog())

	diag, err := svc.Diagnose(context.Background(), StudyState{
		Answered: 300, Correct: 240, Accuracy: 80, StreakDays: 5,
	})
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	if diag.PassProbability != 72 {
		t.Errorf("PassProbability = %d, want 72", diag.PassProbability)
	}
	if len(diag.TodayPlan) != 2 {
		t.Errorf("TodayPlan has %d items, want 2", len(diag.TodayPlan))
	}
	if len(syncer.summaries) != 1 {
		t.Fatalf("got %d AI summaries, want 1", len(syncer.summaries))
	}
	if syncer.summaries[0].PassProbability != 72 {
		t.Errorf("synced PassProbability = %d, want 72", syncer.summaries[0].PassProbability)
	}
}

func TestDiagnose_RejectsSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `not json`},
		{"probability out of range", `{"passProbability":140,"strengths":[],"weaknesses":[],"todayPlan":["x"]}`},
		{"empty plan", `{"passProbability":50,"strengths":[],"weaknesses":[],"todayPlan":[]}`},
		{"missing field", `{"passProbability":50,"strengths":[],"weaknesses":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := NewMockProvider(MockResponse{Content: json.RawMessage(tc.raw)})
			svc := New(provider, nil, quietLog())

			_, err := svc.Diagnose(context.Background(), StudyState{})
			var invResp *ErrInvalidResponse
			if !errors.As(err, &invResp) {
				t.Errorf("err = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestDiagnose_NilSyncer(t *testing.T) {
	provider := NewMockProvider(MockResponse{Content: validDiagnostic})
	svc := New(provider, nil, quietLog())

	if _, err := svc.Diagnose(context.Background(), StudyState{}); err != nil {
		t.Fatalf("Diagnose without syncer: %v", err)
	}
}

func TestWithRetry_TransientThenSuccess(t *testing.T) {
	provider := NewMockProvider(
		MockResponse{Err: &ErrUnavailable{Err: errors.New("upstream down")}},
		MockResponse{Content: validDiagnostic},
	)
	retrying := WithRetry(provider, RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
		Multiplier:  1,
	})
	svc := New(retrying, nil, quietLog())

	diag, err := svc.Diagnose(context.Background(), StudyState{})
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if diag.PassProbability != 72 {
		t.Errorf("PassProbability = %d, want 72", diag.PassProbability)
	}
	if provider.CallCount() != 2 {
		t.Errorf("provider called %d times, want 2", provider.CallCount())
	}
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	provider := NewMockProvider()
	retrying := WithRetry(provider, RetryConfig{
		MaxAttempts: 2,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
		Multiplier:  1,
	})

	_, err := retrying.Generate(context.Background(), Request{Prompt: "x"})
	var unavail *ErrUnavailable
	if !errors.As(err, &unavail) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if provider.CallCount() != 2 {
		t.Errorf("provider called %d times, want 2", provider.CallCount())
	}
}

func TestWithRetry_ContextCancelNotRetried(t *testing.T) {
	provider := NewMockProvider(MockResponse{Err: context.Canceled})
	retrying := WithRetry(provider, DefaultRetryConfig())

	_, err := retrying.Generate(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if provider.CallCount() != 1 {
		t.Errorf("provider called %d times, want 1", provider.CallCount())
	}
}
