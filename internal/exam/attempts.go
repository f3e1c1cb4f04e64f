// Package exam keeps the mock-exam attempt log and derives weak topics
// from recent results.
package exam

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/outbox"
	"github.com/thayduy/lythuyet/internal/store"
	"github.com/thayduy/lythuyet/internal/topic"
)

// SlotKey is the durable key owned by this store.
const SlotKey = "mock_attempts"

const (
	// maxAttempts caps the log; oldest attempts are dropped first.
	maxAttempts = 20

	// recentWindow is how many finished attempts feed weak-topic
	// aggregation.
	recentWindow = 5

	// weakThreshold is the accuracy percentage below which a topic
	// counts as weak.
	weakThreshold = 70
)

// Response is one graded answer inside an attempt. AnswerID is empty for
// questions left unanswered.
type Response struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
	TopicID    string `json:"topicId"`
	Correct    bool   `json:"correct"`
}

// TopicBreakdown is per-topic accuracy within a result, listed weakest
// first.
type TopicBreakdown struct {
	TopicID   string `json:"topicId"`
	TopicName string `json:"topicName"`
	Correct   int    `json:"correct"`
	Total     int    `json:"total"`
	Accuracy  int    `json:"accuracy"` // 0-100
}

// Result is the outcome of a finished attempt.
type Result struct {
	Total          int              `json:"total"`
	Correct        int              `json:"correct"`
	Wrong          int              `json:"wrong"`
	ScorePercent   int              `json:"scorePercent"`
	Passed         bool             `json:"passed"`
	TopicBreakdown []TopicBreakdown `json:"topicBreakdown"`
}

// Attempt is one mock exam, finished or not. Result stays nil until
// FinishAttempt runs.
type Attempt struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`       // license class, e.g. "B"
	StartedAt     int64      `json:"startedAt"`  // epoch ms
	FinishedAt    int64      `json:"finishedAt"` // epoch ms, 0 while running
	TimeLimitMin  int        `json:"timeLimitMin"`
	PassThreshold int        `json:"passThreshold"`
	QuestionCount int        `json:"questionCount"`
	Responses     []Response `json:"responses"`
	Result        *Result    `json:"result"`
}

type document struct {
	Attempts []Attempt `json:"attempts"`
}

// Syncer receives the finish side effects. Satisfied by *outbox.Engine.
type Syncer interface {
	SyncAttemptSummary(sum outbox.AttemptSummary)
	SyncEvent(eventType string, payload map[string]any)
}

// AttemptStore owns the attempt-log slot.
type AttemptStore struct {
	mu     sync.Mutex
	slot   *store.Slot[document]
	clock  dates.Clock
	log    logrus.FieldLogger
	syncer Syncer
}

// New creates an AttemptStore. syncer may be nil for local-only use.
func New(s *store.Store, clock dates.Clock, log logrus.FieldLogger, syncer Syncer) *AttemptStore {
	return &AttemptStore{
		slot:   store.NewSlot[document](s, SlotKey),
		clock:  clock,
		log:    log,
		syncer: syncer,
	}
}

func (a *AttemptStore) load() document {
	doc, err := a.slot.Load()
	if err != nil {
		a.log.WithError(err).Debug("exam: load failed, starting empty")
	}
	return doc
}

func (a *AttemptStore) persist(doc document) {
	if err := a.slot.Save(doc); err != nil {
		a.log.WithError(err).Warn("exam: save failed, keeping in-memory state only")
	}
}

// CreateAttempt appends a fresh unfinished attempt and returns its ID.
func (a *AttemptStore) CreateAttempt(examType string, questionCount, timeLimitMin, passThreshold int) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := a.load()
	id := "mock_" + uuid.NewString()
	doc.Attempts = append(doc.Attempts, Attempt{
		ID:            id,
		Type:          examType,
		StartedAt:     a.clock.Now().UnixMilli(),
		TimeLimitMin:  timeLimitMin,
		PassThreshold: passThreshold,
		QuestionCount: questionCount,
	})

	if len(doc.Attempts) > maxAttempts {
		doc.Attempts = doc.Attempts[len(doc.Attempts)-maxAttempts:]
	}
	a.persist(doc)
	return id
}

// FinishAttempt grades an attempt: per-topic breakdown sorted weakest
// first, overall score, pass/fail against the attempt's threshold.
// Returns false for an unknown attempt ID. Calling it again overwrites
// the previous result.
func (a *AttemptStore) FinishAttempt(attemptID string, responses []Response) (*Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := a.load()
	idx := -1
	for i := range doc.Attempts {
		if doc.Attempts[i].ID == attemptID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	attempt := &doc.Attempts[idx]
	attempt.FinishedAt = a.clock.Now().UnixMilli()
	attempt.Responses = responses

	result := grade(responses, attempt.PassThreshold)
	attempt.Result = &result
	a.persist(doc)

	a.fireFinish(*attempt, result)
	return &result, true
}

func grade(responses []Response, passThreshold int) Result {
	type tally struct{ correct, total int }
	byTopic := map[string]*tally{}
	correct := 0

	for _, r := range responses {
		t := byTopic[r.TopicID]
		if t == nil {
			t = &tally{}
			byTopic[r.TopicID] = t
		}
		t.total++
		if r.Correct {
			t.correct++
			correct++
		}
	}

	breakdown := make([]TopicBreakdown, 0, len(byTopic))
	for id, t := range byTopic {
		breakdown = append(breakdown, TopicBreakdown{
			TopicID:   id,
			TopicName: topic.Name(id),
			Correct:   t.correct,
			Total:     t.total,
			Accuracy:  percent(t.correct, t.total),
		})
	}
	// Weakest topics first; consumers depend on this ordering.
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Accuracy != breakdown[j].Accuracy {
			return breakdown[i].Accuracy < breakdown[j].Accuracy
		}
		return breakdown[i].TopicID < breakdown[j].TopicID
	})

	return Result{
		Total:          len(responses),
		Correct:        correct,
		Wrong:          len(responses) - correct,
		ScorePercent:   percent(correct, len(responses)),
		Passed:         correct >= passThreshold,
		TopicBreakdown: breakdown,
	}
}

func (a *AttemptStore) fireFinish(attempt Attempt, result Result) {
	if a.syncer == nil {
		return
	}

	// The default class B exam reports as MOCK; other license classes
	// keep their class as the mode.
	mode := attempt.Type
	if mode == "B" {
		mode = "MOCK"
	}

	a.syncer.SyncAttemptSummary(outbox.AttemptSummary{
		Mode:       mode,
		StartedAt:  dates.FormatMilli(attempt.StartedAt),
		FinishedAt: dates.FormatMilli(attempt.FinishedAt),
		Score:      result.Correct,
		Total:      result.Total,
		Accuracy:   result.ScorePercent,
		TopicBreakdown: lo.Map(result.TopicBreakdown, func(tb TopicBreakdown, _ int) outbox.AttemptTopic {
			return outbox.AttemptTopic{
				TopicID:  tb.TopicID,
				Total:    tb.Total,
				Correct:  tb.Correct,
				Accuracy: tb.Accuracy,
			}
		}),
	})
	a.syncer.SyncEvent("MOCK_FINISHED", map[string]any{
		"score":  result.Correct,
		"total":  result.Total,
		"passed": result.Passed,
	})
}

// Attempts returns the log newest first.
func (a *AttemptStore) Attempts() []Attempt {
	doc := a.load()
	out := make([]Attempt, len(doc.Attempts))
	for i, att := range doc.Attempts {
		out[len(doc.Attempts)-1-i] = att
	}
	return out
}

// LatestResult returns the most recent finished result, false when none.
func (a *AttemptStore) LatestResult() (*Result, bool) {
	doc := a.load()
	for i := len(doc.Attempts) - 1; i >= 0; i-- {
		if doc.Attempts[i].Result != nil {
			return doc.Attempts[i].Result, true
		}
	}
	return nil, false
}

// WeakTopics aggregates per-topic accuracy across the last finished
// attempts and returns topics under the weak threshold, weakest first.
func (a *AttemptStore) WeakTopics() []TopicBreakdown {
	doc := a.load()

	finished := lo.Filter(doc.Attempts, func(att Attempt, _ int) bool {
		return att.Result != nil
	})
	if len(finished) > recentWindow {
		finished = finished[len(finished)-recentWindow:]
	}

	type tally struct{ correct, total int }
	combined := map[string]*tally{}
	for _, att := range finished {
		for _, tb := range att.Result.TopicBreakdown {
			t := combined[tb.TopicID]
			if t == nil {
				t = &tally{}
				combined[tb.TopicID] = t
			}
			t.correct += tb.Correct
			t.total += tb.Total
		}
	}

	var weak []TopicBreakdown
	for id, t := range combined {
		acc := percent(t.correct, t.total)
		if acc < weakThreshold {
			weak = append(weak, TopicBreakdown{
				TopicID:   id,
				TopicName: topic.Name(id),
				Correct:   t.correct,
				Total:     t.total,
				Accuracy:  acc,
			})
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		if weak[i].Accuracy != weak[j].Accuracy {
			return weak[i].Accuracy < weak[j].Accuracy
		}
		return weak[i].TopicID < weak[j].TopicID
	})
	return weak
}

// Reset clears the attempt log.
func (a *AttemptStore) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.slot.Clear(); err != nil {
		a.log.WithError(err).Warn("exam: reset failed")
	}
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(float64(part)/float64(whole)*100 + 0.5)
}
