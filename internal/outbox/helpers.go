package outbox

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// SyncDailySnapshot queues a daily aggregate snapshot.
func (e *Engine) SyncDailySnapshot(snap DailySnapshot) {
	now := e.clock.Now()
	e.Push(TypeDaily, map[string]any{
		"dateKey":           e.clock.Today(),
		"minutes":           snap.Minutes,
		"questionsAnswered": snap.QuestionsAnswered,
		"correct":           snap.Correct,
		"accuracy":          snap.Accuracy,
		"streakCurrent":     snap.StreakCurrent,
		"streakLongest":     snap.StreakLongest,
		"dueCount":          snap.DueCount,
		"topWeakTopics": lo.Map(snap.TopWeakTopics, func(w WeakTopic, _ int) map[string]any {
			return map[string]any{"topicId": w.TopicID, "accuracy": w.Accuracy}
		}),
		"lastActiveAt": now.Format(time.RFC3339),
	})
}

// SyncAttemptSummary queues a finished mock attempt summary.
func (e *Engine) SyncAttemptSummary(sum AttemptSummary) {
	e.Push(TypeAttempt, map[string]any{
		"attemptId":  "att_" + uuid.NewString(),
		"mode":       sum.Mode,
		"startedAt":  sum.StartedAt,
		"finishedAt": sum.FinishedAt,
		"score":      sum.Score,
		"total":      sum.Total,
		"accuracy":   sum.Accuracy,
		"topicBreakdown": lo.Map(sum.TopicBreakdown, func(tb AttemptTopic, _ int) map[string]any {
			return map[string]any{
				"topicId":  tb.TopicID,
				"total":    tb.Total,
				"correct":  tb.Correct,
				"accuracy": tb.Accuracy,
			}
		}),
	})
}

// SyncAISummary queues a coach diagnostic.
func (e *Engine) SyncAISummary(sum AISummary) {
	e.Push(TypeAISummary, map[string]any{
		"passProbability": sum.PassProbability,
		"strengths":       sum.Strengths,
		"weaknesses":      sum.Weaknesses,
		"todayPlan":       sum.TodayPlan,
		"generatedAt":     e.clock.Now().Format(time.RFC3339),
	})
}

// SyncEvent queues a domain event such as DAILY_COMPLETED or MOCK_FINISHED.
func (e *Engine) SyncEvent(eventType string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	e.Push(TypeEvents, map[string]any{
		"eventId":    "evt_" + uuid.NewString(),
		"type":       eventType,
		"occurredAt": e.clock.Now().Format(time.RFC3339),
		"payload":    payload,
	})
}
