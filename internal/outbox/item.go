package outbox

import (
	"time"

	"github.com/google/uuid"
)

// ItemType routes an outbox item to its upstream CRM path.
type ItemType string

const (
	TypeDaily     ItemType = "daily"
	TypeAttempt   ItemType = "attempt"
	TypeAISummary ItemType = "ai-summary"
	TypeEvents    ItemType = "events"
)

// Item is one queued remote-bound write. Retries is owned exclusively by
// the engine's flush loop.
type Item struct {
	ID        string         `json:"id"`
	Type      ItemType       `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt string         `json:"createdAt"` // RFC 3339
	Retries   int            `json:"retries"`
}

func newItem(typ ItemType, payload map[string]any, now time.Time) Item {
	return Item{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   payload,
		CreatedAt: now.Format(time.RFC3339),
		Retries:   0,
	}
}

// WeakTopic is a topic with its recent accuracy, weakest first in any list.
type WeakTopic struct {
	TopicID  string `json:"topicId"`
	Accuracy int    `json:"accuracy"`
}

// DailySnapshot is the aggregate study snapshot pushed when a daily
// session completes.
type DailySnapshot struct {
	Minutes           int
	QuestionsAnswered int
	Correct           int
	Accuracy          int
	StreakCurrent     int
	StreakLongest     int
	DueCount          int
	TopWeakTopics     []WeakTopic
}

// AttemptTopic is one topic row of an attempt summary.
type AttemptTopic struct {
	TopicID  string `json:"topicId"`
	Total    int    `json:"total"`
	Correct  int    `json:"correct"`
	Accuracy int    `json:"accuracy"`
}

// AttemptSummary is the result of a finished mock attempt.
type AttemptSummary struct {
	Mode           string
	StartedAt      string
	FinishedAt     string
	Score          int
	Total          int
	Accuracy       int
	TopicBreakdown []AttemptTopic
}

// AISummary is a generated coach diagnostic.
type AISummary struct {
	PassProbability int
	Strengths       []string
	Weaknesses      []string
	TodayPlan       []string
}
