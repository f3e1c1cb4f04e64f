// Package app wires every learning-state store, the sync engine and the
// CRM push into one composition root.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/bookmark"
	"github.com/thayduy/lythuyet/internal/coach"
	"github.com/thayduy/lythuyet/internal/config"
	"github.com/thayduy/lythuyet/internal/crm"
	"github.com/thayduy/lythuyet/internal/daily"
	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/exam"
	"github.com/thayduy/lythuyet/internal/outbox"
	"github.com/thayduy/lythuyet/internal/progress"
	"github.com/thayduy/lythuyet/internal/question"
	"github.com/thayduy/lythuyet/internal/review"
	"github.com/thayduy/lythuyet/internal/store"
	"github.com/thayduy/lythuyet/internal/streak"
	"github.com/thayduy/lythuyet/internal/topic"
)

const (
	// crmDebounce coalesces bursts of progress mutations into one push.
	crmDebounce = 5 * time.Second
	// crmMaxPostpone bounds how long a steady burst can postpone the push.
	crmMaxPostpone = 30 * time.Second
)

// App is the composition root. All fields are ready after New.
type App struct {
	Config config.Config
	Log    *logrus.Logger
	Clock  dates.Clock

	Store     *store.Store
	Identity  *crm.Identity
	Outbox    *outbox.Engine
	Progress  *progress.Store
	Review    *review.Scheduler
	Streak    *streak.Tracker
	Daily     *daily.Builder
	Exam      *exam.AttemptStore
	Bookmarks *bookmark.Store

	// Catalog is nil when no dataset path is configured.
	Catalog *question.Catalog
	// Coach is nil when no API key is configured.
	Coach *coach.Service

	crmDebouncer *crm.Debouncer
}

// nopPusher accepts every item without network traffic; used when no
// sync URL is configured so the outbox drains instead of growing.
type nopPusher struct{}

func (nopPusher) Push(context.Context, outbox.Item) error { return nil }

// New builds the full application graph.
func New(cfg config.Config) (*App, error) {
	log := cfg.Logger()
	clock := dates.NewClock()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		Config: cfg,
		Log:    log,
		Clock:  clock,
		Store:  st,
	}

	a.Identity = crm.NewIdentity(st, clock, log)

	var pusher outbox.Pusher = nopPusher{}
	if cfg.SyncPushURL != "" {
		pusher = outbox.NewHTTPPusher(cfg.SyncPushURL, nil)
	}
	a.Outbox = outbox.New(st, pusher, a.Identity, clock, log, outbox.Config{})

	if cfg.CRMProgressURL != "" {
		progressPusher := crm.NewProgressPusher(cfg.CRMProgressURL, nil, a.Identity, log)
		a.crmDebouncer = crm.NewDebouncer(crmDebounce, crmMaxPostpone, func() {
			progressPusher.Push(context.Background(), a.Progress, a.Streak.Streak().CurrentStreak)
		})
	}

	a.Progress = progress.New(st, clock, log, func() {
		if a.crmDebouncer != nil {
			a.crmDebouncer.Trigger()
		}
	})
	a.Review = review.New(st, clock, log)
	a.Streak = streak.New(st, clock, log)
	a.Exam = exam.New(st, clock, log, a.Outbox)
	a.Daily = daily.New(st, clock, log, a.Outbox, a.dailySnapshot)
	a.Bookmarks = bookmark.New(st, log)

	if cfg.QuestionsPath != "" {
		catalog, err := question.Load(cfg.QuestionsPath)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("load question dataset: %w", err)
		}
		a.Catalog = catalog
	}

	if cfg.OpenAI.APIKey != "" {
		provider, err := coach.NewOpenAIProvider(cfg.OpenAI)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init coach provider: %w", err)
		}
		a.Coach = coach.New(coach.WithRetry(provider, coach.DefaultRetryConfig()), a.Outbox, log)
	}

	return a, nil
}

// Start installs the background sync triggers.
func (a *App) Start(ctx context.Context) {
	a.Outbox.Start(ctx)
}

// Close tears down background work and the store. Pending debounced CRM
// pushes are dropped, not flushed.
func (a *App) Close() error {
	if a.crmDebouncer != nil {
		a.crmDebouncer.Stop()
	}
	a.Outbox.Stop()
	return a.Store.Close()
}

// RecordAnswer is the single write path for a graded practice answer: it
// updates progress, the review schedule, the streak and today's session.
func (a *App) RecordAnswer(questionID, topicID string, correct bool) {
	a.Progress.SaveAnswer(questionID, topicID, correct)
	if correct {
		a.Review.UpdateReview(questionID, true)
	} else {
		a.Review.AddToReview(questionID, topicID)
	}
	a.Streak.RecordActivity()
	a.Daily.MarkCompleted(questionID)
}

// FinishMock grades a mock attempt and folds its answers back into
// progress and review state.
func (a *App) FinishMock(attemptID string, responses []exam.Response) (*exam.Result, bool) {
	result, ok := a.Exam.FinishAttempt(attemptID, responses)
	if !ok {
		return nil, false
	}

	batch := lo.Map(responses, func(r exam.Response, _ int) progress.AnswerResult {
		return progress.AnswerResult{
			QuestionID: r.QuestionID,
			TopicID:    r.TopicID,
			Correct:    r.Correct,
		}
	})
	a.Progress.SaveAnswersBatch(batch)
	for _, r := range responses {
		if r.Correct {
			a.Review.UpdateReview(r.QuestionID, true)
		} else {
			a.Review.AddToReview(r.QuestionID, r.TopicID)
		}
	}
	a.Streak.RecordActivity()
	return result, true
}

// BuildDailySession returns today's session, assembling and storing a new
// one from due reviews, weak questions and the rest of the bank when none
// exists yet.
func (a *App) BuildDailySession() []string {
	if session, ok := a.Daily.TodaySession(); ok {
		return session.QuestionIDs
	}

	dueIDs := lo.Map(a.Review.DueItems(), func(it review.Item, _ int) string {
		return it.QuestionID
	})

	weakIDs := a.weakQuestionIDs()

	var allIDs []string
	if a.Catalog != nil {
		allIDs = lo.Map(a.Catalog.All(), func(q question.Question, _ int) string {
			return q.ID
		})
	}

	ids := a.Daily.BuildSession(dueIDs, weakIDs, allIDs, daily.DefaultCount)
	a.Daily.SaveTodaySession(ids)
	return ids
}

// weakQuestionIDs expands the two weakest mock-exam topics into their
// question IDs via the catalog. Without a catalog it falls back to the
// currently-wrong questions, the only weak pool resolvable offline.
func (a *App) weakQuestionIDs() []string {
	if a.Catalog == nil {
		return a.Progress.WrongQuestionIDs()
	}

	weak := a.Exam.WeakTopics()
	if len(weak) > 2 {
		weak = weak[:2]
	}

	var ids []string
	for _, wt := range weak {
		page := a.Catalog.GetQuestions(question.Query{TopicID: wt.TopicID, Mode: question.ModePractice})
		ids = append(ids, lo.Map(page.Questions, func(q question.Question, _ int) string {
			return q.ID
		})...)
	}
	return ids
}

// StudyState aggregates current state for an AI diagnosis.
func (a *App) StudyState() coach.StudyState {
	overall := a.Progress.OverallStats()

	topics := make([]coach.TopicAccuracy, 0, len(topic.IDs()))
	for _, id := range topic.IDs() {
		ts := a.Progress.TopicStats(id)
		if ts.Answered == 0 {
			continue
		}
		topics = append(topics, coach.TopicAccuracy{
			TopicID:   id,
			TopicName: topic.Name(id),
			Answered:  ts.Answered,
			Accuracy:  percent(ts.Correct, ts.Answered),
		})
	}

	state := coach.StudyState{
		Answered:   overall.Answered,
		Correct:    overall.Correct,
		Accuracy:   a.Progress.AccuracyRate(),
		StreakDays: a.Streak.Streak().CurrentStreak,
		DueReviews: a.Review.DueCount(),
		Topics:     topics,
	}
	if result, ok := a.Exam.LatestResult(); ok {
		verdict := "rớt"
		if result.Passed {
			verdict = "đậu"
		}
		state.LatestMockNote = fmt.Sprintf("%d/%d câu đúng, %s", result.Correct, result.Total, verdict)
	}
	return state
}

// dailySnapshot assembles the aggregate snapshot pushed on daily-session
// completion.
func (a *App) dailySnapshot() outbox.DailySnapshot {
	overall := a.Progress.OverallStats()
	st := a.Streak.Streak()

	weak := lo.Map(a.Exam.WeakTopics(), func(tb exam.TopicBreakdown, _ int) outbox.WeakTopic {
		return outbox.WeakTopic{TopicID: tb.TopicID, Accuracy: tb.Accuracy}
	})
	if len(weak) > 3 {
		weak = weak[:3]
	}

	return outbox.DailySnapshot{
		QuestionsAnswered: overall.Answered,
		Correct:           overall.Correct,
		Accuracy:          a.Progress.AccuracyRate(),
		StreakCurrent:     st.CurrentStreak,
		StreakLongest:     st.LongestStreak,
		DueCount:          a.Review.DueCount(),
		TopWeakTopics:     weak,
	}
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(float64(part)/float64(whole)*100 + 0.5)
}
