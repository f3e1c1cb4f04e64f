// Package progress tracks per-question correctness history and derives
// topic and overall aggregates from it.
package progress

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/store"
	"github.com/thayduy/lythuyet/internal/topic"
)

// SlotKey is the durable key owned by this store.
const SlotKey = "progress"

// Answer is the outcome of the most recent answer to a question.
type Answer string

const (
	AnswerCorrect Answer = "correct"
	AnswerWrong   Answer = "wrong"
)

// QuestionRecord is the correctness history of one question.
type QuestionRecord struct {
	Correct    int    `json:"correct"`
	Wrong      int    `json:"wrong"`
	LastAnswer Answer `json:"lastAnswer"`
	LastAt     int64  `json:"lastAt"` // epoch ms
	TopicID    string `json:"topicId"`
}

type document struct {
	Questions map[string]QuestionRecord `json:"questions"`
}

// Stats aggregates answered-question counts against a fixed total.
type Stats struct {
	Total    int
	Answered int
	Correct  int
	Wrong    int
}

// AnswerResult is one graded answer, used for batch saves after an exam.
type AnswerResult struct {
	QuestionID string
	TopicID    string
	Correct    bool
}

// Store owns the per-question progress slot. Persistence is best effort:
// write failures are logged and swallowed so answering never fails in the
// caller's face.
type Store struct {
	mu       sync.Mutex
	slot     *store.Slot[document]
	clock    dates.Clock
	log      logrus.FieldLogger
	onChange func()
}

// New creates a Store. onChange fires after every persisted mutation; the
// caller wires it to the debounced CRM push so the mutation path itself
// stays network-free. A nil onChange is allowed.
func New(s *store.Store, clock dates.Clock, log logrus.FieldLogger, onChange func()) *Store {
	return &Store{
		slot:     store.NewSlot[document](s, SlotKey),
		clock:    clock,
		log:      log,
		onChange: onChange,
	}
}

func (s *Store) load() document {
	doc, err := s.slot.Load()
	if err != nil {
		s.log.WithError(err).Debug("progress: load failed, starting empty")
	}
	if doc.Questions == nil {
		doc.Questions = make(map[string]QuestionRecord)
	}
	return doc
}

func (s *Store) persist(doc document) {
	if err := s.slot.Save(doc); err != nil {
		s.log.WithError(err).Warn("progress: save failed, keeping in-memory state only")
	}
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Store) apply(doc document, r AnswerResult) document {
	rec := doc.Questions[r.QuestionID]
	if r.Correct {
		rec.Correct++
		rec.LastAnswer = AnswerCorrect
	} else {
		rec.Wrong++
		rec.LastAnswer = AnswerWrong
	}
	rec.LastAt = s.clock.Now().UnixMilli()
	rec.TopicID = r.TopicID // topic reassignment: last write wins
	doc.Questions[r.QuestionID] = rec
	return doc
}

// SaveAnswer upserts the record for a single graded answer.
func (s *Store) SaveAnswer(questionID, topicID string, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	doc = s.apply(doc, AnswerResult{QuestionID: questionID, TopicID: topicID, Correct: correct})
	s.persist(doc)
}

// SaveAnswersBatch upserts records for many graded answers in one write,
// used when an exam is submitted.
func (s *Store) SaveAnswersBatch(results []AnswerResult) {
	if len(results) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	for _, r := range results {
		doc = s.apply(doc, r)
	}
	s.persist(doc)
}

// OverallStats derives totals across the whole bank. Correct/wrong count
// records by their latest answer, not by lifetime counters.
func (s *Store) OverallStats() Stats {
	doc := s.load()

	st := Stats{Total: topic.TotalQuestions, Answered: len(doc.Questions)}
	for _, rec := range doc.Questions {
		if rec.LastAnswer == AnswerCorrect {
			st.Correct++
		} else {
			st.Wrong++
		}
	}
	return st
}

// TopicStats derives totals for one topic. Total comes from the topic
// catalog, independent of how many questions were answered.
func (s *Store) TopicStats(topicID string) Stats {
	doc := s.load()

	st := Stats{Total: topic.Count(topicID)}
	for _, rec := range doc.Questions {
		if rec.TopicID != topicID {
			continue
		}
		st.Answered++
		if rec.LastAnswer == AnswerCorrect {
			st.Correct++
		} else {
			st.Wrong++
		}
	}
	return st
}

// WrongQuestionIDs returns questions whose latest answer was wrong. A
// question leaves this view the moment it is re-answered correctly.
func (s *Store) WrongQuestionIDs() []string {
	doc := s.load()

	var ids []string
	for id, rec := range doc.Questions {
		if rec.LastAnswer == AnswerWrong {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// WrongCount returns the size of the currently-wrong view.
func (s *Store) WrongCount() int {
	return len(s.WrongQuestionIDs())
}

// TopWrongIDs returns up to n question IDs ranked by lifetime wrong count
// descending. Unlike WrongQuestionIDs this is historical: a question keeps
// its rank even after being re-answered correctly.
func (s *Store) TopWrongIDs(n int) []string {
	doc := s.load()

	type ranked struct {
		id    string
		wrong int
	}
	var rows []ranked
	for id, rec := range doc.Questions {
		if rec.Wrong > 0 {
			rows = append(rows, ranked{id: id, wrong: rec.Wrong})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].wrong != rows[j].wrong {
			return rows[i].wrong > rows[j].wrong
		}
		return rows[i].id < rows[j].id
	})
	if len(rows) > n {
		rows = rows[:n]
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.id
	}
	return ids
}

// AccuracyRate returns the percentage of answered questions whose latest
// answer was correct, 0 when nothing was answered.
func (s *Store) AccuracyRate() int {
	doc := s.load()
	if len(doc.Questions) == 0 {
		return 0
	}
	correct := 0
	for _, rec := range doc.Questions {
		if rec.LastAnswer == AnswerCorrect {
			correct++
		}
	}
	return int(float64(correct)/float64(len(doc.Questions))*100 + 0.5)
}

// LastStudyDate returns the most recent answer time, false when none exists.
func (s *Store) LastStudyDate() (time.Time, bool) {
	doc := s.load()
	if len(doc.Questions) == 0 {
		return time.Time{}, false
	}
	var latest int64
	for _, rec := range doc.Questions {
		if rec.LastAt > latest {
			latest = rec.LastAt
		}
	}
	return time.UnixMilli(latest), true
}

// Record returns the stored record for a question, false when absent.
func (s *Store) Record(questionID string) (QuestionRecord, bool) {
	doc := s.load()
	rec, ok := doc.Questions[questionID]
	return rec, ok
}

// Reset clears all progress records.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Clear(); err != nil {
		s.log.WithError(err).Warn("progress: reset failed")
	}
}
