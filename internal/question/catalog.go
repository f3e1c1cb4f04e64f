// Package question loads and serves the question bank from a JSON
// dataset file.
package question

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/samber/lo"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/thayduy/lythuyet/internal/topic"
)

// Answer is one option of a question.
type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is one bank entry. Critical marks instant-fail questions,
// which form the t-diem-liet pseudo-topic on top of their real topic.
type Question struct {
	ID          string   `json:"id"`
	TopicID     string   `json:"topicId"`
	Text        string   `json:"text"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Answers     []Answer `json:"answers"`
	Critical    bool     `json:"critical"`
	Explanation string   `json:"explanation,omitempty"`
}

// datasetSchema validates the dataset file shape before anything trusts
// its contents.
const datasetSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "topicId", "text", "answers"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "topicId": {"type": "string", "minLength": 1},
          "text": {"type": "string", "minLength": 1},
          "imageUrl": {"type": "string"},
          "critical": {"type": "boolean"},
          "explanation": {"type": "string"},
          "answers": {
            "type": "array",
            "minItems": 2,
            "items": {
              "type": "object",
              "required": ["id", "text"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "text": {"type": "string", "minLength": 1},
                "correct": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiledDatasetSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var parsed any
		if err := json.Unmarshal([]byte(datasetSchema), &parsed); err != nil {
			schemaErr = fmt.Errorf("parse dataset schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://questions.json", parsed); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("schema://questions.json")
	})
	return compiledSchema, schemaErr
}

type dataset struct {
	Questions []Question `json:"questions"`
}

// Catalog is the loaded question bank. Read-only after Load.
type Catalog struct {
	questions []Question
	byID      map[string]Question
	byTopic   map[string][]Question
	critical  []Question
}

// Load reads and validates the dataset file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw dataset JSON and builds a catalog from it.
func Parse(raw []byte) (*Catalog, error) {
	schema, err := compiledDatasetSchema()
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid dataset JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("dataset schema validation failed: %w", err)
	}

	var ds dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	c := &Catalog{
		questions: ds.Questions,
		byID:      make(map[string]Question, len(ds.Questions)),
		byTopic:   make(map[string][]Question),
	}
	for _, q := range ds.Questions {
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question ID %q", q.ID)
		}
		c.byID[q.ID] = q
		c.byTopic[q.TopicID] = append(c.byTopic[q.TopicID], q)
		if q.Critical {
			c.critical = append(c.critical, q)
		}
	}
	return c, nil
}

// Count returns the total number of questions.
func (c *Catalog) Count() int {
	return len(c.questions)
}

// Get returns a question by ID.
func (c *Catalog) Get(id string) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// All returns every question in dataset order.
func (c *Catalog) All() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Mode selects the ordering of a query result.
type Mode string

const (
	// ModePractice keeps dataset order so a learner can resume where
	// they left off.
	ModePractice Mode = "practice"
	// ModeExam shuffles the selection.
	ModeExam Mode = "exam"
)

// Query narrows and pages the bank. TopicID and IDs are mutually
// exclusive filters; IDs wins when both are set. The critical
// pseudo-topic selects by the critical flag instead of topic membership.
type Query struct {
	TopicID  string
	IDs      []string
	Page     int // 1-based, 0 means first page
	PageSize int // 0 means no paging
	Mode     Mode
	Seed     int64 // exam shuffle seed, 0 seeds from entropy
}

// Page is one page of query results.
type Page struct {
	Questions  []Question
	Total      int
	PageNum    int
	PageSize   int
	TotalPages int
}

// GetQuestions filters, orders and pages the bank.
func (c *Catalog) GetQuestions(q Query) Page {
	var selected []Question
	switch {
	case len(q.IDs) > 0:
		selected = lo.FilterMap(q.IDs, func(id string, _ int) (Question, bool) {
			qq, ok := c.byID[id]
			return qq, ok
		})
	case q.TopicID == topic.CriticalID:
		selected = append(selected, c.critical...)
	case q.TopicID != "":
		selected = append(selected, c.byTopic[q.TopicID]...)
	default:
		selected = c.All()
	}

	if q.Mode == ModeExam {
		rng := rand.New(rand.NewSource(q.Seed))
		if q.Seed == 0 {
			rng = rand.New(rand.NewSource(rand.Int63()))
		}
		rng.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	}

	total := len(selected)
	if q.PageSize <= 0 {
		return Page{Questions: selected, Total: total, PageNum: 1, PageSize: total, TotalPages: 1}
	}

	pageNum := q.Page
	if pageNum < 1 {
		pageNum = 1
	}
	totalPages := (total + q.PageSize - 1) / q.PageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (pageNum - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return Page{
		Questions:  selected[start:end],
		Total:      total,
		PageNum:    pageNum,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}
}
