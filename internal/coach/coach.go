package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/outbox"
)

const diagnosticSchemaName = "study_diagnostic"

// diagnosticSchema is the strict output contract for the provider and
// the validation gate for whatever comes back.
const diagnosticSchema = `{
  "type": "object",
  "required": ["passProbability", "strengths", "weaknesses", "todayPlan"],
  "additionalProperties": false,
  "properties": {
    "passProbability": {"type": "integer", "minimum": 0, "maximum": 100},
    "strengths": {"type": "array", "items": {"type": "string"}, "maxItems": 5},
    "weaknesses": {"type": "array", "items": {"type": "string"}, "maxItems": 5},
    "todayPlan": {"type": "array", "items": {"type": "string"}, "minItems": 1, "maxItems": 5}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiledDiagnosticSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var parsed any
		if err := json.Unmarshal([]byte(diagnosticSchema), &parsed); err != nil {
			schemaErr = fmt.Errorf("parse diagnostic schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		url := fmt.Sprintf("schema://%s.json", diagnosticSchemaName)
		if err := c.AddResource(url, parsed); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	return compiledSchema, schemaErr
}

// TopicAccuracy is one topic line of the study state.
type TopicAccuracy struct {
	TopicID   string
	TopicName string
	Answered  int
	Accuracy  int
}

// StudyState is the aggregated input to a diagnosis.
type StudyState struct {
	Answered       int
	Correct        int
	Accuracy       int
	StreakDays     int
	DueReviews     int
	Topics         []TopicAccuracy
	LatestMockNote string
}

// Diagnostic is the structured coaching output.
type Diagnostic struct {
	PassProbability int      `json:"passProbability"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	TodayPlan       []string `json:"todayPlan"`
}

// Syncer receives generated diagnostics for upstream delivery.
// Satisfied by *outbox.Engine.
type Syncer interface {
	SyncAISummary(sum outbox.AISummary)
}

// Service runs diagnoses against a Provider.
type Service struct {
	provider Provider
	syncer   Syncer
	log      logrus.FieldLogger
}

// New creates a coach Service. syncer may be nil for local-only use.
func New(provider Provider, syncer Syncer, log logrus.FieldLogger) *Service {
	return &Service{provider: provider, syncer: syncer, log: log}
}

const systemPrompt = "Bạn là giáo viên luyện thi lý thuyết lái xe. " +
	"Trả lời đúng theo JSON schema, ngắn gọn, tiếng Việt."

// Diagnose generates a study diagnostic from the current state, validates
// it against the output schema and queues it for upstream delivery.
func (s *Service) Diagnose(ctx context.Context, state StudyState) (*Diagnostic, error) {
	resp, err := s.provider.Generate(ctx, Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(state),
		MaxTokens:   600,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("generate diagnostic: %w", err)
	}

	diag, err := parseDiagnostic(resp.Content)
	if err != nil {
		return nil, err
	}

	if s.syncer != nil {
		s.syncer.SyncAISummary(outbox.AISummary{
			PassProbability: diag.PassProbability,
			Strengths:       diag.Strengths,
			Weaknesses:      diag.Weaknesses,
			TodayPlan:       diag.TodayPlan,
		})
	}
	s.log.WithFields(logrus.Fields{
		"model":           s.provider.ModelID(),
		"passProbability": diag.PassProbability,
	}).Info("coach: diagnostic generated")
	return diag, nil
}

func parseDiagnostic(raw json.RawMessage) (*Diagnostic, error) {
	schema, err := compiledDiagnosticSchema()
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var diag Diagnostic
	if err := json.Unmarshal(raw, &diag); err != nil {
		return nil, &ErrInvalidResponse{Content: raw, Err: err}
	}
	return &diag, nil
}

func buildPrompt(state StudyState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Học viên đã làm %d/600 câu, đúng %d (%d%%).\n",
		state.Answered, state.Correct, state.Accuracy)
	fmt.Fprintf(&b, "Chuỗi ngày học hiện tại: %d. Câu chờ ôn lại: %d.\n",
		state.StreakDays, state.DueReviews)
	if len(state.Topics) > 0 {
		b.WriteString("Theo chủ đề:\n")
		for _, t := range state.Topics {
			fmt.Fprintf(&b, "- %s: %d câu, đúng %d%%\n", t.TopicName, t.Answered, t.Accuracy)
		}
	}
	if state.LatestMockNote != "" {
		fmt.Fprintf(&b, "Thi thử gần nhất: %s\n", state.LatestMockNote)
	}
	b.WriteString("Đánh giá khả năng đậu và lập kế hoạch học hôm nay.")
	return b.String()
}
