package question

import (
	"fmt"
	"strings"
	"testing"

	"github.com/thayduy/lythuyet/internal/topic"
)

func testDataset(t *testing.T) *Catalog {
	t.Helper()
	var b strings.Builder
	b.WriteString(`{"questions":[`)
	for i := 1; i <= 12; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		topicID := "t-bien-bao"
		critical := "false"
		if i%4 == 0 {
			topicID = "t-khai-niem"
			critical = "true"
		}
		fmt.Fprintf(&b, `{"id":"q%d","topicId":"%s","critical":%s,"text":"Câu %d?",`+
			`"answers":[{"id":"a1","text":"Đúng","correct":true},{"id":"a2","text":"Sai"}]}`,
			i, topicID, critical, i)
	}
	b.WriteString(`]}`)

	c, err := Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return c
}

func TestParse_RejectsMalformedDataset(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{"questions":`},
		{"missing text", `{"questions":[{"id":"q1","topicId":"t","answers":[{"id":"a1","text":"x"},{"id":"a2","text":"y"}]}]}`},
		{"one answer", `{"questions":[{"id":"q1","topicId":"t","text":"x","answers":[{"id":"a1","text":"x"}]}]}`},
		{"missing questions", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.raw)); err == nil {
				t.Error("Parse accepted a malformed dataset")
			}
		})
	}
}

func TestParse_RejectsDuplicateID(t *testing.T) {
	raw := `{"questions":[
		{"id":"q1","topicId":"t","text":"x","answers":[{"id":"a1","text":"x"},{"id":"a2","text":"y"}]},
		{"id":"q1","topicId":"t","text":"x","answers":[{"id":"a1","text":"x"},{"id":"a2","text":"y"}]}
	]}`
	if _, err := Parse([]byte(raw)); err == nil {
		t.Error("Parse accepted duplicate question IDs")
	}
}

func TestGetQuestions_TopicFilter(t *testing.T) {
	c := testDataset(t)

	page := c.GetQuestions(Query{TopicID: "t-khai-niem"})
	if page.Total != 3 {
		t.Fatalf("Total = %d, want 3", page.Total)
	}
	for _, q := range page.Questions {
		if q.TopicID != "t-khai-niem" {
			t.Errorf("question %s has topic %s", q.ID, q.TopicID)
		}
	}
}

func TestGetQuestions_CriticalPseudoTopic(t *testing.T) {
	c := testDataset(t)

	page := c.GetQuestions(Query{TopicID: topic.CriticalID})
	if page.Total != 3 {
		t.Fatalf("Total = %d, want 3 critical questions", page.Total)
	}
	for _, q := range page.Questions {
		if !q.Critical {
			t.Errorf("question %s is not critical", q.ID)
		}
	}
}

func TestGetQuestions_ByIDsKeepsRequestOrder(t *testing.T) {
	c := testDataset(t)

	page := c.GetQuestions(Query{IDs: []string{"q5", "q2", "missing", "q9"}})
	want := []string{"q5", "q2", "q9"}
	if page.Total != len(want) {
		t.Fatalf("Total = %d, want %d", page.Total, len(want))
	}
	for i, id := range want {
		if page.Questions[i].ID != id {
			t.Errorf("Questions[%d].ID = %s, want %s", i, page.Questions[i].ID, id)
		}
	}
}

func TestGetQuestions_PracticeOrderIsStable(t *testing.T) {
	c := testDataset(t)

	first := c.GetQuestions(Query{Mode: ModePractice})
	second := c.GetQuestions(Query{Mode: ModePractice})
	for i := range first.Questions {
		if first.Questions[i].ID != second.Questions[i].ID {
			t.Fatal("practice order changed between calls")
		}
	}
	if first.Questions[0].ID != "q1" {
		t.Errorf("practice order starts at %s, want q1", first.Questions[0].ID)
	}
}

func TestGetQuestions_ExamShuffleIsSeeded(t *testing.T) {
	c := testDataset(t)

	a := c.GetQuestions(Query{Mode: ModeExam, Seed: 42})
	b := c.GetQuestions(Query{Mode: ModeExam, Seed: 42})
	for i := range a.Questions {
		if a.Questions[i].ID != b.Questions[i].ID {
			t.Fatal("same seed produced different orders")
		}
	}
	if len(a.Questions) != c.Count() {
		t.Errorf("shuffle changed selection size: %d != %d", len(a.Questions), c.Count())
	}
}

func TestGetQuestions_Pagination(t *testing.T) {
	c := testDataset(t)

	page := c.GetQuestions(Query{PageSize: 5, Page: 3})
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}
	if len(page.Questions) != 2 {
		t.Errorf("last page has %d questions, want 2", len(page.Questions))
	}

	beyond := c.GetQuestions(Query{PageSize: 5, Page: 9})
	if len(beyond.Questions) != 0 {
		t.Errorf("page beyond end has %d questions, want 0", len(beyond.Questions))
	}
}
