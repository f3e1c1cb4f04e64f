package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/progress"
	"github.com/thayduy/lythuyet/internal/topic"
)

// ProgressPusher pushes the aggregate progress rollup to the CRM. Unlike
// the outbox this is fire-and-forget with no queue: the next debounced
// push carries the full current state anyway, so a lost push costs
// nothing but staleness.
type ProgressPusher struct {
	url      string
	client   *http.Client
	identity *Identity
	log      logrus.FieldLogger
}

// NewProgressPusher creates a ProgressPusher for the given CRM progress
// endpoint. A nil client uses http.DefaultClient.
func NewProgressPusher(url string, client *http.Client, identity *Identity, log logrus.FieldLogger) *ProgressPusher {
	if client == nil {
		client = http.DefaultClient
	}
	return &ProgressPusher{url: url, client: client, identity: identity, log: log}
}

type topicRollup struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Answered int    `json:"answered"`
	Total    int    `json:"total"`
	Correct  int    `json:"correct"`
}

type progressBody struct {
	Token    string       `json:"token"`
	Progress progressInfo `json:"progress"`
}

type progressInfo struct {
	Answered int           `json:"answered"`
	Correct  int           `json:"correct"`
	Wrong    int           `json:"wrong"`
	Streak   int           `json:"streak"`
	Accuracy int           `json:"accuracy"`
	Topics   []topicRollup `json:"topics"`
}

// Push sends the current progress rollup. No-ops without a link or when
// nothing was answered. A 401 response clears the link (token expired).
func (p *ProgressPusher) Push(ctx context.Context, store *progress.Store, streak int) {
	token := p.identity.Token()
	if token == "" {
		return
	}

	overall := store.OverallStats()
	if overall.Answered == 0 {
		return
	}

	topics := lo.Map(topic.IDs(), func(id string, _ int) topicRollup {
		st := store.TopicStats(id)
		return topicRollup{
			ID:       id,
			Name:     topic.Name(id),
			Answered: st.Answered,
			Total:    st.Total,
			Correct:  st.Correct,
		}
	})

	accuracy := 0
	if overall.Answered > 0 {
		accuracy = int(float64(overall.Correct)/float64(overall.Answered)*100 + 0.5)
	}

	body := progressBody{
		Token: token,
		Progress: progressInfo{
			Answered: overall.Answered,
			Correct:  overall.Correct,
			Wrong:    overall.Wrong,
			Streak:   streak,
			Accuracy: accuracy,
			Topics:   topics,
		},
	}

	if err := p.post(ctx, body); err != nil {
		p.log.WithError(err).Warn("crm: progress push failed")
	}
}

func (p *ProgressPusher) post(ctx context.Context, body progressBody) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build progress request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push progress: %w", err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	if res.StatusCode == http.StatusUnauthorized {
		// Token expired: unlink so later pushes stop immediately.
		if err := p.identity.Unlink(); err != nil {
			p.log.WithError(err).Warn("crm: unlink after 401 failed")
		} else {
			p.log.Warn("crm: token expired, unlinked")
		}
		return fmt.Errorf("push progress: status 401")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("push progress: status %d", res.StatusCode)
	}
	return nil
}
