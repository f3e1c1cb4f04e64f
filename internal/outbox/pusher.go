package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPPusher delivers items to the sync proxy endpoint with a single POST
// per item. Any non-2xx status is a StatusError; the engine decides
// retry-or-drop from it.
type HTTPPusher struct {
	url    string
	client *http.Client
}

// NewHTTPPusher creates a pusher for the given proxy URL. A nil client
// uses http.DefaultClient.
func NewHTTPPusher(url string, client *http.Client) *HTTPPusher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPusher{url: url, client: client}
}

func (p *HTTPPusher) Push(ctx context.Context, item Item) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal sync item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push sync item: %w", err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Code: res.StatusCode}
	}
	return nil
}
