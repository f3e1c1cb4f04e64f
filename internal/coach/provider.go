// Package coach generates AI study diagnostics from the learner's
// aggregated state.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Request is one structured-output generation call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response carries the raw JSON content and token accounting.
type Response struct {
	Content json.RawMessage
	Model   string
}

// Provider generates structured JSON coaching output.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// ErrRateLimit signals the upstream throttled the request.
type ErrRateLimit struct {
	Err        error
	RetryAfter time.Duration
}

func (e *ErrRateLimit) Error() string { return fmt.Sprintf("rate limited: %v", e.Err) }
func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrUnavailable signals a transient upstream failure.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string { return fmt.Sprintf("provider unavailable: %v", e.Err) }
func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrInvalidResponse signals content that failed JSON or schema checks.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string { return fmt.Sprintf("invalid response: %v", e.Err) }
func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// RetryConfig tunes the retry decorator.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig is suitable for interactive use.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2,
	}
}

type retryProvider struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry wraps a Provider with exponential backoff on transient
// errors. Invalid responses get a single retry; context errors never do.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &retryProvider{inner: p, cfg: cfg}
}

func (r *retryProvider) ModelID() string { return r.inner.ModelID() }

func (r *retryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalidRetried := false

	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !shouldRetry(err, &invalidRetried) {
			return nil, err
		}
		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff(attempt, err)):
		}
	}
	return nil, lastErr
}

func shouldRetry(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var invResp *ErrInvalidResponse
	if errors.As(err, &invResp) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}

	return true
}

func (r *retryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	if wait > float64(r.cfg.MaxWait) {
		wait = float64(r.cfg.MaxWait)
	}
	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
