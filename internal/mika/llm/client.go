package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned before any network call when no key is configured.
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is missing (empty after trim)")
	// ErrTimeout is returned when the completion deadline expires.
	ErrTimeout = errors.New("completion timed out")
	// ErrTransport wraps network failures that carry no HTTP status.
	ErrTransport = errors.New("completion transport failed")
)

// UpstreamError reports a non-success status from the provider.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("openai error %d: %s", e.StatusCode, e.Body)
}

// CompletionRequest is one system + user exchange.
type CompletionRequest struct {
	System string
	Prompt string
}

// Completion is the raw model text plus token usage.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
}

// Client performs a single, non-retried completion call.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
