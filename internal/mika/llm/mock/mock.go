package mock

import (
	"context"
	"sync"

	"github.com/fermoza/mika-go/internal/mika/llm"
)

// Mock replays a fixed reply or error and records every request it receives.
type Mock struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.CompletionRequest
}

// New returns a mock that answers every call with reply.
func New(reply string) *Mock { return &Mock{reply: reply} }

// Failing returns a mock that fails every call with err.
func Failing(err error) *Mock { return &Mock{err: err} }

func (m *Mock) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	reply, err := m.reply, m.err
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if err != nil {
		return nil, err
	}
	return &llm.Completion{
		Text:             reply,
		Model:            "mock",
		PromptTokens:     int64(len(req.System) + len(req.Prompt)),
		CompletionTokens: int64(len(reply)),
	}, nil
}

// Calls reports how many completions were requested.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, if any.
func (m *Mock) LastRequest() (llm.CompletionRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return llm.CompletionRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}
