package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/fermoza/mika-go/internal/mika/config"
	logx "github.com/fermoza/mika-go/internal/mika/log"
)

// DefaultTimeout bounds a completion call when none is configured.
const DefaultTimeout = 7000 * time.Millisecond

const maxDiagnosticBody = 4096

// OpenAIClient calls the chat-completions endpoint once per request.
type OpenAIClient struct {
	cfg    config.OpenAIConfig
	client openai.Client
	logger *logx.Logger
}

// NewOpenAIClient builds a client from configuration. SDK retries are disabled;
// extra options are applied last.
func NewOpenAIClient(cfg config.OpenAIConfig, logger *logx.Logger, extra ...option.RequestOption) *OpenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logx.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithHeader("OpenAI-Organization", cfg.Organization))
	}
	if cfg.Project != "" {
		opts = append(opts, option.WithHeader("OpenAI-Project", cfg.Project))
	}
	opts = append(opts, extra...)

	return &OpenAIClient{
		cfg:    cfg,
		client: openai.NewClient(opts...),
		logger: logger,
	}
}

// Complete sends the system instruction and prompt and returns the raw reply text.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	started := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		Model:       shared.ChatModel(c.cfg.Model),
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		err = c.classify(ctx, err)
		c.logger.Error(ctx, "openai completion failed",
			logx.KV("model", c.cfg.Model),
			logx.KV("elapsed_ms", time.Since(started).Milliseconds()),
			logx.KV("error", err))
		return nil, err
	}

	result := &Completion{
		Model:            completion.Model,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}
	// The SDK hands a list-valued content back as its raw JSON text, so the
	// envelope is checked for fragments first.
	if text, ok := fragmentText(completion.RawJSON()); ok {
		result.Text = text
	} else if len(completion.Choices) > 0 {
		result.Text = completion.Choices[0].Message.Content
	}

	c.logger.Debug(ctx, "openai completion received",
		logx.KV("model", result.Model),
		logx.KV("elapsed_ms", time.Since(started).Milliseconds()),
		logx.KV("prompt_tokens", result.PromptTokens),
		logx.KV("completion_tokens", result.CompletionTokens))
	return result, nil
}

func (c *OpenAIClient) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.StatusCode, Body: diagnosticBody(apiErr)}
	}

	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// diagnosticBody prefers the provider's error message, then the raw response body
// (proxies answer with HTML or plain text), then the status text.
func diagnosticBody(apiErr *openai.Error) string {
	if msg := strings.TrimSpace(apiErr.Message); msg != "" {
		return msg
	}
	if apiErr.Response != nil && apiErr.Response.Body != nil {
		data, err := io.ReadAll(io.LimitReader(apiErr.Response.Body, maxDiagnosticBody))
		if err == nil {
			if body := strings.TrimSpace(string(data)); body != "" {
				return body
			}
		}
	}
	if raw := strings.TrimSpace(apiErr.RawJSON()); raw != "" {
		return raw
	}
	return http.StatusText(apiErr.StatusCode)
}

// fragmentText concatenates choices[0].message.content when the provider sent it
// as a list of strings or {"text": ...} parts. ok is false when content is not a list.
func fragmentText(raw string) (text string, ok bool) {
	var envelope struct {
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || len(envelope.Choices) == 0 {
		return "", false
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(envelope.Choices[0].Message.Content, &parts); err != nil {
		return "", false
	}

	var b strings.Builder
	for _, part := range parts {
		var s string
		if json.Unmarshal(part, &s) == nil {
			b.WriteString(s)
			continue
		}
		var typed struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(part, &typed) == nil {
			b.WriteString(typed.Text)
		}
	}
	return b.String(), true
}
