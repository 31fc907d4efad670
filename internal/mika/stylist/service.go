package stylist

import (
	"context"
	"fmt"
	"time"

	"github.com/fermoza/mika-go/internal/mika/llm"
	logx "github.com/fermoza/mika-go/internal/mika/log"
	"github.com/fermoza/mika-go/internal/mika/types"
	"github.com/fermoza/mika-go/internal/mika/usage"
)

// Service runs the chat pipeline: compose, complete, normalize.
type Service struct {
	client     llm.Client
	composer   *Composer
	normalizer *Normalizer
	recorder   usage.Recorder
	logger     *logx.Logger
}

// NewService wires the pipeline. A nil recorder disables the usage ledger.
func NewService(client llm.Client, persona Persona, recorder usage.Recorder, logger *logx.Logger) *Service {
	if recorder == nil {
		recorder = usage.Nop{}
	}
	if logger == nil {
		logger = logx.NewNop()
	}
	return &Service{
		client:     client,
		composer:   NewComposer(persona),
		normalizer: NewNormalizer(persona),
		recorder:   recorder,
		logger:     logger,
	}
}

// Composer exposes the prompt composer, e.g. for offline prompt rendering.
func (s *Service) Composer() *Composer { return s.composer }

// Chat answers one request. Invalid requests fail with types.ErrInvalidRequest
// before the model is called; completion failures are returned wrapped and are
// never partially answered.
func (s *Service) Chat(ctx context.Context, req types.ChatRequest) (*types.StylistResponse, error) {
	if err := req.Validate(); err != nil {
		s.RecordInvalid(ctx)
		return nil, err
	}

	prompt := s.composer.Compose(req)
	completion, err := s.client.Complete(ctx, llm.CompletionRequest{
		System: s.composer.SystemInstruction(),
		Prompt: prompt,
	})
	if err != nil {
		s.logger.Error(ctx, "stylist completion failed",
			logx.KV("catalog_size", len(req.Catalog)),
			logx.KV("error", err))
		s.record(ctx, usage.Event{Outcome: usage.OutcomeFailed})
		return nil, fmt.Errorf("stylist completion: %w", err)
	}

	resp, report := s.normalizer.Normalize(completion.Text, req.Catalog)

	level := s.logger.Info
	if !report.Parsed || report.DroppedLooks > 0 || report.DroppedPicks > 0 {
		level = s.logger.Warn
	}
	level(ctx, "stylist response normalized",
		logx.KV("parsed", report.Parsed),
		logx.KV("looks", len(resp.Looks)),
		logx.KV("picks", len(resp.Picks)),
		logx.KV("dropped_looks", report.DroppedLooks),
		logx.KV("dropped_picks", report.DroppedPicks),
		logx.KV("fallback_look", report.FallbackLook),
		logx.KV("fallback_pick", report.FallbackPick),
		logx.KV("prompt_tokens", completion.PromptTokens),
		logx.KV("completion_tokens", completion.CompletionTokens))

	s.record(ctx, usage.Event{
		Outcome:          usage.OutcomeOK,
		FallbackLook:     report.FallbackLook,
		FallbackPick:     report.FallbackPick,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
	})
	return &resp, nil
}

// RecordInvalid counts a request rejected before reaching the pipeline.
func (s *Service) RecordInvalid(ctx context.Context) {
	s.record(ctx, usage.Event{Outcome: usage.OutcomeInvalid})
}

// Usage returns the ledger counters for one day.
func (s *Service) Usage(ctx context.Context, day time.Time) (usage.Stats, error) {
	return s.recorder.Stats(ctx, day)
}

func (s *Service) record(ctx context.Context, ev usage.Event) {
	if err := s.recorder.Record(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Warn(ctx, "usage record failed", logx.KV("error", err))
	}
}
