package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/fermoza/mika-go/internal/mika/config"
)

// DayLayout is the format of the day query parameter and of Stats.Day.
const DayLayout = "2006-01-02"

// Outcome classifies how a chat request ended.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeInvalid Outcome = "invalid"
	OutcomeFailed  Outcome = "failed"
)

// Event is one chat request as seen by the ledger.
type Event struct {
	Outcome          Outcome
	FallbackLook     bool
	FallbackPick     bool
	PromptTokens     int64
	CompletionTokens int64
}

// Stats are the counters of one UTC day.
type Stats struct {
	Day              string `json:"day"`
	Requests         int64  `json:"requests"`
	OK               int64  `json:"ok"`
	Invalid          int64  `json:"invalid"`
	Failed           int64  `json:"failed"`
	FallbackLooks    int64  `json:"fallback_looks"`
	FallbackPicks    int64  `json:"fallback_picks"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
}

// Recorder is the per-day usage ledger. The chat pipeline only writes to it.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
	Stats(ctx context.Context, day time.Time) (Stats, error)
}

// counters maps an event onto hash field increments.
func counters(ev Event) map[string]int64 {
	c := map[string]int64{"requests": 1}
	switch ev.Outcome {
	case OutcomeOK:
		c["ok"] = 1
	case OutcomeInvalid:
		c["invalid"] = 1
	case OutcomeFailed:
		c["failed"] = 1
	}
	if ev.FallbackLook {
		c["fallback_looks"] = 1
	}
	if ev.FallbackPick {
		c["fallback_picks"] = 1
	}
	if ev.PromptTokens > 0 {
		c["prompt_tokens"] = ev.PromptTokens
	}
	if ev.CompletionTokens > 0 {
		c["completion_tokens"] = ev.CompletionTokens
	}
	return c
}

func (s *Stats) add(field string, n int64) {
	switch field {
	case "requests":
		s.Requests += n
	case "ok":
		s.OK += n
	case "invalid":
		s.Invalid += n
	case "failed":
		s.Failed += n
	case "fallback_looks":
		s.FallbackLooks += n
	case "fallback_picks":
		s.FallbackPicks += n
	case "prompt_tokens":
		s.PromptTokens += n
	case "completion_tokens":
		s.CompletionTokens += n
	}
}

func dayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

func (Nop) Stats(_ context.Context, day time.Time) (Stats, error) {
	return Stats{Day: dayKey(day)}, nil
}

// New builds the configured store: "memory", "redis" or "none".
func New(cfg config.UsageConfig) (Recorder, error) {
	switch cfg.Store {
	case "", "memory":
		return NewInmem(), nil
	case "redis":
		return NewRedis(cfg), nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown usage store %q", cfg.Store)
	}
}
