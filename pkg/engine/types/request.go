package types

import (
	"strings"
	"time"

	"lieworks/lie/pkg/config"
)

// Intent is the enumerated operation a Request asks the engine to perform.
type Intent string

const (
	// IntentCompletion runs a guarded inference call.
	IntentCompletion Intent = "completion"
	// IntentMemorySet stores a fact in the persistent memory store.
	IntentMemorySet Intent = "memory-set"
	// IntentMemoryGet reads a fact from the persistent memory store.
	IntentMemoryGet Intent = "memory-get"
	// IntentMemorySummary reads or appends the rolling summary.
	IntentMemorySummary Intent = "memory-summary"
	// IntentHealth returns static engine status.
	IntentHealth Intent = "health"
)

// Request is the single structured request shape the engine accepts.
// A Request is created per call, consumed by one dispatch, and produces
// exactly one Result.
type Request struct {
	// Intent selects the operation. Required.
	Intent Intent `json:"intent"`

	// Prompt is the inference prompt. Required for completion, ignored
	// otherwise.
	Prompt string `json:"prompt,omitempty"`

	// Key addresses a fact for memory-set and memory-get.
	Key string `json:"key,omitempty"`

	// Value is the fact value for memory-set, or the text to append for
	// memory-summary. A memory-summary request with an empty value reads
	// the current summary instead.
	Value string `json:"value,omitempty"`

	// Limits bounds a completion. Unset fields take configured defaults;
	// all fields are clamped to the engine-wide ceilings.
	Limits *RequestLimits `json:"limits,omitempty"`

	// MemoryEnabled overrides the configured default for memory injection
	// and write-back on this completion. Nil means use the default.
	MemoryEnabled *bool `json:"memory_enabled,omitempty"`
}

// RequestLimits are the caller-supplied bounds on a completion.
type RequestLimits struct {
	// MaxTokens is the maximum number of output tokens. Must be positive.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature is the sampling temperature in [0, 2].
	Temperature *float64 `json:"temperature,omitempty"`

	// TimeBudgetMS is the wall-clock budget in milliseconds. Must be
	// positive.
	TimeBudgetMS *int64 `json:"time_budget_ms,omitempty"`
}

// Limits are the effective execution bounds after validation and
// clamping. Immutable once attached to a dispatch.
type Limits struct {
	MaxTokens   int
	Temperature float64
	TimeBudget  time.Duration
}

// Validate checks the request shape for its intent. It runs before any
// resource is touched and returns an invalid_request EngineError on the
// first violation.
func (r *Request) Validate() error {
	switch r.Intent {
	case IntentCompletion:
		if strings.TrimSpace(r.Prompt) == "" {
			return NewEngineError(ErrInvalidRequest, "completion requires a non-empty prompt")
		}
	case IntentMemorySet:
		if r.Key == "" {
			return NewEngineError(ErrInvalidRequest, "memory-set requires a key")
		}
		if r.Value == "" {
			return NewEngineError(ErrInvalidRequest, "memory-set requires a value")
		}
	case IntentMemoryGet:
		if r.Key == "" {
			return NewEngineError(ErrInvalidRequest, "memory-get requires a key")
		}
	case IntentMemorySummary, IntentHealth:
	default:
		return NewEngineError(ErrInvalidRequest, "unknown intent %q", r.Intent)
	}

	if l := r.Limits; l != nil {
		if l.MaxTokens != nil && *l.MaxTokens <= 0 {
			return NewEngineError(ErrInvalidRequest, "max_tokens must be positive, got %d", *l.MaxTokens)
		}
		if l.Temperature != nil && (*l.Temperature < 0 || *l.Temperature > 2) {
			return NewEngineError(ErrInvalidRequest, "temperature must be in [0, 2], got %g", *l.Temperature)
		}
		if l.TimeBudgetMS != nil && *l.TimeBudgetMS <= 0 {
			return NewEngineError(ErrInvalidRequest, "time_budget_ms must be positive, got %d", *l.TimeBudgetMS)
		}
	}

	return nil
}

// EffectiveLimits resolves the request limits against the configured
// defaults and hard ceilings. Values are clamped to the ceilings, never
// exceeded. Call Validate first; EffectiveLimits assumes a well-formed
// request.
func (r *Request) EffectiveLimits(cfg config.LimitsConfig) Limits {
	limits := Limits{
		MaxTokens:  cfg.DefaultMaxTokens,
		TimeBudget: cfg.DefaultTimeBudget,
	}

	if l := r.Limits; l != nil {
		if l.MaxTokens != nil {
			limits.MaxTokens = min(*l.MaxTokens, cfg.MaxTokens)
		}
		if l.Temperature != nil {
			limits.Temperature = *l.Temperature
		}
		if l.TimeBudgetMS != nil {
			budget := time.Duration(*l.TimeBudgetMS) * time.Millisecond
			limits.TimeBudget = min(budget, cfg.TimeBudget)
		}
	}

	return limits
}
