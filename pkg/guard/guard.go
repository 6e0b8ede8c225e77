package guard

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lieworks/lie/pkg/engine/types"
	"lieworks/lie/pkg/memory"
	"lieworks/lie/pkg/runtime"
)

// Guard bounds a single inference call on three axes: output tokens,
// wall-clock duration, and total context size. It guarantees that a call
// always terminates and returns, regardless of backend behavior.
//
// The Guard is the only component holding the handle that can cancel an
// in-flight backend call, and it releases that handle on every exit path.
type Guard struct {
	rt     runtime.Runtime
	ratio  int
	logger *slog.Logger
}

// Prompt is the guarded input: the user prompt and the structured memory
// injection, kept separate so that overflow shedding can drop injected
// facts without ever touching the user prompt.
type Prompt struct {
	User      string
	Injection memory.Injection
}

// Outcome is a terminal non-error result of a guarded call.
type Outcome struct {
	Status  types.Status
	Output  string
	Usage   types.Usage
	Warning string
}

// New creates a Guard over the given runtime. charsPerToken is the
// conservative ratio used for context window estimation.
func New(rt runtime.Runtime, charsPerToken int) *Guard {
	return &Guard{
		rt:     rt,
		ratio:  charsPerToken,
		logger: slog.Default().With("component", "guard"),
	}
}

// Run executes one bounded generation.
//
// Termination policy: max_tokens reached means success with the actual
// counts; deadline elapsed means partial with whatever was generated and
// a warning (not an error). A backend error maps to backend_failure and
// is never retried. If the prompt alone exceeds the context window the
// call fails fast with context_overflow and the backend is not invoked.
func (g *Guard) Run(ctx context.Context, prompt Prompt, limits types.Limits) (*Outcome, error) {
	window := g.rt.ContextWindow()
	promptTokens := memory.EstimateTokens(prompt.User, g.ratio)
	if promptTokens > window {
		return nil, types.NewEngineError(types.ErrContextOverflow,
			"prompt is ~%d tokens, context window is %d", promptTokens, window)
	}

	// Shed injected memory, oldest facts first, until the combined
	// context fits. The user prompt is never truncated.
	inj := prompt.Injection
	shed := false
	for promptTokens+inj.TokenEstimate() > window {
		next, ok := inj.DropOldest()
		if !ok {
			break
		}
		inj = next
		shed = true
	}

	var warning string
	if shed {
		warning = "memory context truncated to fit context window"
	}

	combined := inj.Render() + prompt.User
	inputTokens := memory.EstimateTokens(combined, g.ratio)

	// The guard owns the only cancel handle for the in-flight call and
	// releases it on every exit path.
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	deadline := time.NewTimer(limits.TimeBudget)
	defer deadline.Stop()
	start := time.Now()

	// Generate can itself block (backend queue), so it runs off the
	// deadline path.
	type generateResult struct {
		events <-chan runtime.TokenEvent
		err    error
	}
	started := make(chan generateResult, 1)
	go func() {
		events, err := g.rt.Generate(genCtx, runtime.GenerateRequest{
			Prompt:      combined,
			MaxTokens:   limits.MaxTokens,
			Temperature: limits.Temperature,
		})
		started <- generateResult{events, err}
	}()

	var events <-chan runtime.TokenEvent
	select {
	case res := <-started:
		if res.err != nil {
			return nil, types.WrapEngineError(types.ErrBackendFailure, res.err,
				"backend rejected generation")
		}
		events = res.events
	case <-deadline.C:
		cancel()
		return g.partial(types.Usage{InputTokens: inputTokens, DurationMS: time.Since(start).Milliseconds()},
			"", warning, limits.TimeBudget), nil
	}

	var sb strings.Builder
	count := 0
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Natural stop within bounds.
				return &Outcome{
					Status:  types.StatusSuccess,
					Output:  sb.String(),
					Usage:   g.usage(inputTokens, count, start),
					Warning: warning,
				}, nil
			}
			if ev.Err != nil {
				cancel()
				return nil, types.WrapEngineError(types.ErrBackendFailure, ev.Err,
					"backend error during generation")
			}
			sb.WriteString(ev.Token)
			count++
			if count >= limits.MaxTokens {
				cancel()
				g.drain(events)
				return &Outcome{
					Status:  types.StatusSuccess,
					Output:  sb.String(),
					Usage:   g.usage(inputTokens, count, start),
					Warning: warning,
				}, nil
			}

		case <-deadline.C:
			cancel()
			g.drain(events)
			out := g.partial(g.usage(inputTokens, count, start), sb.String(), warning, limits.TimeBudget)
			g.logger.Debug("deadline reached",
				"budget", limits.TimeBudget,
				"tokens", count,
			)
			return out, nil

		case <-ctx.Done():
			cancel()
			g.drain(events)
			return g.partial(g.usage(inputTokens, count, start), sb.String(), warning, limits.TimeBudget), nil
		}
	}
}

// partial builds a partial outcome: usable output, warning carries the
// signal, error stays unset.
func (g *Guard) partial(usage types.Usage, output, warning string, budget time.Duration) *Outcome {
	msg := "time budget " + budget.String() + " exceeded, returning partial output"
	if warning != "" {
		msg = warning + "; " + msg
	}
	return &Outcome{
		Status:  types.StatusPartial,
		Output:  output,
		Usage:   usage,
		Warning: msg,
	}
}

func (g *Guard) usage(inputTokens, outputTokens int, start time.Time) types.Usage {
	return types.Usage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		DurationMS:   time.Since(start).Milliseconds(),
	}
}

// drain empties a cancelled stream off the return path so the backend
// goroutine can exit without blocking the caller's result.
func (g *Guard) drain(events <-chan runtime.TokenEvent) {
	go func() {
		for range events {
		}
	}()
}
