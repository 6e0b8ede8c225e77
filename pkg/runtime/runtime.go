package runtime

import "context"

// LoadConfig describes the model handed to a Runtime at startup.
type LoadConfig struct {
	// ModelPath is the model file path.
	ModelPath string

	// ContextWindow is the total context size in tokens.
	ContextWindow int
}

// GenerateRequest is a single bounded generation request.
type GenerateRequest struct {
	// Prompt is the full prompt text, memory injection included.
	Prompt string

	// MaxTokens is the maximum number of tokens to produce. The execution
	// guard enforces this independently; backends should treat it as a
	// hint and may overshoot by at most one event.
	MaxTokens int

	// Temperature is the sampling temperature in [0, 2].
	Temperature float64
}

// TokenEvent is one element of a generation stream. The stream is finite
// and not restartable; after a terminal event the channel is closed.
type TokenEvent struct {
	// Token is the produced token text.
	Token string

	// Index is the running count of tokens produced so far, starting at 1.
	Index int

	// Err carries a backend error. It is only set on the final event of a
	// failed stream; Token is empty when Err is set.
	Err error
}

// Runtime is the capability contract a native inference backend must
// satisfy to be pluggable. Backends are selected at configuration time;
// there is no dynamic discovery.
//
// The loaded-model handle lives inside the Runtime value and is never
// exposed to callers. Backends that can only serve one generation at a
// time must serialize internally; that queuing is invisible to callers.
//
// Example usage:
//
//	rt := llamacpp.New(cfg)
//	if err := rt.Load(ctx, runtime.LoadConfig{ModelPath: path}); err != nil {
//	    return err
//	}
//	defer rt.Unload()
//
//	events, err := rt.Generate(ctx, runtime.GenerateRequest{Prompt: "Hi", MaxTokens: 16})
//	if err != nil {
//	    return err
//	}
//	for ev := range events {
//	    if ev.Err != nil {
//	        return ev.Err
//	    }
//	    fmt.Print(ev.Token)
//	}
type Runtime interface {
	// Load initializes the backend and loads the model. It is called once
	// at startup; a failure is fatal to the process, not per-request.
	Load(ctx context.Context, cfg LoadConfig) error

	// Generate starts a generation and returns its event stream. The
	// stream must never block indefinitely without yielding control:
	// implementations must terminate it promptly when ctx is cancelled.
	// The ctx passed here is the execution guard's cancel handle; no other
	// component cancels an in-flight generation.
	//
	// The returned channel is closed when generation ends, whether by
	// natural stop, MaxTokens, cancellation, or backend error (carried in
	// the final event's Err).
	Generate(ctx context.Context, req GenerateRequest) (<-chan TokenEvent, error)

	// ContextWindow returns the loaded model's context size in tokens.
	ContextWindow() int

	// ModelID identifies the loaded model for health reporting.
	ModelID() string

	// Unload releases the model and any backend resources.
	Unload() error
}
