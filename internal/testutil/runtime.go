package testutil

import (
	"context"
	"sync"
	"time"

	"lieworks/lie/pkg/runtime"
)

// ScriptedRuntime is a mock implementation of the runtime contract for
// testing. Its behavior is scripted: a fixed token sequence, an optional
// per-token delay, a hang mode that never yields, and an injected
// failure point.
type ScriptedRuntime struct {
	// Tokens is the sequence the backend would naturally produce.
	Tokens []string

	// TokenDelay is an optional pause before each token.
	TokenDelay time.Duration

	// Hang makes Generate yield nothing until the context is cancelled.
	Hang bool

	// FailAfter injects a backend error after this many tokens (0 = never).
	FailAfter int

	// LoadErr makes Load fail.
	LoadErr error

	// Window is the reported context window (default 2048).
	Window int

	mu         sync.Mutex
	lastPrompt string
	loaded     bool
	generates  int
}

var _ runtime.Runtime = (*ScriptedRuntime)(nil)

// Load records the call and fails when LoadErr is set.
func (s *ScriptedRuntime) Load(ctx context.Context, cfg runtime.LoadConfig) error {
	if s.LoadErr != nil {
		return s.LoadErr
	}
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Generate streams the scripted tokens, honoring cancellation.
func (s *ScriptedRuntime) Generate(ctx context.Context, req runtime.GenerateRequest) (<-chan runtime.TokenEvent, error) {
	s.mu.Lock()
	s.lastPrompt = req.Prompt
	s.generates++
	s.mu.Unlock()

	events := make(chan runtime.TokenEvent)
	go func() {
		defer close(events)

		if s.Hang {
			<-ctx.Done()
			return
		}

		for i, tok := range s.Tokens {
			if s.TokenDelay > 0 {
				select {
				case <-time.After(s.TokenDelay):
				case <-ctx.Done():
					return
				}
			}
			if s.FailAfter > 0 && i >= s.FailAfter {
				select {
				case events <- runtime.TokenEvent{Err: errScripted}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case events <- runtime.TokenEvent{Token: tok, Index: i + 1}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// ContextWindow returns the scripted window size.
func (s *ScriptedRuntime) ContextWindow() int {
	if s.Window == 0 {
		return 2048
	}
	return s.Window
}

// ModelID identifies the mock model.
func (s *ScriptedRuntime) ModelID() string {
	return "scripted-test-model"
}

// Unload records the call.
func (s *ScriptedRuntime) Unload() error {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
	return nil
}

// LastPrompt returns the prompt of the most recent Generate call.
func (s *ScriptedRuntime) LastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrompt
}

// GenerateCalls returns how many times Generate was invoked.
func (s *ScriptedRuntime) GenerateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generates
}

// RepeatTokens builds a token script of n copies of tok.
func RepeatTokens(tok string, n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = tok
	}
	return tokens
}

type scriptedError struct{}

func (scriptedError) Error() string { return "scripted backend failure" }

var errScripted = scriptedError{}
