package guard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lieworks/lie/internal/testutil"
	"lieworks/lie/pkg/engine/types"
	"lieworks/lie/pkg/memory"
)

func limits(maxTokens int, budget time.Duration) types.Limits {
	return types.Limits{MaxTokens: maxTokens, TimeBudget: budget}
}

func TestRun_NaturalStop(t *testing.T) {
	rt := &testutil.ScriptedRuntime{Tokens: []string{"Hello", " ", "world"}}
	g := New(rt, 4)

	out, err := g.Run(context.Background(), Prompt{User: "Hi"}, limits(100, time.Second))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.Status != types.StatusSuccess {
		t.Errorf("expected success, got %s", out.Status)
	}
	if out.Output != "Hello world" {
		t.Errorf("expected full output, got %q", out.Output)
	}
	if out.Usage.OutputTokens != 3 {
		t.Errorf("expected 3 output tokens, got %d", out.Usage.OutputTokens)
	}
}

func TestRun_MaxTokensStopsGeneration(t *testing.T) {
	// A backend that would naturally produce 500 tokens.
	rt := &testutil.ScriptedRuntime{Tokens: testutil.RepeatTokens("x", 500)}
	g := New(rt, 4)

	out, err := g.Run(context.Background(), Prompt{User: "Hi"}, limits(5, time.Second))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.Status != types.StatusSuccess {
		t.Errorf("expected success at max_tokens, got %s", out.Status)
	}
	if out.Usage.OutputTokens != 5 {
		t.Errorf("expected exactly 5 output tokens, got %d", out.Usage.OutputTokens)
	}
	if out.Output != "xxxxx" {
		t.Errorf("expected 5 tokens of output, got %q", out.Output)
	}
}

func TestRun_DeadlineReturnsPartial(t *testing.T) {
	// Produces a token every 30ms; budget allows one or two.
	rt := &testutil.ScriptedRuntime{
		Tokens:     testutil.RepeatTokens("t", 100),
		TokenDelay: 30 * time.Millisecond,
	}
	g := New(rt, 4)

	out, err := g.Run(context.Background(), Prompt{User: "Hi"}, limits(100, 80*time.Millisecond))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.Status != types.StatusPartial {
		t.Errorf("expected partial, got %s", out.Status)
	}
	if out.Usage.OutputTokens == 0 || out.Usage.OutputTokens >= 100 {
		t.Errorf("expected a few tokens before the deadline, got %d", out.Usage.OutputTokens)
	}
	if out.Warning == "" {
		t.Error("expected a warning describing the exceeded budget")
	}
}

func TestRun_NeverYieldingBackendReturnsWithinBudget(t *testing.T) {
	rt := &testutil.ScriptedRuntime{Hang: true}
	g := New(rt, 4)

	budget := 50 * time.Millisecond
	start := time.Now()
	out, err := g.Run(context.Background(), Prompt{User: "Hi"}, limits(100, budget))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Status != types.StatusPartial {
		t.Errorf("expected partial against silent backend, got %s", out.Status)
	}
	if out.Usage.OutputTokens != 0 {
		t.Errorf("expected no output tokens, got %d", out.Usage.OutputTokens)
	}
	// Budget plus bounded overhead.
	if elapsed > budget+200*time.Millisecond {
		t.Errorf("guard took %v, budget was %v", elapsed, budget)
	}
}

func TestRun_BackendErrorMapsToBackendFailure(t *testing.T) {
	rt := &testutil.ScriptedRuntime{
		Tokens:    testutil.RepeatTokens("x", 10),
		FailAfter: 3,
	}
	g := New(rt, 4)

	_, err := g.Run(context.Background(), Prompt{User: "Hi"}, limits(100, time.Second))
	var ee *types.EngineError
	if !errors.As(err, &ee) || ee.Kind != types.ErrBackendFailure {
		t.Fatalf("expected backend_failure, got %v", err)
	}
}

func TestRun_PromptOverflowFailsFast(t *testing.T) {
	rt := &testutil.ScriptedRuntime{Window: 10} // tiny window
	g := New(rt, 4)

	huge := strings.Repeat("a", 200) // ~50 tokens at ratio 4
	_, err := g.Run(context.Background(), Prompt{User: huge}, limits(10, time.Second))

	var ee *types.EngineError
	if !errors.As(err, &ee) || ee.Kind != types.ErrContextOverflow {
		t.Fatalf("expected context_overflow, got %v", err)
	}
	if rt.GenerateCalls() != 0 {
		t.Errorf("backend must not be invoked on overflow, saw %d calls", rt.GenerateCalls())
	}
}

func TestRun_InjectionShedsOldestFactsFirst(t *testing.T) {
	rt := &testutil.ScriptedRuntime{Tokens: []string{"ok"}, Window: 40}
	g := New(rt, 4)

	prompt := Prompt{
		User: strings.Repeat("p", 100), // ~25 tokens, fits alone
		Injection: memory.Injection{
			Facts: []memory.Fact{
				{Key: "old", Value: strings.Repeat("o", 40)},
				{Key: "new", Value: strings.Repeat("n", 10)},
			},
			CharsPerToken: 4,
		},
	}

	out, err := g.Run(context.Background(), prompt, limits(10, time.Second))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	sent := rt.LastPrompt()
	if strings.Contains(sent, "old=") {
		t.Error("expected the oldest fact to be shed")
	}
	if !strings.HasSuffix(sent, prompt.User) {
		t.Error("user prompt must never be truncated")
	}
	if out.Warning == "" {
		t.Error("expected truncation warning")
	}
}

func TestRun_InjectionPrecedesPrompt(t *testing.T) {
	rt := &testutil.ScriptedRuntime{Tokens: []string{"ok"}}
	g := New(rt, 4)

	prompt := Prompt{
		User: "Hi",
		Injection: memory.Injection{
			Facts:         []memory.Fact{{Key: "user_name", Value: "Alice"}},
			CharsPerToken: 4,
		},
	}

	if _, err := g.Run(context.Background(), prompt, limits(10, time.Second)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	sent := rt.LastPrompt()
	aliceAt := strings.Index(sent, "Alice")
	promptAt := strings.LastIndex(sent, "Hi")
	if aliceAt < 0 || promptAt < 0 || aliceAt > promptAt {
		t.Errorf("expected injected context before prompt, got %q", sent)
	}
}
