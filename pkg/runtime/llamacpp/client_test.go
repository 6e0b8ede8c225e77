package llamacpp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lieworks/lie/pkg/runtime"
)

// newFakeServer returns an httptest server speaking just enough of the
// llama.cpp HTTP API: /health, /props, and a streaming /completion that
// emits the given tokens.
func newFakeServer(t *testing.T, tokens []string, delay time.Duration) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/props", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"default_generation_settings":{"n_ctx":4096},"model_path":"/models/fake-7b.gguf"}`)
	})
	mux.HandleFunc("/completion", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for i, tok := range tokens {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(delay):
			}
			stop := i == len(tokens)-1
			fmt.Fprintf(w, "data: {\"content\":%q,\"stop\":%v}\n\n", tok, stop)
			flusher.Flush()
		}
	})
	return httptest.NewServer(mux)
}

func newLoadedRuntime(t *testing.T, srv *httptest.Server) *LlamaCpp {
	t.Helper()
	rt := New(Config{BaseURL: srv.URL})
	if err := rt.Load(context.Background(), runtime.LoadConfig{
		ModelPath:     "/models/fake-7b.gguf",
		ContextWindow: 2048,
	}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return rt
}

func TestLoad_ProbesHealthAndProps(t *testing.T) {
	srv := newFakeServer(t, []string{"x"}, 0)
	defer srv.Close()

	rt := newLoadedRuntime(t, srv)

	if rt.ModelID() != "fake-7b.gguf" {
		t.Errorf("expected model id from props, got %q", rt.ModelID())
	}
	// Server-reported n_ctx wins over the configured window.
	if rt.ContextWindow() != 4096 {
		t.Errorf("expected context window 4096, got %d", rt.ContextWindow())
	}
}

func TestLoad_UnreachableServer(t *testing.T) {
	rt := New(Config{BaseURL: "http://127.0.0.1:1", ConnectTimeout: 500 * time.Millisecond})
	err := rt.Load(context.Background(), runtime.LoadConfig{ModelPath: "m.gguf", ContextWindow: 2048})
	if err == nil {
		t.Fatal("expected load error against unreachable server")
	}
}

func TestGenerate_StreamsTokens(t *testing.T) {
	srv := newFakeServer(t, []string{"Hello", " ", "world"}, 0)
	defer srv.Close()

	rt := newLoadedRuntime(t, srv)

	events, err := rt.Generate(context.Background(), runtime.GenerateRequest{Prompt: "Hi", MaxTokens: 16})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var sb strings.Builder
	count := 0
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
		count++
		if ev.Index != count {
			t.Errorf("expected running index %d, got %d", count, ev.Index)
		}
		sb.WriteString(ev.Token)
	}

	if sb.String() != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", sb.String())
	}
}

func TestGenerate_CancellationTerminatesStream(t *testing.T) {
	// A slow server that would take ~10s to finish.
	srv := newFakeServer(t, manyTokens(100), 100*time.Millisecond)
	defer srv.Close()

	rt := newLoadedRuntime(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := rt.Generate(ctx, runtime.GenerateRequest{Prompt: "Hi", MaxTokens: 1000})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Read a couple of tokens, then cancel.
	<-events
	cancel()

	done := make(chan struct{})
	go func() {
		for range events {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate promptly after cancellation")
	}
}

func TestGenerate_SerializesGenerations(t *testing.T) {
	srv := newFakeServer(t, []string{"a", "b"}, 20*time.Millisecond)
	defer srv.Close()

	rt := newLoadedRuntime(t, srv)

	first, err := rt.Generate(context.Background(), runtime.GenerateRequest{Prompt: "one", MaxTokens: 8})
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}

	// The second generation must wait for the slot, not fail.
	secondReady := make(chan error, 1)
	go func() {
		events, err := rt.Generate(context.Background(), runtime.GenerateRequest{Prompt: "two", MaxTokens: 8})
		if err == nil {
			for range events {
			}
		}
		secondReady <- err
	}()

	for range first {
	}

	select {
	case err := <-secondReady:
		if err != nil {
			t.Fatalf("second Generate failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second generation never ran")
	}
}

func TestGenerate_NotLoaded(t *testing.T) {
	rt := New(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := rt.Generate(context.Background(), runtime.GenerateRequest{Prompt: "Hi"}); err == nil {
		t.Fatal("expected error from unloaded runtime")
	}
}

func manyTokens(n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = "tok "
	}
	return tokens
}
