package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lieworks/lie/pkg/config"
	"lieworks/lie/pkg/engine/types"
)

// stubDispatcher records the dispatched request and returns a scripted
// result.
type stubDispatcher struct {
	last   *types.Request
	result *types.Result
	panics bool
}

func (s *stubDispatcher) Dispatch(ctx context.Context, req *types.Request) *types.Result {
	if s.panics {
		panic("scripted panic")
	}
	s.last = req
	res := *s.result
	res.Intent = req.Intent
	return &res
}

func newTestServer(t *testing.T, d Dispatcher) *httptest.Server {
	t.Helper()
	srv := NewServer(config.NewDefault().Server, d, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func successResult(output string) *types.Result {
	return &types.Result{Status: types.StatusSuccess, Output: &output}
}

func decodeResult(t *testing.T, resp *http.Response) *types.Result {
	t.Helper()
	defer resp.Body.Close()
	var res types.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	return &res
}

func TestCompletionEndpoint(t *testing.T) {
	stub := &stubDispatcher{result: successResult("hello")}
	ts := newTestServer(t, stub)

	resp, err := http.Post(ts.URL+"/v1/completion", "application/json",
		strings.NewReader(`{"prompt": "say hello", "limits": {"max_tokens": 5}}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	res := decodeResult(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if res.Output == nil || *res.Output != "hello" {
		t.Errorf("unexpected output: %v", res.Output)
	}
	if stub.last.Intent != types.IntentCompletion {
		t.Errorf("expected completion intent, got %s", stub.last.Intent)
	}
	if stub.last.Limits == nil || *stub.last.Limits.MaxTokens != 5 {
		t.Error("request limits not forwarded")
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestCompletionEndpoint_BadJSON(t *testing.T) {
	ts := newTestServer(t, &stubDispatcher{result: successResult("")})

	resp, err := http.Post(ts.URL+"/v1/completion", "application/json",
		strings.NewReader(`{not json`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	res := decodeResult(t, resp)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if res.Error == nil || res.Error.Kind != types.ErrInvalidRequest {
		t.Errorf("expected invalid_request, got %+v", res.Error)
	}
}

func TestMemoryEndpoint_Routing(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantIntent types.Intent
		wantKey    string
	}{
		{"set", http.MethodPost, "/v1/memory", `{"key": "name", "value": "Alice"}`, types.IntentMemorySet, "name"},
		{"summary append", http.MethodPost, "/v1/memory", `{"value": "likes go"}`, types.IntentMemorySummary, ""},
		{"get", http.MethodGet, "/v1/memory?key=name", "", types.IntentMemoryGet, "name"},
		{"summary read", http.MethodGet, "/v1/memory", "", types.IntentMemorySummary, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubDispatcher{result: successResult("ok")}
			ts := newTestServer(t, stub)

			req, _ := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			if stub.last == nil {
				t.Fatal("nothing dispatched")
			}
			if stub.last.Intent != tt.wantIntent {
				t.Errorf("expected intent %s, got %s", tt.wantIntent, stub.last.Intent)
			}
			if stub.last.Key != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, stub.last.Key)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	stub := &stubDispatcher{result: successResult(`{"status":"ok"}`)}
	ts := newTestServer(t, stub)

	resp, err := http.Get(ts.URL + "/v1/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if stub.last.Intent != types.IntentHealth {
		t.Errorf("expected health intent, got %s", stub.last.Intent)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		kind types.ErrorKind
		want int
	}{
		{types.ErrInvalidRequest, http.StatusBadRequest},
		{types.ErrContextOverflow, http.StatusRequestEntityTooLarge},
		{types.ErrTimeout, http.StatusGatewayTimeout},
		{types.ErrBackendFailure, http.StatusBadGateway},
		{types.ErrMemoryPersist, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			stub := &stubDispatcher{result: &types.Result{
				Status: types.StatusError,
				Error:  &types.ErrorInfo{Kind: tt.kind, Message: "scripted"},
			}}
			ts := newTestServer(t, stub)

			resp, err := http.Post(ts.URL+"/v1/completion", "application/json",
				strings.NewReader(`{"prompt": "x"}`))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Errorf("kind %s: expected %d, got %d", tt.kind, tt.want, resp.StatusCode)
			}
		})
	}
}

func TestPartialResultIs200(t *testing.T) {
	output := "partial out"
	stub := &stubDispatcher{result: &types.Result{
		Status:  types.StatusPartial,
		Output:  &output,
		Warning: "time budget exceeded",
	}}
	ts := newTestServer(t, stub)

	resp, err := http.Post(ts.URL+"/v1/completion", "application/json",
		strings.NewReader(`{"prompt": "x"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	res := decodeResult(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("partial must be 200, got %d", resp.StatusCode)
	}
	if res.Error != nil {
		t.Errorf("partial must carry null error, got %+v", res.Error)
	}
	if res.Warning == "" {
		t.Error("expected warning on partial result")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	ts := newTestServer(t, &stubDispatcher{panics: true, result: successResult("")})

	resp, err := http.Get(ts.URL + "/v1/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	res := decodeResult(t, resp)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
	if res.Error == nil || res.Error.Message != "internal server error" {
		t.Errorf("expected opaque internal error, got %+v", res.Error)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, &stubDispatcher{result: successResult("")})

	resp, err := http.Get(ts.URL + "/v1/completion")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}
