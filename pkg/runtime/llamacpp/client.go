package llamacpp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"lieworks/lie/pkg/runtime"
)

// Config contains configuration for the llama.cpp backend.
type Config struct {
	// BaseURL is the llama.cpp server base URL (e.g., "http://127.0.0.1:8081").
	BaseURL string

	// ConnectTimeout bounds the startup health probe.
	// Default: 10 seconds
	ConnectTimeout time.Duration

	// HTTPClient is the client used for requests. Defaults to a client
	// without a global timeout; per-generation deadlines come from the
	// caller's context.
	HTTPClient *http.Client
}

// LlamaCpp is a Runtime backed by a local llama.cpp server over HTTP.
//
// llama.cpp serves one generation per slot, so generations are serialized
// through an internal single-slot semaphore. Callers never observe the
// queuing beyond added latency.
type LlamaCpp struct {
	baseURL        string
	connectTimeout time.Duration
	client         *http.Client
	slot           chan struct{}
	logger         *slog.Logger

	contextWindow int
	modelID       string
	loaded        bool
}

var _ runtime.Runtime = (*LlamaCpp)(nil)

// New creates a llama.cpp runtime. The model is not loaded until Load.
func New(cfg Config) *LlamaCpp {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = 10 * time.Second
	}
	return &LlamaCpp{
		baseURL:        cfg.BaseURL,
		connectTimeout: connectTimeout,
		client:         client,
		slot:           make(chan struct{}, 1),
		logger:         slog.Default().With("component", "runtime.llamacpp"),
	}
}

// healthResponse is the llama.cpp /health payload.
type healthResponse struct {
	Status string `json:"status"`
}

// propsResponse is the subset of the llama.cpp /props payload we read.
type propsResponse struct {
	DefaultGenerationSettings struct {
		NCtx int `json:"n_ctx"`
	} `json:"default_generation_settings"`
	ModelPath string `json:"model_path"`
}

// Load probes the llama.cpp server and records the model identity and
// context window. The server owns the actual model file; a failed probe
// means the model is unavailable and is fatal to startup.
func (l *LlamaCpp) Load(ctx context.Context, cfg runtime.LoadConfig) error {
	probeCtx, cancel := context.WithTimeout(ctx, l.connectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, l.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building health probe: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("llama.cpp server unreachable at %s: %w", l.baseURL, err)
	}
	defer resp.Body.Close()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || health.Status != "ok" {
		return fmt.Errorf("llama.cpp server not ready: status %d (%s)", resp.StatusCode, health.Status)
	}

	l.contextWindow = cfg.ContextWindow
	l.modelID = filepath.Base(cfg.ModelPath)

	// The server reports its own geometry; prefer it when available.
	if props, err := l.fetchProps(probeCtx); err == nil {
		if props.DefaultGenerationSettings.NCtx > 0 {
			l.contextWindow = props.DefaultGenerationSettings.NCtx
		}
		if props.ModelPath != "" {
			l.modelID = filepath.Base(props.ModelPath)
		}
	} else {
		l.logger.Warn("could not fetch server props, using configured values", "error", err)
	}

	l.loaded = true
	l.logger.Info("backend ready",
		"base_url", l.baseURL,
		"model", l.modelID,
		"context_window", l.contextWindow,
	)
	return nil
}

func (l *LlamaCpp) fetchProps(ctx context.Context) (*propsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/props", nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("props returned status %d", resp.StatusCode)
	}
	var props propsResponse
	if err := json.NewDecoder(resp.Body).Decode(&props); err != nil {
		return nil, err
	}
	return &props, nil
}

// ContextWindow returns the loaded model's context size in tokens.
func (l *LlamaCpp) ContextWindow() int {
	return l.contextWindow
}

// ModelID identifies the loaded model.
func (l *LlamaCpp) ModelID() string {
	return l.modelID
}

// Unload releases the backend. The llama.cpp server keeps the model; we
// only drop our bookkeeping and idle connections.
func (l *LlamaCpp) Unload() error {
	l.loaded = false
	l.client.CloseIdleConnections()
	return nil
}
