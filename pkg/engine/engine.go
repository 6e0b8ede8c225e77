package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lieworks/lie/pkg/audit"
	"lieworks/lie/pkg/config"
	"lieworks/lie/pkg/engine/types"
	"lieworks/lie/pkg/guard"
	"lieworks/lie/pkg/memory"
	"lieworks/lie/pkg/runtime"
	"lieworks/lie/pkg/telemetry/metrics"
)

// Engine is the single entry point for all requests. It validates,
// routes by intent, and normalizes every outcome into one Result shape;
// no raw internal error escapes the boundary.
type Engine struct {
	cfg     *config.Config
	rt      runtime.Runtime
	guard   *guard.Guard
	mem     *memory.Manager
	auditor *audit.Recorder
	metrics *metrics.EngineMetrics
	version string
	health  func() (degraded bool, reason string)
	logger  *slog.Logger
}

// Options carries the optional collaborators. All fields may be left
// zero: a nil Audit disables recording, a nil Metrics disables
// instrumentation, a nil Degraded reports healthy.
type Options struct {
	Version  string
	Audit    *audit.Recorder
	Metrics  *metrics.EngineMetrics
	Degraded func() (degraded bool, reason string)
}

// New assembles an engine over the given runtime and memory manager.
// Call Start before dispatching.
func New(cfg *config.Config, rt runtime.Runtime, mem *memory.Manager, opts Options) *Engine {
	return &Engine{
		cfg:     cfg,
		rt:      rt,
		guard:   guard.New(rt, cfg.Limits.CharsPerToken),
		mem:     mem,
		auditor: opts.Audit,
		metrics: opts.Metrics,
		version: opts.Version,
		health:  opts.Degraded,
		logger:  slog.Default().With("component", "engine"),
	}
}

// Start loads the model. A load failure is fatal to the process, not a
// per-request condition, so it is returned as load_error for the caller
// to act on.
func (e *Engine) Start(ctx context.Context) error {
	err := e.rt.Load(ctx, runtime.LoadConfig{
		ModelPath:     e.cfg.Model.Path,
		ContextWindow: e.cfg.Model.ContextWindow,
	})
	if err != nil {
		return types.WrapEngineError(types.ErrLoad, err, "failed to load model %q", e.cfg.Model.Path)
	}
	e.logger.Info("model loaded", "model", e.rt.ModelID(), "context_window", e.rt.ContextWindow())
	return nil
}

// Close releases the runtime and the memory store.
func (e *Engine) Close() error {
	err := e.rt.Unload()
	if cerr := e.mem.Close(); err == nil {
		err = cerr
	}
	return err
}

// Dispatch executes one request and always returns a terminal Result.
// Validation happens before any resource is touched; an invalid request
// never reaches the backend or the store.
func (e *Engine) Dispatch(ctx context.Context, req *types.Request) *types.Result {
	start := time.Now()
	requestID := uuid.NewString()
	log := e.logger.With("request_id", requestID, "intent", req.Intent)

	var res *types.Result
	if err := req.Validate(); err != nil {
		res = types.NewError(req.Intent, err)
	} else {
		res = e.route(ctx, req, log)
	}

	res.Intent = req.Intent
	res.RequestID = requestID
	res.Usage.DurationMS = time.Since(start).Milliseconds()

	e.observe(ctx, req, res, log)
	return res
}

func (e *Engine) route(ctx context.Context, req *types.Request, log *slog.Logger) *types.Result {
	switch req.Intent {
	case types.IntentCompletion:
		return e.completion(ctx, req, log)
	case types.IntentMemorySet:
		err := e.mem.Set(ctx, req.Key, req.Value)
		e.metrics.ObserveMemoryOp("set", err)
		if err != nil {
			return types.NewError(req.Intent, err)
		}
		return types.NewSuccess(req.Intent, req.Value, types.Usage{})
	case types.IntentMemoryGet:
		value, ok := e.mem.Get(ctx, req.Key)
		e.metrics.ObserveMemoryOp("get", nil)
		if !ok {
			return types.NewError(req.Intent, types.NewEngineError(types.ErrInvalidRequest,
				"no fact stored under key %q", req.Key))
		}
		return types.NewSuccess(req.Intent, value, types.Usage{})
	case types.IntentMemorySummary:
		if req.Value != "" {
			err := e.mem.SetSummary(ctx, req.Value)
			e.metrics.ObserveMemoryOp("summary_set", err)
			if err != nil {
				return types.NewError(req.Intent, err)
			}
		}
		return types.NewSuccess(req.Intent, e.mem.Summary(ctx), types.Usage{})
	case types.IntentHealth:
		return e.healthResult(req.Intent)
	default:
		// Validate rejects unknown intents before routing.
		return types.NewError(req.Intent, types.NewEngineError(types.ErrInvalidRequest,
			"unknown intent %q", req.Intent))
	}
}

// completion runs the guarded inference path: inject memory, run the
// guard, then best-effort summary write-back. A failed write-back is a
// warning on an otherwise successful result, never an error.
func (e *Engine) completion(ctx context.Context, req *types.Request, log *slog.Logger) *types.Result {
	limits := req.EffectiveLimits(e.cfg.Limits)

	memEnabled := e.cfg.Memory.Enabled
	if req.MemoryEnabled != nil {
		memEnabled = *req.MemoryEnabled
	}

	inj := memory.Injection{CharsPerToken: e.cfg.Limits.CharsPerToken}
	if memEnabled {
		inj = e.mem.Injection(e.cfg.Memory.InjectionBudgetTokens)
	}

	outcome, err := e.guard.Run(ctx, guard.Prompt{User: req.Prompt, Injection: inj}, limits)
	if err != nil {
		return types.NewError(req.Intent, err)
	}

	output := outcome.Output
	res := &types.Result{
		Status:  outcome.Status,
		Output:  &output,
		Usage:   outcome.Usage,
		Warning: outcome.Warning,
	}

	if memEnabled && outcome.Status == types.StatusSuccess {
		werr := e.mem.SetSummary(ctx, condense(req.Prompt, outcome.Output))
		e.metrics.ObserveMemoryOp("summary_writeback", werr)
		if werr != nil {
			log.Warn("summary write-back failed", "error", werr)
			res.Warning = joinWarning(res.Warning, "memory write-back failed, summary not updated")
		}
	}
	return res
}

// healthResult reports static engine status without touching the
// adapter or the store.
func (e *Engine) healthResult(intent types.Intent) *types.Result {
	status := struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Model   string `json:"model"`
		Reason  string `json:"reason,omitempty"`
	}{
		Status:  "ok",
		Version: e.version,
		Model:   e.rt.ModelID(),
	}
	if e.health != nil {
		if degraded, reason := e.health(); degraded {
			status.Status = "degraded"
			status.Reason = reason
		}
	}

	body, err := json.Marshal(status)
	if err != nil {
		return types.NewError(intent, err)
	}
	return types.NewSuccess(intent, string(body), types.Usage{})
}

// observe records the terminal result in metrics, the audit trail, and
// the log. All best-effort: a failure here never alters the result.
func (e *Engine) observe(ctx context.Context, req *types.Request, res *types.Result, log *slog.Logger) {
	elapsed := time.Duration(res.Usage.DurationMS) * time.Millisecond
	e.metrics.ObserveRequest(string(req.Intent), string(res.Status), elapsed)
	if req.Intent == types.IntentCompletion {
		e.metrics.AddTokens(res.Usage.InputTokens, res.Usage.OutputTokens)
	}

	if e.auditor != nil {
		rec := audit.Record{
			RequestID:    res.RequestID,
			Intent:       string(req.Intent),
			Status:       string(res.Status),
			InputTokens:  res.Usage.InputTokens,
			OutputTokens: res.Usage.OutputTokens,
			DurationMS:   res.Usage.DurationMS,
		}
		if res.Error != nil {
			rec.ErrorKind = string(res.Error.Kind)
		}
		if err := e.auditor.Record(ctx, rec); err != nil {
			log.Warn("audit record failed", "error", err)
		}
	}

	switch res.Status {
	case types.StatusError:
		log.Warn("request failed",
			"status", res.Status,
			"error_kind", res.Error.Kind,
			"error", res.Error.Message,
			"duration_ms", res.Usage.DurationMS,
		)
	default:
		log.Info("request completed",
			"status", res.Status,
			"output_tokens", res.Usage.OutputTokens,
			"duration_ms", res.Usage.DurationMS,
		)
	}
}

// condense builds the rolling-summary write-back entry for a completed
// exchange.
func condense(prompt, output string) string {
	return "Q: " + excerpt(prompt, 100) + " A: " + excerpt(output, 200)
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func joinWarning(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "; " + extra
}
