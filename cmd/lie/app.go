package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"lieworks/lie/pkg/audit"
	"lieworks/lie/pkg/config"
	"lieworks/lie/pkg/engine"
	"lieworks/lie/pkg/memory"
	"lieworks/lie/pkg/modelwatch"
	"lieworks/lie/pkg/runtime"
	"lieworks/lie/pkg/runtime/llamacpp"
	"lieworks/lie/pkg/telemetry/logging"
	"lieworks/lie/pkg/telemetry/metrics"
)

// app is the assembled engine stack shared by the serve and one-shot
// commands.
type app struct {
	cfg      *config.Config
	eng      *engine.Engine
	recorder *audit.Recorder
	watcher  *modelwatch.Watcher
	registry *prometheus.Registry
}

// newApp loads configuration, installs logging, and wires the stack.
// loadModel controls whether the backend is probed; memory-only
// commands skip it so they work with the backend down.
func newApp(ctx context.Context, loadModel bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Telemetry.LogLevel = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.LogLevel,
		Format: cfg.Telemetry.LogFormat,
	}); err != nil {
		return nil, err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return nil, err
	}

	mem := memory.Open(cfg.Memory, cfg.Limits.CharsPerToken)

	a := &app{cfg: cfg}

	var engineMetrics *metrics.EngineMetrics
	if cfg.Telemetry.MetricsEnabled {
		a.registry = prometheus.NewRegistry()
		engineMetrics = metrics.New(cfg.Telemetry.MetricsNamespace, a.registry)
	}

	if cfg.Audit.Enabled {
		a.recorder, err = audit.NewRecorder(cfg.Audit.DBPath)
		if err != nil {
			mem.Close()
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
	}

	opts := engine.Options{
		Version: Version,
		Audit:   a.recorder,
		Metrics: engineMetrics,
	}

	if loadModel && cfg.Model.Watch {
		watcher, werr := modelwatch.New(cfg.Model.Path)
		if werr == nil {
			watcher.Start(ctx)
			a.watcher = watcher
			opts.Degraded = watcher.Status
		}
	}

	a.eng = engine.New(cfg, rt, mem, opts)

	if loadModel {
		if err := a.eng.Start(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func newRuntime(cfg *config.Config) (runtime.Runtime, error) {
	switch cfg.Runtime.Backend {
	case "llamacpp":
		return llamacpp.New(llamacpp.Config{
			BaseURL:        cfg.Runtime.BaseURL,
			ConnectTimeout: cfg.Runtime.ConnectTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported runtime backend: %s", cfg.Runtime.Backend)
	}
}

// Close releases the stack in reverse construction order.
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.eng != nil {
		a.eng.Close()
	}
	if a.recorder != nil {
		a.recorder.Close()
	}
}

// addOutputFlag registers the shared --output flag.
func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", "json", "output format (json, text)")
}
