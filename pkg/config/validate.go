package config

import (
	"fmt"
	"net"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns the first error found.
func Validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
		return fmt.Errorf("server.listen_address %q is not host:port: %w",
			cfg.Server.ListenAddress, err)
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	if cfg.Model.Path == "" {
		return fmt.Errorf("model.path must not be empty")
	}
	if cfg.Model.ContextWindow <= 0 {
		return fmt.Errorf("model.context_window must be positive, got %d",
			cfg.Model.ContextWindow)
	}

	if cfg.Limits.MaxTokens <= 0 {
		return fmt.Errorf("limits.max_tokens must be positive, got %d",
			cfg.Limits.MaxTokens)
	}
	if cfg.Limits.DefaultMaxTokens <= 0 || cfg.Limits.DefaultMaxTokens > cfg.Limits.MaxTokens {
		return fmt.Errorf("limits.default_max_tokens must be in [1, %d], got %d",
			cfg.Limits.MaxTokens, cfg.Limits.DefaultMaxTokens)
	}
	if cfg.Limits.TimeBudget <= 0 {
		return fmt.Errorf("limits.time_budget must be positive")
	}
	if cfg.Limits.DefaultTimeBudget <= 0 || cfg.Limits.DefaultTimeBudget > cfg.Limits.TimeBudget {
		return fmt.Errorf("limits.default_time_budget must be in (0, %s], got %s",
			cfg.Limits.TimeBudget, cfg.Limits.DefaultTimeBudget)
	}
	if cfg.Limits.CharsPerToken <= 0 {
		return fmt.Errorf("limits.chars_per_token must be positive, got %d",
			cfg.Limits.CharsPerToken)
	}

	if cfg.Memory.MaxSummaryChars <= 0 {
		return fmt.Errorf("memory.max_summary_chars must be positive, got %d",
			cfg.Memory.MaxSummaryChars)
	}
	if cfg.Memory.MaxEntries <= 0 {
		return fmt.Errorf("memory.max_entries must be positive, got %d",
			cfg.Memory.MaxEntries)
	}
	if cfg.Memory.InjectionBudgetTokens <= 0 {
		return fmt.Errorf("memory.injection_budget_tokens must be positive, got %d",
			cfg.Memory.InjectionBudgetTokens)
	}

	if cfg.Audit.Enabled {
		if cfg.Audit.RetentionDays < 0 {
			return fmt.Errorf("audit.retention_days must not be negative, got %d",
				cfg.Audit.RetentionDays)
		}
		if cfg.Audit.MaxRecords < 0 {
			return fmt.Errorf("audit.max_records must not be negative, got %d",
				cfg.Audit.MaxRecords)
		}
		if cfg.Audit.PruneSchedule != "" {
			if _, err := cron.ParseStandard(cfg.Audit.PruneSchedule); err != nil {
				return fmt.Errorf("audit.prune_schedule %q is not a valid cron expression: %w",
					cfg.Audit.PruneSchedule, err)
			}
		}
	}

	switch cfg.Runtime.Backend {
	case "llamacpp":
	default:
		return fmt.Errorf("runtime.backend %q is not supported (supported: llamacpp)",
			cfg.Runtime.Backend)
	}
	if cfg.Runtime.BaseURL == "" {
		return fmt.Errorf("runtime.base_url must not be empty")
	}

	switch cfg.Telemetry.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.log_level %q is not one of debug, info, warn, error",
			cfg.Telemetry.LogLevel)
	}
	switch cfg.Telemetry.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.log_format %q is not one of json, text",
			cfg.Telemetry.LogFormat)
	}

	return nil
}
