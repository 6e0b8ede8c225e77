package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path,
// applies defaults, environment variable overrides, and validates the
// result. Environment variables use the naming convention LIE_SECTION_FIELD
// (e.g., LIE_SERVER_LISTEN_ADDRESS) and always win over file values.
//
// A missing file is not an error: the defaults are used. Any other read
// or parse failure is.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fall through with defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
		ApplyDefaults(cfg)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies LIE_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.ListenAddress, "LIE_SERVER_LISTEN_ADDRESS")
	setDuration(&cfg.Server.ReadTimeout, "LIE_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "LIE_SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "LIE_SERVER_SHUTDOWN_TIMEOUT")

	setString(&cfg.Model.Path, "LIE_MODEL_PATH")
	setInt(&cfg.Model.ContextWindow, "LIE_MODEL_CONTEXT_WINDOW")
	setBool(&cfg.Model.Watch, "LIE_MODEL_WATCH")

	setInt(&cfg.Limits.MaxTokens, "LIE_LIMITS_MAX_TOKENS")
	setInt(&cfg.Limits.DefaultMaxTokens, "LIE_LIMITS_DEFAULT_MAX_TOKENS")
	setDuration(&cfg.Limits.TimeBudget, "LIE_LIMITS_TIME_BUDGET")
	setDuration(&cfg.Limits.DefaultTimeBudget, "LIE_LIMITS_DEFAULT_TIME_BUDGET")
	setInt(&cfg.Limits.CharsPerToken, "LIE_LIMITS_CHARS_PER_TOKEN")

	setBool(&cfg.Memory.Enabled, "LIE_MEMORY_ENABLED")
	setString(&cfg.Memory.DBPath, "LIE_MEMORY_DB_PATH")
	setInt(&cfg.Memory.MaxSummaryChars, "LIE_MEMORY_MAX_SUMMARY_CHARS")
	setInt(&cfg.Memory.MaxEntries, "LIE_MEMORY_MAX_ENTRIES")

	setBool(&cfg.Audit.Enabled, "LIE_AUDIT_ENABLED")
	setString(&cfg.Audit.DBPath, "LIE_AUDIT_DB_PATH")
	setInt(&cfg.Audit.RetentionDays, "LIE_AUDIT_RETENTION_DAYS")
	setInt(&cfg.Audit.MaxRecords, "LIE_AUDIT_MAX_RECORDS")
	setString(&cfg.Audit.PruneSchedule, "LIE_AUDIT_PRUNE_SCHEDULE")

	setString(&cfg.Runtime.Backend, "LIE_RUNTIME_BACKEND")
	setString(&cfg.Runtime.BaseURL, "LIE_RUNTIME_BASE_URL")

	setString(&cfg.Telemetry.LogLevel, "LIE_TELEMETRY_LOG_LEVEL")
	setString(&cfg.Telemetry.LogFormat, "LIE_TELEMETRY_LOG_FORMAT")
	setBool(&cfg.Telemetry.MetricsEnabled, "LIE_TELEMETRY_METRICS_ENABLED")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
