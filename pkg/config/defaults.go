package config

import "time"

// Default configuration values applied by ApplyDefaults.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultModelPath     = "models/default.gguf"
	DefaultContextWindow = 2048

	DefaultMaxTokensCeiling  = 8192
	DefaultMaxTokens         = 128
	DefaultTimeBudgetCeiling = 5 * time.Minute
	DefaultTimeBudget        = 30 * time.Second
	DefaultCharsPerToken     = 4

	DefaultMemoryDBPath          = "data/memory.db"
	DefaultMaxSummaryChars       = 1000
	DefaultMaxEntries            = 50
	DefaultInjectionBudgetTokens = 512

	DefaultAuditDBPath       = "data/audit.db"
	DefaultRetentionDays     = 30
	DefaultMaxRecords        = 100000
	DefaultPruneSchedule     = "0 3 * * *"
	DefaultRuntimeBackend    = "llamacpp"
	DefaultRuntimeBaseURL    = "http://127.0.0.1:8081"
	DefaultConnectTimeout    = 10 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultMetricsNamespace  = "lie"
)

// ApplyDefaults fills in zero-valued fields with default values.
// Booleans with a true default are handled in Load via yaml pre-seeding,
// so a config file can still set them to false explicitly.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Model.Path == "" {
		cfg.Model.Path = DefaultModelPath
	}
	if cfg.Model.ContextWindow == 0 {
		cfg.Model.ContextWindow = DefaultContextWindow
	}

	if cfg.Limits.MaxTokens == 0 {
		cfg.Limits.MaxTokens = DefaultMaxTokensCeiling
	}
	if cfg.Limits.DefaultMaxTokens == 0 {
		cfg.Limits.DefaultMaxTokens = DefaultMaxTokens
	}
	if cfg.Limits.TimeBudget == 0 {
		cfg.Limits.TimeBudget = DefaultTimeBudgetCeiling
	}
	if cfg.Limits.DefaultTimeBudget == 0 {
		cfg.Limits.DefaultTimeBudget = DefaultTimeBudget
	}
	if cfg.Limits.CharsPerToken == 0 {
		cfg.Limits.CharsPerToken = DefaultCharsPerToken
	}

	if cfg.Memory.DBPath == "" {
		cfg.Memory.DBPath = DefaultMemoryDBPath
	}
	if cfg.Memory.MaxSummaryChars == 0 {
		cfg.Memory.MaxSummaryChars = DefaultMaxSummaryChars
	}
	if cfg.Memory.MaxEntries == 0 {
		cfg.Memory.MaxEntries = DefaultMaxEntries
	}
	if cfg.Memory.InjectionBudgetTokens == 0 {
		cfg.Memory.InjectionBudgetTokens = DefaultInjectionBudgetTokens
	}

	if cfg.Audit.DBPath == "" {
		cfg.Audit.DBPath = DefaultAuditDBPath
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultRetentionDays
	}
	if cfg.Audit.MaxRecords == 0 {
		cfg.Audit.MaxRecords = DefaultMaxRecords
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = DefaultPruneSchedule
	}

	if cfg.Runtime.Backend == "" {
		cfg.Runtime.Backend = DefaultRuntimeBackend
	}
	if cfg.Runtime.BaseURL == "" {
		cfg.Runtime.BaseURL = DefaultRuntimeBaseURL
	}
	if cfg.Runtime.ConnectTimeout == 0 {
		cfg.Runtime.ConnectTimeout = DefaultConnectTimeout
	}

	if cfg.Telemetry.LogLevel == "" {
		cfg.Telemetry.LogLevel = DefaultLogLevel
	}
	if cfg.Telemetry.LogFormat == "" {
		cfg.Telemetry.LogFormat = DefaultLogFormat
	}
	if cfg.Telemetry.MetricsNamespace == "" {
		cfg.Telemetry.MetricsNamespace = DefaultMetricsNamespace
	}
}

// NewDefault returns a configuration with all defaults applied and the
// true-by-default booleans set. Used when no config file is present.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Model.Watch = true
	cfg.Audit.Enabled = true
	cfg.Telemetry.MetricsEnabled = true
	ApplyDefaults(cfg)
	return cfg
}
