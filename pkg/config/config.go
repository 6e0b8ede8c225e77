package config

import "time"

// Config is the root configuration structure for the engine.
// It is loaded once at process start and treated as immutable afterwards;
// the engine never re-reads configuration mid-session.
type Config struct {
	// Model contains the native model to load and its context geometry.
	Model ModelConfig `yaml:"model"`

	// Server contains the HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Limits contains the engine-wide hard ceilings and defaults applied
	// to per-request limits. Request values are clamped to these ceilings,
	// never exceeded.
	Limits LimitsConfig `yaml:"limits"`

	// Memory contains the persistent memory store configuration.
	Memory MemoryConfig `yaml:"memory"`

	// Audit contains the request audit trail configuration.
	Audit AuditConfig `yaml:"audit"`

	// Runtime selects and configures the native inference backend.
	Runtime RuntimeConfig `yaml:"runtime"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ModelConfig describes the model file handed to the runtime at startup.
type ModelConfig struct {
	// Path is the model file path (e.g., "models/default.gguf").
	Path string `yaml:"path"`

	// ContextWindow is the total context size in tokens. Combined
	// prompt plus injected memory must fit inside this window.
	// Default: 2048
	ContextWindow int `yaml:"context_window"`

	// Watch enables the model file watcher. When the file is removed or
	// replaced while the engine is running, health reports degraded.
	// Default: true
	Watch bool `yaml:"watch"`
}

// ServerConfig contains configuration for the HTTP surface.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 5m (a guarded generation can legitimately run for minutes)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LimitsConfig contains the hard ceilings the router clamps request
// limits to, and the defaults used when a request leaves them unset.
type LimitsConfig struct {
	// MaxTokens is the ceiling for a request's max_tokens.
	// Default: 8192
	MaxTokens int `yaml:"max_tokens"`

	// DefaultMaxTokens is used when a request does not set max_tokens.
	// Default: 128
	DefaultMaxTokens int `yaml:"default_max_tokens"`

	// TimeBudget is the ceiling for a request's time_budget_ms.
	// Default: 5m
	TimeBudget time.Duration `yaml:"time_budget"`

	// DefaultTimeBudget is used when a request does not set time_budget_ms.
	// Default: 30s
	DefaultTimeBudget time.Duration `yaml:"default_time_budget"`

	// CharsPerToken is the conservative character-to-token ratio used for
	// context window estimation and injection budgeting.
	// Default: 4
	CharsPerToken int `yaml:"chars_per_token"`
}

// MemoryConfig contains configuration for the persistent memory store.
type MemoryConfig struct {
	// Enabled is the default for a request's memory_enabled flag.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database file backing the store.
	// Default: "data/memory.db"
	DBPath string `yaml:"db_path"`

	// MaxSummaryChars bounds the rolling summary; older text is dropped
	// from the front when the bound is exceeded.
	// Default: 1000
	MaxSummaryChars int `yaml:"max_summary_chars"`

	// MaxEntries bounds the number of stored facts. Inserting a new key
	// beyond the bound is rejected; overwriting an existing key is not.
	// Default: 50
	MaxEntries int `yaml:"max_entries"`

	// InjectionBudgetTokens bounds how many tokens of memory context are
	// prepended to a completion prompt.
	// Default: 512
	InjectionBudgetTokens int `yaml:"injection_budget_tokens"`
}

// AuditConfig contains configuration for the request audit trail.
type AuditConfig struct {
	// Enabled controls whether dispatched requests are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database file for audit records.
	// Default: "data/audit.db"
	DBPath string `yaml:"db_path"`

	// RetentionDays is how long audit records are kept. Zero disables
	// age-based pruning.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of stored records; oldest are pruned
	// first. Zero disables the cap.
	// Default: 100000
	MaxRecords int `yaml:"max_records"`

	// PruneSchedule is a standard cron expression for the retention
	// pruner (e.g., "0 3 * * *" for daily at 3 AM). Empty disables
	// scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// RuntimeConfig selects the native inference backend.
type RuntimeConfig struct {
	// Backend is the backend name. Supported: "llamacpp".
	// Default: "llamacpp"
	Backend string `yaml:"backend"`

	// BaseURL is the llama.cpp server base URL.
	// Default: "http://127.0.0.1:8081"
	BaseURL string `yaml:"base_url"`

	// ConnectTimeout bounds the startup health probe of the backend.
	// Default: 10s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// LogLevel is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is the log output format ("json" or "text").
	// Default: "json"
	LogFormat string `yaml:"log_format"`

	// MetricsEnabled controls whether the /metrics endpoint is served.
	// Default: true
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// MetricsNamespace is the Prometheus metric namespace.
	// Default: "lie"
	MetricsNamespace string `yaml:"metrics_namespace"`
}
