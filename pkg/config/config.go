package config

import "time"

// Config is the root configuration structure for Maestro. It contains all
// configuration sections for providers, dispatching, refinement, synthesis,
// storage and telemetry.
type Config struct {
	// Providers contains configuration for all provider integrations.
	// Keys are provider names ("claude", "gemini", "perplexity", "local").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Dispatcher contains execution scheduling configuration including the
	// default mode, queue sizing and per-execution defaults.
	Dispatcher DispatcherConfig `yaml:"dispatcher"`

	// Refinement contains refinement loop configuration including the
	// attempt bound and the quality threshold.
	Refinement RefinementConfig `yaml:"refinement"`

	// Synthesis contains answer fusion configuration including the local
	// fuser model and the deterministic fallback switch.
	Synthesis SynthesisConfig `yaml:"synthesis"`

	// Storage contains persistence configuration for the embedded store.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry contains observability configuration for logging and
	// metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProviderConfig contains configuration for a single provider.
type ProviderConfig struct {
	// Enabled controls whether the provider participates in executions.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// BaseURL is the base URL for the provider's API endpoint.
	// Example: "https://api.anthropic.com"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the provider. This should
	// typically be supplied through an environment variable. The local
	// provider needs no key.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier sent to the provider.
	Model string `yaml:"model"`

	// Timeout is the maximum duration for one call to this provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of transport-level retry attempts
	// inside the adapter.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// Weight is the base reliability weight in [0,1] used for confidence
	// scoring.
	Weight float64 `yaml:"weight"`

	// MaxConcurrent caps in-flight requests to this provider.
	// Default: 3
	MaxConcurrent int `yaml:"max_concurrent"`

	// MinInterval is the minimum delay between consecutive calls.
	MinInterval time.Duration `yaml:"min_interval"`
}

// DispatcherConfig contains execution scheduling configuration.
type DispatcherConfig struct {
	// DefaultMode is the execution mode used when the caller does not
	// specify one.
	// Options: "parallel", "sequential", "priority_based", "load_balanced"
	// Default: "parallel"
	DefaultMode string `yaml:"default_mode"`

	// QueueMultiplier scales each provider's queue capacity over its
	// max_concurrent. Overflow tasks are rejected, never blocked.
	// Default: 2
	QueueMultiplier int `yaml:"queue_multiplier"`

	// DefaultDeadline is the wall-clock budget applied when the caller
	// does not set one.
	// Default: 60s
	DefaultDeadline time.Duration `yaml:"default_deadline"`
}

// RefinementConfig contains refinement loop configuration.
type RefinementConfig struct {
	// MaxAttempts bounds refinement attempts per provider, 1..10.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// QualityThreshold is the accepting validator score in (0,1].
	// Default: 0.7
	QualityThreshold float64 `yaml:"quality_threshold"`

	// RulesPath is an optional YAML file overriding the built-in rule
	// table. Empty means built-in rules only.
	RulesPath string `yaml:"rules_path"`

	// Watch enables hot reloading of the rule file when it changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// SynthesisConfig contains answer fusion configuration.
type SynthesisConfig struct {
	// FallbackOnly disables the LLM fuser and always uses the
	// deterministic fallback composition.
	// Default: false
	FallbackOnly bool `yaml:"fallback_only"`

	// MaxTokens bounds the fused answer length.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// LocalBaseURL is the endpoint of the local LLM used for key-fact
	// extraction and fusion.
	// Default: "http://localhost:11434"
	LocalBaseURL string `yaml:"local_base_url"`

	// LocalModel is the local model identifier.
	// Default: "llama3.1"
	LocalModel string `yaml:"local_model"`
}

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	// Path is the SQLite database file path.
	// Default: "./maestro.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// RetentionDays is how long execution records are kept before the
	// maintenance sweep deletes them. Zero disables the sweep.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// MaintenanceSchedule is the cron expression for the retention sweep
	// and session snapshotting.
	// Default: "0 3 * * *" (daily at 03:00)
	MaintenanceSchedule string `yaml:"maintenance_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the output encoding.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// Output selects the destination.
	// Options: "stdout", "stderr", or a file path
	// Default: "stderr"
	Output string `yaml:"output"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "maestro"
	Namespace string `yaml:"namespace"`

	// Subsystem is the second metric name segment.
	// Default: "core"
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is where the metrics endpoint is served. Empty
	// disables the endpoint (metrics are still recorded).
	// Example: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// DurationBuckets overrides the histogram buckets for durations.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// ProviderEnabled reports whether a provider section is enabled. A missing
// enabled field counts as enabled.
func (p ProviderConfig) ProviderEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}
