package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention MAESTRO_SECTION_FIELD and always take precedence over the
// file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	for name := range cfg.Providers {
		applyProviderEnvOverrides(cfg, name)
	}

	// Dispatcher overrides
	if val := os.Getenv("MAESTRO_DISPATCHER_DEFAULT_MODE"); val != "" {
		cfg.Dispatcher.DefaultMode = val
	}
	if val := os.Getenv("MAESTRO_DISPATCHER_QUEUE_MULTIPLIER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Dispatcher.QueueMultiplier = i
		}
	}
	if val := os.Getenv("MAESTRO_DISPATCHER_DEFAULT_DEADLINE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Dispatcher.DefaultDeadline = d
		}
	}

	// Refinement overrides
	if val := os.Getenv("MAESTRO_REFINEMENT_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Refinement.MaxAttempts = i
		}
	}
	if val := os.Getenv("MAESTRO_REFINEMENT_QUALITY_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Refinement.QualityThreshold = f
		}
	}
	if val := os.Getenv("MAESTRO_REFINEMENT_RULES_PATH"); val != "" {
		cfg.Refinement.RulesPath = val
	}
	if val := os.Getenv("MAESTRO_REFINEMENT_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Refinement.Watch = b
		}
	}

	// Synthesis overrides
	if val := os.Getenv("MAESTRO_SYNTHESIS_FALLBACK_ONLY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Synthesis.FallbackOnly = b
		}
	}
	if val := os.Getenv("MAESTRO_SYNTHESIS_MAX_TOKENS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Synthesis.MaxTokens = i
		}
	}
	if val := os.Getenv("MAESTRO_SYNTHESIS_LOCAL_BASE_URL"); val != "" {
		cfg.Synthesis.LocalBaseURL = val
	}
	if val := os.Getenv("MAESTRO_SYNTHESIS_LOCAL_MODEL"); val != "" {
		cfg.Synthesis.LocalModel = val
	}

	// Storage overrides
	if val := os.Getenv("MAESTRO_STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}
	if val := os.Getenv("MAESTRO_STORAGE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.BusyTimeout = d
		}
	}
	if val := os.Getenv("MAESTRO_STORAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.RetentionDays = i
		}
	}
	if val := os.Getenv("MAESTRO_STORAGE_MAINTENANCE_SCHEDULE"); val != "" {
		cfg.Storage.MaintenanceSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("MAESTRO_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MAESTRO_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MAESTRO_TELEMETRY_LOGGING_OUTPUT"); val != "" {
		cfg.Telemetry.Logging.Output = val
	}
	if val := os.Getenv("MAESTRO_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MAESTRO_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("MAESTRO_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}

// applyProviderEnvOverrides applies environment variable overrides for a
// specific provider. Provider variables follow the format
// MAESTRO_PROVIDERS_<NAME>_<FIELD> with the provider name upper-cased.
func applyProviderEnvOverrides(cfg *Config, name string) {
	provider := cfg.Providers[name]
	prefix := fmt.Sprintf("MAESTRO_PROVIDERS_%s_", strings.ToUpper(name))

	if val := os.Getenv(prefix + "ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			provider.Enabled = &b
		}
	}
	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
	}
	if val := os.Getenv(prefix + "MODEL"); val != "" {
		provider.Model = val
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.Timeout = d
		}
	}
	if val := os.Getenv(prefix + "MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.MaxRetries = i
		}
	}
	if val := os.Getenv(prefix + "WEIGHT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			provider.Weight = f
		}
	}
	if val := os.Getenv(prefix + "MAX_CONCURRENT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.MaxConcurrent = i
		}
	}
	if val := os.Getenv(prefix + "MIN_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.MinInterval = d
		}
	}

	cfg.Providers[name] = provider
}
