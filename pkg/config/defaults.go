package config

import "time"

// Default provider endpoints and models.
const (
	defaultClaudeBaseURL     = "https://api.anthropic.com"
	defaultClaudeModel       = "claude-sonnet-4-20250514"
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com"
	defaultGeminiModel       = "gemini-2.0-flash"
	defaultPerplexityBaseURL = "https://api.perplexity.ai"
	defaultPerplexityModel   = "sonar"
	defaultLocalBaseURL      = "http://localhost:11434"
	defaultLocalModel        = "llama3.1"
)

// defaultProviders returns the built-in provider sections. Remote providers
// share a 5s pacing interval; the local provider is unpaced.
func defaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"claude": {
			BaseURL:       defaultClaudeBaseURL,
			Model:         defaultClaudeModel,
			Weight:        0.95,
			MaxConcurrent: 3,
			MinInterval:   5 * time.Second,
		},
		"gemini": {
			BaseURL:       defaultGeminiBaseURL,
			Model:         defaultGeminiModel,
			Weight:        0.90,
			MaxConcurrent: 3,
			MinInterval:   5 * time.Second,
		},
		"perplexity": {
			BaseURL:       defaultPerplexityBaseURL,
			Model:         defaultPerplexityModel,
			Weight:        0.85,
			MaxConcurrent: 3,
			MinInterval:   5 * time.Second,
		},
		"local": {
			BaseURL:       defaultLocalBaseURL,
			Model:         defaultLocalModel,
			Weight:        0.70,
			MaxConcurrent: 2,
		},
	}
}

// ApplyDefaults fills in default values for any configuration field that was
// not specified. It is called automatically by LoadConfig.
func ApplyDefaults(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = defaultProviders()
	}
	for name, p := range cfg.Providers {
		base, known := defaultProviders()[name]
		if p.BaseURL == "" && known {
			p.BaseURL = base.BaseURL
		}
		if p.Model == "" && known {
			p.Model = base.Model
		}
		if p.Weight == 0 && known {
			p.Weight = base.Weight
		}
		if p.MaxConcurrent == 0 {
			p.MaxConcurrent = 3
		}
		if p.MinInterval == 0 && known {
			p.MinInterval = base.MinInterval
		}
		if p.Timeout == 0 {
			p.Timeout = 60 * time.Second
		}
		if p.MaxRetries == 0 {
			p.MaxRetries = 3
		}
		cfg.Providers[name] = p
	}

	if cfg.Dispatcher.DefaultMode == "" {
		cfg.Dispatcher.DefaultMode = "parallel"
	}
	if cfg.Dispatcher.QueueMultiplier == 0 {
		cfg.Dispatcher.QueueMultiplier = 2
	}
	if cfg.Dispatcher.DefaultDeadline == 0 {
		cfg.Dispatcher.DefaultDeadline = 60 * time.Second
	}

	if cfg.Refinement.MaxAttempts == 0 {
		cfg.Refinement.MaxAttempts = 3
	}
	if cfg.Refinement.QualityThreshold == 0 {
		cfg.Refinement.QualityThreshold = 0.7
	}

	if cfg.Synthesis.MaxTokens == 0 {
		cfg.Synthesis.MaxTokens = 1024
	}
	if cfg.Synthesis.LocalBaseURL == "" {
		cfg.Synthesis.LocalBaseURL = defaultLocalBaseURL
	}
	if cfg.Synthesis.LocalModel == "" {
		cfg.Synthesis.LocalModel = defaultLocalModel
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "./maestro.db"
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = 5 * time.Second
	}
	if cfg.Storage.RetentionDays == 0 {
		cfg.Storage.RetentionDays = 30
	}
	if cfg.Storage.MaintenanceSchedule == "" {
		cfg.Storage.MaintenanceSchedule = "0 3 * * *"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Logging.Output == "" {
		cfg.Telemetry.Logging.Output = "stderr"
	}

	if !cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Namespace == "" {
		// A fully omitted metrics section means enabled with defaults.
		cfg.Telemetry.Metrics.Enabled = true
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "maestro"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "core"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
}

// DefaultConfig returns a configuration with every default applied, suitable
// for running without a configuration file.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
