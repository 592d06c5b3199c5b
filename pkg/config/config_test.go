package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  claude:
    api_key: test-key
    max_concurrent: 5
  local:
    base_url: http://localhost:8080
    model: mistral
dispatcher:
  default_mode: sequential
refinement:
  max_attempts: 5
  quality_threshold: 0.85
storage:
  path: /tmp/test.db
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	claude := cfg.Providers["claude"]
	if claude.APIKey != "test-key" {
		t.Errorf("claude api key = %q, want test-key", claude.APIKey)
	}
	if claude.MaxConcurrent != 5 {
		t.Errorf("claude max concurrent = %d, want 5", claude.MaxConcurrent)
	}
	// Unset fields for a known provider fall back to the built-in section.
	if claude.BaseURL != defaultClaudeBaseURL {
		t.Errorf("claude base url = %q, want default", claude.BaseURL)
	}
	if claude.Weight != 0.95 {
		t.Errorf("claude weight = %v, want 0.95", claude.Weight)
	}

	local := cfg.Providers["local"]
	if local.BaseURL != "http://localhost:8080" || local.Model != "mistral" {
		t.Errorf("local = %+v, want overridden base url and model", local)
	}

	if cfg.Dispatcher.DefaultMode != "sequential" {
		t.Errorf("default mode = %q, want sequential", cfg.Dispatcher.DefaultMode)
	}
	if cfg.Refinement.MaxAttempts != 5 || cfg.Refinement.QualityThreshold != 0.85 {
		t.Errorf("refinement = %+v, want 5 attempts at 0.85", cfg.Refinement)
	}
	if cfg.Storage.Path != "/tmp/test.db" {
		t.Errorf("storage path = %q, want /tmp/test.db", cfg.Storage.Path)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging = %+v, want debug/text", cfg.Telemetry.Logging)
	}
	// Defaults still apply to untouched sections.
	if cfg.Dispatcher.QueueMultiplier != 2 {
		t.Errorf("queue multiplier = %d, want default 2", cfg.Dispatcher.QueueMultiplier)
	}
	if cfg.Storage.MaintenanceSchedule != "0 3 * * *" {
		t.Errorf("maintenance schedule = %q, want default", cfg.Storage.MaintenanceSchedule)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "providers: {{{")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Providers) != 4 {
		t.Errorf("providers = %d, want 4 built-in sections", len(cfg.Providers))
	}
	for _, name := range []string{"claude", "gemini", "perplexity", "local"} {
		if _, ok := cfg.Providers[name]; !ok {
			t.Errorf("missing built-in provider %q", name)
		}
	}
	if cfg.Providers["local"].MinInterval != 0 {
		t.Errorf("local min interval = %s, want unpaced", cfg.Providers["local"].MinInterval)
	}

	if cfg.Dispatcher.DefaultMode != "parallel" {
		t.Errorf("default mode = %q, want parallel", cfg.Dispatcher.DefaultMode)
	}
	if cfg.Dispatcher.DefaultDeadline != 60*time.Second {
		t.Errorf("default deadline = %s, want 60s", cfg.Dispatcher.DefaultDeadline)
	}
	if cfg.Refinement.MaxAttempts != 3 || cfg.Refinement.QualityThreshold != 0.7 {
		t.Errorf("refinement defaults = %+v", cfg.Refinement)
	}
	if cfg.Storage.RetentionDays != 30 {
		t.Errorf("retention days = %d, want 30", cfg.Storage.RetentionDays)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.Namespace != "maestro" {
		t.Errorf("metrics defaults = %+v", cfg.Telemetry.Metrics)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration must validate: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("MAESTRO_DISPATCHER_DEFAULT_MODE", "load_balanced")
	t.Setenv("MAESTRO_REFINEMENT_QUALITY_THRESHOLD", "0.9")
	t.Setenv("MAESTRO_PROVIDERS_CLAUDE_API_KEY", "env-key")
	t.Setenv("MAESTRO_PROVIDERS_CLAUDE_ENABLED", "false")
	t.Setenv("MAESTRO_STORAGE_PATH", "/tmp/env.db")

	path := writeConfigFile(t, `
providers:
  claude:
    api_key: file-key
dispatcher:
  default_mode: parallel
`)

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Dispatcher.DefaultMode != "load_balanced" {
		t.Errorf("default mode = %q, want env override", cfg.Dispatcher.DefaultMode)
	}
	if cfg.Refinement.QualityThreshold != 0.9 {
		t.Errorf("quality threshold = %v, want 0.9", cfg.Refinement.QualityThreshold)
	}
	if cfg.Providers["claude"].APIKey != "env-key" {
		t.Errorf("claude api key = %q, env must beat file", cfg.Providers["claude"].APIKey)
	}
	if cfg.Providers["claude"].ProviderEnabled() {
		t.Error("claude should be disabled by env override")
	}
	if cfg.Storage.Path != "/tmp/env.db" {
		t.Errorf("storage path = %q, want env override", cfg.Storage.Path)
	}
}

func TestEnvOverrideFailingValidation(t *testing.T) {
	t.Setenv("MAESTRO_DISPATCHER_DEFAULT_MODE", "bogus")

	path := writeConfigFile(t, "")
	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("expected validation error for bogus mode from env")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "no providers",
			mutate: func(c *Config) { c.Providers = map[string]ProviderConfig{} },
			field:  "providers",
		},
		{
			name: "all providers disabled",
			mutate: func(c *Config) {
				off := false
				for name, p := range c.Providers {
					p.Enabled = &off
					c.Providers[name] = p
				}
			},
			field: "providers",
		},
		{
			name: "bad base url",
			mutate: func(c *Config) {
				p := c.Providers["claude"]
				p.BaseURL = "not a url"
				c.Providers["claude"] = p
			},
			field: "providers.claude.base_url",
		},
		{
			name: "weight out of range",
			mutate: func(c *Config) {
				p := c.Providers["claude"]
				p.Weight = 1.5
				c.Providers["claude"] = p
			},
			field: "providers.claude.weight",
		},
		{
			name:   "unknown mode",
			mutate: func(c *Config) { c.Dispatcher.DefaultMode = "round_robin" },
			field:  "dispatcher.default_mode",
		},
		{
			name:   "zero queue multiplier",
			mutate: func(c *Config) { c.Dispatcher.QueueMultiplier = 0 },
			field:  "dispatcher.queue_multiplier",
		},
		{
			name:   "max attempts out of range",
			mutate: func(c *Config) { c.Refinement.MaxAttempts = 11 },
			field:  "refinement.max_attempts",
		},
		{
			name:   "threshold above one",
			mutate: func(c *Config) { c.Refinement.QualityThreshold = 1.5 },
			field:  "refinement.quality_threshold",
		},
		{
			name:   "empty storage path",
			mutate: func(c *Config) { c.Storage.Path = "" },
			field:  "storage.path",
		},
		{
			name:   "unknown logging level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "metrics path without slash",
			mutate: func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			field:  "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v missing field %q", verr.Errors, tt.field)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); !strings.Contains(got, "a: bad") {
		t.Errorf("single error message = %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}}
	got := multi.Error()
	if !strings.Contains(got, "2 errors") || !strings.Contains(got, "b: worse") {
		t.Errorf("multi error message = %q", got)
	}
}

func TestProviderEnabled(t *testing.T) {
	on, off := true, false

	if !(ProviderConfig{}).ProviderEnabled() {
		t.Error("missing enabled field must count as enabled")
	}
	if !(ProviderConfig{Enabled: &on}).ProviderEnabled() {
		t.Error("explicit true must be enabled")
	}
	if (ProviderConfig{Enabled: &off}).ProviderEnabled() {
		t.Error("explicit false must be disabled")
	}
}
