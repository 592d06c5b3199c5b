package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g.,
	// "dispatcher.default_mode").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// validModes are the accepted dispatcher execution modes.
var validModes = map[string]bool{
	"parallel":       true,
	"sequential":     true,
	"priority_based": true,
	"load_balanced":  true,
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateDispatcher(&cfg.Dispatcher)...)
	errs = append(errs, validateRefinement(&cfg.Refinement)...)
	errs = append(errs, validateSynthesis(&cfg.Synthesis)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProviders validates all provider sections.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	enabled := 0
	for name, p := range providers {
		field := func(f string) string { return fmt.Sprintf("providers.%s.%s", name, f) }

		if p.ProviderEnabled() {
			enabled++
		}

		if p.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   field("base_url"),
				Message: "base URL is required",
			})
		} else if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   field("base_url"),
				Message: fmt.Sprintf("invalid URL %q", p.BaseURL),
			})
		}

		if p.Weight < 0 || p.Weight > 1 {
			errs = append(errs, FieldError{
				Field:   field("weight"),
				Message: "weight must be in [0,1]",
			})
		}
		if p.MaxConcurrent < 1 {
			errs = append(errs, FieldError{
				Field:   field("max_concurrent"),
				Message: "max concurrent must be at least 1",
			})
		}
		if p.MinInterval < 0 {
			errs = append(errs, FieldError{
				Field:   field("min_interval"),
				Message: "min interval must be non-negative",
			})
		}
		if p.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   field("timeout"),
				Message: "timeout must be non-negative",
			})
		}
		if p.MaxRetries < 0 {
			errs = append(errs, FieldError{
				Field:   field("max_retries"),
				Message: "max retries must be non-negative",
			})
		}
	}

	if enabled == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be enabled",
		})
	}

	return errs
}

// validateDispatcher validates dispatcher configuration.
func validateDispatcher(cfg *DispatcherConfig) []FieldError {
	var errs []FieldError

	if !validModes[cfg.DefaultMode] {
		errs = append(errs, FieldError{
			Field:   "dispatcher.default_mode",
			Message: fmt.Sprintf("unknown mode %q (must be parallel, sequential, priority_based or load_balanced)", cfg.DefaultMode),
		})
	}
	if cfg.QueueMultiplier < 1 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.queue_multiplier",
			Message: "queue multiplier must be at least 1",
		})
	}
	if cfg.DefaultDeadline <= 0 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.default_deadline",
			Message: "default deadline must be positive",
		})
	}

	return errs
}

// validateRefinement validates refinement configuration.
func validateRefinement(cfg *RefinementConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > 10 {
		errs = append(errs, FieldError{
			Field:   "refinement.max_attempts",
			Message: "max attempts must be in 1..10",
		})
	}
	if cfg.QualityThreshold <= 0 || cfg.QualityThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "refinement.quality_threshold",
			Message: "quality threshold must be in (0,1]",
		})
	}

	return errs
}

// validateSynthesis validates synthesis configuration.
func validateSynthesis(cfg *SynthesisConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxTokens < 1 {
		errs = append(errs, FieldError{
			Field:   "synthesis.max_tokens",
			Message: "max tokens must be at least 1",
		})
	}
	if u, err := url.Parse(cfg.LocalBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "synthesis.local_base_url",
			Message: fmt.Sprintf("invalid URL %q", cfg.LocalBaseURL),
		})
	}

	return errs
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.path",
			Message: "database path is required",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retention_days",
			Message: "retention days must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}
