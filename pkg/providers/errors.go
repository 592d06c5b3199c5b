package providers

import (
	"errors"
	"fmt"
	"time"
)

// TransportError represents a network-level failure reaching a provider.
// Transport errors are retryable within the adapter's retry budget.
type TransportError struct {
	// Provider is the provider that could not be reached
	Provider ID

	// Cause is the underlying network error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %q transport error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure (HTTP 401 or 403).
// Auth errors are never retried; the refinement controller aborts on them.
type AuthError struct {
	// Provider is the provider that rejected authentication
	Provider ID

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents provider-signalled throttling (HTTP 429).
// It includes the retry-after duration if the provider supplied one.
type RateLimitError struct {
	// Provider is the provider that rate limited the request
	Provider ID

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	// Provider is the provider where the timeout occurred
	Provider ID

	// Timeout is the deadline that was exceeded
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// ProviderError represents a provider-internal failure (5xx or a malformed
// reply that is not a parse issue the validator should see).
type ProviderError struct {
	// Provider is the provider that returned the error
	Provider ID

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ParseError represents a malformed provider API envelope. This is distinct
// from validation failures on the answer text, which the output validator
// handles inside the refinement loop.
type ParseError struct {
	// Provider is the provider that returned the malformed response
	Provider ID

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ConfigError represents an invalid adapter configuration detected at boot.
type ConfigError struct {
	// Provider is the provider with invalid configuration
	Provider ID

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// ErrorKind is the coarse classification of an adapter error, used by the
// refinement controller to decide whether a failure is retryable and by the
// persistence layer when recording outcomes.
type ErrorKind string

// Error kinds.
const (
	KindTransport        ErrorKind = "transport"
	KindAuth             ErrorKind = "auth"
	KindRateLimited      ErrorKind = "rate_limited"
	KindTimeout          ErrorKind = "timeout"
	KindProviderInternal ErrorKind = "provider_internal"
)

// Classify maps an adapter error to its ErrorKind. Unknown errors classify
// as provider_internal.
func Classify(err error) ErrorKind {
	var (
		transportErr *TransportError
		authErr      *AuthError
		rateErr      *RateLimitError
		timeoutErr   *TimeoutError
	)
	switch {
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &rateErr):
		return KindRateLimited
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindProviderInternal
	}
}

// Retryable reports whether an error of the given kind may be retried.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindTransport, KindTimeout, KindRateLimited, KindProviderInternal:
		return true
	case KindAuth:
		return false
	}
	return false
}
