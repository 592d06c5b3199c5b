package providers

import "time"

// ID identifies a provider. The orchestrator ships with a fixed set of
// providers; the persistence layer stores IDs as their canonical strings.
type ID string

// The supported providers.
const (
	Claude     ID = "claude"
	Gemini     ID = "gemini"
	Perplexity ID = "perplexity"
	Local      ID = "local"
)

// All returns every known provider ID in a stable order.
func All() []ID {
	return []ID{Claude, Gemini, Perplexity, Local}
}

// Valid reports whether id names a known provider.
func (id ID) Valid() bool {
	switch id {
	case Claude, Gemini, Perplexity, Local:
		return true
	}
	return false
}

// String returns the canonical string form of the ID.
func (id ID) String() string { return string(id) }

// Profile holds the static traits of a provider used in scoring and pacing.
// Profiles are read-only after process start; configuration overrides replace
// the whole snapshot.
type Profile struct {
	// ID is the provider identifier
	ID ID

	// DisplayName is the human-readable provider name
	DisplayName string

	// Weight is the base reliability weight in [0,1] used for confidence scoring
	Weight float64

	// MaxConcurrent caps the number of in-flight calls to this provider
	MaxConcurrent int

	// MinInterval is the minimum delay between consecutive calls
	MinInterval time.Duration
}

// DefaultProfiles returns the shipped provider profiles. Configuration may
// override weight, concurrency cap, and pacing interval per provider.
func DefaultProfiles() map[ID]Profile {
	return map[ID]Profile{
		Claude: {
			ID:            Claude,
			DisplayName:   "Claude",
			Weight:        0.95,
			MaxConcurrent: 3,
			MinInterval:   5 * time.Second,
		},
		Gemini: {
			ID:            Gemini,
			DisplayName:   "Gemini",
			Weight:        0.90,
			MaxConcurrent: 3,
			MinInterval:   5 * time.Second,
		},
		Perplexity: {
			ID:            Perplexity,
			DisplayName:   "Perplexity",
			Weight:        0.85,
			MaxConcurrent: 2,
			MinInterval:   5 * time.Second,
		},
		Local: {
			ID:            Local,
			DisplayName:   "Local LLM",
			Weight:        0.70,
			MaxConcurrent: 2,
			MinInterval:   0,
		},
	}
}

// Health tracks the health status of an adapter.
type Health struct {
	// IsHealthy indicates whether the provider is currently healthy
	IsHealthy bool

	// LastCheck is the timestamp of the last health observation
	LastCheck time.Time

	// LastError is the most recent error encountered (nil if healthy)
	LastError error

	// ConsecutiveFailures counts sequential failures
	ConsecutiveFailures int

	// LastSuccess is the timestamp of the last successful request
	LastSuccess time.Time

	// TotalRequests is the total number of requests sent through this adapter
	TotalRequests int64

	// FailedRequests is the total number of failed requests
	FailedRequests int64
}

// AdapterConfig contains configuration for a single adapter instance.
type AdapterConfig struct {
	// Provider is the provider this adapter reaches
	Provider ID

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is the authentication credential
	APIKey string

	// Model is the provider-side model identifier
	Model string

	// MaxTokens bounds the completion length requested from the provider
	MaxTokens int

	// Timeout is the per-request timeout
	Timeout time.Duration

	// MaxRetries is the adapter-level retry budget for transient errors
	MaxRetries int

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}
