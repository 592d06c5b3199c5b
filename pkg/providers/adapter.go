package providers

import (
	"context"
	"time"
)

// Adapter is the core interface every provider adapter implements.
// It sends one prompt to one provider and returns the raw answer text.
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must respect context cancellation and return immediately
// when the context is cancelled.
//
// Adapters are not reentrant per session; the dispatcher guarantees at most
// MaxConcurrent in-flight calls per provider via the session registry.
type Adapter interface {
	// Send submits a prompt to the provider and returns the raw answer text
	// together with the observed round-trip latency.
	//
	// Errors are always one of the typed errors in this package so callers
	// can classify them with errors.As or Classify.
	Send(ctx context.Context, prompt string) (raw string, latency time.Duration, err error)

	// Provider returns the provider this adapter reaches.
	Provider() ID

	// IsHealthy returns the adapter's current health status. Three
	// consecutive failures mark an adapter unhealthy; a single success
	// restores it.
	IsHealthy() bool

	// GetHealth returns detailed health information including last error,
	// consecutive failures, and request totals.
	GetHealth() Health

	// Close releases any resources held by the adapter (connections, etc.).
	// After Close the adapter must not be used.
	Close() error
}
