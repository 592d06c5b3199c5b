// Package providertest provides scripted test doubles for the provider
// adapter and local generator boundaries.
package providertest

import (
	"context"
	"sync"
	"time"

	"maestro-hq/maestro/pkg/providers"
)

// Step is one scripted adapter response. Exactly one of Response or Err is
// consumed per Send call.
type Step struct {
	// Response is the raw text to return
	Response string

	// Err is the error to return instead
	Err error

	// Latency is reported as the call latency and actually slept, bounded
	// by the context
	Latency time.Duration
}

// Adapter is a scripted providers.Adapter. Each Send consumes the next
// step; when the script is exhausted the last step repeats. The zero-step
// adapter returns empty responses.
type Adapter struct {
	id    providers.ID
	steps []Step

	mu      sync.Mutex
	calls   int
	prompts []string
}

// NewAdapter creates a scripted adapter for the given provider.
func NewAdapter(id providers.ID, steps ...Step) *Adapter {
	return &Adapter{id: id, steps: steps}
}

// Send returns the next scripted step, sleeping its latency first.
func (a *Adapter) Send(ctx context.Context, prompt string) (string, time.Duration, error) {
	a.mu.Lock()
	step := Step{}
	if len(a.steps) > 0 {
		i := a.calls
		if i >= len(a.steps) {
			i = len(a.steps) - 1
		}
		step = a.steps[i]
	}
	a.calls++
	a.prompts = append(a.prompts, prompt)
	a.mu.Unlock()

	if step.Latency > 0 {
		select {
		case <-ctx.Done():
			return "", step.Latency, &providers.TimeoutError{Provider: a.id, Timeout: step.Latency}
		case <-time.After(step.Latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", step.Latency, &providers.TimeoutError{Provider: a.id, Timeout: step.Latency}
	}

	if step.Err != nil {
		return "", step.Latency, step.Err
	}
	return step.Response, step.Latency, nil
}

// Provider implements providers.Adapter.
func (a *Adapter) Provider() providers.ID { return a.id }

// IsHealthy implements providers.Adapter.
func (a *Adapter) IsHealthy() bool { return true }

// GetHealth implements providers.Adapter.
func (a *Adapter) GetHealth() providers.Health {
	a.mu.Lock()
	defer a.mu.Unlock()
	return providers.Health{
		IsHealthy:     true,
		LastCheck:     time.Now(),
		TotalRequests: int64(a.calls),
	}
}

// Close implements providers.Adapter.
func (a *Adapter) Close() error { return nil }

// Calls returns how many times Send was invoked.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Prompts returns a copy of every prompt received, in order.
func (a *Adapter) Prompts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.prompts))
	copy(out, a.prompts)
	return out
}
