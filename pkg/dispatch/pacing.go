package dispatch

import (
	"context"
	"sync"
	"time"

	"maestro-hq/maestro/pkg/providers"
)

// pacer enforces the per-provider minimum inter-request interval. Before a
// call it sleeps the difference between now and last call + interval.
type pacer struct {
	mu        sync.Mutex
	intervals map[providers.ID]time.Duration
	lastCall  map[providers.ID]time.Time
}

// newPacer builds a pacer from provider profiles.
func newPacer(profiles map[providers.ID]providers.Profile) *pacer {
	intervals := make(map[providers.ID]time.Duration, len(profiles))
	for id, profile := range profiles {
		intervals[id] = profile.MinInterval
	}
	return &pacer{
		intervals: intervals,
		lastCall:  make(map[providers.ID]time.Time, len(profiles)),
	}
}

// wait blocks until the provider's pacing window has passed or the context
// is done, then stamps the call. Reserving the slot before sleeping keeps
// two concurrent callers from sharing one window.
func (p *pacer) wait(ctx context.Context, provider providers.ID) error {
	p.mu.Lock()
	interval := p.intervals[provider]
	now := time.Now()
	next := p.lastCall[provider].Add(interval)
	if next.Before(now) {
		next = now
	}
	p.lastCall[provider] = next
	p.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
