package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"maestro-hq/maestro/pkg/providers"
)

// ErrWouldBlock is returned by Acquire when the provider is at its
// concurrency cap or not in an acquirable state. Acquisitions never block.
var ErrWouldBlock = errors.New("session: provider at capacity")

// Token proves a successful acquisition. It must be released exactly once;
// extra releases are ignored.
type Token struct {
	provider   providers.ID
	acquiredAt time.Time
	released   bool
}

// Provider returns the provider the token was acquired for.
func (t *Token) Provider() providers.ID { return t.provider }

// entry pairs a session with its guarding mutex.
type entry struct {
	mu      sync.Mutex
	session Session
}

// Registry owns the per-provider sessions. It is created at startup with the
// provider profiles and is never a process global; components receive it by
// handle.
type Registry struct {
	entries map[providers.ID]*entry
	logger  *slog.Logger
}

// NewRegistry creates a registry with one session per profile. Sessions start
// in the active state.
func NewRegistry(profiles map[providers.ID]Profile) *Registry {
	r := &Registry{
		entries: make(map[providers.ID]*entry, len(profiles)),
		logger:  slog.Default().With("component", "session.registry"),
	}
	for id, profile := range profiles {
		r.entries[id] = &entry{
			session: Session{
				Provider:      id,
				State:         StateActive,
				LastActivity:  time.Now(),
				MaxConcurrent: profile.MaxConcurrent,
			},
		}
	}
	return r
}

// Profile is the subset of a provider profile the registry needs.
type Profile struct {
	// MaxConcurrent caps in-flight requests for the provider
	MaxConcurrent int
}

// Acquire atomically checks that the session is active and below its
// concurrency cap, increments the load, and returns a token. Returns
// ErrWouldBlock when the provider cannot take the request right now.
func (r *Registry) Acquire(provider providers.ID) (*Token, error) {
	e, ok := r.entries[provider]
	if !ok {
		return nil, fmt.Errorf("session: unknown provider %q", provider)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.session
	if s.State != StateActive && s.State != StateBusy {
		return nil, ErrWouldBlock
	}
	if s.CurrentLoad >= s.MaxConcurrent {
		return nil, ErrWouldBlock
	}

	s.CurrentLoad++
	s.LastActivity = time.Now()
	if s.CurrentLoad == s.MaxConcurrent {
		s.State = StateBusy
	}

	return &Token{provider: provider, acquiredAt: time.Now()}, nil
}

// Release decrements the load and folds the outcome into the session's
// rolling statistics. Releasing an already-released token is a no-op, so a
// deferred Release is always safe.
func (r *Registry) Release(token *Token, outcome Outcome) {
	if token == nil || token.released {
		return
	}
	token.released = true

	e, ok := r.entries[token.provider]
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.session
	if s.CurrentLoad > 0 {
		s.CurrentLoad--
	}
	s.LastActivity = time.Now()
	s.TotalRequests++
	if outcome.Success {
		s.SuccessfulRequests++
	}
	if outcome.ResponseTime > 0 {
		s.updateEMA(outcome.ResponseTime)
	}
	if s.State == StateBusy && s.CurrentLoad < s.MaxConcurrent {
		s.State = StateActive
	}

	r.logger.Debug("released session",
		"provider", token.provider,
		"success", outcome.Success,
		"response_time", outcome.ResponseTime,
		"current_load", s.CurrentLoad,
	)
}

// MarkError moves a provider's session to the error state. Acquisitions fail
// until MarkActive restores it.
func (r *Registry) MarkError(provider providers.ID, err error) {
	e, ok := r.entries[provider]
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.State = StateError
	e.session.LastActivity = time.Now()

	r.logger.Warn("session marked error", "provider", provider, "error", err)
}

// MarkActive restores a provider's session to the active state.
func (r *Registry) MarkActive(provider providers.ID) {
	e, ok := r.entries[provider]
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.State = StateActive
	e.session.LastActivity = time.Now()
}

// Available filters the given providers down to those whose session can take
// a request right now.
func (r *Registry) Available(ids []providers.ID) []providers.ID {
	available := make([]providers.ID, 0, len(ids))
	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok {
			continue
		}
		e.mu.Lock()
		s := &e.session
		ok = (s.State == StateActive || s.State == StateBusy) && s.CurrentLoad < s.MaxConcurrent
		e.mu.Unlock()
		if ok {
			available = append(available, id)
		}
	}
	return available
}

// Snapshot returns a copy of a provider's session.
func (r *Registry) Snapshot(provider providers.ID) (Session, bool) {
	e, ok := r.entries[provider]
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, true
}

// Metric builds a point-in-time load metric for a provider. queueLength is
// supplied by the dispatcher, which owns the queues.
func (r *Registry) Metric(provider providers.ID, queueLength int) (LoadMetric, bool) {
	e, ok := r.entries[provider]
	if !ok {
		return LoadMetric{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.session
	loadFactor := 0.0
	if s.MaxConcurrent > 0 {
		loadFactor = float64(s.CurrentLoad) / float64(s.MaxConcurrent)
	}

	return LoadMetric{
		Provider:         provider,
		QueueLength:      queueLength,
		MeanResponseTime: s.MeanResponseTime,
		SuccessRate:      s.SuccessRate(),
		LoadFactor:       loadFactor,
		CapacityScore:    1 - loadFactor,
		Timestamp:        time.Now(),
	}, true
}

// Providers returns the registered provider IDs in unspecified order.
func (r *Registry) Providers() []providers.ID {
	ids := make([]providers.ID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
