package session

import (
	"time"

	"maestro-hq/maestro/pkg/providers"
)

// State is a provider session's lifecycle state.
type State string

// The session states.
const (
	StateInactive    State = "inactive"
	StateActive      State = "active"
	StateBusy        State = "busy"
	StateError       State = "error"
	StateMaintenance State = "maintenance"
)

// emaCap bounds the sample count used for the response-time EMA smoothing
// factor, alpha = 2/(n+1).
const emaCap = 50

// Session is the per-provider session row. All fields are mutated only under
// the owning registry entry's mutex.
type Session struct {
	// Provider is the provider this session belongs to
	Provider providers.ID

	// State is the current lifecycle state
	State State

	// LastActivity is the time of the last acquire or release
	LastActivity time.Time

	// TotalRequests counts every request routed through this session
	TotalRequests int64

	// SuccessfulRequests counts requests that completed successfully
	SuccessfulRequests int64

	// MeanResponseTime is the rolling EMA of response times
	MeanResponseTime time.Duration

	// CurrentLoad is the number of in-flight requests
	CurrentLoad int

	// MaxConcurrent caps CurrentLoad
	MaxConcurrent int

	// emaSamples counts samples folded into the EMA, capped at emaCap
	emaSamples int
}

// SuccessRate returns the fraction of successful requests, or 1.0 when the
// session has served no requests yet (optimistic default for scoring).
func (s *Session) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 1.0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests)
}

// updateEMA folds one response-time sample into the rolling mean using
// alpha = 2/(n+1) with n capped at emaCap.
func (s *Session) updateEMA(sample time.Duration) {
	if s.emaSamples < emaCap {
		s.emaSamples++
	}
	alpha := 2.0 / float64(s.emaSamples+1)
	if s.MeanResponseTime == 0 {
		s.MeanResponseTime = sample
		return
	}
	s.MeanResponseTime = time.Duration(alpha*float64(sample) + (1-alpha)*float64(s.MeanResponseTime))
}

// LoadMetric is a point-in-time load snapshot for one provider, used by
// load-balanced dispatch and persisted for analytics.
type LoadMetric struct {
	// Provider is the provider the snapshot describes
	Provider providers.ID

	// QueueLength is the dispatcher queue depth at snapshot time
	QueueLength int

	// MeanResponseTime is the rolling EMA at snapshot time
	MeanResponseTime time.Duration

	// SuccessRate is the success fraction at snapshot time
	SuccessRate float64

	// LoadFactor is CurrentLoad / MaxConcurrent
	LoadFactor float64

	// CapacityScore is 1 - LoadFactor
	CapacityScore float64

	// Timestamp is when the snapshot was taken
	Timestamp time.Time
}

// Outcome describes how a released request finished.
type Outcome struct {
	// Success indicates the request completed successfully
	Success bool

	// ResponseTime is the observed request duration
	ResponseTime time.Duration
}
