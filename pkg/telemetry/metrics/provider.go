package metrics

import (
	"time"

	"maestro-hq/maestro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks per-provider health and performance.
//
// Metrics:
//   - maestro_core_provider_requests_total: terminal responses by status
//   - maestro_core_provider_latency_seconds: final attempt latency
//   - maestro_core_provider_health: health status (1=healthy, 0=unhealthy)
//   - maestro_core_provider_session_load: session load factor in [0,1]
type ProviderMetrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	health      *prometheus.GaugeVec
	sessionLoad *prometheus.GaugeVec
}

// NewProviderMetrics creates and registers provider metrics.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_requests_total",
				Help:      "Total terminal per-provider responses by status",
			},
			[]string{"provider", "status"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_latency_seconds",
				Help:      "Final attempt latency per provider in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"provider"},
		),

		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		sessionLoad: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_session_load",
				Help:      "Session load factor per provider in [0,1]",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		pm.requests,
		pm.latency,
		pm.health,
		pm.sessionLoad,
	)

	return pm
}

// RecordRequest records one terminal response.
func (pm *ProviderMetrics) RecordRequest(provider, status string, duration time.Duration) {
	pm.requests.WithLabelValues(provider, status).Inc()
	if duration > 0 {
		pm.latency.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

// UpdateHealth updates the health gauge for a provider.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// UpdateSessionLoad updates the session load-factor gauge for a provider.
func (pm *ProviderMetrics) UpdateSessionLoad(provider string, loadFactor float64) {
	pm.sessionLoad.WithLabelValues(provider).Set(loadFactor)
}
