package metrics

import (
	"time"

	"maestro-hq/maestro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SynthesisMetrics tracks synthesis behaviour.
//
// Metrics:
//   - maestro_core_syntheses_total: synthesis runs by strategy
//   - maestro_core_contradictions_total: detected contradictions
//   - maestro_core_synthesis_duration_seconds: fusion duration
type SynthesisMetrics struct {
	syntheses      *prometheus.CounterVec
	contradictions prometheus.Counter
	duration       *prometheus.HistogramVec
}

// NewSynthesisMetrics creates and registers synthesis metrics.
func NewSynthesisMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SynthesisMetrics {
	sm := &SynthesisMetrics{
		syntheses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "syntheses_total",
				Help:      "Total synthesis runs by strategy",
			},
			[]string{"strategy"},
		),

		contradictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "contradictions_total",
				Help:      "Total contradictions detected across syntheses",
			},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "synthesis_duration_seconds",
				Help:      "Synthesis fusion duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"strategy"},
		),
	}

	registry.MustRegister(
		sm.syntheses,
		sm.contradictions,
		sm.duration,
	)

	return sm
}

// RecordSynthesis records one synthesis run.
func (sm *SynthesisMetrics) RecordSynthesis(strategy string, contradictions int, duration time.Duration) {
	sm.syntheses.WithLabelValues(strategy).Inc()
	sm.contradictions.Add(float64(contradictions))
	sm.duration.WithLabelValues(strategy).Observe(duration.Seconds())
}
