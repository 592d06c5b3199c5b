package metrics

import (
	"maestro-hq/maestro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RefinementMetrics tracks refinement loop behaviour.
//
// Metrics:
//   - maestro_core_refinements_total: refinements by provider, trigger, action
//   - maestro_core_rule_outcomes_total: per-action refinement outcomes
type RefinementMetrics struct {
	refinements *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
}

// NewRefinementMetrics creates and registers refinement metrics.
func NewRefinementMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RefinementMetrics {
	rm := &RefinementMetrics{
		refinements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "refinements_total",
				Help:      "Total refinement decisions by provider, trigger and action",
			},
			[]string{"provider", "trigger", "action"},
		),

		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_outcomes_total",
				Help:      "Refinement action outcomes (did the next attempt pass)",
			},
			[]string{"action", "outcome"},
		),
	}

	registry.MustRegister(
		rm.refinements,
		rm.outcomes,
	)

	return rm
}

// RecordRefinement records one refinement decision.
func (rm *RefinementMetrics) RecordRefinement(provider, trigger, action string) {
	rm.refinements.WithLabelValues(provider, trigger, action).Inc()
}

// RecordRuleOutcome records whether a refinement action succeeded.
func (rm *RefinementMetrics) RecordRuleOutcome(action string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	rm.outcomes.WithLabelValues(action, outcome).Inc()
}
