package metrics

import (
	"time"

	"maestro-hq/maestro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the single owner of all Prometheus metrics in Maestro. It
// registers every metric subsystem against one registry and exposes typed
// recording methods so callers never touch label sets directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	dispatchMetrics   *DispatchMetrics
	providerMetrics   *ProviderMetrics
	refinementMetrics *RefinementMetrics
	synthesisMetrics  *SynthesisMetrics
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "maestro"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "core"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Sized for LLM round trips (100ms - 60s).
		cfg.DurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.dispatchMetrics = NewDispatchMetrics(cfg, registry)
	c.providerMetrics = NewProviderMetrics(cfg, registry)
	c.refinementMetrics = NewRefinementMetrics(cfg, registry)
	c.synthesisMetrics = NewSynthesisMetrics(cfg, registry)
	return c
}

// RecordExecution records one finished execution.
//
// Parameters:
//   - mode: execution mode ("parallel", "sequential", "priority_based",
//     "load_balanced")
//   - status: "success" when at least one provider completed, "failed"
//     otherwise
//   - duration: wall-clock execution time
func (c *Collector) RecordExecution(mode, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.dispatchMetrics.RecordExecution(mode, status, duration)
}

// RecordQueueRejection records a task rejected by a full provider queue.
func (c *Collector) RecordQueueRejection(provider string) {
	if !c.config.Enabled {
		return
	}
	c.dispatchMetrics.RecordRejection(provider)
}

// UpdateQueueDepth updates a provider's current queue depth gauge.
func (c *Collector) UpdateQueueDepth(provider string, depth int) {
	if !c.config.Enabled {
		return
	}
	c.dispatchMetrics.UpdateQueueDepth(provider, depth)
}

// RecordProviderRequest records one terminal per-provider response.
//
// Parameters:
//   - provider: provider name ("claude", "gemini", "perplexity", "local")
//   - status: terminal status ("completed", "failed")
//   - duration: final attempt latency
func (c *Collector) RecordProviderRequest(provider, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.RecordRequest(provider, status, duration)
}

// UpdateProviderHealth updates a provider's health gauge (1=healthy).
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.UpdateHealth(provider, healthy)
}

// UpdateSessionLoad updates a provider's session load-factor gauge.
func (c *Collector) UpdateSessionLoad(provider string, loadFactor float64) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.UpdateSessionLoad(provider, loadFactor)
}

// RecordRefinement records one refinement decision.
//
// Parameters:
//   - provider: provider name
//   - trigger: failure class ("format_mismatch", "missing_fields", ...)
//   - action: corrective action ("clarify_format", "provide_examples", ...)
func (c *Collector) RecordRefinement(provider, trigger, action string) {
	if !c.config.Enabled {
		return
	}
	c.refinementMetrics.RecordRefinement(provider, trigger, action)
}

// RecordRuleOutcome records whether a refinement action led to an accepted
// answer.
func (c *Collector) RecordRuleOutcome(action string, success bool) {
	if !c.config.Enabled {
		return
	}
	c.refinementMetrics.RecordRuleOutcome(action, success)
}

// RecordSynthesis records one synthesis run.
//
// Parameters:
//   - strategy: synthesis strategy ("merge", "compare", "prioritize",
//     "complement", "fact_check")
//   - contradictions: number of detected contradictions
//   - duration: fusion duration
func (c *Collector) RecordSynthesis(strategy string, contradictions int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.synthesisMetrics.RecordSynthesis(strategy, contradictions, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
