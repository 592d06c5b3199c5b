package metrics

import (
	"time"

	"maestro-hq/maestro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics tracks execution-level dispatch behaviour.
//
// Metrics:
//   - maestro_core_executions_total: executions by mode and status
//   - maestro_core_execution_duration_seconds: wall-clock execution time
//   - maestro_core_queue_rejections_total: tasks rejected by full queues
//   - maestro_core_queue_depth: current per-provider queue depth
type DispatchMetrics struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rejections *prometheus.CounterVec
	queueDepth *prometheus.GaugeVec
}

// NewDispatchMetrics creates and registers dispatch metrics.
func NewDispatchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DispatchMetrics {
	dm := &DispatchMetrics{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "executions_total",
				Help:      "Total number of executions by mode and status",
			},
			[]string{"mode", "status"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "execution_duration_seconds",
				Help:      "Wall-clock execution duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"mode"},
		),

		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "queue_rejections_total",
				Help:      "Total number of tasks rejected by a full provider queue",
			},
			[]string{"provider"},
		),

		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "queue_depth",
				Help:      "Current per-provider queue depth",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		dm.executions,
		dm.duration,
		dm.rejections,
		dm.queueDepth,
	)

	return dm
}

// RecordExecution records one finished execution.
func (dm *DispatchMetrics) RecordExecution(mode, status string, duration time.Duration) {
	dm.executions.WithLabelValues(mode, status).Inc()
	dm.duration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordRejection records a queue-full rejection for a provider.
func (dm *DispatchMetrics) RecordRejection(provider string) {
	dm.rejections.WithLabelValues(provider).Inc()
}

// UpdateQueueDepth updates a provider's queue depth gauge.
func (dm *DispatchMetrics) UpdateQueueDepth(provider string, depth int) {
	dm.queueDepth.WithLabelValues(provider).Set(float64(depth))
}
