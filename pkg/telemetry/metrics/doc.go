// Package metrics provides Prometheus metrics collection for Maestro.
//
// # Metrics Categories
//
//   - Dispatch metrics: execution count and duration by mode, queue
//     rejections and depth per provider
//   - Provider metrics: request count, latency, health and session load
//   - Refinement metrics: refinement count by provider, trigger and action,
//     and per-action rule outcomes
//   - Synthesis metrics: synthesis count by strategy, contradiction count
//     and fusion duration
//
// # Usage
//
//	collector := metrics.NewCollector(cfg, nil)
//
//	collector.RecordExecution("parallel", "success", 1200*time.Millisecond)
//	collector.RecordProviderRequest("claude", "completed", 900*time.Millisecond)
//	collector.RecordRefinement("gemini", "format_mismatch", "clarify_format")
//	collector.RecordSynthesis("fact_check", 2, 400*time.Millisecond)
//
// # Prometheus Endpoint
//
// All metrics are exposed through Collector.Handler in the standard
// exposition format:
//
//	# HELP maestro_core_executions_total Total number of executions
//	# TYPE maestro_core_executions_total counter
//	maestro_core_executions_total{mode="parallel",status="success"} 42
package metrics
