// Package telemetry groups Maestro's observability concerns.
//
// # Components
//
//   - logging: structured logging via log/slog
//   - metrics: Prometheus metrics collection
//   - health: liveness and readiness endpoints
//
// Each component is an independent subpackage; callers wire only what they
// need. The dispatcher records through a metrics.Collector handle, logging
// installs the process-wide slog default, and health aggregates component
// checks behind HTTP probe handlers.
package telemetry
