// Maestro is a multi-provider AI orchestrator.
//
// It dispatches one prompt across several AI providers in parallel,
// validates and iteratively refines each provider's answer, and fuses the
// surviving answers into a single synthesized reply:
//   - Multi-provider fan-out (Claude, Gemini, Perplexity, local models)
//   - Rule-driven refinement of malformed or low-quality answers
//   - Cross-provider contradiction detection and confidence scoring
//   - SQLite-backed execution history and rule effectiveness tracking
//   - Prometheus metrics and health endpoints
//
// Usage:
//
//	# Start the orchestrator with default configuration
//	maestro run
//
//	# Start with custom configuration file
//	maestro run --config /path/to/config.yaml
//
//	# Run a single prompt through the orchestrator
//	maestro ask --format json "List the three largest moons of Jupiter"
//
//	# Inspect stored execution history
//	maestro stats summary --since 24h
//
//	# Validate a configuration file
//	maestro validate --config /path/to/config.yaml
//
// For complete documentation, see: https://github.com/maestro-hq/maestro
package main

func main() {
	Execute()
}
