// Package dispatch runs a fan-out of one logical request across multiple
// providers and assembles the per-provider outcomes into one execution
// record.
//
// # Execution modes
//
//   - parallel: all per-provider tasks start simultaneously
//   - sequential: providers run one at a time, fastest first
//   - priority_based: providers run in computed priority tiers, stopping
//     once the quality bar is met
//   - load_balanced: the best-scored available provider runs next, with a
//     short pacing delay between picks
//
// # Back-pressure and pacing
//
// Each provider has a capped queue (max_concurrent times a configurable
// multiplier); overflow surfaces as a failed response with a
// queued_rejected error rather than blocking the caller. A per-provider
// minimum inter-request interval is honoured before every call.
//
// # Failure containment
//
// Per-provider errors never abort the whole execution. Execute always
// returns an ExecutionRecord; callers inspect each response's status.
package dispatch
