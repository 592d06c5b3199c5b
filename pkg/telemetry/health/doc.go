// Package health implements liveness and readiness checks for Maestro.
//
// A Checker aggregates named component checks (store reachability, provider
// adapter health, session availability) and serves them behind standard
// probe endpoints. Liveness is a constant-time process check; readiness
// runs every registered check concurrently with a per-check timeout.
package health
