// Package session tracks per-provider session state: the state machine,
// current load, concurrency cap, and rolling success and latency statistics.
//
// # Concurrency
//
// Exactly one session exists per provider. Each session is guarded by its own
// mutex; all mutations (acquire, release, error marking) happen inside the
// critical section, so acquire/release events are linearizable per provider.
//
// Acquisitions never block: Acquire returns ErrWouldBlock when the provider
// is at its concurrency cap, and the dispatcher is responsible for
// back-pressure. Release must always run, including on panics; callers pair
// Acquire with a deferred Release.
package session
