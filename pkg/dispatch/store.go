package dispatch

import (
	"context"

	"maestro-hq/maestro/pkg/refinement"
	"maestro-hq/maestro/pkg/session"
)

// Store is the persistence boundary the dispatcher writes through. The
// sqlite store implements it; tests use in-memory fakes. Writes happen after
// an execution's responses are terminal, so stored records are immutable.
type Store interface {
	// SaveExecution durably writes the execution and all of its request,
	// attempt and response records. The execution is only reported
	// complete to the caller after this returns.
	SaveExecution(ctx context.Context, exec *ExecutionRecord) error

	// SaveLoadMetric appends one load snapshot.
	SaveLoadMetric(ctx context.Context, metric session.LoadMetric) error

	// RuleStats returns the historical rule statistics snapshot used for
	// rule-selection tie-breaks.
	RuleStats(ctx context.Context) (map[string]refinement.RuleStat, error)
}

// NopStore discards all writes. It keeps the dispatcher usable without a
// persistence layer, primarily in tests.
type NopStore struct{}

// SaveExecution implements Store.
func (NopStore) SaveExecution(context.Context, *ExecutionRecord) error { return nil }

// SaveLoadMetric implements Store.
func (NopStore) SaveLoadMetric(context.Context, session.LoadMetric) error { return nil }

// RuleStats implements Store.
func (NopStore) RuleStats(context.Context) (map[string]refinement.RuleStat, error) {
	return nil, nil
}
