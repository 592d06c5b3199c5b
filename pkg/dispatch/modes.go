package dispatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/refinement"
)

// loadBalancedPause spaces out load-balanced picks so freshly updated load
// figures are visible to the next scoring round.
const loadBalancedPause = 100 * time.Millisecond

// task is one per-provider unit of work within an execution.
type task struct {
	provider providers.ID
	record   *refinement.RequestRecord
}

// runAll starts every task at once and waits for all of them.
func (d *Dispatcher) runAll(ctx context.Context, tasks []task, rules *refinement.RuleSet, results *resultSet) {
	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			results.put(t.provider, d.runTask(ctx, t, rules))
		}(t)
	}
	wg.Wait()
}

// runSequential runs tasks one at a time, fastest historical provider first.
func (d *Dispatcher) runSequential(ctx context.Context, tasks []task, rules *refinement.RuleSet, results *resultSet) {
	ordered := make([]task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return d.meanResponseTime(ordered[i].provider) < d.meanResponseTime(ordered[j].provider)
	})

	for _, t := range ordered {
		if ctx.Err() != nil {
			results.put(t.provider, d.failedResult(t, providers.KindTimeout, "execution deadline exceeded"))
			continue
		}
		results.put(t.provider, d.runTask(ctx, t, rules))
	}
}

// runPriority groups tasks into computed priority tiers and runs the tiers
// high to low. Once any completed response meets the quality bar, the
// remaining tiers are skipped.
func (d *Dispatcher) runPriority(ctx context.Context, tasks []task, basePriority int, threshold float64, rules *refinement.RuleSet, results *resultSet) {
	var high, mid, low []task
	for _, t := range tasks {
		switch p := d.effectivePriority(t.provider, basePriority); {
		case p >= 4:
			high = append(high, t)
		case p >= 2:
			mid = append(mid, t)
		default:
			low = append(low, t)
		}
	}

	for _, tier := range [][]task{high, mid, low} {
		if len(tier) == 0 {
			continue
		}
		if results.qualityMet(threshold) {
			break
		}
		d.runAll(ctx, tier, rules, results)
	}
}

// runLoadBalanced repeatedly scores the remaining providers and starts the
// best-scored one, pausing briefly between picks so load changes propagate.
func (d *Dispatcher) runLoadBalanced(ctx context.Context, tasks []task, rules *refinement.RuleSet, results *resultSet) {
	remaining := make([]task, len(tasks))
	copy(remaining, tasks)

	var wg sync.WaitGroup
	for len(remaining) > 0 {
		best := 0
		bestScore := -1.0
		for i, t := range remaining {
			if score := d.loadScore(t.provider); score > bestScore {
				bestScore = score
				best = i
			}
		}

		picked := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)

		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			results.put(t.provider, d.runTask(ctx, t, rules))
		}(picked)

		if len(remaining) > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(loadBalancedPause):
			}
		}
	}
	wg.Wait()
}

// effectivePriority adjusts the caller's base priority by the provider's
// track record and current load, clamped to 1..5.
func (d *Dispatcher) effectivePriority(provider providers.ID, base int) int {
	p := base

	snap, ok := d.registry.Snapshot(provider)
	if !ok {
		return clampPriority(p)
	}

	switch rate := snap.SuccessRate(); {
	case rate >= 0.9:
		p++
	case rate < 0.5:
		p--
	}

	switch mean := snap.MeanResponseTime; {
	case mean > 0 && mean < 2*time.Second:
		p++
	case mean > 10*time.Second:
		p--
	}

	if snap.MaxConcurrent > 0 && float64(snap.CurrentLoad)/float64(snap.MaxConcurrent) > 0.8 {
		p--
	}

	return clampPriority(p)
}

// loadScore is the load-balanced selection score: lower load, lower latency,
// higher success rate and more free capacity all raise it.
func (d *Dispatcher) loadScore(provider providers.ID) float64 {
	metric, ok := d.registry.Metric(provider, d.queue.length(provider))
	if !ok {
		return 0
	}

	latencySeconds := metric.MeanResponseTime.Seconds()
	return 0.3*(1-metric.LoadFactor) +
		0.3*(1/(1+latencySeconds)) +
		0.2*metric.SuccessRate +
		0.2*metric.CapacityScore
}

func (d *Dispatcher) meanResponseTime(provider providers.ID) time.Duration {
	snap, ok := d.registry.Snapshot(provider)
	if !ok {
		return 0
	}
	return snap.MeanResponseTime
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}

// resultSet collects per-provider results across goroutines.
type resultSet struct {
	mu      sync.Mutex
	results map[providers.ID]*refinement.Result
}

func newResultSet() *resultSet {
	return &resultSet{results: make(map[providers.ID]*refinement.Result)}
}

func (rs *resultSet) put(provider providers.ID, result *refinement.Result) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.results[provider] = result
}

// qualityMet reports whether any completed response reached the threshold.
func (rs *resultSet) qualityMet(threshold float64) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, r := range rs.results {
		if r.Response.Status == refinement.StatusCompleted && r.Response.QualityScore >= threshold {
			return true
		}
	}
	return false
}
