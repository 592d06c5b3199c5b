package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ProviderPerformance summarises one provider's stored history.
type ProviderPerformance struct {
	// Provider is the provider name
	Provider string

	// TotalRequests counts stored requests
	TotalRequests int64

	// CompletedRequests counts requests whose response completed
	CompletedRequests int64

	// AvgQuality is the mean final quality score over completed responses
	AvgQuality float64

	// AvgResponseTime is the mean final attempt latency
	AvgResponseTime time.Duration

	// AvgRefinements is the mean refinement count over completed responses
	AvgRefinements float64
}

// SuccessRate returns the completed fraction, 0 when nothing is stored.
func (p ProviderPerformance) SuccessRate() float64 {
	if p.TotalRequests == 0 {
		return 0
	}
	return float64(p.CompletedRequests) / float64(p.TotalRequests)
}

// ProviderPerformanceSince aggregates per-provider performance for requests
// created after the cutoff.
func (s *Store) ProviderPerformanceSince(ctx context.Context, cutoff time.Time) ([]ProviderPerformance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			r.provider,
			COUNT(*),
			SUM(CASE WHEN resp.status = 'completed' THEN 1 ELSE 0 END),
			COALESCE(AVG(CASE WHEN resp.status = 'completed' THEN resp.quality_score END), 0),
			COALESCE(AVG(resp.response_time_ms), 0),
			COALESCE(AVG(CASE WHEN resp.status = 'completed' THEN resp.refinement_count END), 0)
		FROM requests r
		JOIN responses resp ON resp.request_id = r.request_id
		WHERE r.created_at >= ?
		GROUP BY r.provider
		ORDER BY r.provider`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider performance: %w", err)
	}
	defer rows.Close()

	var out []ProviderPerformance
	for rows.Next() {
		var p ProviderPerformance
		var avgMs float64
		if err := rows.Scan(&p.Provider, &p.TotalRequests, &p.CompletedRequests,
			&p.AvgQuality, &avgMs, &p.AvgRefinements); err != nil {
			return nil, fmt.Errorf("failed to scan provider performance: %w", err)
		}
		p.AvgResponseTime = time.Duration(avgMs) * time.Millisecond
		out = append(out, p)
	}
	return out, rows.Err()
}

// TriggerCount is how often one failure class drove a refinement.
type TriggerCount struct {
	// Trigger is the failure class
	Trigger string

	// Count is the number of refinements it drove
	Count int64

	// SuccessCount is how many of those refinements' retries passed
	SuccessCount int64
}

// TriggerFrequencySince counts refinement triggers for attempts created
// after the cutoff, most frequent first.
func (s *Store) TriggerFrequencySince(ctx context.Context, cutoff time.Time) ([]TriggerCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT "trigger", COUNT(*), SUM(CASE WHEN success THEN 1 ELSE 0 END)
		FROM attempts
		WHERE created_at >= ?
		GROUP BY "trigger"
		ORDER BY COUNT(*) DESC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trigger frequency: %w", err)
	}
	defer rows.Close()

	var out []TriggerCount
	for rows.Next() {
		var t TriggerCount
		if err := rows.Scan(&t.Trigger, &t.Count, &t.SuccessCount); err != nil {
			return nil, fmt.Errorf("failed to scan trigger count: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ExecutionSummary aggregates stored executions.
type ExecutionSummary struct {
	// Total counts stored executions
	Total int64

	// AvgDuration is the mean wall-clock execution time
	AvgDuration time.Duration

	// AvgSuccessRate is the mean per-execution success rate
	AvgSuccessRate float64

	// ByMode counts executions per execution mode
	ByMode map[string]int64
}

// ExecutionSummarySince aggregates executions created after the cutoff.
func (s *Store) ExecutionSummarySince(ctx context.Context, cutoff time.Time) (*ExecutionSummary, error) {
	summary := &ExecutionSummary{ByMode: make(map[string]int64)}

	var avgMs, avgRate sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(execution_time_ms), AVG(success_rate)
		FROM executions
		WHERE created_at >= ?`,
		cutoff,
	).Scan(&summary.Total, &avgMs, &avgRate)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution summary: %w", err)
	}
	if avgMs.Valid {
		summary.AvgDuration = time.Duration(avgMs.Float64) * time.Millisecond
	}
	if avgRate.Valid {
		summary.AvgSuccessRate = avgRate.Float64
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT mode, COUNT(*) FROM executions
		WHERE created_at >= ?
		GROUP BY mode`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions by mode: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mode string
		var count int64
		if err := rows.Scan(&mode, &count); err != nil {
			return nil, fmt.Errorf("failed to scan mode count: %w", err)
		}
		summary.ByMode[mode] = count
	}
	return summary, rows.Err()
}

// RuleEffectiveness is one rule's rolling outcome record.
type RuleEffectiveness struct {
	// RuleKey identifies the rule (trigger|provider|action)
	RuleKey string

	// Applications counts rule applications
	Applications int64

	// Successes counts applications whose retry passed
	Successes int64
}

// SuccessRate returns the historical success fraction.
func (r RuleEffectiveness) SuccessRate() float64 {
	if r.Applications == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Applications)
}

// RuleEffectivenessAll returns the rolling rule statistics, most applied
// first.
func (s *Store) RuleEffectivenessAll(ctx context.Context) ([]RuleEffectiveness, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_key, applications, successes
		FROM rule_stats
		ORDER BY applications DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule effectiveness: %w", err)
	}
	defer rows.Close()

	var out []RuleEffectiveness
	for rows.Next() {
		var r RuleEffectiveness
		if err := rows.Scan(&r.RuleKey, &r.Applications, &r.Successes); err != nil {
			return nil, fmt.Errorf("failed to scan rule effectiveness: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
