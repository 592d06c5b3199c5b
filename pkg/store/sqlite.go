package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"maestro-hq/maestro/pkg/dispatch"
	"maestro-hq/maestro/pkg/refinement"
	"maestro-hq/maestro/pkg/session"
)

// Config contains configuration for the SQLite store.
type Config struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:        "./maestro.db",
		BusyTimeout: 5 * time.Second,
	}
}

// Store is the SQLite-backed persistence layer. It implements
// dispatch.Store. All writes go through the single database handle; SQLite
// serialises them, so a Store is safe for concurrent use.
type Store struct {
	db     *sql.DB
	config *Config
	logger *slog.Logger
}

var _ dispatch.Store = (*Store)(nil)

// Open opens (or creates) the database at the configured path, enables WAL
// mode and applies the schema.
func Open(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "store")

	db, err := sql.Open(driverName, config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", config.Path, err)
	}

	s := &Store{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store initialized", "path", config.Path)
	return s, nil
}

// initialize enables WAL mode, sets the busy timeout and creates the schema.
func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("failed to insert schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// SaveExecution durably writes one execution with all of its request,
// attempt and response records, and folds the attempt outcomes into the
// rolling rule statistics. The whole write is one transaction.
func (s *Store) SaveExecution(ctx context.Context, exec *dispatch.ExecutionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	schemaJSON, _ := json.Marshal(exec.Schema)
	var synthesisJSON []byte
	if exec.Synthesis != nil {
		synthesisJSON, _ = json.Marshal(exec.Synthesis)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO executions (
			execution_id, original_prompt, mode, format, schema_json, priority,
			created_at, completed_at, execution_time_ms, success_rate, synthesis_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ExecutionID, exec.OriginalPrompt, string(exec.Mode), string(exec.Format),
		string(schemaJSON), exec.Priority,
		exec.CreatedAt, time.Now(), time.Since(exec.CreatedAt).Milliseconds(),
		exec.SuccessRate, nullableString(string(synthesisJSON)),
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	for _, req := range exec.Requests {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO requests (
				request_id, execution_id, provider, prompt, format,
				quality_threshold, max_refinements, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			req.RequestID, exec.ExecutionID, string(req.Provider), req.Prompt,
			string(req.Format), req.QualityThreshold, req.MaxRefinements, req.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert request %s: %w", req.RequestID, err)
		}
	}

	responseByRequest := make(map[string]*refinement.ResponseRecord, len(exec.PerProvider))
	for _, resp := range exec.PerProvider {
		responseByRequest[resp.RequestID] = resp

		_, err = tx.ExecContext(ctx, `
			INSERT INTO responses (
				response_id, request_id, provider, raw_text, status,
				refinement_count, quality_score, response_time_ms,
				error_kind, error_message, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			resp.ResponseID, resp.RequestID, string(resp.Provider),
			nullableString(resp.RawText), string(resp.Status),
			resp.RefinementCount, resp.QualityScore, resp.ResponseTime.Milliseconds(),
			nullableString(string(resp.ErrorKind)), nullableString(resp.ErrorMessage),
			resp.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert response %s: %w", resp.ResponseID, err)
		}
	}

	for _, attempt := range exec.Attempts {
		success := attemptSucceeded(attempt, responseByRequest[attempt.RequestID])

		_, err = tx.ExecContext(ctx, `
			INSERT INTO attempts (
				attempt_id, request_id, refinement_number, "trigger", action,
				refinement_prompt, expected_fix, raw_snippet, success,
				quality_score, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			attempt.AttemptID, attempt.RequestID, attempt.RefinementNumber,
			string(attempt.Trigger), attempt.Action, attempt.RefinementPrompt,
			nullableString(attempt.ExpectedFix), nullableString(attempt.RawSnippet),
			success, attempt.QualityScore, attempt.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert attempt %s: %w", attempt.AttemptID, err)
		}

		if err := s.bumpRuleStats(ctx, tx, attempt, responseByRequest[attempt.RequestID], success); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit execution: %w", err)
	}
	return nil
}

// attemptSucceeded reports whether a refinement attempt's retry passed
// validation: the owning response completed and this was its last
// refinement.
func attemptSucceeded(attempt *refinement.AttemptRecord, resp *refinement.ResponseRecord) bool {
	if resp == nil || resp.Status != refinement.StatusCompleted {
		return false
	}
	return attempt.RefinementNumber == resp.RefinementCount
}

// bumpRuleStats folds one attempt outcome into the rolling rule statistics.
// Both the provider-specific and the provider-agnostic key are updated so
// rules of either shape find their history.
func (s *Store) bumpRuleStats(ctx context.Context, tx *sql.Tx, attempt *refinement.AttemptRecord, resp *refinement.ResponseRecord, success bool) error {
	keys := []string{
		fmt.Sprintf("%s||%s", attempt.Trigger, attempt.Action),
	}
	if resp != nil {
		keys = append(keys, fmt.Sprintf("%s|%s|%s", attempt.Trigger, resp.Provider, attempt.Action))
	}

	successes := 0
	if success {
		successes = 1
	}

	for _, key := range keys {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rule_stats (rule_key, applications, successes, updated_at)
			VALUES (?, 1, ?, ?)
			ON CONFLICT(rule_key) DO UPDATE SET
				applications = applications + 1,
				successes = successes + excluded.successes,
				updated_at = excluded.updated_at`,
			key, successes, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("failed to update rule stats for %q: %w", key, err)
		}
	}
	return nil
}

// SaveLoadMetric appends one load snapshot.
func (s *Store) SaveLoadMetric(ctx context.Context, metric session.LoadMetric) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO load_metrics (
			provider, queue_length, mean_response_ms, success_rate,
			load_factor, capacity_score, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(metric.Provider), metric.QueueLength,
		metric.MeanResponseTime.Milliseconds(), metric.SuccessRate,
		metric.LoadFactor, metric.CapacityScore, metric.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert load metric: %w", err)
	}
	return nil
}

// RuleStats returns the full rolling rule statistics snapshot.
func (s *Store) RuleStats(ctx context.Context) (map[string]refinement.RuleStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rule_key, applications, successes FROM rule_stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]refinement.RuleStat)
	for rows.Next() {
		var key string
		var stat refinement.RuleStat
		if err := rows.Scan(&key, &stat.Applications, &stat.Successes); err != nil {
			return nil, fmt.Errorf("failed to scan rule stat: %w", err)
		}
		stats[key] = stat
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule stats: %w", err)
	}
	return stats, nil
}

// SaveSessionSnapshot appends one per-provider session snapshot.
func (s *Store) SaveSessionSnapshot(ctx context.Context, snap session.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_sessions (
			provider, state, total_requests, successful_requests,
			mean_response_ms, current_load, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(snap.Provider), string(snap.State), snap.TotalRequests,
		snap.SuccessfulRequests, snap.MeanResponseTime.Milliseconds(),
		snap.CurrentLoad, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session snapshot: %w", err)
	}
	return nil
}

// DeleteExecutionsBefore removes executions created before the cutoff, with
// their requests, attempts and responses. Returns the number of executions
// deleted.
func (s *Store) DeleteExecutionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM executions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old executions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted executions: %w", err)
	}

	// Load metrics and session snapshots age out on the same cutoff.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM load_metrics WHERE created_at < ?`, cutoff); err != nil {
		return count, fmt.Errorf("failed to delete old load metrics: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM provider_sessions WHERE created_at < ?`, cutoff); err != nil {
		return count, fmt.Errorf("failed to delete old session snapshots: %w", err)
	}

	return count, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.logger.Info("store closed")
	return nil
}

// nullableString converts an empty string to NULL.
func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
