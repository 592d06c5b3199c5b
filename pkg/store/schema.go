package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the database schema.
const Schema = `
-- Executions: one row per multi-provider execution
CREATE TABLE IF NOT EXISTS executions (
    execution_id TEXT PRIMARY KEY,
    original_prompt TEXT NOT NULL,
    mode TEXT NOT NULL,
    format TEXT NOT NULL,
    schema_json TEXT,
    priority INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP NOT NULL,
    execution_time_ms INTEGER NOT NULL,
    success_rate REAL NOT NULL,
    synthesis_json TEXT
);

-- Requests: one row per (execution, provider) request as sent
CREATE TABLE IF NOT EXISTS requests (
    request_id TEXT PRIMARY KEY,
    execution_id TEXT NOT NULL REFERENCES executions(execution_id) ON DELETE CASCADE,
    provider TEXT NOT NULL,
    prompt TEXT NOT NULL,
    format TEXT NOT NULL,
    quality_threshold REAL NOT NULL,
    max_refinements INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Attempts: one row per refinement decision, numbered 1..k with no gaps
CREATE TABLE IF NOT EXISTS attempts (
    attempt_id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL REFERENCES requests(request_id) ON DELETE CASCADE,
    refinement_number INTEGER NOT NULL,
    "trigger" TEXT NOT NULL,
    action TEXT NOT NULL,
    refinement_prompt TEXT NOT NULL,
    expected_fix TEXT,
    raw_snippet TEXT,
    success BOOLEAN NOT NULL,
    quality_score REAL NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (request_id, refinement_number)
);

-- Responses: the terminal per-provider outcome of a request
CREATE TABLE IF NOT EXISTS responses (
    response_id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL REFERENCES requests(request_id) ON DELETE CASCADE,
    provider TEXT NOT NULL,
    raw_text TEXT,
    status TEXT NOT NULL CHECK (status IN ('completed', 'failed')),
    refinement_count INTEGER NOT NULL,
    quality_score REAL NOT NULL,
    response_time_ms INTEGER NOT NULL,
    error_kind TEXT,
    error_message TEXT,
    created_at TIMESTAMP NOT NULL
);

-- Load metrics: append-only per-provider load snapshots
CREATE TABLE IF NOT EXISTS load_metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    provider TEXT NOT NULL,
    queue_length INTEGER NOT NULL,
    mean_response_ms INTEGER NOT NULL,
    success_rate REAL NOT NULL,
    load_factor REAL NOT NULL,
    capacity_score REAL NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Rule stats: rolling per-rule application and success counts
CREATE TABLE IF NOT EXISTS rule_stats (
    rule_key TEXT PRIMARY KEY,
    applications INTEGER NOT NULL DEFAULT 0,
    successes INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);

-- Provider sessions: periodic rolling-stat snapshots
CREATE TABLE IF NOT EXISTS provider_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    provider TEXT NOT NULL,
    state TEXT NOT NULL,
    total_requests INTEGER NOT NULL,
    successful_requests INTEGER NOT NULL,
    mean_response_ms INTEGER NOT NULL,
    current_load INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at);
CREATE INDEX IF NOT EXISTS idx_requests_execution_id ON requests(execution_id);
CREATE INDEX IF NOT EXISTS idx_requests_provider ON requests(provider);
CREATE INDEX IF NOT EXISTS idx_attempts_request_id ON attempts(request_id);
CREATE INDEX IF NOT EXISTS idx_attempts_trigger ON attempts("trigger");
CREATE INDEX IF NOT EXISTS idx_responses_request_id ON responses(request_id);
CREATE INDEX IF NOT EXISTS idx_responses_provider ON responses(provider);
CREATE INDEX IF NOT EXISTS idx_load_metrics_provider ON load_metrics(provider, created_at);
CREATE INDEX IF NOT EXISTS idx_provider_sessions_provider ON provider_sessions(provider, created_at);
`

// InsertSchemaVersion inserts the schema version into the schema_version
// table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
