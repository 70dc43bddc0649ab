package storage

// schemaSQL creates the drift tables and their query indexes.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS drift_results (
	id                     TEXT PRIMARY KEY,
	project_id             TEXT NOT NULL,
	tenant_id              TEXT NOT NULL,
	drift_score            REAL NOT NULL,
	confidence             REAL NOT NULL,
	violations             TEXT NOT NULL,
	suppressed_violations  TEXT NOT NULL,
	requires_manual_review INTEGER NOT NULL,
	timestamp              INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_drift_results_scope
	ON drift_results (tenant_id, project_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS drift_suppressions (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	project_id TEXT NOT NULL,
	rule_id    TEXT NOT NULL,
	reason     TEXT NOT NULL,
	created_by TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_drift_suppressions_scope
	ON drift_suppressions (tenant_id, project_id);

CREATE TABLE IF NOT EXISTS drift_configs (
	tenant_id        TEXT NOT NULL,
	project_id       TEXT NOT NULL DEFAULT '',
	review_threshold REAL NOT NULL,
	block_weight     REAL NOT NULL,
	warn_weight      REAL NOT NULL,
	info_weight      REAL NOT NULL,
	PRIMARY KEY (tenant_id, project_id)
);
`
