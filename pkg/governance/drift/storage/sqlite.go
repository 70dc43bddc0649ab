package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/governance/drift"
)

// SQLiteConfig contains configuration for the SQLite drift store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/drift.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (and if needed initializes) a SQLite drift store.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "drift.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, drift.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{db: db, config: config, logger: logger}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite drift storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// initialize sets up the schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return drift.NewStorageError("sqlite", "enable WAL", err)
		}
	}
	if s.config.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout=%d", s.config.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(pragma); err != nil {
			return drift.NewStorageError("sqlite", "set busy timeout", err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return drift.NewStorageError("sqlite", "create schema", err)
	}
	return nil
}

// StoreResult persists a drift result.
func (s *SQLiteStorage) StoreResult(ctx context.Context, result *drift.Result) error {
	violations, err := json.Marshal(result.Violations)
	if err != nil {
		return drift.NewStorageError("sqlite", "marshal violations", err)
	}
	suppressed, err := json.Marshal(result.SuppressedViolations)
	if err != nil {
		return drift.NewStorageError("sqlite", "marshal suppressed violations", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drift_results
			(id, project_id, tenant_id, drift_score, confidence, violations,
			 suppressed_violations, requires_manual_review, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.ProjectID, result.TenantID, result.DriftScore,
		result.Confidence, string(violations), string(suppressed),
		result.RequiresManualReview, result.Timestamp.UnixNano(),
	)
	if err != nil {
		return drift.NewStorageError("sqlite", "store result", err)
	}
	return nil
}

// LatestResult returns the most recent drift result for a project.
func (s *SQLiteStorage) LatestResult(ctx context.Context, tenantID, projectID string) (*drift.Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, tenant_id, drift_score, confidence, violations,
		       suppressed_violations, requires_manual_review, timestamp
		FROM drift_results
		WHERE tenant_id = ? AND project_id = ?
		ORDER BY timestamp DESC
		LIMIT 1`,
		tenantID, projectID,
	)

	var (
		result         drift.Result
		violationsJSON string
		suppressedJSON string
		ts             int64
	)
	err := row.Scan(&result.ID, &result.ProjectID, &result.TenantID,
		&result.DriftScore, &result.Confidence, &violationsJSON,
		&suppressedJSON, &result.RequiresManualReview, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("drift result for %s/%s: %w", tenantID, projectID, drift.ErrNotFound)
	}
	if err != nil {
		return nil, drift.NewStorageError("sqlite", "query latest result", err)
	}

	if err := unmarshalViolations(violationsJSON, &result.Violations); err != nil {
		return nil, drift.NewStorageError("sqlite", "unmarshal violations", err)
	}
	if err := unmarshalViolations(suppressedJSON, &result.SuppressedViolations); err != nil {
		return nil, drift.NewStorageError("sqlite", "unmarshal suppressed violations", err)
	}
	result.Timestamp = time.Unix(0, ts)
	return &result, nil
}

// CreateSuppression records a violation suppression.
func (s *SQLiteStorage) CreateSuppression(ctx context.Context, suppression *drift.Suppression) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drift_suppressions
			(id, tenant_id, project_id, rule_id, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		suppression.ID, suppression.TenantID, suppression.ProjectID,
		suppression.RuleID, suppression.Reason, suppression.CreatedBy,
		suppression.CreatedAt.UnixNano(),
	)
	if err != nil {
		return drift.NewStorageError("sqlite", "create suppression", err)
	}
	return nil
}

// ListSuppressions returns all suppressions for a project.
func (s *SQLiteStorage) ListSuppressions(ctx context.Context, tenantID, projectID string) ([]*drift.Suppression, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, project_id, rule_id, reason, created_by, created_at
		FROM drift_suppressions
		WHERE tenant_id = ? AND project_id = ?`,
		tenantID, projectID,
	)
	if err != nil {
		return nil, drift.NewStorageError("sqlite", "list suppressions", err)
	}
	defer rows.Close()

	var suppressions []*drift.Suppression
	for rows.Next() {
		var (
			sup drift.Suppression
			ts  int64
		)
		if err := rows.Scan(&sup.ID, &sup.TenantID, &sup.ProjectID,
			&sup.RuleID, &sup.Reason, &sup.CreatedBy, &ts); err != nil {
			return nil, drift.NewStorageError("sqlite", "scan suppression", err)
		}
		sup.CreatedAt = time.Unix(0, ts)
		suppressions = append(suppressions, &sup)
	}
	if err := rows.Err(); err != nil {
		return nil, drift.NewStorageError("sqlite", "iterate suppressions", err)
	}
	return suppressions, nil
}

// DeleteSuppression removes a suppression by id.
func (s *SQLiteStorage) DeleteSuppression(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM drift_suppressions WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	)
	if err != nil {
		return drift.NewStorageError("sqlite", "delete suppression", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return drift.NewStorageError("sqlite", "delete suppression", err)
	}
	if affected == 0 {
		return fmt.Errorf("suppression %s: %w", id, drift.ErrNotFound)
	}
	return nil
}

// GetConfig returns the drift configuration for a tenant/project. A
// project-level config wins over a tenant-level one.
func (s *SQLiteStorage) GetConfig(ctx context.Context, tenantID, projectID string) (*drift.Config, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, project_id, review_threshold, block_weight, warn_weight, info_weight
		FROM drift_configs
		WHERE tenant_id = ? AND project_id IN (?, '')
		ORDER BY project_id DESC
		LIMIT 1`,
		tenantID, projectID,
	)

	var cfg drift.Config
	err := row.Scan(&cfg.TenantID, &cfg.ProjectID, &cfg.ReviewThreshold,
		&cfg.BlockWeight, &cfg.WarnWeight, &cfg.InfoWeight)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("drift config for %s/%s: %w", tenantID, projectID, drift.ErrNotFound)
	}
	if err != nil {
		return nil, drift.NewStorageError("sqlite", "query config", err)
	}
	return &cfg, nil
}

// SaveConfig persists a drift configuration.
func (s *SQLiteStorage) SaveConfig(ctx context.Context, config *drift.Config) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drift_configs
			(tenant_id, project_id, review_threshold, block_weight, warn_weight, info_weight)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, project_id) DO UPDATE SET
			review_threshold = excluded.review_threshold,
			block_weight = excluded.block_weight,
			warn_weight = excluded.warn_weight,
			info_weight = excluded.info_weight`,
		config.TenantID, config.ProjectID, config.ReviewThreshold,
		config.BlockWeight, config.WarnWeight, config.InfoWeight,
	)
	if err != nil {
		return drift.NewStorageError("sqlite", "save config", err)
	}
	return nil
}

// PruneResults deletes drift results older than the cutoff.
func (s *SQLiteStorage) PruneResults(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM drift_results WHERE timestamp < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, drift.NewStorageError("sqlite", "prune results", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, drift.NewStorageError("sqlite", "prune results", err)
	}
	return deleted, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func unmarshalViolations(data string, out *[]governance.Violation) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), out)
}
