package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/minerva/pkg/approval"
	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/governance/proposal"
)

// SQLiteBackend implements Backend on a SQLite database. It runs in WAL
// mode with a single writer connection, which is sufficient for a
// single-instance deployment.
type SQLiteBackend struct {
	db        *sql.DB
	closeOnce sync.Once
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS unit_policies (
	tenant_id  TEXT NOT NULL,
	unit_id    TEXT NOT NULL,
	policy_id  TEXT NOT NULL,
	layer      INTEGER NOT NULL,
	policy     TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (tenant_id, unit_id, policy_id)
);

CREATE TABLE IF NOT EXISTS policy_drafts (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	draft      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS policy_proposals (
	proposal_id TEXT PRIMARY KEY,
	draft_id    TEXT NOT NULL UNIQUE,
	scope       TEXT NOT NULL,
	state       TEXT NOT NULL,
	proposal    TEXT NOT NULL,
	proposed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_proposals_state ON policy_proposals(state);
`

// NewSQLiteBackend creates a SQLite backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a SQLite backend with custom
// configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// UnitPolicies returns the policies attached to a unit, compiled.
func (s *SQLiteBackend) UnitPolicies(ctx context.Context, tenantID, unitID string) ([]*governance.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT layer, policy FROM unit_policies
		WHERE tenant_id = ? AND unit_id = ?
		ORDER BY layer, policy_id
	`, tenantID, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unit policies: %w", err)
	}
	defer rows.Close()

	out := []*governance.Policy{}
	for rows.Next() {
		var (
			layer      int
			policyJSON string
		)
		if err := rows.Scan(&layer, &policyJSON); err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}

		p := &governance.Policy{}
		if err := json.Unmarshal([]byte(policyJSON), p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy: %w", err)
		}
		p.Layer = governance.KnowledgeLayer(layer)
		if err := p.Compile(); err != nil {
			return nil, fmt.Errorf("compiling policy %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policy rows: %w", err)
	}
	return out, nil
}

// AddUnitPolicy attaches a policy to a unit, replacing a same-id policy.
func (s *SQLiteBackend) AddUnitPolicy(ctx context.Context, tenantID, unitID string, p *governance.Policy) error {
	if p == nil {
		return fmt.Errorf("policy cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("policy id cannot be empty")
	}

	policyJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO unit_policies (tenant_id, unit_id, policy_id, layer, policy, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, unit_id, policy_id) DO UPDATE SET
			layer = excluded.layer,
			policy = excluded.policy,
			updated_at = excluded.updated_at
	`, tenantID, unitID, p.ID, int(p.Layer), string(policyJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save unit policy: %w", err)
	}
	return nil
}

// RemoveUnitPolicy detaches a policy from a unit.
func (s *SQLiteBackend) RemoveUnitPolicy(ctx context.Context, tenantID, unitID, policyID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM unit_policies
		WHERE tenant_id = ? AND unit_id = ? AND policy_id = ?
	`, tenantID, unitID, policyID)
	if err != nil {
		return fmt.Errorf("failed to delete unit policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("unit %s policy %s: %w", unitID, policyID, governance.ErrPolicyNotFound)
	}
	return nil
}

// GetDraft returns the draft with the given id.
func (s *SQLiteBackend) GetDraft(ctx context.Context, id string) (*proposal.Draft, error) {
	var draftJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT draft FROM policy_drafts WHERE id = ?`, id).Scan(&draftJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, proposal.ErrDraftNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	d := &proposal.Draft{}
	if err := json.Unmarshal([]byte(draftJSON), d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return d, nil
}

// SaveDraft creates or updates a draft.
func (s *SQLiteBackend) SaveDraft(ctx context.Context, draft *proposal.Draft) error {
	if draft == nil || draft.ID == "" {
		return fmt.Errorf("draft id cannot be empty")
	}

	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policy_drafts (id, status, draft, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			draft = excluded.draft,
			updated_at = excluded.updated_at
	`, draft.ID, string(draft.Status), string(draftJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// StoreProposal persists a new proposal. The unique constraint on draft_id
// enforces one proposal per draft even under concurrent callers.
func (s *SQLiteBackend) StoreProposal(ctx context.Context, p *proposal.Proposal) error {
	if p == nil || p.ProposalID == "" || p.DraftID == "" {
		return fmt.Errorf("proposal and draft ids cannot be empty")
	}

	proposalJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal proposal: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policy_proposals (proposal_id, draft_id, scope, state, proposal, proposed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ProposalID, p.DraftID, string(p.Scope), string(workflowState(p)), string(proposalJSON), p.ProposedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store proposal for draft %s: %w", p.DraftID, err)
	}
	return nil
}

// UpdateProposal persists workflow-driven changes to a proposal.
func (s *SQLiteBackend) UpdateProposal(ctx context.Context, p *proposal.Proposal) error {
	proposalJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal proposal: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE policy_proposals SET state = ?, proposal = ?
		WHERE proposal_id = ?
	`, string(workflowState(p)), string(proposalJSON), p.ProposalID)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("proposal %s: %w", p.ProposalID, proposal.ErrProposalNotFound)
	}
	return nil
}

// GetProposalByDraft returns the proposal created from the draft.
func (s *SQLiteBackend) GetProposalByDraft(ctx context.Context, draftID string) (*proposal.Proposal, error) {
	var proposalJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT proposal FROM policy_proposals WHERE draft_id = ?`, draftID).Scan(&proposalJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", draftID, proposal.ErrProposalNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal: %w", err)
	}

	p := &proposal.Proposal{}
	if err := json.Unmarshal([]byte(proposalJSON), p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proposal: %w", err)
	}
	return p, nil
}

// ListPending returns pending proposals, oldest first.
func (s *SQLiteBackend) ListPending(ctx context.Context) ([]*proposal.Proposal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT proposal FROM policy_proposals
		WHERE state = ?
		ORDER BY proposed_at
	`, string(approval.StatePending))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending proposals: %w", err)
	}
	defer rows.Close()

	var out []*proposal.Proposal
	for rows.Next() {
		var proposalJSON string
		if err := rows.Scan(&proposalJSON); err != nil {
			return nil, fmt.Errorf("failed to scan proposal row: %w", err)
		}
		p := &proposal.Proposal{}
		if err := json.Unmarshal([]byte(proposalJSON), p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal proposal: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposal rows: %w", err)
	}
	return out, nil
}

// Close releases the database. Idempotent.
func (s *SQLiteBackend) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})
	return closeErr
}

func workflowState(p *proposal.Proposal) approval.State {
	if p.Workflow == nil {
		return approval.StateDraft
	}
	return p.Workflow.State
}
