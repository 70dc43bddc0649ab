package drift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/hierarchy"
)

// Observer receives completed drift checks for instrumentation.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveDriftCheck(score float64, manualReview bool)
}

// Service orchestrates drift checks: it resolves the unit's layer, runs a
// governance validation, applies suppressions and tenant configuration,
// scores the remaining violations, and persists the result.
type Service struct {
	engine   *governance.Engine
	dir      hierarchy.Directory
	store    Storage
	logger   *slog.Logger
	observer Observer
}

// NewService creates a drift service.
func NewService(engine *governance.Engine, dir hierarchy.Directory, store Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default().With("component", "drift.service")
	}
	return &Service{engine: engine, dir: dir, store: store, logger: logger}
}

// SetObserver installs an instrumentation observer. Pass nil to disable.
// Not safe to call concurrently with CheckDrift.
func (s *Service) SetObserver(obs Observer) {
	s.observer = obs
}

// CheckDrift validates the context at the unit's layer, scores the
// violations, and persists a drift result. Non-compliance never fails the
// call; errors are reserved for unknown units and storage failures.
func (s *Service) CheckDrift(ctx context.Context, tenantID, unitID string, evalCtx *governance.Context) (*Result, error) {
	layer, err := hierarchy.LayerOf(s.dir, unitID)
	if err != nil {
		return nil, fmt.Errorf("resolve layer for unit %s: %w", unitID, err)
	}

	validation, err := s.engine.Validate(layer, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("validate unit %s: %w", unitID, err)
	}

	cfg, err := s.configFor(ctx, tenantID, unitID)
	if err != nil {
		return nil, err
	}

	suppressions, err := s.store.ListSuppressions(ctx, tenantID, unitID)
	if err != nil {
		return nil, fmt.Errorf("list suppressions for %s/%s: %w", tenantID, unitID, err)
	}

	violations, suppressed := partitionSuppressed(validation.Violations, suppressions)
	rulesEvaluated := validation.RulesEvaluated
	score := Score(violations, rulesEvaluated, cfg)

	result := &Result{
		ID:                   uuid.NewString(),
		ProjectID:            unitID,
		TenantID:             tenantID,
		DriftScore:           score,
		Confidence:           confidence(rulesEvaluated),
		Violations:           violations,
		SuppressedViolations: suppressed,
		RequiresManualReview: requiresReview(violations, score, cfg),
		Timestamp:            time.Now().UTC(),
	}

	if err := s.store.StoreResult(ctx, result); err != nil {
		return nil, fmt.Errorf("store drift result for %s/%s: %w", tenantID, unitID, err)
	}

	if s.observer != nil {
		s.observer.ObserveDriftCheck(result.DriftScore, result.RequiresManualReview)
	}

	s.logger.Info("drift check completed",
		"tenant_id", tenantID,
		"unit_id", unitID,
		"layer", layer.String(),
		"drift_score", result.DriftScore,
		"violations", len(result.Violations),
		"suppressed", len(result.SuppressedViolations),
		"manual_review", result.RequiresManualReview,
	)

	return result, nil
}

// Latest returns the most recent drift result for a project.
func (s *Service) Latest(ctx context.Context, tenantID, projectID string) (*Result, error) {
	return s.store.LatestResult(ctx, tenantID, projectID)
}

// Suppress records a suppression for a rule's violations on a project.
func (s *Service) Suppress(ctx context.Context, tenantID, projectID, ruleID, reason, createdBy string) (*Suppression, error) {
	suppression := &Suppression{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		ProjectID: projectID,
		RuleID:    ruleID,
		Reason:    reason,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateSuppression(ctx, suppression); err != nil {
		return nil, fmt.Errorf("create suppression for %s/%s: %w", tenantID, projectID, err)
	}
	return suppression, nil
}

// Unsuppress removes a suppression by id.
func (s *Service) Unsuppress(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteSuppression(ctx, tenantID, id)
}

// Configure saves a tenant or project drift configuration.
func (s *Service) Configure(ctx context.Context, cfg *Config) error {
	if cfg.ReviewThreshold < 0 || cfg.ReviewThreshold > 1 {
		return fmt.Errorf("review threshold %v outside [0,1]", cfg.ReviewThreshold)
	}
	return s.store.SaveConfig(ctx, cfg)
}

// configFor loads the effective drift config, falling back to defaults.
func (s *Service) configFor(ctx context.Context, tenantID, projectID string) (*Config, error) {
	cfg, err := s.store.GetConfig(ctx, tenantID, projectID)
	if errors.Is(err, ErrNotFound) {
		return DefaultConfig(tenantID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load drift config for %s/%s: %w", tenantID, projectID, err)
	}
	return cfg, nil
}

// Score computes the severity-weighted drift score, normalized by the
// number of rules evaluated and clamped to [0,1]. Zero violations always
// score zero.
func Score(violations []governance.Violation, rulesEvaluated int, cfg *Config) float64 {
	if len(violations) == 0 || rulesEvaluated == 0 {
		return 0
	}

	var total float64
	for _, v := range violations {
		total += cfg.weight(v.Severity)
	}

	score := total / float64(rulesEvaluated)
	if score > 1 {
		score = 1
	}
	if score <= 0 && len(violations) > 0 {
		// Weighted sum may round to zero only through a zero-weight config;
		// a non-empty violation set must keep the score strictly positive.
		score = 1e-6
	}
	return score
}

// requiresReview reports whether the result must be flagged for manual
// review: any Block violation, or a score above the configured threshold.
func requiresReview(violations []governance.Violation, score float64, cfg *Config) bool {
	for _, v := range violations {
		if v.Severity == governance.SeverityBlock {
			return true
		}
	}
	return score > cfg.ReviewThreshold
}

// confidence reflects how much signal the check had. With no applicable
// rules a score is meaningless; confidence grows with rule coverage.
// Calibration is a non-goal; monotonicity is the only contract.
func confidence(rulesEvaluated int) float64 {
	if rulesEvaluated == 0 {
		return 0
	}
	c := float64(rulesEvaluated) / float64(rulesEvaluated+4)
	return c
}

// partitionSuppressed splits violations into kept and suppressed according
// to the project's suppression list.
func partitionSuppressed(violations []governance.Violation, suppressions []*Suppression) (kept, suppressed []governance.Violation) {
	if len(suppressions) == 0 {
		return violations, nil
	}

	suppressedRules := make(map[string]bool, len(suppressions))
	for _, s := range suppressions {
		suppressedRules[s.RuleID] = true
	}

	for _, v := range violations {
		if suppressedRules[v.RuleID] {
			suppressed = append(suppressed, v)
		} else {
			kept = append(kept, v)
		}
	}
	return kept, suppressed
}
