package drift_test

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/governance/drift"
	"mercator-hq/minerva/pkg/governance/drift/storage"
	"mercator-hq/minerva/pkg/hierarchy"
)

// newTestService wires an engine, a unit directory, and a memory store.
func newTestService(t *testing.T, policies ...*governance.Policy) (*drift.Service, *storage.MemoryStorage) {
	t.Helper()

	engine := governance.NewEngine(nil)
	for _, p := range policies {
		if err := engine.AddPolicy(p); err != nil {
			t.Fatalf("AddPolicy(%s) error = %v", p.ID, err)
		}
	}

	dir := hierarchy.NewMemoryDirectory()
	units := []*hierarchy.Unit{
		{ID: "acme", Layer: governance.LayerCompany},
		{ID: "platform", Layer: governance.LayerOrg, ParentID: "acme"},
		{ID: "runtime", Layer: governance.LayerTeam, ParentID: "platform"},
		{ID: "api-gw", Layer: governance.LayerProject, ParentID: "runtime"},
	}
	for _, u := range units {
		if err := dir.AddUnit(u); err != nil {
			t.Fatalf("AddUnit(%s) error = %v", u.ID, err)
		}
	}

	store := storage.NewMemoryStorage()
	return drift.NewService(engine, dir, store, nil), store
}

func securityPolicy(t *testing.T, severity governance.ConstraintSeverity) *governance.Policy {
	t.Helper()

	p := &governance.Policy{
		ID:            "security",
		Name:          "Security baseline",
		Layer:         governance.LayerCompany,
		Mode:          governance.ModeMandatory,
		MergeStrategy: governance.MergeStrategyMerge,
		Rules: []governance.PolicyRule{{
			ID:       "no-secrets",
			Type:     governance.RuleDeny,
			Target:   governance.TargetCode,
			Operator: governance.OpMustNotMatch,
			Value:    `SECRET_KEY`,
			Severity: severity,
			Message:  "secrets must not be committed",
		}},
	}
	if err := p.Compile(); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return p
}

func TestService_CheckDrift_ZeroViolationInvariant(t *testing.T) {
	svc, _ := newTestService(t, securityPolicy(t, governance.SeverityBlock))
	ctx := context.Background()

	clean, err := svc.CheckDrift(ctx, "tenant-1", "api-gw", &governance.Context{Content: "fn main(){}"})
	if err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}
	if clean.DriftScore != 0 {
		t.Errorf("clean context drift score = %v, want 0", clean.DriftScore)
	}
	if len(clean.Violations) != 0 {
		t.Errorf("clean context violations = %d, want 0", len(clean.Violations))
	}
	if clean.RequiresManualReview {
		t.Error("clean context flagged for manual review")
	}

	dirty, err := svc.CheckDrift(ctx, "tenant-1", "api-gw", &governance.Context{Content: "SECRET_KEY=1"})
	if err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}
	if dirty.DriftScore <= 0 {
		t.Errorf("violating context drift score = %v, want > 0", dirty.DriftScore)
	}
	if !dirty.RequiresManualReview {
		t.Error("block violation not flagged for manual review")
	}
}

func TestService_CheckDrift_UnknownUnit(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CheckDrift(context.Background(), "tenant-1", "ghost", &governance.Context{})
	if !errors.Is(err, hierarchy.ErrUnitNotFound) {
		t.Errorf("CheckDrift(unknown unit) error = %v, want ErrUnitNotFound", err)
	}
}

// A policy reload landing mid-check must not desynchronize the score from
// the violation list: normalization uses the rule count of the same
// registry snapshot the violations came from.
func TestService_CheckDrift_ScoreConsistentDuringReload(t *testing.T) {
	engine := governance.NewEngine(nil)
	if err := engine.AddPolicy(securityPolicy(t, governance.SeverityBlock)); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}

	dir := hierarchy.NewMemoryDirectory()
	if err := dir.AddUnit(&hierarchy.Unit{ID: "api-gw", Layer: governance.LayerProject}); err != nil {
		t.Fatalf("AddUnit() error = %v", err)
	}
	svc := drift.NewService(engine, dir, storage.NewMemoryStorage(), nil)

	// Alternate between the full set and an empty set, fresh policy values
	// each swap so recompilation never touches a set already in use.
	sets := make([][]*governance.Policy, 0, 100)
	for i := 0; i < 50; i++ {
		sets = append(sets,
			[]*governance.Policy{securityPolicy(t, governance.SeverityBlock)},
			nil,
		)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, set := range sets {
			if err := engine.ReplaceAll(set); err != nil {
				t.Errorf("ReplaceAll() error = %v", err)
				return
			}
		}
	}()

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		result, err := svc.CheckDrift(ctx, "tenant-1", "api-gw", &governance.Context{Content: "SECRET_KEY=1"})
		if err != nil {
			t.Fatalf("CheckDrift() error = %v", err)
		}
		if (result.DriftScore == 0) != (len(result.Violations) == 0) {
			t.Fatalf("drift score %v inconsistent with %d violations",
				result.DriftScore, len(result.Violations))
		}
	}
	<-done
}

func TestService_CheckDrift_SuppressionRemovesFromScoring(t *testing.T) {
	svc, _ := newTestService(t, securityPolicy(t, governance.SeverityBlock))
	ctx := context.Background()

	if _, err := svc.Suppress(ctx, "tenant-1", "api-gw", "no-secrets", "known test fixture", "alice"); err != nil {
		t.Fatalf("Suppress() error = %v", err)
	}

	result, err := svc.CheckDrift(ctx, "tenant-1", "api-gw", &governance.Context{Content: "SECRET_KEY=1"})
	if err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}

	if len(result.Violations) != 0 {
		t.Errorf("violations after suppression = %d, want 0", len(result.Violations))
	}
	if len(result.SuppressedViolations) != 1 {
		t.Errorf("suppressed violations = %d, want 1", len(result.SuppressedViolations))
	}
	if result.DriftScore != 0 {
		t.Errorf("drift score with all violations suppressed = %v, want 0", result.DriftScore)
	}
	if result.RequiresManualReview {
		t.Error("fully suppressed result flagged for manual review")
	}
}

func TestService_CheckDrift_PersistsLatest(t *testing.T) {
	svc, _ := newTestService(t, securityPolicy(t, governance.SeverityWarn))
	ctx := context.Background()

	if _, err := svc.CheckDrift(ctx, "tenant-1", "api-gw", &governance.Context{Content: "SECRET_KEY=1"}); err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}
	second, err := svc.CheckDrift(ctx, "tenant-1", "api-gw", &governance.Context{Content: "clean"})
	if err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}

	latest, err := svc.Latest(ctx, "tenant-1", "api-gw")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest() id = %s, want %s (most recent)", latest.ID, second.ID)
	}
}

func TestService_CheckDrift_ReviewThresholdFromConfig(t *testing.T) {
	// Warn-severity violation: no Block, so review depends on threshold.
	svc, _ := newTestService(t, securityPolicy(t, governance.SeverityWarn))
	ctx := context.Background()

	// Single warn violation over one rule: score = 0.5, not above the 0.5
	// default threshold.
	result, err := svc.CheckDrift(ctx, "tenant-1", "api-gw", &governance.Context{Content: "SECRET_KEY=1"})
	if err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}
	if result.RequiresManualReview {
		t.Error("warn violation at threshold flagged for review")
	}

	// Lower the threshold; the same violation must now be flagged.
	cfg := drift.DefaultConfig("tenant-1")
	cfg.ReviewThreshold = 0.2
	if err := svc.Configure(ctx, cfg); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	result, err = svc.CheckDrift(ctx, "tenant-1", "api-gw", &governance.Context{Content: "SECRET_KEY=1"})
	if err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}
	if !result.RequiresManualReview {
		t.Error("warn violation above configured threshold not flagged for review")
	}
}

func TestService_Configure_RejectsBadThreshold(t *testing.T) {
	svc, _ := newTestService(t)

	cfg := drift.DefaultConfig("tenant-1")
	cfg.ReviewThreshold = 1.5
	if err := svc.Configure(context.Background(), cfg); err == nil {
		t.Error("Configure(threshold > 1) error = nil, want error")
	}
}

func TestScore_Monotonicity(t *testing.T) {
	cfg := drift.DefaultConfig("t")

	block := []governance.Violation{{RuleID: "a", Severity: governance.SeverityBlock}}
	warn := []governance.Violation{{RuleID: "a", Severity: governance.SeverityWarn}}
	info := []governance.Violation{{RuleID: "a", Severity: governance.SeverityInfo}}
	two := []governance.Violation{
		{RuleID: "a", Severity: governance.SeverityInfo},
		{RuleID: "b", Severity: governance.SeverityInfo},
	}

	const rules = 10
	if !(drift.Score(block, rules, cfg) > drift.Score(warn, rules, cfg)) {
		t.Error("block score not greater than warn score")
	}
	if !(drift.Score(warn, rules, cfg) > drift.Score(info, rules, cfg)) {
		t.Error("warn score not greater than info score")
	}
	if !(drift.Score(two, rules, cfg) > drift.Score(info, rules, cfg)) {
		t.Error("score not monotonic in violation count")
	}
	if drift.Score(nil, rules, cfg) != 0 {
		t.Error("empty violations score != 0")
	}
}

func TestScore_Clamped(t *testing.T) {
	cfg := drift.DefaultConfig("t")

	many := make([]governance.Violation, 20)
	for i := range many {
		many[i] = governance.Violation{RuleID: "r", Severity: governance.SeverityBlock}
	}

	if got := drift.Score(many, 5, cfg); got != 1 {
		t.Errorf("Score() = %v, want clamped to 1", got)
	}
}
