package governance

import (
	"testing"
)

// testPolicy builds a compiled policy for resolver tests.
func testPolicy(t *testing.T, id string, layer KnowledgeLayer, mode PolicyMode, strategy RuleMergeStrategy, rules ...PolicyRule) *Policy {
	t.Helper()

	p := &Policy{
		ID:            id,
		Name:          id,
		Layer:         layer,
		Mode:          mode,
		MergeStrategy: strategy,
		Rules:         rules,
	}
	if err := p.Compile(); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return p
}

// codeRule builds a code-target regex rule.
func codeRule(id, pattern string, severity ConstraintSeverity) PolicyRule {
	return PolicyRule{
		ID:       id,
		Type:     RuleDeny,
		Target:   TargetCode,
		Operator: OpMustNotMatch,
		Value:    pattern,
		Severity: severity,
		Message:  "forbidden pattern " + pattern,
	}
}

func ruleIDs(rules []PolicyRule) []string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}

func containsRule(rules []PolicyRule, id string) bool {
	for _, r := range rules {
		if r.ID == id {
			return true
		}
	}
	return false
}

func TestResolveEffectiveRules_AncestorOnlyApplicability(t *testing.T) {
	projectPolicy := testPolicy(t, "proj-only", LayerProject, ModeOptional, MergeStrategyMerge,
		codeRule("proj-rule", `TODO`, SeverityWarn),
	)

	// A project-layer policy never affects a broader validation.
	rules := ResolveEffectiveRules([]*Policy{projectPolicy}, LayerOrg)
	if len(rules) != 0 {
		t.Errorf("validate(Org) rules = %v, want none", ruleIDs(rules))
	}

	// It does affect validation at its own layer.
	rules = ResolveEffectiveRules([]*Policy{projectPolicy}, LayerProject)
	if !containsRule(rules, "proj-rule") {
		t.Errorf("validate(Project) rules = %v, want proj-rule", ruleIDs(rules))
	}
}

func TestResolveEffectiveRules_MandatoryImmunity(t *testing.T) {
	mandatory := testPolicy(t, "security", LayerCompany, ModeMandatory, MergeStrategyMerge,
		codeRule("no-secrets", `SECRET_KEY`, SeverityBlock),
	)

	// Project-layer optional policy with the same id, Override strategy and
	// no rules must not remove the mandatory rule.
	override := testPolicy(t, "security", LayerProject, ModeOptional, MergeStrategyOverride)

	rules := ResolveEffectiveRules([]*Policy{mandatory, override}, LayerProject)
	if !containsRule(rules, "no-secrets") {
		t.Fatalf("mandatory rule suppressed by optional override, rules = %v", ruleIDs(rules))
	}
}

func TestResolveEffectiveRules_OverridePrecedence(t *testing.T) {
	broad := testPolicy(t, "coding-style", LayerOrg, ModeOptional, MergeStrategyMerge,
		codeRule("org-indent", `\t`, SeverityWarn),
	)
	narrow := testPolicy(t, "coding-style", LayerProject, ModeOptional, MergeStrategyOverride,
		codeRule("proj-indent", `  `, SeverityWarn),
	)

	rules := ResolveEffectiveRules([]*Policy{broad, narrow}, LayerProject)

	if containsRule(rules, "org-indent") {
		t.Errorf("overridden broad rule still present, rules = %v", ruleIDs(rules))
	}
	if !containsRule(rules, "proj-indent") {
		t.Errorf("narrow override rule missing, rules = %v", ruleIDs(rules))
	}
}

func TestResolveEffectiveRules_MergeAccumulation(t *testing.T) {
	broad := testPolicy(t, "coding-style", LayerOrg, ModeOptional, MergeStrategyMerge,
		codeRule("org-rule", `eval\(`, SeverityWarn),
	)
	narrow := testPolicy(t, "coding-style", LayerProject, ModeOptional, MergeStrategyMerge,
		codeRule("proj-rule", `exec\(`, SeverityWarn),
	)

	rules := ResolveEffectiveRules([]*Policy{broad, narrow}, LayerProject)

	if !containsRule(rules, "org-rule") || !containsRule(rules, "proj-rule") {
		t.Errorf("merge lost a layer's rules, rules = %v", ruleIDs(rules))
	}
}

func TestResolveEffectiveRules_OverrideAtBroaderLayerStillAccumulates(t *testing.T) {
	// Narrower Merge after a broader Override appends to the override's set.
	broad := testPolicy(t, "style", LayerCompany, ModeOptional, MergeStrategyOverride,
		codeRule("company-rule", `foo`, SeverityInfo),
	)
	narrow := testPolicy(t, "style", LayerTeam, ModeOptional, MergeStrategyMerge,
		codeRule("team-rule", `bar`, SeverityInfo),
	)

	rules := ResolveEffectiveRules([]*Policy{narrow, broad}, LayerProject)

	if !containsRule(rules, "company-rule") || !containsRule(rules, "team-rule") {
		t.Errorf("expected both rules after override+merge, got %v", ruleIDs(rules))
	}
}

func TestResolveEffectiveRules_MandatoryUnionAcrossLayers(t *testing.T) {
	company := testPolicy(t, "security", LayerCompany, ModeMandatory, MergeStrategyMerge,
		codeRule("company-secrets", `SECRET`, SeverityBlock),
	)
	team := testPolicy(t, "security", LayerTeam, ModeMandatory, MergeStrategyOverride,
		codeRule("team-tokens", `TOKEN`, SeverityBlock),
	)

	rules := ResolveEffectiveRules([]*Policy{team, company}, LayerProject)

	// Mandatory rules union across layers; merge strategy is ignored.
	if !containsRule(rules, "company-secrets") || !containsRule(rules, "team-tokens") {
		t.Errorf("mandatory union incomplete, rules = %v", ruleIDs(rules))
	}
}
