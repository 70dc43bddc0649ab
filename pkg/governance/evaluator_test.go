package governance

import (
	"testing"
)

// compiledRule builds and compiles a single rule for evaluator tests.
func compiledRule(t *testing.T, ruleType RuleType, target ConstraintTarget, op ConstraintOperator, value any, severity ConstraintSeverity) PolicyRule {
	t.Helper()

	r := PolicyRule{
		ID:       "test-rule",
		Type:     ruleType,
		Target:   target,
		Operator: op,
		Value:    value,
		Severity: severity,
		Message:  "test rule violated",
	}
	if err := r.Compile(); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return r
}

func TestEvaluateRule(t *testing.T) {
	tests := []struct {
		name          string
		ruleType      RuleType
		target        ConstraintTarget
		op            ConstraintOperator
		value         any
		ctx           *Context
		wantViolation bool
	}{
		{
			name:          "deny must_not_match forbidden pattern present",
			ruleType:      RuleDeny,
			target:        TargetCode,
			op:            OpMustNotMatch,
			value:         `SECRET_KEY`,
			ctx:           &Context{Content: "SECRET_KEY=1"},
			wantViolation: true,
		},
		{
			name:          "deny must_not_match clean content",
			ruleType:      RuleDeny,
			target:        TargetCode,
			op:            OpMustNotMatch,
			value:         `SECRET_KEY`,
			ctx:           &Context{Content: "fn main(){}"},
			wantViolation: false,
		},
		{
			name:          "allow must_match pattern present",
			ruleType:      RuleAllow,
			target:        TargetCode,
			op:            OpMustMatch,
			value:         `^package `,
			ctx:           &Context{Content: "package main"},
			wantViolation: false,
		},
		{
			name:          "allow must_match pattern absent",
			ruleType:      RuleAllow,
			target:        TargetCode,
			op:            OpMustMatch,
			value:         `^package `,
			ctx:           &Context{Content: "fn main(){}"},
			wantViolation: true,
		},
		{
			// Deny inverts the positive operator: the value being present is
			// the violation.
			name:          "deny must_use dependency present",
			ruleType:      RuleDeny,
			target:        TargetDependency,
			op:            OpMustUse,
			value:         "jquery",
			ctx:           &Context{Dependencies: []string{"jquery"}},
			wantViolation: true,
		},
		{
			name:          "deny must_use dependency absent",
			ruleType:      RuleDeny,
			target:        TargetDependency,
			op:            OpMustUse,
			value:         "jquery",
			ctx:           &Context{Dependencies: []string{}},
			wantViolation: false,
		},
		{
			name:          "allow must_use dependency present",
			ruleType:      RuleAllow,
			target:        TargetDependency,
			op:            OpMustUse,
			value:         "lodash",
			ctx:           &Context{Dependencies: []string{"lodash@4.17.21"}},
			wantViolation: false,
		},
		{
			name:          "allow must_use dependency absent",
			ruleType:      RuleAllow,
			target:        TargetDependency,
			op:            OpMustUse,
			value:         "lodash",
			ctx:           &Context{},
			wantViolation: true,
		},
		{
			name:          "must_not_use forbidden dependency with version",
			ruleType:      RuleAllow,
			target:        TargetDependency,
			op:            OpMustNotUse,
			value:         map[string]any{"name": "log4j", "version": "< 2.17.0"},
			ctx:           &Context{Dependencies: []string{"log4j@2.14.0"}},
			wantViolation: true,
		},
		{
			name:          "must_not_use dependency outside version constraint",
			ruleType:      RuleAllow,
			target:        TargetDependency,
			op:            OpMustNotUse,
			value:         map[string]any{"name": "log4j", "version": "< 2.17.0"},
			ctx:           &Context{Dependencies: []string{"log4j@2.17.1"}},
			wantViolation: false,
		},
		{
			name:          "allow must_exist config key present",
			ruleType:      RuleAllow,
			target:        TargetConfig,
			op:            OpMustExist,
			value:         map[string]any{"key": "timeout"},
			ctx:           &Context{Config: map[string]any{"timeout": 30}},
			wantViolation: false,
		},
		{
			name:          "allow must_exist config key missing",
			ruleType:      RuleAllow,
			target:        TargetConfig,
			op:            OpMustExist,
			value:         map[string]any{"key": "timeout"},
			ctx:           &Context{},
			wantViolation: true,
		},
		{
			name:          "must_not_exist file present",
			ruleType:      RuleAllow,
			target:        TargetFile,
			op:            OpMustNotExist,
			value:         map[string]any{"key": ".env"},
			ctx:           &Context{Files: []string{"main.go", ".env"}},
			wantViolation: true,
		},
		{
			name:          "must_not_exist file absent",
			ruleType:      RuleAllow,
			target:        TargetFile,
			op:            OpMustNotExist,
			value:         map[string]any{"key": ".env"},
			ctx:           &Context{Files: []string{"main.go"}},
			wantViolation: false,
		},
		{
			name:          "import regex matches import list",
			ruleType:      RuleDeny,
			target:        TargetImport,
			op:            OpMustNotMatch,
			value:         `unsafe`,
			ctx:           &Context{Imports: []string{"fmt", "unsafe"}},
			wantViolation: true,
		},
		{
			// Missing context fields make the condition false: a negative
			// operator is satisfied, a positive Allow operator violates.
			name:          "missing content satisfies negative operator",
			ruleType:      RuleDeny,
			target:        TargetCode,
			op:            OpMustNotMatch,
			value:         `SECRET`,
			ctx:           &Context{},
			wantViolation: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := compiledRule(t, tt.ruleType, tt.target, tt.op, tt.value, SeverityWarn)

			v := EvaluateRule(&rule, tt.ctx)

			if (v != nil) != tt.wantViolation {
				t.Errorf("EvaluateRule() violation = %v, want violation = %v", v, tt.wantViolation)
			}
			if v != nil && v.RuleID != rule.ID {
				t.Errorf("violation rule id = %q, want %q", v.RuleID, rule.ID)
			}
		})
	}
}

func TestEvaluateRule_UncompiledRule(t *testing.T) {
	rule := PolicyRule{ID: "raw", Target: TargetCode, Operator: OpMustMatch, Severity: SeverityBlock}

	v := EvaluateRule(&rule, &Context{Content: "anything"})

	if v == nil {
		t.Fatal("EvaluateRule() on uncompiled rule = nil, want violation")
	}
}

func TestEvaluateRules_CollectsAllViolations(t *testing.T) {
	rules := []PolicyRule{
		compiledRule(t, RuleDeny, TargetCode, OpMustNotMatch, `SECRET`, SeverityBlock),
		compiledRule(t, RuleAllow, TargetDependency, OpMustUse, "lodash", SeverityInfo),
	}

	violations := EvaluateRules(rules, &Context{Content: "SECRET=1"})

	if len(violations) != 2 {
		t.Fatalf("EvaluateRules() violations = %d, want 2", len(violations))
	}
}

func TestCompileCheck_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		target ConstraintTarget
		value  any
	}{
		{"nil value", TargetCode, nil},
		{"empty string", TargetDependency, ""},
		{"bad regex", TargetCode, `([`},
		{"bad version constraint", TargetDependency, map[string]any{"name": "x", "version": "not-a-range"}},
		{"missing key field", TargetConfig, map[string]any{"pattern": "x"}},
		{"unsupported type", TargetFile, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CompileCheck(tt.target, tt.value); err == nil {
				t.Errorf("CompileCheck(%v, %v) error = nil, want error", tt.target, tt.value)
			}
		})
	}
}

func TestSplitDependency(t *testing.T) {
	tests := []struct {
		dep         string
		wantName    string
		wantVersion string
	}{
		{"lodash", "lodash", ""},
		{"lodash@4.17.21", "lodash", "4.17.21"},
		{"@scope/pkg@1.0.0", "@scope/pkg", "1.0.0"},
		{"@scope/pkg", "@scope/pkg", ""},
	}

	for _, tt := range tests {
		name, version := splitDependency(tt.dep)
		if name != tt.wantName || version != tt.wantVersion {
			t.Errorf("splitDependency(%q) = (%q, %q), want (%q, %q)",
				tt.dep, name, version, tt.wantName, tt.wantVersion)
		}
	}
}
