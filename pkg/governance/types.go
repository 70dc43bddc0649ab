package governance

import (
	"fmt"
)

// KnowledgeLayer identifies an organizational scope in the governance
// hierarchy, ordered from broadest (Company) to narrowest (Project).
type KnowledgeLayer int

const (
	// LayerCompany is the broadest scope; company policies apply everywhere.
	LayerCompany KnowledgeLayer = iota

	// LayerOrg scopes policies to a single organization.
	LayerOrg

	// LayerTeam scopes policies to a single team.
	LayerTeam

	// LayerProject is the narrowest scope.
	LayerProject
)

// String returns the canonical lowercase name of the layer.
func (l KnowledgeLayer) String() string {
	switch l {
	case LayerCompany:
		return "company"
	case LayerOrg:
		return "org"
	case LayerTeam:
		return "team"
	case LayerProject:
		return "project"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// Valid reports whether l is one of the four defined layers.
func (l KnowledgeLayer) Valid() bool {
	return l >= LayerCompany && l <= LayerProject
}

// AppliesTo reports whether a policy defined at layer l applies to a
// validation targeting layer target, i.e. l is an ancestor of, or equal
// to, target.
func (l KnowledgeLayer) AppliesTo(target KnowledgeLayer) bool {
	return l <= target
}

// ParseLayer parses a layer name ("company", "org", "team", "project").
func ParseLayer(s string) (KnowledgeLayer, error) {
	switch s {
	case "company":
		return LayerCompany, nil
	case "org":
		return LayerOrg, nil
	case "team":
		return LayerTeam, nil
	case "project":
		return LayerProject, nil
	default:
		return 0, fmt.Errorf("unknown layer %q", s)
	}
}

// PolicyMode controls whether a policy can be overridden by narrower layers.
type PolicyMode string

const (
	// ModeMandatory policies are enforced at every applicable layer and are
	// immune to override by narrower-layer policies sharing their id.
	ModeMandatory PolicyMode = "mandatory"

	// ModeOptional policies participate in merge/override resolution.
	ModeOptional PolicyMode = "optional"
)

// RuleMergeStrategy decides how an optional policy combines with
// broader-layer policies sharing its id.
type RuleMergeStrategy string

const (
	// MergeStrategyMerge appends this layer's rules to the accumulated set.
	MergeStrategyMerge RuleMergeStrategy = "merge"

	// MergeStrategyOverride replaces the accumulated set with this layer's rules.
	MergeStrategyOverride RuleMergeStrategy = "override"
)

// RuleType is the polarity of a rule.
type RuleType string

const (
	// RuleAllow requires the rule's condition to hold.
	RuleAllow RuleType = "allow"

	// RuleDeny forbids the rule's condition from holding. Deny inverts the
	// polarity of nominally positive operators: a Deny+MustUse rule violates
	// when the value is present.
	RuleDeny RuleType = "deny"
)

// ConstraintTarget selects which part of the evaluation context a rule inspects.
type ConstraintTarget string

const (
	TargetCode       ConstraintTarget = "code"
	TargetDependency ConstraintTarget = "dependency"
	TargetFile       ConstraintTarget = "file"
	TargetImport     ConstraintTarget = "import"
	TargetConfig     ConstraintTarget = "config"
)

// ConstraintOperator is the comparison a rule applies to its target.
type ConstraintOperator string

const (
	OpMustMatch    ConstraintOperator = "must_match"
	OpMustNotMatch ConstraintOperator = "must_not_match"
	OpMustUse      ConstraintOperator = "must_use"
	OpMustNotUse   ConstraintOperator = "must_not_use"
	OpMustExist    ConstraintOperator = "must_exist"
	OpMustNotExist ConstraintOperator = "must_not_exist"
)

// Negative reports whether the operator forbids its condition. For negative
// operators a violation occurs whenever the condition holds, regardless of
// the rule type.
func (op ConstraintOperator) Negative() bool {
	switch op {
	case OpMustNotMatch, OpMustNotUse, OpMustNotExist:
		return true
	default:
		return false
	}
}

// ConstraintSeverity weights a violation for drift scoring. Severity never
// affects validity: a single Info violation makes a result invalid.
type ConstraintSeverity string

const (
	SeverityBlock ConstraintSeverity = "block"
	SeverityWarn  ConstraintSeverity = "warn"
	SeverityInfo  ConstraintSeverity = "info"
)

// Rank orders severities for comparison: Block > Warn > Info.
func (s ConstraintSeverity) Rank() int {
	switch s {
	case SeverityBlock:
		return 3
	case SeverityWarn:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// PolicyRule is a single constraint inside a policy.
//
// Value carries the raw rule value as authored (string or structured map);
// Check is the typed interpretation compiled once via Compile. Rules loaded
// through the loader or registered through the engine are always compiled.
type PolicyRule struct {
	ID       string             `yaml:"id" json:"id"`
	Type     RuleType           `yaml:"type" json:"type"`
	Target   ConstraintTarget   `yaml:"target" json:"target"`
	Operator ConstraintOperator `yaml:"operator" json:"operator"`
	Value    any                `yaml:"value" json:"value"`
	Severity ConstraintSeverity `yaml:"severity" json:"severity"`
	Message  string             `yaml:"message" json:"message"`

	// Check is the parsed form of Value. Populated by Compile.
	Check RuleCheck `yaml:"-" json:"-"`
}

// Compile parses the rule's raw value into its typed check. It is
// idempotent and must be called before the rule is evaluated.
func (r *PolicyRule) Compile() error {
	check, err := CompileCheck(r.Target, r.Value)
	if err != nil {
		return &RuleCompileError{RuleID: r.ID, Target: r.Target, Cause: err}
	}
	r.Check = check
	return nil
}

// Policy is a named set of rules bound to a layer. Policy identity for
// merge purposes is ID alone: two policies with the same id at different
// layers are the same logical policy evolving across the hierarchy.
type Policy struct {
	ID            string            `yaml:"id" json:"id"`
	Name          string            `yaml:"name" json:"name"`
	Description   string            `yaml:"description,omitempty" json:"description,omitempty"`
	Layer         KnowledgeLayer    `yaml:"-" json:"-"`
	Mode          PolicyMode        `yaml:"mode" json:"mode"`
	MergeStrategy RuleMergeStrategy `yaml:"merge_strategy" json:"merge_strategy"`
	Rules         []PolicyRule      `yaml:"rules" json:"rules"`
	Metadata      map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Compile compiles every rule in the policy.
func (p *Policy) Compile() error {
	for i := range p.Rules {
		if err := p.Rules[i].Compile(); err != nil {
			return err
		}
	}
	return nil
}

// Context is the evaluation context a caller submits for validation.
// Zero-valued fields are treated as absent: a rule that needs a missing
// field evaluates its condition to false.
type Context struct {
	// Content is the submitted code or document body.
	Content string

	// Dependencies lists declared dependencies, either bare names
	// ("lodash") or name@version pairs ("lodash@4.17.21").
	Dependencies []string

	// Files lists file paths present in the unit.
	Files []string

	// Imports lists import statements or module paths.
	Imports []string

	// Config holds configuration keys and values.
	Config map[string]any
}

// Violation records a single rule failure.
type Violation struct {
	RuleID   string             `json:"rule_id"`
	Severity ConstraintSeverity `json:"severity"`
	Message  string             `json:"message"`
}

// ValidationResult is the outcome of validating a context against the
// effective rule set. IsValid is true iff Violations is empty.
type ValidationResult struct {
	IsValid    bool        `json:"is_valid"`
	Violations []Violation `json:"violations"`

	// RulesEvaluated is the size of the effective rule set the violations
	// were evaluated against, from the same registry snapshot.
	RulesEvaluated int `json:"rules_evaluated"`
}
