package governance

import (
	"fmt"
)

// EvaluateRule evaluates a single rule against the context and returns a
// violation, or nil when the rule is satisfied.
//
// The rule's check computes whether the condition holds (the positive
// predicate: pattern matched, dependency present, key exists). Polarity is
// then applied:
//
//   - Negative operators (MustNotMatch, MustNotUse, MustNotExist) violate
//     whenever the condition holds, regardless of rule type: the forbidden
//     thing was observed.
//   - Positive operators combine with the rule type: Allow requires the
//     condition (violation when absent); Deny forbids it (violation when
//     present), overriding the operator's default polarity.
func EvaluateRule(rule *PolicyRule, ctx *Context) *Violation {
	if rule.Check == nil {
		// Uncompiled rules cannot be evaluated; surface as a violation so a
		// misconfigured rule is never silently satisfied.
		return &Violation{
			RuleID:   rule.ID,
			Severity: rule.Severity,
			Message:  fmt.Sprintf("rule %s has no compiled check", rule.ID),
		}
	}

	holds := rule.Check.Holds(ctx)

	var violated bool
	if rule.Operator.Negative() {
		violated = holds
	} else if rule.Type == RuleDeny {
		violated = holds
	} else {
		violated = !holds
	}

	if !violated {
		return nil
	}

	message := rule.Message
	if message == "" {
		message = fmt.Sprintf("rule %s violated (%s %s)", rule.ID, rule.Target, rule.Operator)
	}

	return &Violation{
		RuleID:   rule.ID,
		Severity: rule.Severity,
		Message:  message,
	}
}

// EvaluateRules evaluates every rule in the effective set and collects the
// violations.
func EvaluateRules(rules []PolicyRule, ctx *Context) []Violation {
	var violations []Violation
	for i := range rules {
		if v := EvaluateRule(&rules[i], ctx); v != nil {
			violations = append(violations, *v)
		}
	}
	return violations
}
