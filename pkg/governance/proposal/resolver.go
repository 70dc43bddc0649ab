package proposal

import (
	"context"
	"fmt"

	"mercator-hq/minerva/pkg/approval"
)

// Default approval requirements by severity, applied when the matrix has
// no explicit entry.
var defaultRequiredApprovals = map[Severity]int{
	SeverityBlock: 2,
	SeverityWarn:  1,
	SeverityInfo:  1,
}

// Default approval windows by scope, in hours.
var defaultTimeoutHours = map[Scope]int{
	ScopeCompany: 168,
	ScopeOrg:     96,
	ScopeTeam:    72,
	ScopeProject: 48,
}

// ApproverMatrix is a configuration-backed ApproverResolver: approver
// lists keyed by scope and severity, with per-scope timeouts.
type ApproverMatrix struct {
	// Matrix maps scope to severity to approver identities.
	Matrix map[Scope]map[Severity][]string

	// Required maps scope to severity to required approval count. Missing
	// entries fall back to severity defaults, except unanimous scopes
	// which require every approver.
	Required map[Scope]map[Severity]int

	// TimeoutHours overrides the per-scope approval window.
	TimeoutHours map[Scope]int
}

// Approvers returns the configured approver list for the pair.
func (m *ApproverMatrix) Approvers(ctx context.Context, scope Scope, severity Severity) ([]string, error) {
	bySeverity, ok := m.Matrix[scope]
	if !ok {
		return nil, fmt.Errorf("no approvers configured for scope %s", scope)
	}
	approvers := bySeverity[severity]
	out := make([]string, len(approvers))
	copy(out, approvers)
	return out, nil
}

// RequiredApprovals returns the approval count for the pair. Unanimous
// scopes require every configured approver.
func (m *ApproverMatrix) RequiredApprovals(ctx context.Context, scope Scope, severity Severity) (int, error) {
	if bySeverity, ok := m.Required[scope]; ok {
		if n, ok := bySeverity[severity]; ok {
			return n, nil
		}
	}

	if scope.ApprovalMode() == approval.ModeUnanimous {
		approvers, err := m.Approvers(ctx, scope, severity)
		if err != nil {
			return 0, err
		}
		if len(approvers) > 0 {
			return len(approvers), nil
		}
	}

	return defaultRequiredApprovals[severity], nil
}

// ApprovalTimeoutHours returns the approval window for the scope.
func (m *ApproverMatrix) ApprovalTimeoutHours(ctx context.Context, scope Scope) (int, error) {
	if m.TimeoutHours != nil {
		if h, ok := m.TimeoutHours[scope]; ok {
			return h, nil
		}
	}
	h, ok := defaultTimeoutHours[scope]
	if !ok {
		return 0, fmt.Errorf("no timeout configured for scope %s", scope)
	}
	return h, nil
}
