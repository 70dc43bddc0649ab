package proposal

import (
	"strings"
	"time"

	"mercator-hq/minerva/pkg/approval"
	"mercator-hq/minerva/pkg/governance"
)

// Scope is the governance scope a proposal targets, mirroring the
// knowledge layers.
type Scope string

const (
	ScopeCompany Scope = "company"
	ScopeOrg     Scope = "org"
	ScopeTeam    Scope = "team"
	ScopeProject Scope = "project"
)

// ApprovalMode returns how approvals are counted for the scope: company
// proposals need unanimity, org proposals a quorum, everything narrower a
// single approval.
func (s Scope) ApprovalMode() approval.Mode {
	switch s {
	case ScopeCompany:
		return approval.ModeUnanimous
	case ScopeOrg:
		return approval.ModeQuorum
	default:
		return approval.ModeSingle
	}
}

// Severity is the proposal-level severity taken from the draft's intent.
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

// RiskLevel maps the severity onto the workflow risk classification.
func (s Severity) RiskLevel() approval.RiskLevel {
	switch s {
	case SeverityBlock:
		return approval.RiskHigh
	case SeverityWarn:
		return approval.RiskMedium
	default:
		return approval.RiskLow
	}
}

// DraftStatus is the lifecycle status of a policy draft.
type DraftStatus string

const (
	// DraftValidated drafts are eligible for proposal.
	DraftValidated DraftStatus = "validated"

	// DraftValidationFailed drafts cannot be proposed.
	DraftValidationFailed DraftStatus = "validation_failed"

	// DraftSubmitted drafts have already been turned into a proposal.
	DraftSubmitted DraftStatus = "submitted"
)

// Intent is the structured intent captured when the draft was authored.
type Intent struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Draft is a policy draft awaiting proposal.
type Draft struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Rules     []governance.PolicyRule `json:"rules"`
	Intent    Intent                  `json:"intent"`
	Status    DraftStatus             `json:"status"`
	CreatedBy string                  `json:"created_by"`
	CreatedAt time.Time               `json:"created_at"`
}

// Proposal is a draft submitted for approval. It is created exactly once
// per draft, mutated only by workflow event application, and immutable
// once the workflow reaches a terminal state.
type Proposal struct {
	ProposalID        string                  `json:"proposal_id"`
	DraftID           string                  `json:"draft_id"`
	Name              string                  `json:"name"`
	Rules             []governance.PolicyRule `json:"rules"`
	Scope             Scope                   `json:"scope"`
	Severity          Severity                `json:"severity"`
	Intent            Intent                  `json:"intent"`
	Justification     string                  `json:"justification,omitempty"`
	ProposedBy        string                  `json:"proposed_by"`
	ProposedAt        time.Time               `json:"proposed_at"`
	Workflow          *approval.Workflow      `json:"workflow"`
	NotifiedApprovers []string                `json:"notified_approvers"`
	ExpiresAt         time.Time               `json:"expires_at"`
}

// DeriveScope infers the proposal scope from rule ids: the first layer
// name found as a substring wins, checked broadest first; rules that name
// no layer default to project scope.
func DeriveScope(rules []governance.PolicyRule) Scope {
	for _, candidate := range []struct {
		needle string
		scope  Scope
	}{
		{"company", ScopeCompany},
		{"org", ScopeOrg},
		{"team", ScopeTeam},
	} {
		for _, r := range rules {
			if strings.Contains(strings.ToLower(r.ID), candidate.needle) {
				return candidate.scope
			}
		}
	}
	return ScopeProject
}
