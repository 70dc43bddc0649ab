package proposal

import (
	"context"
)

// Store persists drafts and proposals. Implementations live in
// pkg/storage; all operations are fallible.
//
// The "one proposal per draft" invariant is ultimately enforced here: a
// concurrent double-propose race must be resolved by the store (e.g. a
// unique constraint on draft_id), not by the orchestrator.
type Store interface {
	// GetDraft returns the draft with the given id, or ErrDraftNotFound.
	GetDraft(ctx context.Context, id string) (*Draft, error)

	// SaveDraft creates or updates a draft.
	SaveDraft(ctx context.Context, draft *Draft) error

	// StoreProposal persists a new proposal. It fails if a proposal for
	// the same draft id already exists.
	StoreProposal(ctx context.Context, p *Proposal) error

	// UpdateProposal persists workflow-driven changes to a proposal.
	UpdateProposal(ctx context.Context, p *Proposal) error

	// GetProposalByDraft returns the proposal referencing the draft id,
	// or ErrProposalNotFound.
	GetProposalByDraft(ctx context.Context, draftID string) (*Proposal, error)

	// ListPending returns all proposals whose workflow state is pending.
	ListPending(ctx context.Context) ([]*Proposal, error)
}

// ApproverResolver supplies approval routing for a (scope, severity) pair.
// It is an external collaborator; a configuration-backed implementation is
// provided in this package.
type ApproverResolver interface {
	// Approvers returns the approver identities for the pair.
	Approvers(ctx context.Context, scope Scope, severity Severity) ([]string, error)

	// RequiredApprovals returns how many approvals the pair needs.
	RequiredApprovals(ctx context.Context, scope Scope, severity Severity) (int, error)

	// ApprovalTimeoutHours returns the approval window for the scope.
	ApprovalTimeoutHours(ctx context.Context, scope Scope) (int, error)
}

// Notifier delivers proposal lifecycle notifications. Delivery mechanics
// are out of scope; failures are surfaced as soft warnings.
type Notifier interface {
	// NotifyApprovers informs approvers that a proposal awaits them.
	NotifyApprovers(ctx context.Context, approvers []string, p *Proposal) error

	// NotifyProposer informs the proposer of a status change.
	NotifyProposer(ctx context.Context, proposer string, p *Proposal, status string, comment string) error
}
