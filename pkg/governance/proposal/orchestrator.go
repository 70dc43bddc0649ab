package proposal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"mercator-hq/minerva/pkg/approval"
)

// Observer receives created proposals for instrumentation.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveProposal(scope, severity string)
}

// Orchestrator drives the draft to proposal transition.
type Orchestrator struct {
	store    Store
	resolver ApproverResolver
	notifier Notifier
	logger   *slog.Logger
	observer Observer

	// now is swappable for tests.
	now func() time.Time
}

// NewOrchestrator constructs an orchestrator. A nil notifier disables
// notifications; a nil logger falls back to slog.Default.
func NewOrchestrator(store Store, resolver ApproverResolver, notifier Notifier, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		logger:   logger.With("component", "proposal"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetObserver installs an instrumentation observer. Pass nil to disable.
// Not safe to call concurrently with Propose.
func (o *Orchestrator) SetObserver(obs Observer) {
	o.observer = obs
}

// Propose turns a validated draft into a proposal under approval
// governance. Additional approvers in notify are merged into the resolved
// set for notification only.
//
// Precondition failures return before any state is written. A notification
// failure after the proposal is persisted is returned as a
// *NotificationError alongside the proposal itself.
func (o *Orchestrator) Propose(ctx context.Context, draftID, justification string, notify []string, proposedBy string) (*Proposal, error) {
	draft, err := o.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if draft.Status == DraftSubmitted {
		return nil, fmt.Errorf("draft %s: %w", draftID, ErrDraftAlreadySubmitted)
	}
	if _, err := o.store.GetProposalByDraft(ctx, draftID); err == nil {
		return nil, fmt.Errorf("draft %s: %w", draftID, ErrDraftAlreadySubmitted)
	} else if !errors.Is(err, ErrProposalNotFound) {
		return nil, err
	}
	if draft.Status != DraftValidated {
		return nil, fmt.Errorf("draft %s has status %s: %w", draftID, draft.Status, ErrDraftNotValidated)
	}

	scope := DeriveScope(draft.Rules)
	severity := draft.Intent.Severity
	if severity == "" {
		severity = SeverityInfo
	}

	approvers, err := o.resolver.Approvers(ctx, scope, severity)
	if err != nil {
		return nil, fmt.Errorf("resolving approvers for scope %s: %w", scope, err)
	}
	required, err := o.resolver.RequiredApprovals(ctx, scope, severity)
	if err != nil {
		return nil, fmt.Errorf("resolving required approvals for scope %s: %w", scope, err)
	}
	timeoutHours, err := o.resolver.ApprovalTimeoutHours(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("resolving approval timeout for scope %s: %w", scope, err)
	}

	recipients := mergeApprovers(approvers, notify)

	workflow, err := approval.NewWorkflow(approval.Context{
		RequestID:          uuid.NewString(),
		RequestType:        "policy_proposal",
		RequiredApprovals:  required,
		ApprovalMode:       scope.ApprovalMode(),
		TimeoutHours:       timeoutHours,
		AutoApproveLowRisk: false,
		RiskLevel:          severity.RiskLevel(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStateTransition, err)
	}

	now := o.now()
	if err := workflow.HandleSubmit(approval.SubmitEvent{RequestorID: proposedBy, SubmittedAt: now}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStateTransition, err)
	}

	p := &Proposal{
		ProposalID:        uuid.NewString(),
		DraftID:           draft.ID,
		Name:              draft.Name,
		Rules:             draft.Rules,
		Scope:             scope,
		Severity:          severity,
		Intent:            draft.Intent,
		Justification:     justification,
		ProposedBy:        proposedBy,
		ProposedAt:        now,
		Workflow:          workflow,
		NotifiedApprovers: recipients,
		ExpiresAt:         now.Add(time.Duration(timeoutHours) * time.Hour),
	}

	if err := o.store.StoreProposal(ctx, p); err != nil {
		return nil, fmt.Errorf("storing proposal for draft %s: %w", draftID, err)
	}

	draft.Status = DraftSubmitted
	if err := o.store.SaveDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("marking draft %s submitted: %w", draftID, err)
	}

	if o.observer != nil {
		o.observer.ObserveProposal(string(p.Scope), string(p.Severity))
	}

	o.logger.Info("proposal created",
		"proposal_id", p.ProposalID,
		"draft_id", p.DraftID,
		"scope", string(p.Scope),
		"severity", string(p.Severity),
		"approvers", len(recipients))

	if o.notifier != nil && len(recipients) > 0 {
		if err := o.notifier.NotifyApprovers(ctx, recipients, p); err != nil {
			o.logger.Warn("approver notification failed",
				"proposal_id", p.ProposalID, "error", err)
			return p, &NotificationError{ProposalID: p.ProposalID, Approvers: recipients, Cause: err}
		}
	}

	return p, nil
}

// ListPending returns pending proposals, optionally filtered to one scope.
func (o *Orchestrator) ListPending(ctx context.Context, scope Scope) ([]*Proposal, error) {
	pending, err := o.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	if scope == "" {
		return pending, nil
	}
	filtered := pending[:0:0]
	for _, p := range pending {
		if p.Scope == scope {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// mergeApprovers unions the two lists, deduplicates, and sorts for stable
// persistence and notification order.
func mergeApprovers(resolved, extra []string) []string {
	seen := make(map[string]struct{}, len(resolved)+len(extra))
	var out []string
	for _, lists := range [][]string{resolved, extra} {
		for _, a := range lists {
			if a == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}
