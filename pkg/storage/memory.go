package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mercator-hq/minerva/pkg/approval"
	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/governance/proposal"
)

// MemoryBackend is an in-process Backend. Safe for concurrent use.
type MemoryBackend struct {
	mu sync.RWMutex

	// unitPolicies maps tenant/unit to the policies attached to it.
	unitPolicies map[string][]*governance.Policy
	drafts       map[string]*proposal.Draft
	proposals    map[string]*proposal.Proposal // keyed by draft id
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		unitPolicies: make(map[string][]*governance.Policy),
		drafts:       make(map[string]*proposal.Draft),
		proposals:    make(map[string]*proposal.Proposal),
	}
}

func unitKey(tenantID, unitID string) string {
	return tenantID + "/" + unitID
}

// UnitPolicies returns compiled copies of the unit's policies.
func (m *MemoryBackend) UnitPolicies(ctx context.Context, tenantID, unitID string) ([]*governance.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.unitPolicies[unitKey(tenantID, unitID)]
	out := make([]*governance.Policy, 0, len(stored))
	for _, p := range stored {
		cp := copyPolicy(p)
		if err := cp.Compile(); err != nil {
			return nil, fmt.Errorf("compiling policy %s: %w", cp.ID, err)
		}
		out = append(out, cp)
	}
	return out, nil
}

// AddUnitPolicy attaches a policy to a unit, replacing a same-id policy.
func (m *MemoryBackend) AddUnitPolicy(ctx context.Context, tenantID, unitID string, p *governance.Policy) error {
	if p == nil {
		return fmt.Errorf("policy cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("policy id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := unitKey(tenantID, unitID)
	cp := copyPolicy(p)
	for i, existing := range m.unitPolicies[key] {
		if existing.ID == p.ID {
			m.unitPolicies[key][i] = cp
			return nil
		}
	}
	m.unitPolicies[key] = append(m.unitPolicies[key], cp)
	return nil
}

// RemoveUnitPolicy detaches a policy from a unit.
func (m *MemoryBackend) RemoveUnitPolicy(ctx context.Context, tenantID, unitID, policyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := unitKey(tenantID, unitID)
	policies := m.unitPolicies[key]
	for i, p := range policies {
		if p.ID == policyID {
			m.unitPolicies[key] = append(policies[:i:i], policies[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("unit %s policy %s: %w", unitID, policyID, governance.ErrPolicyNotFound)
}

// GetDraft returns a copy of the draft.
func (m *MemoryBackend) GetDraft(ctx context.Context, id string) (*proposal.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, proposal.ErrDraftNotFound)
	}
	cp := *d
	cp.Rules = append([]governance.PolicyRule(nil), d.Rules...)
	return &cp, nil
}

// SaveDraft creates or updates a draft.
func (m *MemoryBackend) SaveDraft(ctx context.Context, draft *proposal.Draft) error {
	if draft == nil || draft.ID == "" {
		return fmt.Errorf("draft id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *draft
	cp.Rules = append([]governance.PolicyRule(nil), draft.Rules...)
	m.drafts[draft.ID] = &cp
	return nil
}

// StoreProposal persists a new proposal, enforcing one proposal per draft.
func (m *MemoryBackend) StoreProposal(ctx context.Context, p *proposal.Proposal) error {
	if p == nil || p.ProposalID == "" || p.DraftID == "" {
		return fmt.Errorf("proposal and draft ids cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.proposals[p.DraftID]; ok {
		return fmt.Errorf("draft %s: %w", p.DraftID, proposal.ErrDraftAlreadySubmitted)
	}
	m.proposals[p.DraftID] = copyProposal(p)
	return nil
}

// UpdateProposal replaces a stored proposal.
func (m *MemoryBackend) UpdateProposal(ctx context.Context, p *proposal.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.proposals[p.DraftID]
	if !ok || existing.ProposalID != p.ProposalID {
		return fmt.Errorf("proposal %s: %w", p.ProposalID, proposal.ErrProposalNotFound)
	}
	m.proposals[p.DraftID] = copyProposal(p)
	return nil
}

// GetProposalByDraft returns the proposal created from the draft.
func (m *MemoryBackend) GetProposalByDraft(ctx context.Context, draftID string) (*proposal.Proposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.proposals[draftID]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", draftID, proposal.ErrProposalNotFound)
	}
	return copyProposal(p), nil
}

// ListPending returns proposals whose workflow is pending, oldest first.
func (m *MemoryBackend) ListPending(ctx context.Context) ([]*proposal.Proposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*proposal.Proposal
	for _, p := range m.proposals {
		if p.Workflow != nil && p.Workflow.State == approval.StatePending {
			out = append(out, copyProposal(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProposedAt.Before(out[j].ProposedAt)
	})
	return out, nil
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}

func copyPolicy(p *governance.Policy) *governance.Policy {
	cp := *p
	cp.Rules = append([]governance.PolicyRule(nil), p.Rules...)
	if p.Metadata != nil {
		cp.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func copyProposal(p *proposal.Proposal) *proposal.Proposal {
	cp := *p
	cp.Rules = append([]governance.PolicyRule(nil), p.Rules...)
	cp.NotifiedApprovers = append([]string(nil), p.NotifiedApprovers...)
	if p.Workflow != nil {
		wf := *p.Workflow
		cp.Workflow = &wf
	}
	return &cp
}
