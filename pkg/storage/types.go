package storage

import (
	"context"

	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/governance/proposal"
)

// Backend persists governance entities. Unit policy operations are
// tenant-scoped; draft and proposal operations come from proposal.Store.
// All operations are fallible.
type Backend interface {
	proposal.Store

	// UnitPolicies returns the policies attached to a unit, compiled and
	// ready for evaluation. A unit with no policies returns an empty slice.
	UnitPolicies(ctx context.Context, tenantID, unitID string) ([]*governance.Policy, error)

	// AddUnitPolicy attaches a policy to a unit, replacing any existing
	// policy with the same id on that unit.
	AddUnitPolicy(ctx context.Context, tenantID, unitID string, p *governance.Policy) error

	// RemoveUnitPolicy detaches a policy from a unit. It returns
	// governance.ErrPolicyNotFound if the unit has no such policy.
	RemoveUnitPolicy(ctx context.Context, tenantID, unitID, policyID string) error

	// Close releases backend resources.
	Close() error
}
