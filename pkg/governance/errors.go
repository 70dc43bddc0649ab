package governance

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	// ErrPolicyNotFound indicates a lookup for an unregistered policy id.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrInvalidLayer indicates a layer outside the defined hierarchy.
	ErrInvalidLayer = errors.New("invalid knowledge layer")
)

// RuleCompileError indicates a rule value could not be parsed into its
// typed check.
type RuleCompileError struct {
	RuleID string
	Target ConstraintTarget
	Cause  error
}

// Error returns the error message.
func (e *RuleCompileError) Error() string {
	return fmt.Sprintf("rule %s: invalid %s check: %v", e.RuleID, e.Target, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RuleCompileError) Unwrap() error {
	return e.Cause
}

// RegistryError indicates a policy registry operation failure.
type RegistryError struct {
	PolicyID  string
	Operation string
	Message   string
}

// Error returns the error message.
func (e *RegistryError) Error() string {
	if e.PolicyID != "" {
		return fmt.Sprintf("policy registry %s: policy %s: %s", e.Operation, e.PolicyID, e.Message)
	}
	return fmt.Sprintf("policy registry %s: %s", e.Operation, e.Message)
}
