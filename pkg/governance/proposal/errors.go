package proposal

import (
	"errors"
	"fmt"
)

// Precondition and lookup errors for proposal orchestration.
var (
	// ErrDraftNotFound indicates no draft exists for the given id.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrDraftAlreadySubmitted indicates the draft was already turned into
	// a proposal; draft to proposal is strictly one-to-one.
	ErrDraftAlreadySubmitted = errors.New("draft already submitted")

	// ErrDraftNotValidated indicates the draft failed validation and
	// cannot be proposed.
	ErrDraftNotValidated = errors.New("draft not validated")

	// ErrProposalNotFound indicates no proposal exists for the given key.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrInvalidStateTransition indicates the approval workflow rejected
	// construction or the submit event.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// NotificationError reports a post-persistence notification failure. It is
// a soft failure: the proposal stands, but approvers were not informed.
type NotificationError struct {
	ProposalID string
	Approvers  []string
	Cause      error
}

// Error returns the error message.
func (e *NotificationError) Error() string {
	return fmt.Sprintf("proposal %s: failed to notify %d approvers: %v",
		e.ProposalID, len(e.Approvers), e.Cause)
}

// Unwrap returns the underlying cause.
func (e *NotificationError) Unwrap() error {
	return e.Cause
}
