package approval

import (
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle state of an approval workflow.
type State string

const (
	// StateDraft is the initial state before submission.
	StateDraft State = "draft"

	// StatePending means the request was submitted and awaits approvals.
	StatePending State = "pending"

	// StateApproved, StateRejected, and StateExpired are terminal.
	StateApproved State = "approved"
	StateRejected State = "rejected"
	StateExpired  State = "expired"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateApproved, StateRejected, StateExpired:
		return true
	default:
		return false
	}
}

// Mode is how approvals are counted.
type Mode string

const (
	// ModeSingle requires one approval.
	ModeSingle Mode = "single"

	// ModeQuorum requires the configured number of approvals.
	ModeQuorum Mode = "quorum"

	// ModeUnanimous requires every resolved approver to approve.
	ModeUnanimous Mode = "unanimous"
)

// RiskLevel classifies a request for routing and auto-approval decisions.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Context carries the parameters an approval workflow is constructed from.
type Context struct {
	RequestID          string    `json:"request_id"`
	RequestType        string    `json:"request_type"`
	RequiredApprovals  int       `json:"required_approvals"`
	CurrentApprovals   int       `json:"current_approvals"`
	ApprovalMode       Mode      `json:"approval_mode"`
	TimeoutHours       int       `json:"timeout_hours"`
	AutoApproveLowRisk bool      `json:"auto_approve_low_risk"`
	RiskLevel          RiskLevel `json:"risk_level"`
}

// SubmitEvent moves a workflow out of its initial state.
type SubmitEvent struct {
	RequestorID string
	SubmittedAt time.Time
}

// Workflow tracks a single approval request through its lifecycle.
type Workflow struct {
	State   State   `json:"state"`
	Context Context `json:"context"`

	SubmittedBy string    `json:"submitted_by,omitempty"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// Workflow construction and transition errors.
var (
	ErrInvalidContext  = errors.New("invalid workflow context")
	ErrAlreadyTerminal = errors.New("workflow is in a terminal state")
)

// TransitionError indicates an event was applied in a state that does not
// accept it.
type TransitionError struct {
	From  State
	Event string
}

// Error returns the error message.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s in state %s", e.Event, e.From)
}

// NewWorkflow constructs a workflow in the draft state.
func NewWorkflow(ctx Context) (*Workflow, error) {
	if ctx.RequestID == "" {
		return nil, fmt.Errorf("%w: request id cannot be empty", ErrInvalidContext)
	}
	if ctx.RequiredApprovals < 1 {
		return nil, fmt.Errorf("%w: required approvals must be at least 1", ErrInvalidContext)
	}
	if ctx.TimeoutHours < 1 {
		return nil, fmt.Errorf("%w: timeout hours must be at least 1", ErrInvalidContext)
	}
	switch ctx.ApprovalMode {
	case ModeSingle, ModeQuorum, ModeUnanimous:
	default:
		return nil, fmt.Errorf("%w: unknown approval mode %q", ErrInvalidContext, ctx.ApprovalMode)
	}

	return &Workflow{State: StateDraft, Context: ctx}, nil
}

// HandleSubmit applies a Submit event, transitioning draft → pending.
// Low-risk requests may auto-approve when the context allows it.
func (w *Workflow) HandleSubmit(event SubmitEvent) error {
	if w.State.Terminal() {
		return ErrAlreadyTerminal
	}
	if w.State != StateDraft {
		return &TransitionError{From: w.State, Event: "submit"}
	}
	if event.RequestorID == "" {
		return fmt.Errorf("%w: requestor id cannot be empty", ErrInvalidContext)
	}

	w.SubmittedBy = event.RequestorID
	w.SubmittedAt = event.SubmittedAt
	if w.SubmittedAt.IsZero() {
		w.SubmittedAt = time.Now().UTC()
	}

	if w.Context.AutoApproveLowRisk && w.Context.RiskLevel == RiskLow {
		w.Context.CurrentApprovals = w.Context.RequiredApprovals
		w.State = StateApproved
		return nil
	}

	w.State = StatePending
	return nil
}
