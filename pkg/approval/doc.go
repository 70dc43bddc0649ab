// Package approval provides the approval-workflow state machine consumed
// by proposal orchestration.
//
// The governance core only depends on a narrow contract: build a workflow
// from a context, apply a Submit event to leave the initial state, and
// read the resulting state and approval counters. Approve, reject, and
// expire transitions are handled by the wider approval system and are
// intentionally not modeled here beyond their terminal states.
package approval
