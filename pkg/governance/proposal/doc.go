// Package proposal turns a validated policy draft into a tracked proposal
// under approval governance, exactly once per draft.
//
// Propose derives the proposal's scope from its rule ids and its severity
// from the draft's structured intent, resolves the approver set and
// approval requirements for that (scope, severity) pair, constructs an
// approval workflow and submits it, then persists the proposal and
// notifies the approvers. Precondition failures abort before any external
// side effect; once the proposal is persisted, a notification failure is
// reported but never rolls the persistence back.
package proposal
