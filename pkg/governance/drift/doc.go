// Package drift turns validation violations into a tenant-scoped drift
// score and persists the outcome for audit.
//
// A drift check wraps a governance validation: the unit's layer is
// resolved through the hierarchy directory, the context is validated, and
// the resulting violations are weighted by severity and normalized against
// the number of rules evaluated. Tenants can suppress specific rule
// violations and tune the manual-review threshold via DriftConfig; both are
// applied after raw evaluation and before persistence.
//
// Invariants:
//   - DriftScore == 0 exactly when no (unsuppressed) violations remain.
//   - The score is monotonic in violation count and severity.
//   - RequiresManualReview is set whenever a Block violation remains or the
//     score exceeds the configured review threshold.
package drift
