package drift

import (
	"time"

	"mercator-hq/minerva/pkg/governance"
)

// Default severity weights for drift scoring. Exact calibration is a
// deliberate non-goal; the weights only need to preserve the ordering
// Block > Warn > Info.
const (
	DefaultBlockWeight = 1.0
	DefaultWarnWeight  = 0.5
	DefaultInfoWeight  = 0.1

	// DefaultReviewThreshold is the drift score above which a result is
	// flagged for manual review even without a Block violation.
	DefaultReviewThreshold = 0.5
)

// Result is the persisted outcome of a drift check.
type Result struct {
	ID                   string                 `json:"id"`
	ProjectID            string                 `json:"project_id"`
	TenantID             string                 `json:"tenant_id"`
	DriftScore           float64                `json:"drift_score"`
	Confidence           float64                `json:"confidence"`
	Violations           []governance.Violation `json:"violations"`
	SuppressedViolations []governance.Violation `json:"suppressed_violations"`
	RequiresManualReview bool                   `json:"requires_manual_review"`
	Timestamp            time.Time              `json:"timestamp"`
}

// Suppression silences violations of a specific rule for a project.
// Suppressed violations are removed from scoring before persistence but
// recorded on the result for audit.
type Suppression struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ProjectID string    `json:"project_id"`
	RuleID    string    `json:"rule_id"`
	Reason    string    `json:"reason"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Config tunes drift scoring per tenant or project.
type Config struct {
	TenantID        string  `json:"tenant_id"`
	ProjectID       string  `json:"project_id,omitempty"`
	ReviewThreshold float64 `json:"review_threshold"`
	BlockWeight     float64 `json:"block_weight"`
	WarnWeight      float64 `json:"warn_weight"`
	InfoWeight      float64 `json:"info_weight"`
}

// DefaultConfig returns the scoring defaults for a tenant.
func DefaultConfig(tenantID string) *Config {
	return &Config{
		TenantID:        tenantID,
		ReviewThreshold: DefaultReviewThreshold,
		BlockWeight:     DefaultBlockWeight,
		WarnWeight:      DefaultWarnWeight,
		InfoWeight:      DefaultInfoWeight,
	}
}

// weight returns the configured weight for a severity.
func (c *Config) weight(severity governance.ConstraintSeverity) float64 {
	switch severity {
	case governance.SeverityBlock:
		return c.BlockWeight
	case governance.SeverityWarn:
		return c.WarnWeight
	case governance.SeverityInfo:
		return c.InfoWeight
	default:
		return 0
	}
}
