package config

import "time"

// Config is the root configuration structure for Minerva. It contains
// configuration sections for the policy engine, governance storage, drift
// checking, proposal approval routing, and telemetry.
type Config struct {
	// Policy contains configuration for policy loading including the
	// source path and watch mode.
	Policy PolicyConfig `yaml:"policy"`

	// Storage contains configuration for governance entity persistence
	// (unit policies, drafts, proposals).
	Storage StorageConfig `yaml:"storage"`

	// Drift contains configuration for drift checking: scoring weights,
	// the manual review threshold, result persistence, and retention.
	Drift DriftConfig `yaml:"drift"`

	// Approval contains the approver routing matrix for proposals.
	Approval ApprovalConfig `yaml:"approval"`

	// Telemetry contains observability configuration: logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PolicyConfig contains configuration for policy loading.
type PolicyConfig struct {
	// Path is the policy file or directory to load.
	// Default: "./policies"
	Path string `yaml:"path"`

	// Watch enables hot reloading when policy files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// MaxFileSize caps the size of a single policy file in bytes.
	// Default: 1048576 (1MB)
	MaxFileSize int64 `yaml:"max_file_size"`
}

// StorageConfig contains configuration for governance entity persistence.
type StorageConfig struct {
	// Backend selects the storage implementation.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path when Backend is "sqlite".
	// Default: "data/governance.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is how long SQLite waits for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// DriftConfig contains configuration for drift checking.
type DriftConfig struct {
	// Backend selects the drift result store.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path when Backend is "sqlite".
	// Default: "data/drift.db"
	SQLitePath string `yaml:"sqlite_path"`

	// ReviewThreshold is the drift score above which results are flagged
	// for manual review. Must be within [0, 1].
	// Default: 0.5
	ReviewThreshold float64 `yaml:"review_threshold"`

	// Retention controls pruning of old drift results.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig controls pruning of old drift results.
type RetentionConfig struct {
	// Days is how long drift results are kept. Zero disables pruning.
	// Default: 90
	Days int `yaml:"days"`

	// Schedule is the cron expression for the prune job.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}

// ApprovalConfig contains the approver routing matrix for proposals.
// Scope keys are company, org, team, project; severity keys are block,
// warn, info.
type ApprovalConfig struct {
	// Approvers maps scope to severity to approver identities.
	Approvers map[string]map[string][]string `yaml:"approvers"`

	// Required maps scope to severity to required approval counts.
	// Missing entries fall back to built-in defaults.
	Required map[string]map[string]int `yaml:"required"`

	// TimeoutHours maps scope to the approval window in hours.
	// Missing entries fall back to built-in defaults.
	TimeoutHours map[string]int `yaml:"timeout_hours"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path metrics are served on.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
