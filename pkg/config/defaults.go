package config

import "time"

// Default values for configuration fields.
const (
	// Policy defaults
	DefaultPolicyPath        = "./policies"
	DefaultPolicyWatch       = false
	DefaultPolicyMaxFileSize = int64(1 << 20)

	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultStorageSQLitePath  = "data/governance.db"
	DefaultStorageBusyTimeout = 5 * time.Second

	// Drift defaults
	DefaultDriftBackend           = "sqlite"
	DefaultDriftSQLitePath        = "data/drift.db"
	DefaultDriftReviewThreshold   = 0.5
	DefaultDriftRetentionDays     = 90
	DefaultDriftRetentionSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// ApplyDefaults fills zero-valued fields with their defaults. Booleans
// that default to true are handled by NewDefaultConfig instead, since a
// zero bool is indistinguishable from an explicit false.
func ApplyDefaults(cfg *Config) {
	if cfg.Policy.Path == "" {
		cfg.Policy.Path = DefaultPolicyPath
	}
	if cfg.Policy.MaxFileSize == 0 {
		cfg.Policy.MaxFileSize = DefaultPolicyMaxFileSize
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultStorageSQLitePath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}

	if cfg.Drift.Backend == "" {
		cfg.Drift.Backend = DefaultDriftBackend
	}
	if cfg.Drift.SQLitePath == "" {
		cfg.Drift.SQLitePath = DefaultDriftSQLitePath
	}
	if cfg.Drift.ReviewThreshold == 0 {
		cfg.Drift.ReviewThreshold = DefaultDriftReviewThreshold
	}
	if cfg.Drift.Retention.Days == 0 {
		cfg.Drift.Retention.Days = DefaultDriftRetentionDays
	}
	if cfg.Drift.Retention.Schedule == "" {
		cfg.Drift.Retention.Schedule = DefaultDriftRetentionSchedule
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// NewDefaultConfig returns a configuration with every default applied,
// including true-by-default booleans.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}
