package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/minerva/pkg/governance/proposal"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides named MINERVA_SECTION_FIELD
// (e.g. MINERVA_POLICY_PATH). Overrides always take precedence over file
// values; the result is re-validated.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("MINERVA_POLICY_PATH"); val != "" {
		cfg.Policy.Path = val
	}
	if val := os.Getenv("MINERVA_POLICY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Policy.Watch = b
		}
	}

	if val := os.Getenv("MINERVA_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("MINERVA_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLitePath = val
	}
	if val := os.Getenv("MINERVA_STORAGE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.BusyTimeout = d
		}
	}

	if val := os.Getenv("MINERVA_DRIFT_BACKEND"); val != "" {
		cfg.Drift.Backend = val
	}
	if val := os.Getenv("MINERVA_DRIFT_SQLITE_PATH"); val != "" {
		cfg.Drift.SQLitePath = val
	}
	if val := os.Getenv("MINERVA_DRIFT_REVIEW_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Drift.ReviewThreshold = f
		}
	}
	if val := os.Getenv("MINERVA_DRIFT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Drift.Retention.Days = i
		}
	}
	if val := os.Getenv("MINERVA_DRIFT_RETENTION_SCHEDULE"); val != "" {
		cfg.Drift.Retention.Schedule = val
	}

	if val := os.Getenv("MINERVA_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MINERVA_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MINERVA_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MINERVA_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}

// ApproverMatrix converts the approval section into the resolver the
// proposal orchestrator consumes. Validation guarantees the scope and
// severity keys are well formed.
func (c *ApprovalConfig) ApproverMatrix() *proposal.ApproverMatrix {
	m := &proposal.ApproverMatrix{
		Matrix:       make(map[proposal.Scope]map[proposal.Severity][]string, len(c.Approvers)),
		Required:     make(map[proposal.Scope]map[proposal.Severity]int, len(c.Required)),
		TimeoutHours: make(map[proposal.Scope]int, len(c.TimeoutHours)),
	}
	for scope, bySeverity := range c.Approvers {
		inner := make(map[proposal.Severity][]string, len(bySeverity))
		for severity, approvers := range bySeverity {
			inner[proposal.Severity(severity)] = append([]string(nil), approvers...)
		}
		m.Matrix[proposal.Scope(scope)] = inner
	}
	for scope, bySeverity := range c.Required {
		inner := make(map[proposal.Severity]int, len(bySeverity))
		for severity, n := range bySeverity {
			inner[proposal.Severity(severity)] = n
		}
		m.Required[proposal.Scope(scope)] = inner
	}
	for scope, hours := range c.TimeoutHours {
		m.TimeoutHours[proposal.Scope(scope)] = hours
	}
	return m
}
