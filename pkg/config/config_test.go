package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/minerva/pkg/governance/proposal"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "minerva.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Policy.Path != DefaultPolicyPath {
		t.Errorf("policy path = %s", cfg.Policy.Path)
	}
	if cfg.Drift.ReviewThreshold != DefaultDriftReviewThreshold {
		t.Errorf("review threshold = %v", cfg.Drift.ReviewThreshold)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics should default to enabled")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
policy:
  path: /etc/minerva/policies
  watch: true
storage:
  backend: memory
drift:
  review_threshold: 0.3
  retention:
    days: 30
approval:
  approvers:
    company:
      block: [ciso, cto]
  timeout_hours:
    company: 72
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Policy.Path != "/etc/minerva/policies" || !cfg.Policy.Watch {
		t.Errorf("policy section = %+v", cfg.Policy)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("storage backend = %s", cfg.Storage.Backend)
	}
	if cfg.Drift.ReviewThreshold != 0.3 {
		t.Errorf("review threshold = %v", cfg.Drift.ReviewThreshold)
	}
	if cfg.Drift.Retention.Days != 30 {
		t.Errorf("retention days = %d", cfg.Drift.Retention.Days)
	}
	// Unset fields keep defaults.
	if cfg.Drift.Backend != DefaultDriftBackend {
		t.Errorf("drift backend = %s, want default", cfg.Drift.Backend)
	}
	if cfg.Drift.Retention.Schedule != DefaultDriftRetentionSchedule {
		t.Errorf("retention schedule = %s, want default", cfg.Drift.Retention.Schedule)
	}
	if cfg.Storage.BusyTimeout != 5*time.Second {
		t.Errorf("busy timeout = %v, want default", cfg.Storage.BusyTimeout)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = "postgres"
	cfg.Drift.ReviewThreshold = 1.5
	cfg.Telemetry.Logging.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("error type = %T, want ValidationError", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(verr.Errors), verr)
	}
}

func TestValidate_ApprovalMatrix(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Approval.Approvers = map[string]map[string][]string{
		"galaxy": {"block": {"nobody"}},
	}
	cfg.Approval.Required = map[string]map[string]int{
		"team": {"warn": 0},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "galaxy") {
		t.Errorf("error should name the unknown scope: %v", err)
	}
	if !strings.Contains(err.Error(), "at least 1") {
		t.Errorf("error should flag the zero approval count: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
policy:
  path: /from/file
drift:
  review_threshold: 0.4
`)

	t.Setenv("MINERVA_POLICY_PATH", "/from/env")
	t.Setenv("MINERVA_DRIFT_REVIEW_THRESHOLD", "0.8")
	t.Setenv("MINERVA_STORAGE_BACKEND", "memory")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}
	if cfg.Policy.Path != "/from/env" {
		t.Errorf("policy path = %s, want env override", cfg.Policy.Path)
	}
	if cfg.Drift.ReviewThreshold != 0.8 {
		t.Errorf("review threshold = %v, want 0.8", cfg.Drift.ReviewThreshold)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("storage backend = %s, want memory", cfg.Storage.Backend)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverrideFails(t *testing.T) {
	path := writeConfig(t, "policy:\n  path: /from/file\n")
	t.Setenv("MINERVA_DRIFT_REVIEW_THRESHOLD", "7")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("expected validation failure for out-of-range override")
	}
}

func TestApprovalConfig_ApproverMatrix(t *testing.T) {
	cfg := ApprovalConfig{
		Approvers: map[string]map[string][]string{
			"company": {"block": {"ciso", "cto"}},
			"team":    {"info": {"team-lead"}},
		},
		Required: map[string]map[string]int{
			"company": {"block": 2},
		},
		TimeoutHours: map[string]int{"company": 72},
	}

	m := cfg.ApproverMatrix()
	got := m.Matrix[proposal.ScopeCompany][proposal.SeverityBlock]
	if len(got) != 2 || got[0] != "ciso" {
		t.Errorf("company block approvers = %v", got)
	}
	if m.Required[proposal.ScopeCompany][proposal.SeverityBlock] != 2 {
		t.Error("required count not converted")
	}
	if m.TimeoutHours[proposal.ScopeCompany] != 72 {
		t.Error("timeout not converted")
	}
}
