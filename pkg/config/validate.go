package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field.
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates all validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var validScopes = map[string]bool{"company": true, "org": true, "team": true, "project": true}
var validSeverities = map[string]bool{"block": true, "warn": true, "info": true}

// Validate checks the entire configuration and returns a ValidationError
// collecting every rule that failed, or nil if the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Policy.Path == "" {
		errs = append(errs, FieldError{"policy.path", "cannot be empty"})
	}
	if cfg.Policy.MaxFileSize <= 0 {
		errs = append(errs, FieldError{"policy.max_file_size", "must be positive"})
	}

	switch cfg.Storage.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"storage.backend",
			fmt.Sprintf("unknown backend %q, must be memory or sqlite", cfg.Storage.Backend)})
	}
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.SQLitePath == "" {
		errs = append(errs, FieldError{"storage.sqlite_path", "cannot be empty when backend is sqlite"})
	}

	switch cfg.Drift.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"drift.backend",
			fmt.Sprintf("unknown backend %q, must be memory or sqlite", cfg.Drift.Backend)})
	}
	if cfg.Drift.Backend == "sqlite" && cfg.Drift.SQLitePath == "" {
		errs = append(errs, FieldError{"drift.sqlite_path", "cannot be empty when backend is sqlite"})
	}
	if cfg.Drift.ReviewThreshold < 0 || cfg.Drift.ReviewThreshold > 1 {
		errs = append(errs, FieldError{"drift.review_threshold",
			fmt.Sprintf("must be within [0, 1], got %v", cfg.Drift.ReviewThreshold)})
	}
	if cfg.Drift.Retention.Days < 0 {
		errs = append(errs, FieldError{"drift.retention.days", "cannot be negative"})
	}
	if cfg.Drift.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Drift.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{"drift.retention.schedule",
				fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	errs = append(errs, validateApproval(&cfg.Approval)...)

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level)})
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format)})
	}
	if cfg.Telemetry.Metrics.Enabled && !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateApproval(cfg *ApprovalConfig) []FieldError {
	var errs []FieldError

	for scope, bySeverity := range cfg.Approvers {
		if !validScopes[scope] {
			errs = append(errs, FieldError{"approval.approvers",
				fmt.Sprintf("unknown scope %q", scope)})
			continue
		}
		for severity := range bySeverity {
			if !validSeverities[severity] {
				errs = append(errs, FieldError{"approval.approvers." + scope,
					fmt.Sprintf("unknown severity %q", severity)})
			}
		}
	}
	for scope, bySeverity := range cfg.Required {
		if !validScopes[scope] {
			errs = append(errs, FieldError{"approval.required",
				fmt.Sprintf("unknown scope %q", scope)})
			continue
		}
		for severity, n := range bySeverity {
			if !validSeverities[severity] {
				errs = append(errs, FieldError{"approval.required." + scope,
					fmt.Sprintf("unknown severity %q", severity)})
			}
			if n < 1 {
				errs = append(errs, FieldError{"approval.required." + scope,
					fmt.Sprintf("approval count must be at least 1, got %d", n)})
			}
		}
	}
	for scope, hours := range cfg.TimeoutHours {
		if !validScopes[scope] {
			errs = append(errs, FieldError{"approval.timeout_hours",
				fmt.Sprintf("unknown scope %q", scope)})
		}
		if hours < 1 {
			errs = append(errs, FieldError{"approval.timeout_hours." + scope,
				fmt.Sprintf("must be at least 1 hour, got %d", hours)})
		}
	}

	return errs
}
