// Package telemetry provides observability for Minerva.
//
// Subpackages:
//   - logging: structured logging built on log/slog
//   - metrics: Prometheus metrics for validations, drift, and proposals
package telemetry
