// Package metrics provides Prometheus instrumentation for validations,
// drift checks, and policy proposals. The Collector registers everything
// on a caller-supplied registry and implements governance.Observer.
package metrics
