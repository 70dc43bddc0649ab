package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/minerva/pkg/governance"
)

// Collector owns all Minerva Prometheus metrics.
//
// Metrics:
//   - minerva_validations_total: validations by layer and outcome
//   - minerva_validation_duration_seconds: validation duration by layer
//   - minerva_violations_total: violations by severity
//   - minerva_drift_checks_total: drift checks by manual-review outcome
//   - minerva_drift_score: drift score distribution
//   - minerva_proposals_total: proposals by scope and severity
//
// Collector implements governance.Observer so it can be installed on an
// engine with SetObserver.
type Collector struct {
	registry *prometheus.Registry

	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	violationsTotal    *prometheus.CounterVec
	driftChecksTotal   *prometheus.CounterVec
	driftScore         prometheus.Histogram
	proposalsTotal     *prometheus.CounterVec
}

// NewCollector creates and registers all metrics with the provided
// registry. A nil registry gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minerva",
				Name:      "validations_total",
				Help:      "Total number of policy validations",
			},
			[]string{"layer", "outcome"},
		),

		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "minerva",
				Name:      "validation_duration_seconds",
				Help:      "Duration of policy validation in seconds",
				// Validations are in-memory rule evaluations (< 10ms).
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
			[]string{"layer"},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minerva",
				Name:      "violations_total",
				Help:      "Total number of rule violations found",
			},
			[]string{"severity"},
		),

		driftChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minerva",
				Name:      "drift_checks_total",
				Help:      "Total number of drift checks",
			},
			[]string{"manual_review"},
		),

		driftScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "minerva",
				Name:      "drift_score",
				Help:      "Distribution of drift scores",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
			},
		),

		proposalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "minerva",
				Name:      "proposals_total",
				Help:      "Total number of policy proposals created",
			},
			[]string{"scope", "severity"},
		),
	}

	registry.MustRegister(
		c.validationsTotal,
		c.validationDuration,
		c.violationsTotal,
		c.driftChecksTotal,
		c.driftScore,
		c.proposalsTotal,
	)

	return c
}

// ObserveValidation implements governance.Observer.
func (c *Collector) ObserveValidation(layer governance.KnowledgeLayer, rulesEvaluated int, violations []governance.Violation, duration time.Duration) {
	outcome := "valid"
	if len(violations) > 0 {
		outcome = "invalid"
	}
	c.validationsTotal.WithLabelValues(layer.String(), outcome).Inc()
	c.validationDuration.WithLabelValues(layer.String()).Observe(duration.Seconds())
	for _, v := range violations {
		c.violationsTotal.WithLabelValues(string(v.Severity)).Inc()
	}
}

// ObserveDriftCheck records a completed drift check.
func (c *Collector) ObserveDriftCheck(score float64, manualReview bool) {
	review := "false"
	if manualReview {
		review = "true"
	}
	c.driftChecksTotal.WithLabelValues(review).Inc()
	c.driftScore.Observe(score)
}

// ObserveProposal records a created proposal.
func (c *Collector) ObserveProposal(scope, severity string) {
	c.proposalsTotal.WithLabelValues(scope, severity).Inc()
}

// Registry returns the underlying registry for additional registrations.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
