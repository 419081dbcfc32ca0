// Package telemetry contains Prometheus metrics for the policy engine.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus collectors for rule evaluation, reloads and
// broadcasts.
type Metrics struct {
	evaluations    *prometheus.CounterVec
	ruleMatches    *prometheus.CounterVec
	verdicts       *prometheus.CounterVec
	operatorErrors *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	broadcastFires *prometheus.CounterVec
	evalDuration   *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance registered with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_evaluations_total",
				Help: "Total number of events evaluated",
			},
			[]string{"event_type"},
		),

		ruleMatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_rule_matches_total",
				Help: "Total number of rule matches",
			},
			[]string{"event_type", "rule"},
		),

		verdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_verdicts_total",
				Help: "Total number of final verdicts by kind",
			},
			[]string{"event_type", "verdict"},
		),

		operatorErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_operator_errors_total",
				Help: "Total number of operator executions that failed",
			},
			[]string{"operator"},
		),

		reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_reloads_total",
				Help: "Total number of rule reload attempts",
			},
			[]string{"result"},
		),

		broadcastFires: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_broadcast_fires_total",
				Help: "Total number of timed broadcast fires",
			},
			[]string{"group"},
		),

		evalDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_evaluation_duration_seconds",
				Help:    "Time spent evaluating a single event",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"event_type"},
		),
	}
}

// NewNopMetrics creates metrics bound to a private registry, for tests and
// hosts that do not scrape.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// RecordEvaluation counts one evaluated event and its duration in seconds.
func (m *Metrics) RecordEvaluation(eventType string, seconds float64) {
	m.evaluations.WithLabelValues(eventType).Inc()
	m.evalDuration.WithLabelValues(eventType).Observe(seconds)
}

// RecordMatch counts one rule match.
func (m *Metrics) RecordMatch(eventType, rule string) {
	m.ruleMatches.WithLabelValues(eventType, rule).Inc()
}

// RecordVerdict counts a final verdict.
func (m *Metrics) RecordVerdict(eventType, verdict string) {
	m.verdicts.WithLabelValues(eventType, verdict).Inc()
}

// RecordOperatorError counts a failed operator execution.
func (m *Metrics) RecordOperatorError(operator string) {
	m.operatorErrors.WithLabelValues(operator).Inc()
}

// RecordReload counts a reload attempt; result is "success" or "failure".
func (m *Metrics) RecordReload(result string) {
	m.reloads.WithLabelValues(result).Inc()
}

// RecordBroadcastFire counts one timed broadcast fire.
func (m *Metrics) RecordBroadcastFire(group string) {
	m.broadcastFires.WithLabelValues(group).Inc()
}
