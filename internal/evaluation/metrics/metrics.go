// Package metrics provides Prometheus metrics for the graduation
// evaluation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all evaluation engine metrics.
type Metrics struct {
	EvaluationsTotal *prometheus.CounterVec // Completed evaluations by outcome (pass, fail)
	RejectedTotal    prometheus.Counter     // Requests rejected before evaluation
	EvaluateLatency  prometheus.Histogram   // End-to-end evaluation latency
	MissingItems     prometheus.Histogram   // Unmet requirements per failed evaluation
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gradus_evaluations_total",
			Help: "Total number of completed graduation evaluations by outcome",
		}, []string{"outcome"}),

		RejectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gradus_evaluations_rejected_total",
			Help: "Total number of evaluation requests rejected by input validation",
		}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradus_evaluation_duration_seconds",
			Help:    "Duration of graduation evaluations including course data retrieval",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		MissingItems: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradus_evaluation_missing_items",
			Help:    "Number of unmet requirements reported per evaluation",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

// IncrementOutcome records a completed evaluation.
func (m *Metrics) IncrementOutcome(passed bool) {
	outcome := "fail"
	if passed {
		outcome = "pass"
	}
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
}

// IncrementRejected records a request that failed input validation.
func (m *Metrics) IncrementRejected() {
	m.RejectedTotal.Inc()
}

// ObserveEvaluateLatency records the duration of one evaluation.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	m.EvaluateLatency.Observe(d.Seconds())
}

// ObserveMissingItems records how many requirements an evaluation left
// unmet.
func (m *Metrics) ObserveMissingItems(count int) {
	m.MissingItems.Observe(float64(count))
}
