// Package metrics provides Prometheus metrics for the credit scoring
// service: prediction volume and latency, the remote/local source split, and
// artifact lifecycle events, exposed on the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric the service registers.
type Metrics struct {
	PredictionsTotal    prometheus.Counter   // Total predictions served, any source
	RemoteFailures      prometheus.Counter   // Remote scoring calls that failed over to local
	RemoteTimeouts      prometheus.Counter   // Remote scoring calls that hit the timeout
	FallbackUse         prometheus.Counter   // Predictions answered by the local model
	PredictionLatency   prometheus.Histogram // End-to-end prediction latency in seconds
	PredictionScores    prometheus.Histogram // Distribution of served default probabilities
	AttributionsTotal   prometheus.Counter   // Attribution tables produced
	AnalysisErrors      prometheus.Counter   // Analyses that ended in a surfaced error
	ExplainerRebuilds   prometheus.Counter   // Explainer artifacts rebuilt from the classifier
	ActiveSessions      prometheus.Gauge     // Dashboard sessions currently tracked
	ConnectedDashboards prometheus.Gauge     // WebSocket clients currently connected
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics against a custom registry, which keeps test
// runs isolated from the process-global registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served",
		}),
		RemoteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "remote_failures_total",
			Help: "Total number of remote scoring calls that failed",
		}),
		RemoteTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "remote_timeouts_total",
			Help: "Total number of remote scoring calls that timed out",
		}),
		FallbackUse: factory.NewCounter(prometheus.CounterOpts{
			Name: "fallback_use_total",
			Help: "Total number of predictions answered by the local model",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of served default probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		AttributionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "attributions_total",
			Help: "Total number of attribution tables produced",
		}),
		AnalysisErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "analysis_errors_total",
			Help: "Total number of analyses that ended in an error",
		}),
		ExplainerRebuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "explainer_rebuilds_total",
			Help: "Total number of explainer artifacts rebuilt from the classifier",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of dashboard sessions currently tracked",
		}),
		ConnectedDashboards: factory.NewGauge(prometheus.GaugeOpts{
			Name: "connected_dashboards",
			Help: "Number of WebSocket dashboard clients currently connected",
		}),
	}
}

// PredictionsInc implements the predict package's metrics interface.
func (m *Metrics) PredictionsInc() { m.PredictionsTotal.Inc() }

// RemoteFailureInc implements the predict package's metrics interface.
func (m *Metrics) RemoteFailureInc() { m.RemoteFailures.Inc() }

// RemoteTimeoutInc implements the predict package's metrics interface.
func (m *Metrics) RemoteTimeoutInc() { m.RemoteTimeouts.Inc() }

// FallbackUseInc implements the predict package's metrics interface.
func (m *Metrics) FallbackUseInc() { m.FallbackUse.Inc() }

// LatencyObserve implements the predict package's metrics interface.
func (m *Metrics) LatencyObserve(seconds float64) { m.PredictionLatency.Observe(seconds) }

// ScoreObserve implements the predict package's metrics interface.
func (m *Metrics) ScoreObserve(probability float64) { m.PredictionScores.Observe(probability) }
