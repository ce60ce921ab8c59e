package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sweep metrics
	sweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "risk_engine_sweeps_total",
			Help: "Total number of completed sweep cycles",
		},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_engine_sweep_duration_seconds",
			Help:    "Duration of sweep cycles",
			Buckets: prometheus.DefBuckets,
		},
	)

	accountsSwept = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_accounts_swept",
			Help: "Accounts processed in the most recent sweep",
		},
	)

	accountsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_accounts_skipped_total",
			Help: "Accounts skipped during sweeps",
		},
		[]string{"reason"},
	)

	// Breach and enforcement metrics
	breachesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_breaches_detected_total",
			Help: "Breach events detected",
		},
		[]string{"kind"},
	)

	enforcementResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_enforcement_results_total",
			Help: "Enforcement outcomes per cycle",
		},
		[]string{"result"},
	)

	// Bridge metrics
	bridgeCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "risk_engine_bridge_call_duration_seconds",
			Help:    "Bridge call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	bridgeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "risk_engine_bridge_errors_total",
			Help: "Failed bridge calls",
		},
	)

	// Payout metrics
	payoutDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_payout_decisions_total",
			Help: "Payout authorization decisions",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(sweepsTotal)
	prometheus.MustRegister(sweepDuration)
	prometheus.MustRegister(accountsSwept)
	prometheus.MustRegister(accountsSkipped)
	prometheus.MustRegister(breachesDetected)
	prometheus.MustRegister(enforcementResults)
	prometheus.MustRegister(bridgeCallDuration)
	prometheus.MustRegister(bridgeErrors)
	prometheus.MustRegister(payoutDecisions)
}

// MetricsHandler serves the Prometheus metrics endpoint.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordSweep records one completed sweep cycle.
func RecordSweep(durationSeconds float64, accounts int) {
	sweepsTotal.Inc()
	sweepDuration.Observe(durationSeconds)
	accountsSwept.Set(float64(accounts))
}

// RecordSkippedAccount records an account excluded from a tick.
func RecordSkippedAccount(reason string) {
	accountsSkipped.WithLabelValues(reason).Inc()
}

// RecordBreach records a detected breach by kind.
func RecordBreach(kind string) {
	breachesDetected.WithLabelValues(kind).Inc()
}

// RecordEnforcement records an enforcement outcome.
func RecordEnforcement(confirmed bool) {
	if confirmed {
		enforcementResults.WithLabelValues("confirmed").Inc()
	} else {
		enforcementResults.WithLabelValues("failed").Inc()
	}
}

// RecordBridgeCall records a bridge call's latency and outcome.
func RecordBridgeCall(endpoint string, durationSeconds float64, err error) {
	bridgeCallDuration.WithLabelValues(endpoint).Observe(durationSeconds)
	if err != nil {
		bridgeErrors.Inc()
	}
}

// RecordPayoutDecision records a payout authorization outcome.
func RecordPayoutDecision(authorized bool) {
	if authorized {
		payoutDecisions.WithLabelValues("authorized").Inc()
	} else {
		payoutDecisions.WithLabelValues("denied").Inc()
	}
}
