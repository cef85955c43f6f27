package metrics

import (
	"time"

	"mercator-hq/vesta/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalyzerMetrics tracks verification pipeline activity.
//
// Metrics:
//   - vesta_analyzer_calls_total: analyzer invocations by analyzer and outcome
//   - vesta_analyzer_duration_seconds: analyzer call latency
//   - vesta_reports_total: finished reports by status
//   - vesta_trust_score: trust score distribution
type AnalyzerMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	reportsTotal *prometheus.CounterVec
	trustScore   prometheus.Histogram
}

// NewAnalyzerMetrics creates and registers analyzer metrics.
func NewAnalyzerMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AnalyzerMetrics {
	am := &AnalyzerMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "analyzer_calls_total",
				Help:      "Total number of analyzer invocations",
			},
			[]string{"analyzer", "outcome"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "analyzer_duration_seconds",
				Help:      "Duration of analyzer calls in seconds",
				Buckets:   cfg.AnalyzerDurationBuckets,
			},
			[]string{"analyzer"},
		),

		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "reports_total",
				Help:      "Total number of verification reports produced",
			},
			[]string{"status"},
		),

		trustScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "trust_score",
				Help:      "Distribution of report trust scores",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
		),
	}

	registry.MustRegister(am.callsTotal, am.callDuration, am.reportsTotal, am.trustScore)
	return am
}

// RecordCall records one analyzer invocation.
func (am *AnalyzerMetrics) RecordCall(analyzer, outcome string, d time.Duration) {
	am.callsTotal.WithLabelValues(analyzer, outcome).Inc()
	am.callDuration.WithLabelValues(analyzer).Observe(d.Seconds())
}

// RecordReport records a finished report.
func (am *AnalyzerMetrics) RecordReport(score int, status string) {
	am.reportsTotal.WithLabelValues(status).Inc()
	am.trustScore.Observe(float64(score))
}
