package metrics

import (
	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/evidence"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics tracks the on-device evidence queue.
//
// Metrics:
//   - vesta_queue_items: current items by status
//   - vesta_captures_total: items enqueued by media kind and source
type QueueMetrics struct {
	depth         *prometheus.GaugeVec
	capturesTotal *prometheus.CounterVec
}

// NewQueueMetrics creates and registers queue metrics.
func NewQueueMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *QueueMetrics {
	qm := &QueueMetrics{
		depth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "queue_items",
				Help:      "Current number of queued evidence items by status",
			},
			[]string{"status"},
		),

		capturesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "captures_total",
				Help:      "Total number of evidence items captured into the queue",
			},
			[]string{"kind", "source"},
		),
	}

	registry.MustRegister(qm.depth, qm.capturesTotal)
	return qm
}

// RecordCapture counts an enqueued item.
func (qm *QueueMetrics) RecordCapture(kind, source string) {
	qm.capturesTotal.WithLabelValues(kind, source).Inc()
}

// UpdateDepth sets the per-status gauges from a full queue listing.
func (qm *QueueMetrics) UpdateDepth(items []*evidence.EvidenceItem) {
	counts := map[evidence.ItemStatus]int{
		evidence.StatusPending: 0,
		evidence.StatusSyncing: 0,
		evidence.StatusSynced:  0,
		evidence.StatusFailed:  0,
	}
	for _, item := range items {
		counts[item.Status]++
	}
	for status, n := range counts {
		qm.depth.WithLabelValues(string(status)).Set(float64(n))
	}
}
