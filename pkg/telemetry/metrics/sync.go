package metrics

import (
	"time"

	"mercator-hq/vesta/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks sync orchestrator activity.
//
// Metrics:
//   - vesta_sync_items_total: items processed by outcome
//   - vesta_sync_item_duration_seconds: per-item processing time
//   - vesta_sync_batches_total: finished batches
//   - vesta_sync_batch_duration_seconds: batch duration
//   - vesta_sync_last_batch_items: item counts of the most recent batch
//   - vesta_sync_last_batch_timestamp_seconds: end time of the most recent batch
type SyncMetrics struct {
	itemsTotal         *prometheus.CounterVec
	itemDuration       prometheus.Histogram
	batchesTotal       prometheus.Counter
	batchDuration      prometheus.Histogram
	lastBatchItems     *prometheus.GaugeVec
	lastBatchTimestamp prometheus.Gauge
}

// NewSyncMetrics creates and registers sync metrics.
func NewSyncMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SyncMetrics {
	sm := &SyncMetrics{
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "sync_items_total",
				Help:      "Total number of queue items processed by sync",
			},
			[]string{"outcome"},
		),

		itemDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "sync_item_duration_seconds",
				Help:      "Time spent syncing a single item in seconds",
				Buckets:   cfg.SyncDurationBuckets,
			},
		),

		batchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "sync_batches_total",
				Help:      "Total number of sync batches run",
			},
		),

		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "sync_batch_duration_seconds",
				Help:      "Duration of sync batches in seconds",
				Buckets:   cfg.SyncDurationBuckets,
			},
		),

		lastBatchItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "sync_last_batch_items",
				Help:      "Item counts of the most recent sync batch by result",
			},
			[]string{"result"},
		),

		lastBatchTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "sync_last_batch_timestamp_seconds",
				Help:      "Unix time at which the most recent sync batch finished",
			},
		),
	}

	registry.MustRegister(
		sm.itemsTotal,
		sm.itemDuration,
		sm.batchesTotal,
		sm.batchDuration,
		sm.lastBatchItems,
		sm.lastBatchTimestamp,
	)
	return sm
}

// RecordItem records one processed item. Skipped items carry no duration.
func (sm *SyncMetrics) RecordItem(outcome string, d time.Duration) {
	sm.itemsTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		sm.itemDuration.Observe(d.Seconds())
	}
}

// RecordBatch records a finished batch.
func (sm *SyncMetrics) RecordBatch(completed, failed, skipped int, d time.Duration) {
	sm.batchesTotal.Inc()
	sm.batchDuration.Observe(d.Seconds())
	sm.lastBatchItems.WithLabelValues("completed").Set(float64(completed))
	sm.lastBatchItems.WithLabelValues("failed").Set(float64(failed))
	sm.lastBatchItems.WithLabelValues("skipped").Set(float64(skipped))
	sm.lastBatchTimestamp.SetToCurrentTime()
}
