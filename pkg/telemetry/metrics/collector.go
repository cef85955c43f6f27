package metrics

import (
	"sync"
	"time"

	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/evidence"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric exported by Vesta. It satisfies
// the pipeline and syncer Recorder interfaces, so one instance can be passed
// to both.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	analyzerMetrics *AnalyzerMetrics
	syncMetrics     *SyncMetrics
	queueMetrics    *QueueMetrics

	// Analyzer names come from configuration; cap their label values.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a new registry
// is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "vesta"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.AnalyzerDurationBuckets) == 0 {
		cfg.AnalyzerDurationBuckets = config.DefaultAnalyzerDurationBuckets
	}
	if len(cfg.SyncDurationBuckets) == 0 {
		cfg.SyncDurationBuckets = config.DefaultSyncDurationBuckets
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		analyzerMetrics:    NewAnalyzerMetrics(cfg, registry),
		syncMetrics:        NewSyncMetrics(cfg, registry),
		queueMetrics:       NewQueueMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(64),
	}
}

// RecordAnalyzer records one analyzer invocation.
//
// Parameters:
//   - analyzer: analyzer name (e.g., "local-metadata", "sentinel")
//   - outcome: "success" or "failure"
//   - d: call duration
func (c *Collector) RecordAnalyzer(analyzer, outcome string, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinalityLimiter.Allow(analyzer) {
		analyzer = "other"
	}
	c.analyzerMetrics.RecordCall(analyzer, outcome, d)
}

// RecordTrustScore records the score and status of a finished report.
func (c *Collector) RecordTrustScore(score int, status string) {
	if !c.config.Enabled {
		return
	}
	c.analyzerMetrics.RecordReport(score, status)
}

// RecordSyncItem records the outcome of one item in a sync batch.
//
// Parameters:
//   - outcome: "completed", "failed" or "skipped"
//   - d: time spent on the item (zero for skipped items)
func (c *Collector) RecordSyncItem(outcome string, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.syncMetrics.RecordItem(outcome, d)
}

// RecordSyncBatch records a finished sync batch.
func (c *Collector) RecordSyncBatch(completed, failed, skipped int, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.syncMetrics.RecordBatch(completed, failed, skipped, d)
}

// RecordCapture records an item entering the queue.
//
// Parameters:
//   - kind: media kind of the item
//   - source: "cli" or "inbox"
func (c *Collector) RecordCapture(kind evidence.MediaKind, source string) {
	if !c.config.Enabled {
		return
	}
	c.queueMetrics.RecordCapture(kind.String(), source)
}

// UpdateQueueDepth sets the queue depth gauges from a queue listing.
// Statuses absent from items are reported as zero.
func (c *Collector) UpdateQueueDepth(items []*evidence.EvidenceItem) {
	if !c.config.Enabled {
		return
	}
	c.queueMetrics.UpdateDepth(items)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used. Known values are always
// allowed; new values are allowed until the limit is reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
