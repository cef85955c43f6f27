package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/evidence"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                 true,
		Namespace:               "test",
		AnalyzerDurationBuckets: []float64{0.1, 0.5, 1},
		SyncDurationBuckets:     []float64{1, 5, 10},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("collector registry not set correctly")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected namespace %q, got %q", config.DefaultMetricsNamespace, cfg.Namespace)
	}
	if len(cfg.SyncDurationBuckets) == 0 {
		t.Error("expected default sync buckets")
	}
}

func TestCollector_RecordAnalyzer(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordAnalyzer("local-metadata", "success", 20*time.Millisecond)
	collector.RecordAnalyzer("sentinel", "failure", 2*time.Second)
	collector.RecordAnalyzer("sentinel", "failure", time.Second)

	calls := collector.analyzerMetrics.callsTotal
	if got := testutil.ToFloat64(calls.WithLabelValues("sentinel", "failure")); got != 2 {
		t.Errorf("expected 2 sentinel failures, got %v", got)
	}
	if got := testutil.ToFloat64(calls.WithLabelValues("local-metadata", "success")); got != 1 {
		t.Errorf("expected 1 metadata success, got %v", got)
	}
	if got := testutil.CollectAndCount(collector.analyzerMetrics.callDuration); got != 2 {
		t.Errorf("expected 2 duration series, got %d", got)
	}
}

func TestCollector_RecordTrustScore(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordTrustScore(48, "flagged")
	collector.RecordTrustScore(86, "verified")
	collector.RecordTrustScore(70, "verified")

	reports := collector.analyzerMetrics.reportsTotal
	if got := testutil.ToFloat64(reports.WithLabelValues("verified")); got != 2 {
		t.Errorf("expected 2 verified reports, got %v", got)
	}
	if got := testutil.ToFloat64(reports.WithLabelValues("flagged")); got != 1 {
		t.Errorf("expected 1 flagged report, got %v", got)
	}
}

func TestCollector_RecordSync(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordSyncItem("completed", 2*time.Second)
	collector.RecordSyncItem("completed", time.Second)
	collector.RecordSyncItem("failed", time.Second)
	collector.RecordSyncItem("skipped", 0)
	collector.RecordSyncBatch(2, 1, 1, 5*time.Second)

	sm := collector.syncMetrics
	if got := testutil.ToFloat64(sm.itemsTotal.WithLabelValues("completed")); got != 2 {
		t.Errorf("expected 2 completed, got %v", got)
	}
	if got := testutil.ToFloat64(sm.itemsTotal.WithLabelValues("skipped")); got != 1 {
		t.Errorf("expected 1 skipped, got %v", got)
	}
	if got := testutil.ToFloat64(sm.batchesTotal); got != 1 {
		t.Errorf("expected 1 batch, got %v", got)
	}
	if got := testutil.ToFloat64(sm.lastBatchItems.WithLabelValues("failed")); got != 1 {
		t.Errorf("expected last batch failed=1, got %v", got)
	}
	if got := testutil.ToFloat64(sm.lastBatchTimestamp); got == 0 {
		t.Error("expected last batch timestamp to be set")
	}
}

func TestCollector_UpdateQueueDepth(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.UpdateQueueDepth([]*evidence.EvidenceItem{
		{ID: "a", Status: evidence.StatusPending},
		{ID: "b", Status: evidence.StatusPending},
		{ID: "c", Status: evidence.StatusFailed},
	})

	depth := collector.queueMetrics.depth
	if got := testutil.ToFloat64(depth.WithLabelValues("pending")); got != 2 {
		t.Errorf("expected 2 pending, got %v", got)
	}

	collector.UpdateQueueDepth(nil)
	if got := testutil.ToFloat64(depth.WithLabelValues("pending")); got != 0 {
		t.Errorf("expected pending reset to 0, got %v", got)
	}
	if got := testutil.CollectAndCount(depth); got != 4 {
		t.Errorf("expected a series per status, got %d", got)
	}
}

func TestCollector_RecordCapture(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordCapture(evidence.KindImage, "inbox")

	got := testutil.ToFloat64(collector.queueMetrics.capturesTotal.WithLabelValues(evidence.KindImage.String(), "inbox"))
	if got != 1 {
		t.Errorf("expected 1 capture, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordAnalyzer("sentinel", "success", time.Second)
	collector.RecordSyncBatch(1, 0, 0, time.Second)

	if got := testutil.CollectAndCount(collector.analyzerMetrics.callsTotal); got != 0 {
		t.Errorf("expected no analyzer series when disabled, got %d", got)
	}
	if got := testutil.ToFloat64(collector.syncMetrics.batchesTotal); got != 0 {
		t.Errorf("expected no batches when disabled, got %v", got)
	}
}

func TestCollector_AnalyzerCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	collector.RecordAnalyzer("a", "success", time.Millisecond)
	collector.RecordAnalyzer("b", "success", time.Millisecond)
	collector.RecordAnalyzer("c", "success", time.Millisecond)

	if got := testutil.ToFloat64(collector.analyzerMetrics.callsTotal.WithLabelValues("other", "success")); got != 1 {
		t.Errorf("expected overflow label other, got %v", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("x") || !cl.Allow("y") {
		t.Fatal("expected first two values to be allowed")
	}
	if cl.Allow("z") {
		t.Error("expected third value to be rejected")
	}
	if !cl.Allow("x") {
		t.Error("expected known value to stay allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("expected count 2, got %d", cl.Count())
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordSyncItem("completed", time.Second)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_sync_items_total{outcome="completed"} 1`) {
		t.Errorf("metrics output missing sync counter:\n%s", rec.Body.String())
	}
}
