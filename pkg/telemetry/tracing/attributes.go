package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrItemID             = attribute.Key("evidence.item_id")
	AttrItemKind           = attribute.Key("evidence.kind")
	AttrItemRetryCount     = attribute.Key("evidence.retry_count")
	AttrReportID           = attribute.Key("verification.report_id")
	AttrTrustScore         = attribute.Key("verification.trust_score")
	AttrReportStatus       = attribute.Key("verification.status")
	AttrAnalyzerFailures   = attribute.Key("verification.analyzer_failures")
	AttrAnalyzerName       = attribute.Key("analyzer.name")
	AttrAnalyzerCapability = attribute.Key("analyzer.capability")
	AttrSyncTotal          = attribute.Key("sync.total")
	AttrSyncCompleted      = attribute.Key("sync.completed")
	AttrSyncFailed         = attribute.Key("sync.failed")
	AttrSyncSkipped        = attribute.Key("sync.skipped")
	AttrSyncRemaining      = attribute.Key("sync.remaining")
	AttrAnchorTransaction  = attribute.Key("anchor.transaction_id")
)

// ItemAttributes describes a queued evidence item.
func ItemAttributes(id, kind string, retryCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrItemID.String(id),
		AttrItemKind.String(kind),
		AttrItemRetryCount.Int(retryCount),
	}
}

// AnalyzerAttributes describes an analyzer invocation.
func AnalyzerAttributes(name, capability string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrAnalyzerName.String(name),
		AttrAnalyzerCapability.String(capability),
	}
}

// SetReportAttributes records the outcome of a verification run.
func SetReportAttributes(span trace.Span, reportID string, score int, status string, failures int) {
	span.SetAttributes(
		AttrReportID.String(reportID),
		AttrTrustScore.Int(score),
		AttrReportStatus.String(status),
		AttrAnalyzerFailures.Int(failures),
	)
}

// SetBatchAttributes records the counters of a finished sync batch.
func SetBatchAttributes(span trace.Span, total, completed, failed, skipped, remaining int) {
	span.SetAttributes(
		AttrSyncTotal.Int(total),
		AttrSyncCompleted.Int(completed),
		AttrSyncFailed.Int(failed),
		AttrSyncSkipped.Int(skipped),
		AttrSyncRemaining.Int(remaining),
	)
}

// AddEvent adds a named event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
