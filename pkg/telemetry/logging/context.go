package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	// ItemIDKey is the context key for evidence item IDs.
	ItemIDKey contextKey = "item_id"

	// BatchIDKey is the context key for sync batch IDs.
	BatchIDKey contextKey = "batch_id"

	// ReportIDKey is the context key for verification report IDs.
	ReportIDKey contextKey = "report_id"
)

// WithItemID adds an evidence item ID to the context.
func WithItemID(ctx context.Context, itemID string) context.Context {
	return context.WithValue(ctx, ItemIDKey, itemID)
}

// ItemID retrieves the evidence item ID from the context.
func ItemID(ctx context.Context) string {
	v, _ := ctx.Value(ItemIDKey).(string)
	return v
}

// WithBatchID adds a sync batch ID to the context.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, BatchIDKey, batchID)
}

// BatchID retrieves the sync batch ID from the context.
func BatchID(ctx context.Context) string {
	v, _ := ctx.Value(BatchIDKey).(string)
	return v
}

// WithReportID adds a verification report ID to the context.
func WithReportID(ctx context.Context, reportID string) context.Context {
	return context.WithValue(ctx, ReportIDKey, reportID)
}

// ReportID retrieves the verification report ID from the context.
func ReportID(ctx context.Context) string {
	v, _ := ctx.Value(ReportIDKey).(string)
	return v
}

// contextAttrs extracts the logging fields carried by ctx, including the
// active trace and span IDs when a sampled span is present.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if v := BatchID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(BatchIDKey), v))
	}
	if v := ItemID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(ItemIDKey), v))
	}
	if v := ReportID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(ReportIDKey), v))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}
