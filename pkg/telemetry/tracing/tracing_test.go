package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/vesta/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestNew_Disabled(t *testing.T) {
	tr, err := New(&config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tr.Enabled() {
		t.Error("expected disabled tracer")
	}

	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "test"); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNew_InvalidSampler(t *testing.T) {
	_, err := New(&config.TracingConfig{Enabled: true, Sampler: "sometimes", Endpoint: "localhost:4317"}, "test")
	if err == nil {
		t.Fatal("expected error for invalid sampler")
	}
}

func TestRatioSamplerAlwaysRecordsBatches(t *testing.T) {
	s, err := createSampler(SamplerRatio, 0)
	if err != nil {
		t.Fatalf("createSampler() error = %v", err)
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithSampler(s))
	defer provider.Shutdown(context.Background())
	tracer := provider.Tracer("test")

	ctx, batch := tracer.Start(context.Background(), SpanSyncBatch)
	if !batch.SpanContext().IsSampled() {
		t.Error("sync batch root not sampled at ratio 0")
	}
	_, item := tracer.Start(ctx, SpanSyncItem)
	if !item.SpanContext().IsSampled() {
		t.Error("child of a sampled batch not sampled")
	}
	item.End()
	batch.End()

	_, healthSpan := tracer.Start(context.Background(), "GET /health")
	if healthSpan.SpanContext().IsSampled() {
		t.Error("non-batch root sampled at ratio 0")
	}
	healthSpan.End()
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{"always", SamplerAlways, 0, false},
		{"never", SamplerNever, 0, false},
		{"ratio", SamplerRatio, 0.25, false},
		{"ratio too high", SamplerRatio, 1.5, true},
		{"ratio negative", SamplerRatio, -0.1, true},
		{"unknown", "adaptive", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s == nil {
				t.Error("expected sampler")
			}
		})
	}
}

func TestSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "op")
	SetError(span, nil, "ignored")
	SetError(span, errors.New("boom"), "analyzer unavailable")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error || spans[0].Status().Description != "analyzer unavailable" {
		t.Errorf("unexpected status %+v", spans[0].Status())
	}
	if len(spans[0].Events()) != 1 {
		t.Errorf("expected 1 exception event, got %d", len(spans[0].Events()))
	}
}

func TestAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "op",
		trace.WithAttributes(ItemAttributes("item-1", "image", 2)...))
	SetReportAttributes(span, "rep-1", 48, "flagged", 1)
	SetBatchAttributes(span, 5, 3, 2, 0, 0)
	span.End()

	attrs := map[string]any{}
	for _, kv := range recorder.Ended()[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["evidence.item_id"] != "item-1" || attrs["evidence.retry_count"] != int64(2) {
		t.Errorf("missing item attributes: %v", attrs)
	}
	if attrs["verification.trust_score"] != int64(48) || attrs["verification.status"] != "flagged" {
		t.Errorf("missing report attributes: %v", attrs)
	}
	if attrs["sync.completed"] != int64(3) {
		t.Errorf("missing batch attributes: %v", attrs)
	}
}

func TestInjectExtract(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	headers := http.Header{}
	Inject(ctx, headers)
	if got := headers.Get("traceparent"); got != "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01" {
		t.Fatalf("unexpected traceparent %q", got)
	}

	var seen string
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header = headers
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected extracted trace id, got %q", seen)
	}
	if TraceID(context.Background()) != "" {
		t.Error("expected empty trace id without span")
	}
}
