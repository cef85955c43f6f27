package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/vesta/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "json", config: Config{Level: "info", Format: "json"}},
		{name: "text", config: Config{Level: "debug", Format: "text"}},
		{name: "console", config: Config{Level: "WARN", Format: "console"}},
		{name: "defaults", config: Config{}},
		{name: "invalid level", config: Config{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("kept")
	if entry := decodeLine(t, buf); entry["msg"] != "kept" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestLogger_RedactsAttributes(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "json", RedactPII: true, Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.With("api_key", "vk-live-abcdef").Info("uploaded",
		"latitude", 40.7128,
		"note", "found at 40.712776, -74.005974 by reporter@example.org",
		"error", errors.New("provider rejected Bearer abc.def"),
	)

	entry := decodeLine(t, buf)
	if entry["api_key"] != "vk-l***" {
		t.Errorf("api_key = %v", entry["api_key"])
	}
	if entry["latitude"] != "[redacted]" {
		t.Errorf("latitude = %v", entry["latitude"])
	}
	note, _ := entry["note"].(string)
	if strings.Contains(note, "40.712776") || strings.Contains(note, "reporter@example.org") {
		t.Errorf("note not redacted: %q", note)
	}
	if entry["error"] != "provider rejected Bearer ***" {
		t.Errorf("error = %v", entry["error"])
	}
}

func TestLogger_NoRedactionWhenDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("captured", "api_key", "vk-live-abcdef")
	if entry := decodeLine(t, buf); entry["api_key"] != "vk-live-abcdef" {
		t.Errorf("api_key = %v", entry["api_key"])
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	ctx = WithBatchID(ctx, "batch-1")
	ctx = WithItemID(ctx, "item-7")

	logger.InfoContext(ctx, "syncing")

	entry := decodeLine(t, buf)
	if entry["batch_id"] != "batch-1" || entry["item_id"] != "item-7" {
		t.Errorf("missing context ids: %v", entry)
	}
	if entry["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v", entry["trace_id"])
	}
	if _, ok := entry["report_id"]; ok {
		t.Error("report_id should be absent")
	}
}

func TestSetup_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	if _, err := Setup(Config{Format: "json", Writer: buf}); err != nil {
		t.Fatal(err)
	}

	slog.Default().With("component", "test").Info("hello")
	if entry := decodeLine(t, buf); entry["component"] != "test" {
		t.Errorf("default logger not installed: %v", entry)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LoggingConfig{
		Level:          "debug",
		Format:         "json",
		RedactPII:      true,
		RedactPatterns: []config.RedactPattern{{Name: "case", Pattern: `CASE-\d+`, Replacement: "CASE-*"}},
	})
	if cfg.Level != "debug" || cfg.Format != "json" || !cfg.RedactPII || len(cfg.RedactPatterns) != 1 {
		t.Errorf("unexpected config %+v", cfg)
	}
}
