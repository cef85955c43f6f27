package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

func createTestReport(id string) *evidence.VerificationReport {
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	return &evidence.VerificationReport{
		ID:     id,
		FileID: "file-" + id,
		DeepfakeAnalysis: &evidence.DeepfakeAnalysis{
			Confidence:       85,
			RiskLevel:        evidence.RiskCritical,
			FlaggedForReview: true,
		},
		Metadata: evidence.ExtractedMetadata{
			FileType:  "image/jpeg",
			FileSize:  2048,
			FileHash:  "deadbeef",
			Timestamp: &ts,
			Location:  &evidence.Location{Latitude: 48.85, Longitude: 2.35, Source: evidence.LocationGPS},
		},
		AIAnalysis: &evidence.ContentAnalysis{
			Summary:          "Fire, reported downtown",
			EventTags:        []evidence.EventTag{evidence.TagFire, evidence.TagInfrastructureDamage},
			UrgencyLevel:     8,
			CredibilityScore: 60,
		},
		CoSignatures: []evidence.CoSignature{
			{ID: "sig-1", OrganizationName: "Amnesty"},
			{ID: "sig-2", OrganizationName: "Red Cross"},
		},
		OverallTrustScore:  48,
		VerificationStatus: evidence.VerificationFlagged,
		AnalyzerFailures:   []string{"transcriber"},
		CreatedAt:          ts,
		UpdatedAt:          ts,
	}
}

func TestJSONExporter_Export_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("Export() = %q, want %q", buf.String(), "[]")
	}
}

func TestJSONExporter_Export_Single(t *testing.T) {
	var buf bytes.Buffer
	err := NewJSONExporter(true).Export(context.Background(), []*evidence.VerificationReport{createTestReport("r1")}, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded evidence.VerificationReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if decoded.ID != "r1" || decoded.OverallTrustScore != 48 {
		t.Errorf("Decoded report = %+v", decoded)
	}
	if len(decoded.CoSignatures) != 2 {
		t.Errorf("Decoded co-signatures = %d, want 2", len(decoded.CoSignatures))
	}
}

func TestJSONExporter_Export_Multiple(t *testing.T) {
	reports := []*evidence.VerificationReport{createTestReport("r1"), createTestReport("r2")}

	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), reports, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []evidence.VerificationReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("Decoded %d reports, want 2", len(decoded))
	}
}

func TestJSONExporter_ExportStream(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		ch := make(chan *evidence.VerificationReport, 3)
		ch <- createTestReport("r1")
		ch <- createTestReport("r2")
		ch <- createTestReport("r3")
		close(ch)

		var buf bytes.Buffer
		if err := NewJSONExporter(pretty).ExportStream(context.Background(), ch, &buf); err != nil {
			t.Fatalf("ExportStream() error = %v", err)
		}

		var decoded []evidence.VerificationReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("pretty=%v: failed to decode stream: %v\n%s", pretty, err, buf.String())
		}
		if len(decoded) != 3 {
			t.Errorf("pretty=%v: decoded %d reports, want 3", pretty, len(decoded))
		}
	}
}

func TestJSONExporter_ExportStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan *evidence.VerificationReport)
	err := NewJSONExporter(false).ExportStream(ctx, ch, &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ExportStream() error = %v, want context.Canceled", err)
	}
}

func TestCSVExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	reports := []*evidence.VerificationReport{createTestReport("r1"), createTestReport("r2")}

	if err := NewCSVExporter(true).Export(context.Background(), reports, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Got %d rows, want 3", len(rows))
	}

	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}

	row := rows[1]
	if len(row) != len(header) {
		t.Fatalf("Row has %d columns, header has %d", len(row), len(header))
	}
	if row[col("overall_trust_score")] != "48" {
		t.Errorf("overall_trust_score = %q", row[col("overall_trust_score")])
	}
	if row[col("event_tags")] != "fire;infrastructure_damage" {
		t.Errorf("event_tags = %q", row[col("event_tags")])
	}
	if row[col("co_signers")] != "Amnesty;Red Cross" {
		t.Errorf("co_signers = %q", row[col("co_signers")])
	}
	if row[col("summary")] != "Fire, reported downtown" {
		t.Errorf("summary with comma not preserved: %q", row[col("summary")])
	}
	if row[col("flagged_for_review")] != "true" {
		t.Errorf("flagged_for_review = %q", row[col("flagged_for_review")])
	}
}

func TestCSVExporter_Export_OptionalSectionsEmpty(t *testing.T) {
	report := &evidence.VerificationReport{ID: "bare", FileID: "f", VerificationStatus: evidence.VerificationVerified}

	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), []*evidence.VerificationReport{report}, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "bare,f,") {
		t.Errorf("Unexpected row: %q", buf.String())
	}
}

func TestCSVExporter_ExportStream(t *testing.T) {
	ch := make(chan *evidence.VerificationReport, 250)
	for i := 0; i < 250; i++ {
		ch <- createTestReport("r")
	}
	close(ch)

	var buf bytes.Buffer
	if err := NewCSVExporter(true).ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatalf("ExportStream() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(rows) != 251 {
		t.Errorf("Got %d rows, want 251", len(rows))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExporters_WriterError(t *testing.T) {
	reports := []*evidence.VerificationReport{createTestReport("r1")}

	for name, exporter := range map[string]evidence.Exporter{
		"json": NewJSONExporter(false),
		"csv":  NewCSVExporter(true),
	} {
		err := exporter.Export(context.Background(), reports, failingWriter{})
		var exportErr *evidence.ExportError
		if !errors.As(err, &exportErr) {
			t.Errorf("%s: expected ExportError, got %v", name, err)
		}
	}
}
