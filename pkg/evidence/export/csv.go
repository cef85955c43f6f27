package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

var _ evidence.Exporter = (*CSVExporter)(nil)

// CSVExporter exports verification reports to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes reports to w in CSV format, one row per report.
// List fields are joined with ";".
func (e *CSVExporter) Export(ctx context.Context, reports []*evidence.VerificationReport, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(headerRow); err != nil {
			return evidence.NewExportError("csv", len(reports), err)
		}
	}

	for _, report := range reports {
		if err := writer.Write(reportToRow(report)); err != nil {
			return evidence.NewExportError("csv", len(reports), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(reports), err)
	}
	return nil
}

// ExportStream writes reports from a channel in CSV format, flushing every
// 100 rows.
func (e *CSVExporter) ExportStream(ctx context.Context, reportsCh <-chan *evidence.VerificationReport, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow); err != nil {
			return evidence.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case report, ok := <-reportsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(reportToRow(report)); err != nil {
				return evidence.NewExportError("csv", count, err)
			}
			count++

			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
			}
		}
	}
}

var headerRow = []string{
	"id", "file_id", "created_at", "updated_at",
	"overall_trust_score", "verification_status",
	"file_type", "file_size", "file_hash", "device", "resolution",
	"captured_at", "latitude", "longitude", "location_source",
	"deepfake_confidence", "deepfake_risk_level", "flagged_for_review",
	"transcription_language", "transcription_text",
	"summary", "event_tags", "urgency_level", "credibility_score",
	"co_signature_count", "co_signers",
	"analyzer_failures", "anchor_transaction_id",
}

func reportToRow(r *evidence.VerificationReport) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}

	var capturedAt, lat, lon, source string
	if r.Metadata.Timestamp != nil {
		capturedAt = formatTime(*r.Metadata.Timestamp)
	}
	if loc := r.Metadata.Location; loc != nil {
		lat = strconv.FormatFloat(loc.Latitude, 'f', 6, 64)
		lon = strconv.FormatFloat(loc.Longitude, 'f', 6, 64)
		source = string(loc.Source)
	}

	var confidence, risk, flagged string
	if d := r.DeepfakeAnalysis; d != nil {
		confidence = strconv.Itoa(d.Confidence)
		risk = string(d.RiskLevel)
		flagged = strconv.FormatBool(d.FlaggedForReview)
	}

	var language, text string
	if t := r.Transcription; t != nil {
		language = t.Language
		text = t.Text
	}

	var summary, tags, urgency, credibility string
	if a := r.AIAnalysis; a != nil {
		summary = a.Summary
		names := make([]string, len(a.EventTags))
		for i, tag := range a.EventTags {
			names[i] = string(tag)
		}
		tags = strings.Join(names, ";")
		urgency = strconv.Itoa(a.UrgencyLevel)
		credibility = strconv.Itoa(a.CredibilityScore)
	}

	signers := make([]string, len(r.CoSignatures))
	for i, sig := range r.CoSignatures {
		signers[i] = sig.OrganizationName
	}

	return []string{
		r.ID, r.FileID, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
		strconv.Itoa(r.OverallTrustScore), string(r.VerificationStatus),
		r.Metadata.FileType, strconv.FormatInt(r.Metadata.FileSize, 10), r.Metadata.FileHash,
		r.Metadata.Device, r.Metadata.Resolution,
		capturedAt, lat, lon, source,
		confidence, risk, flagged,
		language, text,
		summary, tags, urgency, credibility,
		strconv.Itoa(len(r.CoSignatures)), strings.Join(signers, ";"),
		strings.Join(r.AnalyzerFailures, ";"), r.AnchorTransactionID,
	}
}
