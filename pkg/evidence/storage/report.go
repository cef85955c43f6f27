package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mercator-hq/vesta/pkg/evidence"
)

// defaultLimit caps List results when the query sets no limit.
const defaultLimit = 100

var errAppendOnly = errors.New("co-signatures are append-only")

// prepareInsert fills the identity and timestamps of a report about to be
// stored for the first time.
func prepareInsert(report *evidence.VerificationReport, now time.Time) error {
	if report.FileID == "" {
		return errors.New("report file_id is required")
	}
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.CreatedAt = report.CreatedAt.UTC()
	report.UpdatedAt = now
	if report.CoSignatures == nil {
		report.CoSignatures = []evidence.CoSignature{}
	}
	report.OverallTrustScore = evidence.ClampScore(report.OverallTrustScore)
	return nil
}

// checkEndorsement verifies that an endorsement only appended co-signatures
// and did not change the report's identity.
func checkEndorsement(before, after *evidence.VerificationReport) error {
	if after.ID != before.ID || after.FileID != before.FileID {
		return fmt.Errorf("report identity changed: %s/%s -> %s/%s", before.ID, before.FileID, after.ID, after.FileID)
	}
	if len(after.CoSignatures) < len(before.CoSignatures) {
		return errAppendOnly
	}
	for i := range before.CoSignatures {
		if after.CoSignatures[i].ID != before.CoSignatures[i].ID {
			return errAppendOnly
		}
	}
	return nil
}

// matchesQuery checks if a report matches the query filters.
func matchesQuery(report *evidence.VerificationReport, query *evidence.ReportQuery) bool {
	if query == nil {
		return true
	}
	if query.Status != "" && report.VerificationStatus != query.Status {
		return false
	}
	if query.MinScore != nil && report.OverallTrustScore < *query.MinScore {
		return false
	}
	if query.Since != nil && report.CreatedAt.Before(*query.Since) {
		return false
	}
	return true
}

// cloneReport returns a deep copy so callers never share state with a store.
func cloneReport(r *evidence.VerificationReport) *evidence.VerificationReport {
	c := *r

	if r.DeepfakeAnalysis != nil {
		d := *r.DeepfakeAnalysis
		d.Indicators = append([]string(nil), r.DeepfakeAnalysis.Indicators...)
		c.DeepfakeAnalysis = &d
	}
	if r.Transcription != nil {
		t := *r.Transcription
		t.Segments = append([]evidence.TranscriptSegment(nil), r.Transcription.Segments...)
		c.Transcription = &t
	}
	if r.AIAnalysis != nil {
		a := *r.AIAnalysis
		a.KeyFacts = append([]string(nil), r.AIAnalysis.KeyFacts...)
		a.EventTags = append([]evidence.EventTag(nil), r.AIAnalysis.EventTags...)
		a.ContextualFlags = append([]string(nil), r.AIAnalysis.ContextualFlags...)
		c.AIAnalysis = &a
	}
	if r.Metadata.Timestamp != nil {
		ts := *r.Metadata.Timestamp
		c.Metadata.Timestamp = &ts
	}
	if r.Metadata.Location != nil {
		loc := *r.Metadata.Location
		c.Metadata.Location = &loc
	}

	c.CoSignatures = append([]evidence.CoSignature{}, r.CoSignatures...)
	c.AnalyzerFailures = append([]string(nil), r.AnalyzerFailures...)
	return &c
}
