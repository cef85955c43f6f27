package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

func newTestSQLiteStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	s, err := NewSQLiteStorage(&SQLiteConfig{
		Path:    filepath.Join(t.TempDir(), "reports.db"),
		WALMode: true,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testStores runs fn against every backend.
func testStores(t *testing.T, fn func(t *testing.T, s evidence.ReportStore)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, newTestSQLiteStorage(t))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStorage())
	})
}

func testReport(fileID string, score int) *evidence.VerificationReport {
	ts := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	return &evidence.VerificationReport{
		FileID: fileID,
		DeepfakeAnalysis: &evidence.DeepfakeAnalysis{
			Confidence:       20,
			RiskLevel:        evidence.RiskLow,
			FlaggedForReview: false,
			Provider:         "mock",
		},
		Metadata: evidence.ExtractedMetadata{
			FileType:  "image/jpeg",
			FileSize:  1024,
			FileHash:  "abc123",
			Timestamp: &ts,
			Location:  &evidence.Location{Latitude: 1, Longitude: 2, Source: evidence.LocationGPS},
		},
		AIAnalysis: &evidence.ContentAnalysis{
			Summary:          "Flooding near the bridge",
			EventTags:        []evidence.EventTag{evidence.TagFlood},
			UrgencyLevel:     6,
			CredibilityScore: 75,
		},
		OverallTrustScore:  score,
		VerificationStatus: evidence.VerificationVerified,
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()

		ack, err := s.Upsert(ctx, testReport("item-1", 76))
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if !ack.Created {
			t.Error("Expected first upsert to create the report")
		}
		if ack.ReportID == "" || ack.FileID != "item-1" {
			t.Errorf("Unexpected ack: %+v", ack)
		}

		report, err := s.Get(ctx, ack.ReportID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if report.OverallTrustScore != 76 {
			t.Errorf("Expected trust score 76, got %d", report.OverallTrustScore)
		}
		if report.DeepfakeAnalysis == nil || report.DeepfakeAnalysis.Confidence != 20 {
			t.Errorf("Expected deepfake analysis to round-trip, got %+v", report.DeepfakeAnalysis)
		}
		if report.Metadata.Location == nil || report.Metadata.Location.Source != evidence.LocationGPS {
			t.Errorf("Expected location to round-trip, got %+v", report.Metadata.Location)
		}
		if report.CoSignatures == nil || len(report.CoSignatures) != 0 {
			t.Errorf("Expected empty co-signature list, got %v", report.CoSignatures)
		}

		byFile, err := s.GetByFileID(ctx, "item-1")
		if err != nil {
			t.Fatalf("GetByFileID failed: %v", err)
		}
		if byFile.ID != ack.ReportID {
			t.Errorf("Expected report %s, got %s", ack.ReportID, byFile.ID)
		}
	})
}

func TestStore_UpsertIdempotentPerFile(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()

		first, err := s.Upsert(ctx, testReport("item-1", 60))
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		second, err := s.Upsert(ctx, testReport("item-1", 90))
		if err != nil {
			t.Fatalf("second Upsert failed: %v", err)
		}

		if second.Created {
			t.Error("Expected second upsert to report an existing record")
		}
		if second.ReportID != first.ReportID {
			t.Errorf("Expected same report ID %s, got %s", first.ReportID, second.ReportID)
		}

		count, _ := s.Count(ctx)
		if count != 1 {
			t.Errorf("Expected 1 report, got %d", count)
		}

		report, _ := s.Get(ctx, first.ReportID)
		if report.OverallTrustScore != 60 {
			t.Errorf("Expected original score 60 kept, got %d", report.OverallTrustScore)
		}
	})
}

func TestStore_UpsertClampsScore(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()

		ack, _ := s.Upsert(ctx, testReport("high", 140))
		report, _ := s.Get(ctx, ack.ReportID)
		if report.OverallTrustScore != 100 {
			t.Errorf("Expected score clamped to 100, got %d", report.OverallTrustScore)
		}
	})
}

func TestStore_UpsertRequiresFileID(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		_, err := s.Upsert(context.Background(), testReport("", 50))
		if !errors.Is(err, evidence.ErrStorage) {
			t.Fatalf("Expected StorageError, got %v", err)
		}
	})
}

func TestStore_GetUnknown(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
		if _, err := s.GetByFileID(ctx, "missing"); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}

func TestStore_Endorse(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()
		ack, _ := s.Upsert(ctx, testReport("item-1", 95))

		updated, err := s.Endorse(ctx, ack.ReportID, func(r *evidence.VerificationReport) error {
			r.CoSignatures = append(r.CoSignatures, evidence.CoSignature{ID: "sig-1", OrganizationName: "Red Cross"})
			r.OverallTrustScore += 10
			r.VerificationStatus = evidence.VerificationVerified
			return nil
		})
		if err != nil {
			t.Fatalf("Endorse failed: %v", err)
		}
		if updated.OverallTrustScore != 100 {
			t.Errorf("Expected score clamped to 100, got %d", updated.OverallTrustScore)
		}

		stored, _ := s.Get(ctx, ack.ReportID)
		if len(stored.CoSignatures) != 1 || stored.CoSignatures[0].ID != "sig-1" {
			t.Errorf("Expected persisted co-signature, got %v", stored.CoSignatures)
		}
	})
}

func TestStore_EndorseAppendOnly(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()
		ack, _ := s.Upsert(ctx, testReport("item-1", 50))

		_, err := s.Endorse(ctx, ack.ReportID, func(r *evidence.VerificationReport) error {
			r.CoSignatures = append(r.CoSignatures, evidence.CoSignature{ID: "sig-1"})
			return nil
		})
		if err != nil {
			t.Fatalf("Endorse failed: %v", err)
		}

		_, err = s.Endorse(ctx, ack.ReportID, func(r *evidence.VerificationReport) error {
			r.CoSignatures = r.CoSignatures[:0]
			return nil
		})
		if !errors.Is(err, errAppendOnly) {
			t.Fatalf("Expected append-only violation, got %v", err)
		}

		stored, _ := s.Get(ctx, ack.ReportID)
		if len(stored.CoSignatures) != 1 {
			t.Errorf("Expected rejected endorsement to leave 1 co-signature, got %d", len(stored.CoSignatures))
		}
	})
}

func TestStore_EndorseCallbackError(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()
		ack, _ := s.Upsert(ctx, testReport("item-1", 50))
		sentinel := errors.New("rejected")

		_, err := s.Endorse(ctx, ack.ReportID, func(r *evidence.VerificationReport) error {
			r.OverallTrustScore = 0
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("Expected callback error, got %v", err)
		}

		stored, _ := s.Get(ctx, ack.ReportID)
		if stored.OverallTrustScore != 50 {
			t.Errorf("Expected score unchanged, got %d", stored.OverallTrustScore)
		}

		if _, err := s.Endorse(ctx, "missing", func(*evidence.VerificationReport) error { return nil }); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}

func TestStore_ConcurrentEndorse(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()
		ack, _ := s.Upsert(ctx, testReport("item-1", 0))

		const endorsers = 5
		var wg sync.WaitGroup
		for i := 0; i < endorsers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.Endorse(ctx, ack.ReportID, func(r *evidence.VerificationReport) error {
					r.CoSignatures = append(r.CoSignatures, evidence.CoSignature{ID: fmt.Sprintf("sig-%d", i)})
					r.OverallTrustScore += 10
					return nil
				})
				if err != nil {
					t.Errorf("Endorse failed: %v", err)
				}
			}(i)
		}
		wg.Wait()

		stored, _ := s.Get(ctx, ack.ReportID)
		if len(stored.CoSignatures) != endorsers {
			t.Errorf("Expected %d co-signatures, got %d", endorsers, len(stored.CoSignatures))
		}
		if stored.OverallTrustScore != 10*endorsers {
			t.Errorf("Expected score %d, got %d", 10*endorsers, stored.OverallTrustScore)
		}
	})
}

func TestStore_SetAnchor(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()
		ack, _ := s.Upsert(ctx, testReport("item-1", 50))

		if err := s.SetAnchor(ctx, ack.ReportID, "tx-42"); err != nil {
			t.Fatalf("SetAnchor failed: %v", err)
		}
		stored, _ := s.Get(ctx, ack.ReportID)
		if stored.AnchorTransactionID != "tx-42" {
			t.Errorf("Expected anchor tx-42, got %q", stored.AnchorTransactionID)
		}

		if err := s.SetAnchor(ctx, "missing", "tx"); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}

func TestStore_ListFilters(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()

		for i, score := range []int{20, 48, 76, 90} {
			r := testReport(fmt.Sprintf("item-%d", i), score)
			r.CreatedAt = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
			if score < 50 {
				r.VerificationStatus = evidence.VerificationFlagged
			}
			if _, err := s.Upsert(ctx, r); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
		}

		all, err := s.List(ctx, nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("Expected 4 reports, got %d", len(all))
		}
		if all[0].FileID != "item-3" {
			t.Errorf("Expected newest first, got %s", all[0].FileID)
		}

		flagged, _ := s.List(ctx, &evidence.ReportQuery{Status: evidence.VerificationFlagged})
		if len(flagged) != 2 {
			t.Errorf("Expected 2 flagged reports, got %d", len(flagged))
		}

		minScore := 70
		trusted, _ := s.List(ctx, &evidence.ReportQuery{MinScore: &minScore})
		if len(trusted) != 2 {
			t.Errorf("Expected 2 reports with score >= 70, got %d", len(trusted))
		}

		since := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
		recent, _ := s.List(ctx, &evidence.ReportQuery{Since: &since})
		if len(recent) != 2 {
			t.Errorf("Expected 2 recent reports, got %d", len(recent))
		}

		page, _ := s.List(ctx, &evidence.ReportQuery{Limit: 1, Offset: 1})
		if len(page) != 1 || page[0].FileID != "item-2" {
			t.Errorf("Expected second-newest report on page 2, got %v", page)
		}
	})
}

func TestStore_ListStream(t *testing.T) {
	testStores(t, func(t *testing.T, s evidence.ReportStore) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			s.Upsert(ctx, testReport(fmt.Sprintf("item-%d", i), 50))
		}

		reportsCh, errCh, err := s.ListStream(ctx, nil)
		if err != nil {
			t.Fatalf("ListStream failed: %v", err)
		}

		count := 0
		for range reportsCh {
			count++
		}
		if err := <-errCh; err != nil {
			t.Fatalf("stream error: %v", err)
		}
		if count != 5 {
			t.Errorf("Expected 5 streamed reports, got %d", count)
		}
	})
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	ack, _ := s.Upsert(ctx, testReport("item-1", 50))
	report, _ := s.Get(ctx, ack.ReportID)
	report.OverallTrustScore = 0
	report.AIAnalysis.EventTags[0] = evidence.TagFire

	again, _ := s.Get(ctx, ack.ReportID)
	if again.OverallTrustScore != 50 || again.AIAnalysis.EventTags[0] != evidence.TagFlood {
		t.Error("Expected stored report to be isolated from caller mutation")
	}
}
