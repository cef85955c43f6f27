package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/evidence/storage"
)

var testOrgs = []evidence.Organization{
	{ID: "hrw", Name: "Rights Watch", VerifierName: "A. Diaz", VerifierRole: "Researcher", CredibilityRating: 5},
	{ID: "press", Name: "Free Press", VerifierName: "K. Osei", VerifierRole: "Editor", CredibilityRating: 4},
	{ID: "local", Name: "Local Radio", VerifierName: "M. Ruiz", VerifierRole: "Reporter", CredibilityRating: 3},
}

func setup(t *testing.T, score int) (*Ledger, *storage.MemoryStorage, string) {
	t.Helper()

	store := storage.NewMemoryStorage()
	ack, err := store.Upsert(context.Background(), &evidence.VerificationReport{
		FileID:             "item-1",
		Metadata:           evidence.ExtractedMetadata{FileHash: "abc123"},
		OverallTrustScore:  score,
		VerificationStatus: evidence.VerificationFlagged,
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	dir, err := NewStaticDirectory(testOrgs)
	if err != nil {
		t.Fatalf("NewStaticDirectory failed: %v", err)
	}
	return New(store, dir), store, ack.ReportID
}

func TestRequestCoSignature(t *testing.T) {
	l, store, reportID := setup(t, 48)
	fixed := time.Date(2026, 7, 4, 9, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	sig, err := l.RequestCoSignature(context.Background(), reportID, "hrw", "matches witness accounts")
	if err != nil {
		t.Fatalf("RequestCoSignature failed: %v", err)
	}

	if sig.OrganizationName != "Rights Watch" || sig.VerifierRole != "Researcher" {
		t.Errorf("signature = %+v", sig)
	}
	if sig.CredibilityRating != 5 {
		t.Errorf("credibility rating = %d, want 5", sig.CredibilityRating)
	}
	if !sig.VerificationDate.Equal(fixed) {
		t.Errorf("verification date = %s", sig.VerificationDate)
	}
	if sig.Notes != "matches witness accounts" {
		t.Errorf("notes = %q", sig.Notes)
	}

	report, _ := store.Get(context.Background(), reportID)
	if report.OverallTrustScore != 58 {
		t.Errorf("trust score = %d, want 58", report.OverallTrustScore)
	}
	if report.VerificationStatus != evidence.VerificationVerified {
		t.Errorf("status = %s, want verified", report.VerificationStatus)
	}
	if len(report.CoSignatures) != 1 || report.CoSignatures[0].ID != sig.ID {
		t.Errorf("co-signatures = %+v", report.CoSignatures)
	}
	if want := VerificationHash(report, "hrw", fixed); sig.VerificationHash != want {
		t.Error("verification hash does not match report content")
	}
}

func TestRequestCoSignature_ClampsAt100(t *testing.T) {
	l, store, reportID := setup(t, 95)

	if _, err := l.RequestCoSignature(context.Background(), reportID, "hrw", ""); err != nil {
		t.Fatalf("RequestCoSignature failed: %v", err)
	}
	if _, err := l.RequestCoSignature(context.Background(), reportID, "press", ""); err != nil {
		t.Fatalf("RequestCoSignature failed: %v", err)
	}

	report, _ := store.Get(context.Background(), reportID)
	if report.OverallTrustScore != 100 {
		t.Errorf("trust score = %d, want 100", report.OverallTrustScore)
	}
	if len(report.CoSignatures) != 2 {
		t.Errorf("co-signatures = %d, want 2", len(report.CoSignatures))
	}
}

func TestRequestCoSignature_NotFound(t *testing.T) {
	l, store, reportID := setup(t, 50)

	_, err := l.RequestCoSignature(context.Background(), "missing", "hrw", "")
	var nf *evidence.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "report" {
		t.Errorf("expected report NotFoundError, got %v", err)
	}

	_, err = l.RequestCoSignature(context.Background(), reportID, "unknown-org", "")
	if !errors.As(err, &nf) || nf.Entity != "organization" {
		t.Errorf("expected organization NotFoundError, got %v", err)
	}

	report, _ := store.Get(context.Background(), reportID)
	if len(report.CoSignatures) != 0 || report.OverallTrustScore != 50 {
		t.Error("failed requests must not modify the report")
	}
}

func TestRequestCoSignature_RejectsDuplicateOrganization(t *testing.T) {
	l, store, reportID := setup(t, 50)

	if _, err := l.RequestCoSignature(context.Background(), reportID, "hrw", ""); err != nil {
		t.Fatalf("first endorsement failed: %v", err)
	}
	_, err := l.RequestCoSignature(context.Background(), reportID, "hrw", "again")
	if !errors.Is(err, ErrAlreadyEndorsed) {
		t.Fatalf("expected ErrAlreadyEndorsed, got %v", err)
	}

	report, _ := store.Get(context.Background(), reportID)
	if report.OverallTrustScore != 60 || len(report.CoSignatures) != 1 {
		t.Errorf("report changed by rejected endorsement: score=%d sigs=%d",
			report.OverallTrustScore, len(report.CoSignatures))
	}
}

func TestRequestCoSignature_Concurrent(t *testing.T) {
	l, store, reportID := setup(t, 20)

	var wg sync.WaitGroup
	for _, org := range testOrgs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := l.RequestCoSignature(context.Background(), reportID, id, ""); err != nil {
				t.Errorf("RequestCoSignature(%s) failed: %v", id, err)
			}
		}(org.ID)
	}
	wg.Wait()

	report, _ := store.Get(context.Background(), reportID)
	if len(report.CoSignatures) != len(testOrgs) {
		t.Errorf("co-signatures = %d, want %d", len(report.CoSignatures), len(testOrgs))
	}
	if report.OverallTrustScore != 50 {
		t.Errorf("trust score = %d, want 50", report.OverallTrustScore)
	}
}

func TestList(t *testing.T) {
	l, _, reportID := setup(t, 50)

	for _, id := range []string{"local", "hrw"} {
		if _, err := l.RequestCoSignature(context.Background(), reportID, id, ""); err != nil {
			t.Fatalf("RequestCoSignature failed: %v", err)
		}
	}

	sigs, err := l.List(context.Background(), reportID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sigs) != 2 || sigs[0].OrganizationID != "local" || sigs[1].OrganizationID != "hrw" {
		t.Errorf("signatures out of order: %+v", sigs)
	}

	if _, err := l.List(context.Background(), "missing"); !errors.Is(err, evidence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewStaticDirectory_Validation(t *testing.T) {
	tests := []struct {
		name string
		orgs []evidence.Organization
	}{
		{"missing id", []evidence.Organization{{Name: "x", CredibilityRating: 3}}},
		{"duplicate id", []evidence.Organization{
			{ID: "a", CredibilityRating: 3},
			{ID: "a", CredibilityRating: 4},
		}},
		{"rating too high", []evidence.Organization{{ID: "a", CredibilityRating: 6}}},
		{"rating too low", []evidence.Organization{{ID: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStaticDirectory(tt.orgs); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStaticDirectory_List(t *testing.T) {
	dir, _ := NewStaticDirectory(testOrgs)
	orgs := dir.List()
	if len(orgs) != 3 || orgs[0].ID != "hrw" || orgs[2].ID != "press" {
		t.Errorf("orgs = %+v", orgs)
	}
}
