// Package ledger appends third-party endorsements to verification reports.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/vesta/pkg/evidence"
)

// ScoreBoost is added to a report's trust score per endorsement.
const ScoreBoost = 10

// ErrAlreadyEndorsed is returned when an organization endorses a report twice.
var ErrAlreadyEndorsed = errors.New("organization already endorsed this report")

// Ledger records co-signatures against stored reports.
type Ledger struct {
	store  evidence.ReportStore
	orgs   Directory
	now    func() time.Time
	logger *slog.Logger
}

// New creates a ledger over store, resolving organizations through orgs.
func New(store evidence.ReportStore, orgs Directory) *Ledger {
	return &Ledger{
		store:  store,
		orgs:   orgs,
		now:    time.Now,
		logger: slog.Default().With("component", "ledger"),
	}
}

// RequestCoSignature appends an endorsement from organizationID to the report,
// raises its trust score by ScoreBoost (capped at 100) and marks it verified.
// Unknown reports and organizations return NotFoundError.
func (l *Ledger) RequestCoSignature(ctx context.Context, reportID, organizationID, notes string) (*evidence.CoSignature, error) {
	org, err := l.orgs.Organization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var sig evidence.CoSignature
	updated, err := l.store.Endorse(ctx, reportID, func(report *evidence.VerificationReport) error {
		for _, existing := range report.CoSignatures {
			if existing.OrganizationID == org.ID {
				return fmt.Errorf("%w: %s", ErrAlreadyEndorsed, org.ID)
			}
		}

		date := l.now().UTC()
		sig = evidence.CoSignature{
			ID:                uuid.New().String(),
			OrganizationID:    org.ID,
			OrganizationName:  org.Name,
			VerifierName:      org.VerifierName,
			VerifierRole:      org.VerifierRole,
			VerificationDate:  date,
			VerificationHash:  VerificationHash(report, org.ID, date),
			CredibilityRating: org.CredibilityRating,
			Notes:             notes,
		}

		report.CoSignatures = append(report.CoSignatures, sig)
		report.OverallTrustScore = evidence.ClampScore(report.OverallTrustScore + ScoreBoost)
		report.VerificationStatus = evidence.VerificationVerified
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("report co-signed",
		"report_id", reportID,
		"organization_id", org.ID,
		"trust_score", updated.OverallTrustScore,
		"co_signatures", len(updated.CoSignatures),
	)
	return &sig, nil
}

// List returns the co-signatures of a report in the order they were added.
func (l *Ledger) List(ctx context.Context, reportID string) ([]evidence.CoSignature, error) {
	report, err := l.store.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return report.CoSignatures, nil
}

// VerificationHash binds an endorsement to the report content it covers.
func VerificationHash(report *evidence.VerificationReport, organizationID string, date time.Time) string {
	h := sha256.New()
	for _, part := range []string{
		report.ID,
		report.FileID,
		report.Metadata.FileHash,
		organizationID,
		date.UTC().Format(time.RFC3339Nano),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
