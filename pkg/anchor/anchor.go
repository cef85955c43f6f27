package anchor

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidHash   = errors.New("invalid file hash")
	ErrJournalClosed = errors.New("anchor journal is closed")
)

// Request is a proof-of-existence submission for a persisted report.
type Request struct {
	ReportID string            `json:"report_id"`
	FileHash string            `json:"file_hash"` // hex SHA-256
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Receipt is the proof returned by an anchor backend.
type Receipt struct {
	TransactionID string    `json:"transaction_id"`
	Anchor        string    `json:"anchor"`
	ReportID      string    `json:"report_id"`
	FileHash      string    `json:"file_hash"`
	AnchoredAt    time.Time `json:"anchored_at"`

	// Previous is the transaction ID of the prior journal entry. Empty for
	// the first entry and for remote anchors.
	Previous string `json:"previous,omitempty"`
}

// Anchor records proof that a file hash existed at a point in time.
// It is invoked only after the report has been persisted.
type Anchor interface {
	// Name returns the anchor identifier.
	Name() string

	// Anchor submits a hash and returns its receipt.
	Anchor(ctx context.Context, req Request) (*Receipt, error)
}

// validHash reports whether h is a hex-encoded SHA-256 digest.
func validHash(h string) bool {
	if len(h) != 64 {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if !('0' <= c && c <= '9') && !('a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
