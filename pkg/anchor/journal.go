package anchor

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JournalName identifies the local journal anchor.
const JournalName = "journal"

// Journal is a local, append-only receipt log. Each entry's transaction ID
// is the SHA-256 of the previous ID, the file hash, the report ID and the
// anchoring time, so removing or reordering entries breaks the chain.
type Journal struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	last   string
	closed bool
	now    func() time.Time
	logger *slog.Logger
}

// OpenJournal opens or creates the journal at path and recovers the chain
// head from its last entry.
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	receipts, err := readJournal(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{
		path:   path,
		file:   file,
		now:    time.Now,
		logger: slog.Default().With("component", "anchor.journal"),
	}
	if n := len(receipts); n > 0 {
		j.last = receipts[n-1].TransactionID
	}
	return j, nil
}

// Name returns the anchor identifier.
func (j *Journal) Name() string { return JournalName }

// Anchor appends a receipt and syncs it to disk before returning.
func (j *Journal) Anchor(ctx context.Context, req Request) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validHash(req.FileHash) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHash, req.FileHash)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil, ErrJournalClosed
	}

	anchoredAt := j.now().UTC()
	receipt := &Receipt{
		TransactionID: chainID(j.last, req.FileHash, req.ReportID, anchoredAt),
		Anchor:        JournalName,
		ReportID:      req.ReportID,
		FileHash:      req.FileHash,
		AnchoredAt:    anchoredAt,
		Previous:      j.last,
	}

	line, err := json.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	if _, err := j.file.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("failed to append receipt: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync journal: %w", err)
	}

	j.last = receipt.TransactionID
	j.logger.Debug("receipt appended", "report_id", req.ReportID, "transaction_id", receipt.TransactionID)
	return receipt, nil
}

// Receipts returns every journal entry in append order.
func (j *Journal) Receipts() ([]Receipt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return readJournal(j.path)
}

// Verify recomputes the chain and reports the first broken entry.
func (j *Journal) Verify() error {
	receipts, err := j.Receipts()
	if err != nil {
		return err
	}
	prev := ""
	for i, r := range receipts {
		if r.Previous != prev {
			return fmt.Errorf("journal entry %d: previous %q, expected %q", i, r.Previous, prev)
		}
		if want := chainID(prev, r.FileHash, r.ReportID, r.AnchoredAt); r.TransactionID != want {
			return fmt.Errorf("journal entry %d: transaction id mismatch", i)
		}
		prev = r.TransactionID
	}
	return nil
}

// Close closes the journal file. It is safe to call more than once.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

func chainID(prev, fileHash, reportID string, at time.Time) string {
	h := sha256.New()
	h.Write([]byte(prev))
	h.Write([]byte{0})
	h.Write([]byte(fileHash))
	h.Write([]byte{0})
	h.Write([]byte(reportID))
	h.Write([]byte{0})
	h.Write([]byte(at.Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}

func readJournal(path string) ([]Receipt, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var receipts []Receipt
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r Receipt
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		receipts = append(receipts, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return receipts, nil
}
