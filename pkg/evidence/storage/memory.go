package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

var _ evidence.ReportStore = (*MemoryStorage)(nil)

// MemoryStorage implements evidence.ReportStore using in-memory maps.
// This implementation is intended for testing only and should not be used in production.
type MemoryStorage struct {
	reports map[string]*evidence.VerificationReport
	byFile  map[string]string
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		reports: make(map[string]*evidence.VerificationReport),
		byFile:  make(map[string]string),
		now:     time.Now,
	}
}

// Upsert stores a report unless one already exists for its FileID.
func (s *MemoryStorage) Upsert(ctx context.Context, report *evidence.VerificationReport) (*evidence.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byFile[report.FileID]; ok {
		existing := s.reports[id]
		return &evidence.Ack{ReportID: existing.ID, FileID: existing.FileID, Created: false, StoredAt: existing.CreatedAt}, nil
	}

	now := s.now().UTC()
	stored := cloneReport(report)
	if err := prepareInsert(stored, now); err != nil {
		return nil, evidence.NewStorageError("memory", "upsert", err)
	}

	s.reports[stored.ID] = stored
	s.byFile[stored.FileID] = stored.ID

	return &evidence.Ack{ReportID: stored.ID, FileID: stored.FileID, Created: true, StoredAt: now}, nil
}

// Get returns a copy of a report by ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*evidence.VerificationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, evidence.NewNotFoundError("report", id)
	}
	return cloneReport(report), nil
}

// GetByFileID returns a copy of the report for an evidence item.
func (s *MemoryStorage) GetByFileID(ctx context.Context, fileID string) (*evidence.VerificationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byFile[fileID]
	if !ok {
		return nil, evidence.NewNotFoundError("report", fileID)
	}
	return cloneReport(s.reports[id]), nil
}

// Endorse applies fn to a copy of the report and stores it if fn succeeds.
func (s *MemoryStorage) Endorse(ctx context.Context, id string, fn func(*evidence.VerificationReport) error) (*evidence.VerificationReport, error) {
	return s.update(id, func(report *evidence.VerificationReport) error {
		before := cloneReport(report)
		if err := fn(report); err != nil {
			return err
		}
		return checkEndorsement(before, report)
	})
}

// SetAnchor records the anchor transaction for a report.
func (s *MemoryStorage) SetAnchor(ctx context.Context, id string, transactionID string) error {
	_, err := s.update(id, func(report *evidence.VerificationReport) error {
		report.AnchorTransactionID = transactionID
		return nil
	})
	return err
}

func (s *MemoryStorage) update(id string, fn func(*evidence.VerificationReport) error) (*evidence.VerificationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reports[id]
	if !ok {
		return nil, evidence.NewNotFoundError("report", id)
	}

	working := cloneReport(current)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.OverallTrustScore = evidence.ClampScore(working.OverallTrustScore)
	working.UpdatedAt = s.now().UTC()

	s.reports[id] = working
	return cloneReport(working), nil
}

// List retrieves reports matching the query, newest first.
func (s *MemoryStorage) List(ctx context.Context, query *evidence.ReportQuery) ([]*evidence.VerificationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(query), nil
}

func (s *MemoryStorage) list(query *evidence.ReportQuery) []*evidence.VerificationReport {
	results := []*evidence.VerificationReport{}
	for _, report := range s.reports {
		if matchesQuery(report, query) {
			results = append(results, cloneReport(report))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})

	limit, offset := defaultLimit, 0
	if query != nil {
		if query.Limit > 0 {
			limit = query.Limit
		}
		offset = query.Offset
	}

	if offset >= len(results) {
		return []*evidence.VerificationReport{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

// ListStream returns a channel of reports matching the query.
// The channels will be closed when the query completes or errors.
func (s *MemoryStorage) ListStream(ctx context.Context, query *evidence.ReportQuery) (<-chan *evidence.VerificationReport, <-chan error, error) {
	reportsCh := make(chan *evidence.VerificationReport, 100)
	errCh := make(chan error, 1)

	s.mu.RLock()
	snapshot := s.list(query)
	s.mu.RUnlock()

	go func() {
		defer close(reportsCh)
		defer close(errCh)

		for _, report := range snapshot {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case reportsCh <- report:
			}
		}
	}()

	return reportsCh, errCh, nil
}

// Count returns the number of stored reports.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.reports)), nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	return nil
}

// Size returns the number of reports in storage (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.reports)
}
