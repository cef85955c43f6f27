package evidence

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for errors.Is matching. Each typed error below matches its
// sentinel through an Is method.
var (
	ErrStorage             = errors.New("storage unavailable")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrAnalyzerUnavailable = errors.New("analyzer unavailable")
	ErrSyncInProgress      = errors.New("sync already in progress")
	ErrNotFound            = errors.New("not found")
	ErrInvalidQuery        = errors.New("invalid query")
	ErrEmptyPayload        = errors.New("empty payload")
)

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory", etc.)
	Operation string // Operation that failed ("enqueue", "transition", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is matches ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// InvalidStateError reports a status transition the state machine forbids.
// It indicates a programming error and is never corrected silently.
type InvalidStateError struct {
	Entity string // "item" or "memo"
	ID     string
	From   string
	To     string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state transition [%s=%s]: %s -> %s", e.Entity, e.ID, e.From, e.To)
}

// Is matches ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(entity, id, from, to string) *InvalidStateError {
	return &InvalidStateError{
		Entity: entity,
		ID:     id,
		From:   from,
		To:     to,
	}
}

// AnalyzerUnavailableError reports that a single analyzer timed out or failed.
// The pipeline absorbs it and downgrades the report.
type AnalyzerUnavailableError struct {
	Analyzer string
	Cause    error
}

// Error implements the error interface.
func (e *AnalyzerUnavailableError) Error() string {
	return fmt.Sprintf("analyzer %s unavailable: %v", e.Analyzer, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *AnalyzerUnavailableError) Unwrap() error {
	return e.Cause
}

// Is matches ErrAnalyzerUnavailable.
func (e *AnalyzerUnavailableError) Is(target error) bool {
	return target == ErrAnalyzerUnavailable
}

// NewAnalyzerUnavailableError creates a new AnalyzerUnavailableError.
func NewAnalyzerUnavailableError(analyzer string, cause error) *AnalyzerUnavailableError {
	return &AnalyzerUnavailableError{
		Analyzer: analyzer,
		Cause:    cause,
	}
}

// SyncInProgressError rejects a sync request while a batch is running.
type SyncInProgressError struct {
	StartedAt time.Time
}

// Error implements the error interface.
func (e *SyncInProgressError) Error() string {
	if e.StartedAt.IsZero() {
		return ErrSyncInProgress.Error()
	}
	return fmt.Sprintf("%s (started %s)", ErrSyncInProgress, e.StartedAt.Format(time.RFC3339))
}

// Is matches ErrSyncInProgress.
func (e *SyncInProgressError) Is(target error) bool {
	return target == ErrSyncInProgress
}

// NotFoundError reports an unknown identifier.
type NotFoundError struct {
	Entity string // "item", "memo", "report", "organization"
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// ExportError represents an error during report export.
type ExportError struct {
	Format      string // Export format ("json", "csv", etc.)
	RecordCount int    // Number of reports being exported
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, record_count=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{
		Format:      format,
		RecordCount: recordCount,
		Cause:       cause,
	}
}

// QueryError represents an invalid report query.
type QueryError struct {
	Query *ReportQuery
	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Is matches ErrInvalidQuery.
func (e *QueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// NewQueryError creates a new QueryError.
func NewQueryError(query *ReportQuery, cause error) *QueryError {
	return &QueryError{Query: query, Cause: cause}
}
