package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/vesta/pkg/evidence"
)

var _ evidence.ReportStore = (*SQLiteStorage)(nil)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/reports.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements evidence.ReportStore using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	stmts  map[string]*sql.Stmt
	// mu serializes writers; readers go straight to the pool.
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	// Immediate transactions take the write lock up front so read-modify-write
	// endorsements never fail on lock upgrade.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_txlock=immediate",
		config.Path, config.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		stmts:  make(map[string]*sql.Stmt),
		logger: logger,
		now:    time.Now,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite report storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and prepared statements.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	statements := map[string]string{
		"insert":         insertReport,
		"select_id":      selectReportByID,
		"select_file_id": selectReportByFileID,
		"count":          countReports,
	}
	for name, query := range statements {
		stmt, err := s.db.Prepare(query)
		if err != nil {
			return evidence.NewStorageError("sqlite", "prepare_"+name, err)
		}
		s.stmts[name] = stmt
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Upsert stores a report unless one already exists for its FileID.
func (s *SQLiteStorage) Upsert(ctx context.Context, report *evidence.VerificationReport) (*evidence.Ack, error) {
	now := s.now().UTC()
	stored := cloneReport(report)
	if err := prepareInsert(stored, now); err != nil {
		return nil, evidence.NewStorageError("sqlite", "upsert", err)
	}

	body, err := json.Marshal(stored)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "upsert", fmt.Errorf("failed to marshal report: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.stmts["insert"].ExecContext(ctx,
		stored.ID, stored.FileID, string(body),
		stored.OverallTrustScore, string(stored.VerificationStatus),
		len(stored.CoSignatures), stored.AnchorTransactionID,
		stored.CreatedAt.Format(timeLayout), stored.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "upsert", err)
	}

	if n, _ := result.RowsAffected(); n == 1 {
		s.logger.Debug("report stored",
			"report_id", stored.ID,
			"file_id", stored.FileID,
			"trust_score", stored.OverallTrustScore,
		)
		return &evidence.Ack{ReportID: stored.ID, FileID: stored.FileID, Created: true, StoredAt: now}, nil
	}

	existing, err := s.load(ctx, s.stmts["select_file_id"], stored.FileID)
	if err != nil {
		return nil, err
	}
	return &evidence.Ack{ReportID: existing.ID, FileID: existing.FileID, Created: false, StoredAt: existing.CreatedAt}, nil
}

// Get returns a report by ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*evidence.VerificationReport, error) {
	return s.load(ctx, s.stmts["select_id"], id)
}

// GetByFileID returns the report produced for an evidence item.
func (s *SQLiteStorage) GetByFileID(ctx context.Context, fileID string) (*evidence.VerificationReport, error) {
	return s.load(ctx, s.stmts["select_file_id"], fileID)
}

func (s *SQLiteStorage) load(ctx context.Context, stmt *sql.Stmt, key string) (*evidence.VerificationReport, error) {
	var body string
	err := stmt.QueryRowContext(ctx, key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, evidence.NewNotFoundError("report", key)
	}
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "get", err)
	}

	var report evidence.VerificationReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, evidence.NewStorageError("sqlite", "get", fmt.Errorf("failed to unmarshal report: %w", err))
	}
	return &report, nil
}

// Endorse applies fn to the stored report inside a single transaction.
func (s *SQLiteStorage) Endorse(ctx context.Context, id string, fn func(*evidence.VerificationReport) error) (*evidence.VerificationReport, error) {
	return s.update(ctx, "endorse", id, func(report *evidence.VerificationReport) error {
		before := cloneReport(report)
		if err := fn(report); err != nil {
			return err
		}
		return checkEndorsement(before, report)
	})
}

// SetAnchor records the anchor transaction for a report.
func (s *SQLiteStorage) SetAnchor(ctx context.Context, id string, transactionID string) error {
	_, err := s.update(ctx, "set_anchor", id, func(report *evidence.VerificationReport) error {
		report.AnchorTransactionID = transactionID
		return nil
	})
	return err
}

// update performs a read-modify-write of one report.
// Errors returned by fn are passed through unwrapped.
func (s *SQLiteStorage) update(ctx context.Context, op, id string, fn func(*evidence.VerificationReport) error) (*evidence.VerificationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", op, err)
	}
	defer tx.Rollback()

	report, err := s.load(ctx, tx.StmtContext(ctx, s.stmts["select_id"]), id)
	if err != nil {
		return nil, err
	}

	if err := fn(report); err != nil {
		return nil, err
	}
	report.OverallTrustScore = evidence.ClampScore(report.OverallTrustScore)
	report.UpdatedAt = s.now().UTC()

	body, err := json.Marshal(report)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", op, fmt.Errorf("failed to marshal report: %w", err))
	}

	_, err = tx.ExecContext(ctx, updateReport,
		string(body), report.OverallTrustScore, string(report.VerificationStatus),
		len(report.CoSignatures), report.AnchorTransactionID,
		report.UpdatedAt.Format(timeLayout), report.ID,
	)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, evidence.NewStorageError("sqlite", op, err)
	}

	return report, nil
}

// List retrieves reports matching the query, newest first.
func (s *SQLiteStorage) List(ctx context.Context, query *evidence.ReportQuery) ([]*evidence.VerificationReport, error) {
	sqlQuery, args := s.buildQuery(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	reports := []*evidence.VerificationReport{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "list", err)
	}

	return reports, nil
}

// ListStream returns a channel of reports for memory-efficient export.
// The channels will be closed when the query completes or errors.
func (s *SQLiteStorage) ListStream(ctx context.Context, query *evidence.ReportQuery) (<-chan *evidence.VerificationReport, <-chan error, error) {
	reportsCh := make(chan *evidence.VerificationReport, 100)
	errCh := make(chan error, 1)

	sqlQuery, args := s.buildQuery(query)

	go func() {
		defer close(reportsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- evidence.NewStorageError("sqlite", "list_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			report, err := scanReport(rows)
			if err != nil {
				errCh <- evidence.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case reportsCh <- report:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- evidence.NewStorageError("sqlite", "list_stream", err)
		}
	}()

	return reportsCh, errCh, nil
}

// Count returns the number of stored reports.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.stmts["count"].QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return evidence.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	for _, stmt := range s.stmts {
		stmt.Close()
	}
	s.stmts = make(map[string]*sql.Stmt)
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("SQLite report storage closed")
	return nil
}

// buildQuery builds the SELECT for List and ListStream.
func (s *SQLiteStorage) buildQuery(query *evidence.ReportQuery) (string, []interface{}) {
	if query == nil {
		query = &evidence.ReportQuery{}
	}

	var conditions []string
	var args []interface{}

	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(query.Status))
	}
	if query.MinScore != nil {
		conditions = append(conditions, "trust_score >= ?")
		args = append(args, *query.MinScore)
	}
	if query.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, query.Since.UTC().Format(timeLayout))
	}

	sqlQuery := "SELECT body FROM reports"
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlQuery += " ORDER BY created_at DESC, id ASC"

	limit := defaultLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	return sqlQuery, args
}

func scanReport(rows *sql.Rows) (*evidence.VerificationReport, error) {
	var body string
	if err := rows.Scan(&body); err != nil {
		return nil, err
	}
	var report evidence.VerificationReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}
