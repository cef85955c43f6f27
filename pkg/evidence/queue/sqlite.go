package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/vesta/pkg/evidence"
)

const backendSQLite = "sqlite"

var _ evidence.Queue = (*SQLiteQueue)(nil)

// SQLiteConfig contains configuration for the SQLite queue.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// OpTimeout bounds every read and write against the queue.
	// Default: 10 seconds
	OpTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration
}

// DefaultSQLiteConfig returns the default queue configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:               "data/queue.db",
		BusyTimeout:        5 * time.Second,
		OpTimeout:          10 * time.Second,
		CheckpointInterval: 5 * time.Minute,
	}
}

// SQLiteQueue implements evidence.Queue on SQLite.
//
// Writes run with synchronous=FULL so a committed enqueue survives a crash
// immediately after it returns. The connection pool holds a single connection
// because SQLite supports one writer.
type SQLiteQueue struct {
	db        *sql.DB
	config    *SQLiteConfig
	mu        sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	logger    *slog.Logger
	now       func() time.Time
}

// Open opens (or creates) the queue database. Items left in syncing by a
// previous process are stale and reset to pending.
func Open(config *SQLiteConfig) (*SQLiteQueue, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, evidence.NewStorageError(backendSQLite, "open", errors.New("db path cannot be empty"))
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	if config.OpTimeout == 0 {
		config.OpTimeout = 10 * time.Second
	}
	if config.CheckpointInterval == 0 {
		config.CheckpointInterval = 5 * time.Minute
	}

	logger := slog.Default().With("component", "evidence.queue.sqlite")

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "open", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	q := &SQLiteQueue{
		db:     db,
		config: config,
		done:   make(chan struct{}),
		logger: logger,
		now:    time.Now,
	}

	if err := q.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	reset, err := q.resetStale()
	if err != nil {
		db.Close()
		return nil, err
	}

	go q.checkpointLoop()

	logger.Info("evidence queue opened",
		"path", config.Path,
		"stale_reset", reset,
	)

	return q, nil
}

// initialize applies pragmas and creates the schema.
func (q *SQLiteQueue) initialize() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		fmt.Sprintf("PRAGMA busy_timeout=%d;", q.config.BusyTimeout.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, err := q.db.Exec(pragma); err != nil {
			return evidence.NewStorageError(backendSQLite, "pragma", err)
		}
	}

	if err := q.migrate(); err != nil {
		return err
	}
	if _, err := q.db.Exec(Schema); err != nil {
		return evidence.NewStorageError(backendSQLite, "create_schema", err)
	}
	if _, err := q.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError(backendSQLite, "insert_schema_version", err)
	}

	var version int
	err := q.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return evidence.NewStorageError(backendSQLite, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError(backendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// migrate upgrades an existing database to SchemaVersion. A fresh database
// has no schema_version table and is left to the Schema statements.
func (q *SQLiteQueue) migrate() error {
	var tables int
	err := q.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`).Scan(&tables)
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "migrate", err)
	}
	if tables == 0 {
		return nil
	}

	var version int
	err = q.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "migrate", err)
	}

	for ; version < SchemaVersion; version++ {
		stmt, ok := migrations[version]
		if !ok {
			return evidence.NewStorageError(backendSQLite, "migrate",
				fmt.Errorf("no migration from schema version %d", version))
		}
		if _, err := q.db.Exec(stmt); err != nil {
			return evidence.NewStorageError(backendSQLite, "migrate",
				fmt.Errorf("schema version %d: %w", version, err))
		}
		if _, err := q.db.Exec(InsertSchemaVersion, version+1); err != nil {
			return evidence.NewStorageError(backendSQLite, "migrate", err)
		}
		q.logger.Info("queue schema migrated", "from", version, "to", version+1)
	}
	return nil
}

// resetStale returns items abandoned mid-sync to pending.
func (q *SQLiteQueue) resetStale() (int64, error) {
	result, err := q.db.Exec(
		`UPDATE evidence_items SET status = ?, updated_at = ? WHERE status = ?`,
		string(evidence.StatusPending), formatTime(q.now()), string(evidence.StatusSyncing),
	)
	if err != nil {
		return 0, evidence.NewStorageError(backendSQLite, "reset_stale", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		q.logger.Warn("reset stale syncing items to pending", "count", n)
	}
	return n, nil
}

// Enqueue persists a new pending item.
func (q *SQLiteQueue) Enqueue(ctx context.Context, payload []byte, metadata evidence.ItemMetadata) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, q.config.OpTimeout)
	defer cancel()

	if len(payload) == 0 {
		return "", evidence.ErrEmptyPayload
	}
	if metadata.FileSize == 0 {
		metadata.FileSize = int64(len(payload))
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", evidence.NewStorageError(backendSQLite, "enqueue", fmt.Errorf("failed to marshal metadata: %w", err))
	}

	id := uuid.New().String()
	now := formatTime(q.now())

	q.mu.Lock()
	defer q.mu.Unlock()

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO evidence_items (id, payload, metadata, status, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`, id, payload, string(metadataJSON), string(evidence.StatusPending), now, now)
	if err != nil {
		return "", evidence.NewStorageError(backendSQLite, "enqueue", err)
	}

	q.logger.Debug("evidence item enqueued",
		"item_id", id,
		"file_name", metadata.FileName,
		"file_type", metadata.FileType,
		"size_bytes", len(payload),
	)

	return id, nil
}

const itemColumns = `id, payload, metadata, status, retry_count, last_error, next_attempt_at, created_at, updated_at`

// Get returns a single item.
func (q *SQLiteQueue) Get(ctx context.Context, id string) (*evidence.EvidenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, q.config.OpTimeout)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()

	row := q.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM evidence_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, evidence.NewNotFoundError("item", id)
	}
	if err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "get", err)
	}
	return item, nil
}

// List returns items in creation order, optionally filtered by status.
func (q *SQLiteQueue) List(ctx context.Context, statuses ...evidence.ItemStatus) ([]*evidence.EvidenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, q.config.OpTimeout)
	defer cancel()

	query := `SELECT ` + itemColumns + ` FROM evidence_items`
	args := make([]interface{}, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at ASC, seq ASC"

	q.mu.Lock()
	defer q.mu.Unlock()

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "list", err)
	}
	defer rows.Close()

	items := []*evidence.EvidenceItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, evidence.NewStorageError(backendSQLite, "scan", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "list", err)
	}

	return items, nil
}

// Transition moves an item to a new status.
func (q *SQLiteQueue) Transition(ctx context.Context, id string, to evidence.ItemStatus) error {
	return q.transition(ctx, id, to, "", time.Time{})
}

// Fail moves a syncing item to failed and increments its retry count.
func (q *SQLiteQueue) Fail(ctx context.Context, id string, cause string, nextAttempt time.Time) error {
	return q.transition(ctx, id, evidence.StatusFailed, cause, nextAttempt)
}

// transition performs a compare-and-swap status update inside a transaction.
// The WHERE clause on the observed status is the per-item ownership check: of
// two concurrent claims only one updates a row.
func (q *SQLiteQueue) transition(ctx context.Context, id string, to evidence.ItemStatus, cause string, nextAttempt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, q.config.OpTimeout)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "transition", err)
	}
	defer tx.Rollback()

	var from string
	err = tx.QueryRowContext(ctx, `SELECT status FROM evidence_items WHERE id = ?`, id).Scan(&from)
	if err == sql.ErrNoRows {
		return evidence.NewNotFoundError("item", id)
	}
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "transition", err)
	}

	if !evidence.CanTransition(evidence.ItemStatus(from), to) {
		return evidence.NewInvalidStateError("item", id, from, string(to))
	}

	now := formatTime(q.now())
	var result sql.Result
	if to == evidence.StatusFailed {
		result, err = tx.ExecContext(ctx, `
			UPDATE evidence_items
			SET status = ?, retry_count = retry_count + 1, last_error = ?, next_attempt_at = ?, updated_at = ?
			WHERE id = ? AND status = ?
		`, string(to), cause, formatOptionalTime(nextAttempt), now, id, from)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE evidence_items SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?
		`, string(to), now, id, from)
	}
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "transition", err)
	}
	if n, _ := result.RowsAffected(); n != 1 {
		return evidence.NewInvalidStateError("item", id, from, string(to))
	}

	if err := tx.Commit(); err != nil {
		return evidence.NewStorageError(backendSQLite, "transition", err)
	}

	q.logger.Debug("evidence item transitioned",
		"item_id", id,
		"from", from,
		"to", to,
	)
	return nil
}

// Remove deletes a synced item.
func (q *SQLiteQueue) Remove(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, q.config.OpTimeout)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()

	var status string
	err := q.db.QueryRowContext(ctx, `SELECT status FROM evidence_items WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return evidence.NewNotFoundError("item", id)
	}
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "remove", err)
	}
	if evidence.ItemStatus(status) != evidence.StatusSynced {
		return evidence.NewInvalidStateError("item", id, status, "removed")
	}

	if _, err := q.db.ExecContext(ctx, `DELETE FROM evidence_items WHERE id = ? AND status = ?`, id, status); err != nil {
		return evidence.NewStorageError(backendSQLite, "remove", err)
	}
	return nil
}

// EnqueueMemo persists a new pending voice memo.
func (q *SQLiteQueue) EnqueueMemo(ctx context.Context, audio []byte, threadID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, q.config.OpTimeout)
	defer cancel()

	if audio == nil {
		audio = []byte{}
	}
	id := uuid.New().String()

	q.mu.Lock()
	defer q.mu.Unlock()

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO voice_memos (id, audio, thread_id, status, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, id, audio, threadID, string(evidence.MemoPending), formatTime(q.now()))
	if err != nil {
		return "", evidence.NewStorageError(backendSQLite, "enqueue_memo", err)
	}
	return id, nil
}

// ListMemos returns memos in timestamp order, optionally filtered by status.
func (q *SQLiteQueue) ListMemos(ctx context.Context, statuses ...evidence.MemoStatus) ([]*evidence.VoiceMemo, error) {
	ctx, cancel := context.WithTimeout(ctx, q.config.OpTimeout)
	defer cancel()

	query := `SELECT id, audio, thread_id, transcription, ai_enhanced, status, timestamp, retry_count, next_attempt_at FROM voice_memos`
	args := make([]interface{}, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY timestamp ASC, seq ASC"

	q.mu.Lock()
	defer q.mu.Unlock()

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "list_memos", err)
	}
	defer rows.Close()

	memos := []*evidence.VoiceMemo{}
	for rows.Next() {
		var (
			memo          evidence.VoiceMemo
			status        string
			timestamp     string
			nextAttemptAt string
		)
		if err := rows.Scan(&memo.ID, &memo.Audio, &memo.ThreadID, &memo.Transcription, &memo.AIEnhanced,
			&status, &timestamp, &memo.RetryCount, &nextAttemptAt); err != nil {
			return nil, evidence.NewStorageError(backendSQLite, "scan", err)
		}
		memo.Status = evidence.MemoStatus(status)
		if memo.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, evidence.NewStorageError(backendSQLite, "scan", err)
		}
		if nextAttemptAt != "" {
			if memo.NextAttemptAt, err = parseTime(nextAttemptAt); err != nil {
				return nil, evidence.NewStorageError(backendSQLite, "scan", err)
			}
		}
		memos = append(memos, &memo)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError(backendSQLite, "list_memos", err)
	}
	return memos, nil
}

// CompleteMemo stores a memo's transcription and marks it processed.
func (q *SQLiteQueue) CompleteMemo(ctx context.Context, id, transcription, enhanced string) error {
	return q.transitionMemo(ctx, id, evidence.MemoProcessed, `
		UPDATE voice_memos SET status = ?, transcription = ?, ai_enhanced = ?, next_attempt_at = ''
		WHERE id = ? AND status = ?
	`, string(evidence.MemoProcessed), transcription, enhanced)
}

// FailMemo marks a memo failed and schedules its next attempt.
func (q *SQLiteQueue) FailMemo(ctx context.Context, id string, nextAttempt time.Time) error {
	return q.transitionMemo(ctx, id, evidence.MemoFailed, `
		UPDATE voice_memos SET status = ?, transcription = '', ai_enhanced = '',
			retry_count = retry_count + 1, next_attempt_at = ?
		WHERE id = ? AND status = ?
	`, string(evidence.MemoFailed), formatOptionalTime(nextAttempt))
}

// transitionMemo runs update with args followed by id and the current status
// once the transition is allowed.
func (q *SQLiteQueue) transitionMemo(ctx context.Context, id string, to evidence.MemoStatus, update string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, q.config.OpTimeout)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "transition_memo", err)
	}
	defer tx.Rollback()

	var from string
	err = tx.QueryRowContext(ctx, `SELECT status FROM voice_memos WHERE id = ?`, id).Scan(&from)
	if err == sql.ErrNoRows {
		return evidence.NewNotFoundError("memo", id)
	}
	if err != nil {
		return evidence.NewStorageError(backendSQLite, "transition_memo", err)
	}
	if !evidence.CanTransitionMemo(evidence.MemoStatus(from), to) {
		return evidence.NewInvalidStateError("memo", id, from, string(to))
	}

	args = append(args, id, from)
	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return evidence.NewStorageError(backendSQLite, "transition_memo", err)
	}

	if err := tx.Commit(); err != nil {
		return evidence.NewStorageError(backendSQLite, "transition_memo", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (q *SQLiteQueue) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return evidence.NewStorageError(backendSQLite, "ping", err)
	}
	return nil
}

// Close releases any resources held by the queue.
// Close is idempotent and safe to call multiple times.
func (q *SQLiteQueue) Close() error {
	var closeErr error

	q.closeOnce.Do(func() {
		close(q.done)

		q.mu.Lock()
		defer q.mu.Unlock()

		_, _ = q.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		if err := q.db.Close(); err != nil {
			closeErr = evidence.NewStorageError(backendSQLite, "close", err)
			return
		}
		q.logger.Info("evidence queue closed")
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (q *SQLiteQueue) checkpointLoop() {
	ticker := time.NewTicker(q.config.CheckpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.mu.Lock()
			_, _ = q.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
			q.mu.Unlock()
		case <-q.done:
			return
		}
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*evidence.EvidenceItem, error) {
	var (
		item          evidence.EvidenceItem
		metadataJSON  string
		status        string
		nextAttemptAt string
		createdAt     string
		updatedAt     string
	)

	err := row.Scan(
		&item.ID, &item.Payload, &metadataJSON, &status, &item.RetryCount,
		&item.LastError, &nextAttemptAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Status = evidence.ItemStatus(status)
	if err := json.Unmarshal([]byte(metadataJSON), &item.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if nextAttemptAt != "" {
		if item.NextAttemptAt, err = parseTime(nextAttemptAt); err != nil {
			return nil, err
		}
	}

	return &item, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return formatTime(t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
