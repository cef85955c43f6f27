package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/vesta/pkg/analyzers"
	"mercator-hq/vesta/pkg/anchor"
	"mercator-hq/vesta/pkg/connectivity"
	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/telemetry/logging"
	"mercator-hq/vesta/pkg/telemetry/tracing"
)

// Item outcomes reported to the Recorder.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Verifier produces a verification report for one item.
type Verifier interface {
	Analyze(ctx context.Context, item *evidence.EvidenceItem) (*evidence.VerificationReport, error)
}

// Recorder receives sync measurements. A nil Recorder disables recording.
type Recorder interface {
	RecordSyncItem(outcome string, duration time.Duration)
	RecordSyncBatch(completed, failed, skipped int, duration time.Duration)
}

// Progress is reported after every processed item. Total counts only the
// items attempted this cycle, BatchResult.Total minus Skipped, so that
// Completed reaches Total when every attempt succeeds.
type Progress struct {
	Total     int      `json:"total"`
	Completed int      `json:"completed"`
	Current   string   `json:"current,omitempty"`
	Errors    []string `json:"errors"`
}

// ProgressFunc receives progress updates. It is called synchronously from
// the sync goroutine and must not block.
type ProgressFunc func(Progress)

// BatchResult summarizes one sync cycle.
// Total = Completed + Failed + Skipped + Remaining.
type BatchResult struct {
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Remaining int           `json:"remaining"`
	Errors    []string      `json:"errors"`
	Duration  time.Duration `json:"duration"`

	MemosProcessed int `json:"memos_processed"`
	MemosFailed    int `json:"memos_failed"`
	MemosSkipped   int `json:"memos_skipped"`
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Queue        evidence.Queue
	Verifier     Verifier
	Store        evidence.ReportStore
	Connectivity connectivity.Checker

	// Anchor is optional; nil disables anchoring.
	Anchor anchor.Anchor

	// Transcriber and Content process voice memos. Nil disables memo processing.
	Transcriber analyzers.Transcriber
	Content     analyzers.ContentAnalyzer

	// Recorder is optional.
	Recorder Recorder
}

// Orchestrator drains the evidence queue against the remote store. At most
// one batch runs at a time; items are processed one at a time in FIFO order.
type Orchestrator struct {
	deps   Deps
	config *Config
	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time

	running   sync.Mutex
	stateMu   sync.Mutex
	startedAt time.Time
}

// New creates an orchestrator.
func New(deps Deps, config *Config) (*Orchestrator, error) {
	if deps.Queue == nil || deps.Verifier == nil || deps.Store == nil {
		return nil, errors.New("orchestrator requires a queue, a verifier and a store")
	}
	if deps.Connectivity == nil {
		deps.Connectivity = connectivity.Static(true)
	}
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid sync config: %w", err)
	}

	return &Orchestrator{
		deps:   deps,
		config: &cfg,
		tracer: otel.Tracer("vesta/syncer"),
		logger: slog.Default().With("component", "syncer"),
		now:    time.Now,
	}, nil
}

// Running reports whether a batch is in progress.
func (o *Orchestrator) Running() bool {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return !o.startedAt.IsZero()
}

// Start runs one sync cycle. A concurrent call returns SyncInProgressError
// without touching any item. Per-item failures are recorded in the result,
// never returned; only a failure to list the queue aborts the batch.
func (o *Orchestrator) Start(ctx context.Context, progress ProgressFunc) (*BatchResult, error) {
	if !o.running.TryLock() {
		o.stateMu.Lock()
		started := o.startedAt
		o.stateMu.Unlock()
		return nil, &evidence.SyncInProgressError{StartedAt: started}
	}
	defer o.running.Unlock()

	start := o.now()
	o.stateMu.Lock()
	o.startedAt = start
	o.stateMu.Unlock()
	defer func() {
		o.stateMu.Lock()
		o.startedAt = time.Time{}
		o.stateMu.Unlock()
	}()

	ctx = logging.WithBatchID(ctx, uuid.NewString())
	ctx, span := o.tracer.Start(ctx, tracing.SpanSyncBatch)
	defer span.End()

	result := &BatchResult{Errors: []string{}}

	items, err := o.listCandidates(ctx)
	if err != nil {
		tracing.SetError(span, err, "list queue failed")
		return nil, err
	}
	result.Total = len(items)

	eligible := make([]*evidence.EvidenceItem, 0, len(items))
	for _, item := range items {
		if reason := o.skipReason(item, start); reason != "" {
			result.Skipped++
			o.record(OutcomeSkipped, 0)
			o.logger.Debug("item skipped", "item_id", item.ID, "reason", reason, "retry_count", item.RetryCount)
			continue
		}
		eligible = append(eligible, item)
	}

	o.logger.InfoContext(ctx, "sync batch started",
		"total", result.Total,
		"eligible", len(eligible),
		"skipped", result.Skipped,
	)

	online := true
	for i, item := range eligible {
		if ctx.Err() != nil || !o.deps.Connectivity.Online(ctx) {
			online = false
			result.Remaining = len(eligible) - i
			o.logger.WarnContext(ctx, "connectivity lost, stopping batch", "remaining", result.Remaining)
			break
		}

		itemStart := time.Now()
		if err := o.syncItem(ctx, item); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Label(), err))
			o.record(OutcomeFailed, time.Since(itemStart))
		} else {
			result.Completed++
			o.record(OutcomeCompleted, time.Since(itemStart))
		}

		if progress != nil {
			progress(Progress{
				Total:     len(eligible),
				Completed: result.Completed,
				Current:   item.Label(),
				Errors:    append([]string(nil), result.Errors...),
			})
		}
	}

	if online && o.deps.Transcriber != nil && o.deps.Content != nil {
		o.processMemos(ctx, result)
	}

	result.Duration = o.now().Sub(start)
	if o.deps.Recorder != nil {
		o.deps.Recorder.RecordSyncBatch(result.Completed, result.Failed, result.Skipped, result.Duration)
	}
	tracing.SetBatchAttributes(span, result.Total, result.Completed, result.Failed, result.Skipped, result.Remaining)

	o.logger.InfoContext(ctx, "sync batch complete",
		"total", result.Total,
		"completed", result.Completed,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"remaining", result.Remaining,
		"memos_processed", result.MemosProcessed,
		"memos_failed", result.MemosFailed,
		"memos_skipped", result.MemosSkipped,
		"duration", result.Duration,
	)
	return result, nil
}

func (o *Orchestrator) listCandidates(ctx context.Context) ([]*evidence.EvidenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.OpTimeout)
	defer cancel()

	items, err := o.deps.Queue.List(ctx, evidence.StatusPending, evidence.StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	return items, nil
}

// skipReason returns why an item is not attempted this cycle, or "".
func (o *Orchestrator) skipReason(item *evidence.EvidenceItem, now time.Time) string {
	if item.Status != evidence.StatusFailed {
		return ""
	}
	return o.retryGate(item.RetryCount, item.NextAttemptAt, now)
}

// retryGate applies the MaxRetries ceiling and the backoff window to a
// failed record.
func (o *Orchestrator) retryGate(retryCount int, nextAttempt, now time.Time) string {
	if retryCount >= o.config.MaxRetries {
		return "max retries reached"
	}
	if !nextAttempt.IsZero() && nextAttempt.After(now) {
		return "backoff"
	}
	return ""
}

// syncItem claims, verifies, persists and removes one item. On failure after
// the claim the item is moved to failed with its next attempt scheduled.
func (o *Orchestrator) syncItem(ctx context.Context, item *evidence.EvidenceItem) error {
	ctx, span := o.tracer.Start(ctx, tracing.SpanSyncItem,
		trace.WithAttributes(tracing.ItemAttributes(item.ID, item.Kind().String(), item.RetryCount)...))
	defer span.End()

	logger := o.logger.With("item_id", item.ID)

	if err := o.transition(ctx, item.ID, evidence.StatusSyncing); err != nil {
		tracing.SetError(span, err, "claim failed")
		logger.ErrorContext(ctx, "failed to claim item", "error", err)
		return err
	}

	err := o.process(ctx, item, logger)
	if err == nil {
		return nil
	}

	tracing.SetError(span, err, "item sync failed")
	retry := item.RetryCount + 1
	next := o.now().Add(o.config.RetryDelay(retry))

	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.OpTimeout)
	defer cancel()
	if failErr := o.deps.Queue.Fail(failCtx, item.ID, err.Error(), next); failErr != nil {
		logger.ErrorContext(ctx, "failed to record item failure", "error", failErr, "cause", err)
		return errors.Join(err, failErr)
	}

	logger.WarnContext(ctx, "item sync failed",
		"error", err,
		"retry_count", retry,
		"next_attempt_at", next,
	)
	return err
}

func (o *Orchestrator) process(ctx context.Context, item *evidence.EvidenceItem, logger *slog.Logger) error {
	report, err := o.deps.Verifier.Analyze(ctx, item)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	ack, err := o.upsert(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to persist report: %w", err)
	}

	if ack.Created {
		o.anchor(ctx, ack.ReportID, report, logger)
	} else {
		logger.Info("report already persisted", "report_id", ack.ReportID)
	}

	if err := o.transition(ctx, item.ID, evidence.StatusSynced); err != nil {
		return err
	}

	removeCtx, cancel := context.WithTimeout(ctx, o.config.OpTimeout)
	defer cancel()
	if err := o.deps.Queue.Remove(removeCtx, item.ID); err != nil {
		// The item is synced and will not be listed again.
		logger.Warn("failed to remove synced item", "error", err)
	}

	logger.InfoContext(ctx, "item synced",
		"report_id", ack.ReportID,
		"trust_score", report.OverallTrustScore,
		"status", report.VerificationStatus,
	)
	return nil
}

// upsert writes the report, retrying storage errors with exponential backoff
// inside UpsertTimeout.
func (o *Orchestrator) upsert(ctx context.Context, report *evidence.VerificationReport) (*evidence.Ack, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.UpsertTimeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, func() (*evidence.Ack, error) {
		ack, err := o.deps.Store.Upsert(ctx, report)
		if err != nil {
			if errors.Is(err, evidence.ErrStorage) {
				o.logger.Warn("report upsert failed, will retry", "file_id", report.FileID, "error", err)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return ack, nil
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(o.config.UpsertTimeout),
	)
}

// anchor records proof of existence for a persisted report. Failures are
// logged and never fail the item.
func (o *Orchestrator) anchor(ctx context.Context, reportID string, report *evidence.VerificationReport, logger *slog.Logger) {
	if o.deps.Anchor == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.AnchorTimeout)
	defer cancel()

	receipt, err := o.deps.Anchor.Anchor(ctx, anchor.Request{
		ReportID: reportID,
		FileHash: report.Metadata.FileHash,
		Metadata: map[string]string{
			"file_id":   report.FileID,
			"file_type": report.Metadata.FileType,
		},
	})
	if err != nil {
		logger.Warn("anchoring failed", "report_id", reportID, "anchor", o.deps.Anchor.Name(), "error", err)
		return
	}

	if err := o.deps.Store.SetAnchor(ctx, reportID, receipt.TransactionID); err != nil {
		logger.Warn("failed to record anchor", "report_id", reportID, "transaction_id", receipt.TransactionID, "error", err)
		return
	}
	tracing.AddEvent(trace.SpanFromContext(ctx), "report.anchored",
		tracing.AttrReportID.String(reportID),
		tracing.AttrAnchorTransaction.String(receipt.TransactionID),
	)
	logger.DebugContext(ctx, "report anchored", "report_id", reportID, "transaction_id", receipt.TransactionID)
}

func (o *Orchestrator) transition(ctx context.Context, id string, to evidence.ItemStatus) error {
	ctx, cancel := context.WithTimeout(ctx, o.config.OpTimeout)
	defer cancel()
	return o.deps.Queue.Transition(ctx, id, to)
}

func (o *Orchestrator) record(outcome string, d time.Duration) {
	if o.deps.Recorder != nil {
		o.deps.Recorder.RecordSyncItem(outcome, d)
	}
}
