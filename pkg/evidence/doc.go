// Package evidence defines the data model shared by the offline evidence queue,
// the verification pipeline, the sync orchestrator and the co-signature ledger.
//
// # Architecture
//
// Evidence moves through four stages:
//
//  1. Capture - media is enqueued on-device (Queue) with status pending
//  2. Sync - when connectivity is available, the orchestrator claims items in
//     creation order and runs them through the verification pipeline
//  3. Persist - the trust-scored VerificationReport is upserted into the
//     ReportStore and anchored for proof of existence
//  4. Endorse - organizations co-sign reports, raising their trust score
//
// # Item Lifecycle
//
// Items follow a strict state machine:
//
//	pending ──► syncing ──► synced (terminal, item removed)
//	               │  ▲
//	               ▼  │
//	             failed
//
// Any other transition returns an InvalidStateError. RetryCount grows by one on
// every failure and is never reset.
//
// # Media Kinds
//
// MIME types are mapped once, at the boundary, into the closed MediaKind set
// {Image, Audio, Video, Text}. Analyzer applicability is decided by an
// exhaustive switch over MediaKind rather than string comparisons.
//
// # Errors
//
// The package exports typed errors (StorageError, InvalidStateError,
// AnalyzerUnavailableError, SyncInProgressError, NotFoundError). Each matches a
// sentinel with errors.Is:
//
//	if errors.Is(err, evidence.ErrInvalidState) {
//	    // programming error: report loudly
//	}
//
// # Storage Backends
//
// Queue implementations live in package queue (SQLite and in-memory).
// ReportStore implementations live in package storage (SQLite and in-memory).
package evidence
