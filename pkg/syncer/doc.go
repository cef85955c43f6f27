// Package syncer drains the evidence queue when connectivity is available.
//
// Each call to Orchestrator.Start runs one batch:
//
//  1. List pending and failed items, oldest first.
//  2. Skip failed items that are parked (RetryCount >= MaxRetries) or still
//     inside their backoff window.
//  3. For each remaining item, check connectivity, claim it (syncing), run the
//     verifier, upsert the report, anchor it, mark it synced and remove it.
//  4. Process pending and failed voice memos.
//
// A failure after the claim moves the item to failed, increments its retry
// count and schedules the next attempt at now + min(base*2^(n-1), max). The
// batch always continues with the next item.
//
// Only one batch runs at a time. A concurrent Start returns
// SyncInProgressError immediately.
package syncer
