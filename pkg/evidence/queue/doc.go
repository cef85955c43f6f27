// Package queue provides the durable on-device evidence queue.
//
// Two implementations of evidence.Queue are provided:
//
//   - SQLiteQueue - production backend on modernc.org/sqlite (pure Go, no cgo)
//     with WAL journaling and synchronous=FULL
//   - MemoryQueue - in-memory backend for tests
//
// # Ordering
//
// List returns items by CreatedAt ascending. Items created in the same instant
// are ordered by insertion sequence, so draining the queue is FIFO.
//
// # Transitions
//
// Status changes are compare-and-swap updates on the observed status:
//
//	UPDATE evidence_items SET status = 'syncing' WHERE id = ? AND status = 'pending'
//
// A transition the state machine forbids returns evidence.InvalidStateError and
// leaves the record unchanged. Entering failed always goes through Fail, which
// increments RetryCount in the same statement.
//
// # Recovery
//
// Opening a SQLite queue resets items left in syncing by a crashed process back
// to pending.
package queue

import "errors"

var errQueueClosed = errors.New("queue is closed")
