// Package storage provides the remote store for verification reports.
//
// # Storage Backends
//
// Two implementations of evidence.ReportStore are provided:
//
//   - SQLiteStorage: embedded database (mattn/go-sqlite3) for single-node deployments
//   - MemoryStorage: in-memory storage for testing
//
// # Idempotency
//
// A report is created at most once per FileID. Upserting a second report for
// the same item returns an Ack for the existing report with Created=false, so
// a sync cycle that crashed after persisting can safely retry.
//
// # Endorsements
//
// Endorse runs a read-modify-write inside one transaction. The callback may
// append co-signatures and adjust the trust score and status; removing or
// reordering existing co-signatures is rejected. The trust score is clamped to
// [0,100] before every write.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/reports.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	ack, err := store.Upsert(ctx, report)
//
// # Thread Safety
//
// Both backends are safe for concurrent use. Writers are serialized; WAL mode
// lets readers proceed alongside them.
package storage
