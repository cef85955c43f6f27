// Package anchor records proof-of-existence receipts for persisted reports.
//
// Two backends are provided: Journal, a local hash-chained JSON-lines file
// that is fsynced on every append, and HTTPAnchor, which posts the file hash
// to a remote timestamping service. Anchoring is best effort; callers log a
// failure and keep the report.
package anchor
