package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the report database schema.
//
// The report body is stored as JSON; the columns beside it exist for
// filtering and uniqueness.
const Schema = `
-- Verification reports
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    file_id TEXT NOT NULL UNIQUE,
    body TEXT NOT NULL,
    trust_score INTEGER NOT NULL,
    status TEXT NOT NULL,
    cosignature_count INTEGER NOT NULL DEFAULT 0,
    anchor_tx TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_trust_score ON reports(trust_score);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const (
	insertReport = `
INSERT INTO reports (id, file_id, body, trust_score, status, cosignature_count, anchor_tx, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file_id) DO NOTHING;
`
	updateReport = `
UPDATE reports
SET body = ?, trust_score = ?, status = ?, cosignature_count = ?, anchor_tx = ?, updated_at = ?
WHERE id = ?;
`
	selectReportByID     = `SELECT body FROM reports WHERE id = ?;`
	selectReportByFileID = `SELECT body FROM reports WHERE file_id = ?;`
	countReports         = `SELECT COUNT(*) FROM reports;`
)

// timeLayout is fixed-width UTC so TEXT columns compare chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
