package queue

// SchemaVersion is the current queue schema version.
const SchemaVersion = 2

// Schema contains the SQL statements that create the queue database.
const Schema = `
-- Captured evidence awaiting verification
CREATE TABLE IF NOT EXISTS evidence_items (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    payload BLOB NOT NULL,
    metadata TEXT NOT NULL,
    status TEXT NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    next_attempt_at TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- Voice memos attached to chat threads
CREATE TABLE IF NOT EXISTS voice_memos (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    audio BLOB NOT NULL,
    thread_id TEXT NOT NULL,
    transcription TEXT NOT NULL DEFAULT '',
    ai_enhanced TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    next_attempt_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_status ON evidence_items(status);
CREATE INDEX IF NOT EXISTS idx_items_created_at ON evidence_items(created_at, seq);
CREATE INDEX IF NOT EXISTS idx_memos_status ON voice_memos(status);
`

// migrations upgrade a database created at the keyed version to the next one.
var migrations = map[int]string{
	1: `
ALTER TABLE voice_memos ADD COLUMN retry_count INTEGER NOT NULL DEFAULT 0;
ALTER TABLE voice_memos ADD COLUMN next_attempt_at TEXT NOT NULL DEFAULT '';
`,
}

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// timeLayout is a fixed-width UTC layout so that TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
