package store

import (
	"database/sql"
	"fmt"
)

// schemaSQL creates every table, the FTS5 virtual table, and the triggers
// that keep the inverted index synchronized with the chunks table. Run once
// per connection; every statement is idempotent (CREATE ... IF NOT EXISTS).
const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS collections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	folder_path TEXT,
	file_count INTEGER NOT NULL DEFAULT 0,
	last_sync INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
	path TEXT NOT NULL,
	hash TEXT NOT NULL,
	last_modified INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'normal',
	UNIQUE(collection_id, path)
);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	metadata TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	embedding BLOB,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
CREATE INDEX IF NOT EXISTS idx_documents_collection_id ON documents(collection_id);

CREATE TABLE IF NOT EXISTS kv_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

-- Inverted index over chunk content+metadata, stemmed (porter) and
-- unicode-aware. Kept in sync with chunks via triggers below, never
-- written to directly.
CREATE VIRTUAL TABLE IF NOT EXISTS fts_chunks USING fts5(
	chunk_id UNINDEXED,
	content,
	header_stack,
	tokenize = 'porter unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
	INSERT INTO fts_chunks(chunk_id, content, header_stack)
	VALUES (new.id, new.content, new.metadata);
END;

CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
	DELETE FROM fts_chunks WHERE chunk_id = old.id;
END;

CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
	DELETE FROM fts_chunks WHERE chunk_id = old.id;
	INSERT INTO fts_chunks(chunk_id, content, header_stack)
	VALUES (new.id, new.content, new.metadata);
END;

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`

// applyPragmas sets the WAL and concurrency pragmas the store depends on.
// Must run before migrate and on every reconnect (pragmas are per-connection).
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}
	return nil
}

// migrate applies schemaSQL. Every statement in it is CREATE ... IF NOT
// EXISTS or INSERT OR IGNORE, so re-running on an existing database is a
// no-op. It issues no ALTER TABLE statements.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// hasColumn reports whether table has the named column, for idempotent
// ALTER TABLE ... ADD COLUMN migrations.
func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dfltValue  any
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &primaryKey); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
