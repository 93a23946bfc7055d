// Package index provides the SQLite-backed review queue over the vault's
// scheduling sidecars. The sidecar files stay the source of truth; the
// index is a derived view that can be rebuilt at any time.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id          TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	note_path   TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL DEFAULT 'topic',
	status      TEXT NOT NULL DEFAULT 'new',
	due         DATETIME,
	stability   REAL NOT NULL DEFAULT 0,
	difficulty  REAL NOT NULL DEFAULT 0,
	priority    REAL NOT NULL DEFAULT 50,
	reps        INTEGER NOT NULL DEFAULT 0,
	lapses      INTEGER NOT NULL DEFAULT 0,
	checksum    TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_path ON items(path);
CREATE INDEX IF NOT EXISTS idx_items_due ON items(due);
`

// DB wraps a sql.DB with review-index operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
