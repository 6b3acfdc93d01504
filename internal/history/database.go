package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// NewDatabase opens the SQLite history database at dbPath and applies the schema
func NewDatabase(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// an in-memory database exists per connection
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA user_version = 1",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	slog.Debug("history database ready", "path", dbPath)
	return db, nil
}

// ensureSchema creates the database schema if it doesn't exist
func ensureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS plays (
    id          INTEGER PRIMARY KEY,
    started_at  INTEGER NOT NULL,
    session_id  TEXT    NOT NULL UNIQUE,
    path        TEXT    NOT NULL,
    strategy    TEXT,
    mix_format  TEXT,
    frames      INTEGER NOT NULL DEFAULT 0 CHECK (frames >= 0),
    duration_ms INTEGER NOT NULL DEFAULT 0,
    elapsed_ms  INTEGER NOT NULL DEFAULT 0,
    outcome     TEXT    NOT NULL,
    exit_code   INTEGER NOT NULL CHECK (exit_code BETWEEN 0 AND 5)
);

CREATE INDEX IF NOT EXISTS idx_plays_started ON plays(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_plays_outcome ON plays(outcome);
CREATE INDEX IF NOT EXISTS idx_plays_path ON plays(path);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
