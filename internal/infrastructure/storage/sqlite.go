// Package storage opens the SQLite database shared by the feedback log and
// the learned alias table.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/doeshing/nixsay/internal/domain"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS feedback (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		input TEXT NOT NULL,
		action TEXT NOT NULL,
		operation TEXT NOT NULL,
		target TEXT,
		raw_target TEXT,
		resolution TEXT,
		command TEXT NOT NULL,
		tier INTEGER NOT NULL,
		success INTEGER NOT NULL,
		exit_code INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		retries INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS feedback_raw_target ON feedback(raw_target, target);`,
	`CREATE TABLE IF NOT EXISTS learned_aliases (
		alias TEXT NOT NULL,
		kind TEXT NOT NULL,
		canonical TEXT NOT NULL,
		support INTEGER NOT NULL,
		version INTEGER NOT NULL,
		promoted_at TEXT NOT NULL,
		PRIMARY KEY (alias, kind)
	);`,
}

// Open creates (or opens) the database at path and applies migrations.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises
	// writers on disk.
	db.SetMaxOpenConns(1)
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema idempotently.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// BoolToInt converts a flag to its SQLite column value.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
