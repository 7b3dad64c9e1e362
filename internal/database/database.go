// Package database opens the local SQLite file shared by eventwatch's
// persistent stores.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	appDir = "eventwatch"
	dbFile = "eventwatch.db"
)

var pathOverride string

// SetPath overrides the default database path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// DefaultPath returns the default database path.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("database: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// Open opens a SQLite database at the provided path in WAL mode. The watch
// loop writes while `notifications list` may read, so writers wait on a
// busy lock instead of failing.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("database: failed to create directory %s: %w", dir, err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: failed to open %s: %w", path, err)
	}
	return db, nil
}

// Migrate runs ddl inside a transaction. store names the caller in errors.
func Migrate(db *sql.DB, store, ddl string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%s: migration failed: %w", store, err)
	}
	if _, err := tx.Exec(ddl); err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: migration failed: %w", store, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: migration failed: %w", store, err)
	}
	return nil
}
