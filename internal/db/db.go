package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init opens the usage statistics database at baseDir/stats.db.
// The baseDir parameter allows tests to use t.TempDir() instead of the
// cache directory.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Pragmas in the connection string apply to all connections.
	dbPath := filepath.Join(baseDir, config.StatsFileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Creates the file if it doesn't exist.
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Best-effort; the file exists only after the first migration.
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: selection log
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS selections (
		  id          TEXT PRIMARY KEY,
		  token       TEXT NOT NULL,
		  description TEXT NOT NULL,
		  strategy    TEXT NOT NULL,
		  selected_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_selections_token_selected
		ON selections(token, selected_at DESC);

		CREATE INDEX IF NOT EXISTS idx_selections_selected
		ON selections(selected_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
