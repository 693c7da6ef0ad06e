// Package testhelpers holds shared fixtures for package tests.
package testhelpers

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/robalobadob/brainarcade/assets"
)

// SetupTestDB opens an isolated SQLite database in t.TempDir() with every
// embedded migration applied. The handle is closed on cleanup.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "arcade_test.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	migrations, err := assets.Migrations()
	if err != nil {
		t.Fatalf("failed to read migrations: %v", err)
	}
	for _, m := range migrations {
		if _, err := db.Exec(m.SQL); err != nil {
			t.Fatalf("failed to apply %s: %v", m.Name, err)
		}
	}
	return db
}
