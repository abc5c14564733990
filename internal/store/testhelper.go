package store

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestDB opens a migrated SQLite database in t.TempDir() and registers
// cleanup.
func OpenTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
