// ABOUTME: Tests for snapshot database initialization
// ABOUTME: Verifies schema creation and reopen behavior
package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	d, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	var count int
	err = d.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('clients', 'policies')").Scan(&count)
	if err != nil {
		t.Fatalf("failed to query tables: %v", err)
	}
	if count != 2 {
		t.Errorf("expected clients and policies tables, got %d", count)
	}

	if d.Path() != dbPath {
		t.Errorf("expected path %s, got %s", dbPath, d.Path())
	}
}

func TestOpenInvalidPath(t *testing.T) {
	if _, err := Open("/proc/polsync/cannot/create/test.db"); err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	d, err := Open(dbPath)
	if err != nil {
		t.Fatalf("initial Open failed: %v", err)
	}
	d.Close()

	// Schema statements are idempotent, so reopening must succeed.
	d, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	d.Close()
}
