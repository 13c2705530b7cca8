// Package db provides unit tests for database connection management.
package db

import (
	"os"
	"path/filepath"
	"testing"
)

// TestOpen verifies database opening with proper configuration.
func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()

	db, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	// Verify WAL mode is active
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	// Verify foreign keys are on
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("Failed to read foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

// TestOpen_invalidDataDir verifies error when the directory cannot be created.
func TestOpen_invalidDataDir(t *testing.T) {
	tmpDir := t.TempDir()

	// A regular file where a directory component is expected
	blocked := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Open(filepath.Join(blocked, "nested")); err == nil {
		t.Error("Open() under a regular file should return error")
	}
}

// TestOpenMemory verifies the in-memory database works.
func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Errorf("Exec on in-memory database failed: %v", err)
	}
}

// TestOpenReopen verifies data survives close and reopen.
func TestOpenReopen(t *testing.T) {
	tmpDir := t.TempDir()

	db1, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("First Open() failed: %v", err)
	}
	if _, err := db1.Exec("CREATE TABLE t (id INTEGER); INSERT INTO t VALUES (42)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	db1.Close()

	db2, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Second Open() failed: %v", err)
	}
	defer db2.Close()

	var id int
	if err := db2.QueryRow("SELECT id FROM t").Scan(&id); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
}
