package catalog

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestSchemaVersionAdvancesOnOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	var version int
	if err := store.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != len(schemaRevisions) {
		t.Fatalf("user_version = %d, want %d", version, len(schemaRevisions))
	}
}

func TestSchemaReopenSkipsAppliedRevisions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A second open must not re-run CREATE TABLE statements.
	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer store.Close()
}

func TestSchemaRejectsNewerDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(schemaRevisions)+1)); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Open(dbPath); err == nil {
		t.Fatal("expected error opening database with a newer schema version")
	}
}
