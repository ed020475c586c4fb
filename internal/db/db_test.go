package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Verify tables exist by counting rows in each one.
	tables := []string{"viewer_state", "document_opens"}

	for _, table := range tables {
		var count int
		err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
	if d.Path() != ":memory:" {
		t.Errorf("Path() = %q", d.Path())
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "pageview.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO viewer_state (document_id, key, value) VALUES ('doc', 'scale', '1.5')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var v string
	if err := d.QueryRow(`SELECT value FROM viewer_state WHERE document_id = 'doc' AND key = 'scale'`).Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "1.5" {
		t.Errorf("value = %q, want 1.5", v)
	}
}

func TestFrontendCheckConstraint(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO document_opens (id, document_id, frontend) VALUES ('1', 'doc', 'fax')`); err == nil {
		t.Error("expected check constraint violation for unknown frontend")
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}
