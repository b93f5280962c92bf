package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFileScanner_ScanMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_add_index.sql":      {Data: []byte("CREATE INDEX idx_t ON t (name);")},
		"migrations/001_initial_schema.sql": {Data: []byte("-- Description: base tables\nCREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT);")},
		"migrations/010_later.sql":          {Data: []byte("SELECT 1;")},
		"migrations/README.md":              {Data: []byte("notes")},
	}

	migrations, err := NewFileScanner(fsys, "migrations").ScanMigrations()
	if err != nil {
		t.Fatalf("ScanMigrations failed: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	got := []string{migrations[0].Version, migrations[1].Version, migrations[2].Version}
	want := []string{"001", "002", "010"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected numeric ordering %v, got %v", want, got)
		}
	}
	if migrations[0].Description != "base tables" {
		t.Errorf("expected description from comment, got %q", migrations[0].Description)
	}
	if migrations[1].Description != "add index" {
		t.Errorf("expected description from filename, got %q", migrations[1].Description)
	}
	if len(migrations[0].Checksum) != 64 {
		t.Errorf("expected sha256 hex checksum, got %q", migrations[0].Checksum)
	}
	if migrations[0].FilePath != "migrations/001_initial_schema.sql" {
		t.Errorf("unexpected file path %q", migrations[0].FilePath)
	}
}

func TestFileScanner_RejectsBadFiles(t *testing.T) {
	t.Run("bad name", func(t *testing.T) {
		fsys := fstest.MapFS{"m/initial.sql": {Data: []byte("SELECT 1;")}}
		_, err := NewFileScanner(fsys, "m").ScanMigrations()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("comment only", func(t *testing.T) {
		fsys := fstest.MapFS{"m/001_empty.sql": {Data: []byte("-- nothing here\n")}}
		_, err := NewFileScanner(fsys, "m").ScanMigrations()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/001_a.sql":  {Data: []byte("SELECT 1;")},
			"m/0001_b.sql": {Data: []byte("SELECT 2;")},
		}
		_, err := NewFileScanner(fsys, "m").ScanMigrations()
		if !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewFileScanner(fstest.MapFS{}, "nowhere").ScanMigrations()
		var mErr *MigrationError
		if !errors.As(err, &mErr) {
			t.Fatalf("expected MigrationError, got %v", err)
		}
	})
}
