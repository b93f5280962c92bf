package migration

import (
	"context"
	"time"
)

// Migration is one versioned SQL file.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// MigrationStatus summarises the schema state.
type MigrationStatus struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// FileScanner discovers migration files.
type FileScanner interface {
	ScanMigrations() ([]Migration, error)
	ValidateFileName(filename string) error
}

// Executor runs migrations against a database.
type Executor interface {
	InitializeVersionTable(ctx context.Context) error
	// ExecuteMigration runs every statement of m and records it as applied,
	// all in one transaction.
	ExecuteMigration(ctx context.Context, m Migration) error
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}
