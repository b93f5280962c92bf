package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// MigrationManager orchestrates scanning and execution.
type MigrationManager struct {
	scanner  FileScanner
	executor Executor
	logger   *slog.Logger
}

// NewMigrationManager wires a scanner and an executor. A nil logger falls
// back to slog.Default.
func NewMigrationManager(scanner FileScanner, executor Executor, logger *slog.Logger) *MigrationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &MigrationManager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// RunMigrations applies every pending migration in version order and returns
// the ones it applied. Execution stops at the first failure.
func (m *MigrationManager) RunMigrations(ctx context.Context) ([]Migration, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to initialize schema_migrations", "error", err)
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		m.logger.InfoContext(ctx, "schema up to date")
		return nil, nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "pending_count", len(pending))

	applied := make([]Migration, 0, len(pending))
	for i, migration := range pending {
		logger := m.logger.With(
			"version", migration.Version,
			"description", migration.Description,
			"position", fmt.Sprintf("%d/%d", i+1, len(pending)),
		)
		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return applied, NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		logger.InfoContext(ctx, "migration applied", "checksum", migration.Checksum)
		applied = append(applied, migration)
	}

	return applied, nil
}

// GetPendingMigrations lists migrations not yet recorded as applied after
// validating that the file sequence has no gaps and that every applied
// version still has its file.
func (m *MigrationManager) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations()
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to scan migrations", "error", err)
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		m.logger.ErrorContext(ctx, "migration sequence invalid", "error", err)
		return nil, err
	}

	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		v, _ := strconv.Atoi(row.Version)
		done[v] = true
	}

	var pending []Migration
	for _, migration := range available {
		v, _ := strconv.Atoi(migration.Version)
		if !done[v] {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// GetMigrationStatus reports the current version and the pending files.
func (m *MigrationManager) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		PendingCount:      len(pending),
		AppliedMigrations: applied,
		PendingMigrations: pending,
	}
	highest := -1
	for _, row := range applied {
		if v, err := strconv.Atoi(row.Version); err == nil && v > highest {
			highest = v
			status.CurrentVersion = row.Version
		}
	}
	return status, nil
}

func validateSequence(available []Migration, applied []AppliedMigration) error {
	present := make(map[int]bool, len(available))
	for i, migration := range available {
		v, err := strconv.Atoi(migration.Version)
		if err != nil {
			return NewMigrationError(migration.Version, migration.FilePath, "validate sequence", ErrInvalidMigrationFile)
		}
		if i > 0 {
			prev, _ := strconv.Atoi(available[i-1].Version)
			if v != prev+1 {
				return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, prev+1)
			}
		}
		present[v] = true
	}

	for _, row := range applied {
		v, err := strconv.Atoi(row.Version)
		if err != nil {
			return NewDatabaseError(row.Version, "", "validate sequence",
				fmt.Errorf("%w: applied version %q is not numeric", ErrVersionTableCorrupt, row.Version))
		}
		if !present[v] {
			return fmt.Errorf("%w: applied migration %03d not found in available migrations", ErrVersionConflict, v)
		}
	}
	return nil
}
