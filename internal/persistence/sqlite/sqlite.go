// Package sqlite implements the persistence repositories on SQLite through
// the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the repositories that share one connection pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Users        *UserRepository
	Resources    *ResourceRepository
	Reservations *ReservationRepository
	Settings     *SettingsRepository
	Sessions     *SessionRepository
}

// Open connects to the database described by config. Call Migrate before
// using the repositories on a fresh database.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:         pool,
		logger:       logger,
		Users:        NewUserRepository(pool),
		Resources:    NewResourceRepository(pool),
		Reservations: NewReservationRepository(pool),
		Settings:     NewSettingsRepository(pool),
		Sessions:     NewSessionRepository(pool),
	}, nil
}

// Pool exposes the connection pool.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	if s == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping checks that the database answers.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations and returns the ones applied.
func (s *Storage) Migrate(ctx context.Context) ([]migration.Migration, error) {
	manager := s.migrationManager()
	applied, err := manager.RunMigrations(ctx)
	if err != nil {
		return applied, fmt.Errorf("apply migrations: %w", err)
	}
	return applied, nil
}

// MigrationStatus reports the applied and pending embedded migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	return s.migrationManager().GetMigrationStatus(ctx)
}

func (s *Storage) migrationManager() *migration.MigrationManager {
	scanner := migration.NewFileScanner(migrationFiles, "migrations")
	executor := migration.NewSQLiteExecutor(s.pool.DB())
	return migration.NewMigrationManager(scanner, executor, s.logger)
}
