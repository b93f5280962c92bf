package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence/sqlite"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database for integration tests.
type SQLiteHarness struct {
	Storage      *sqlite.Storage
	Users        persistence.UserRepository
	Resources    persistence.ResourceRepository
	Reservations persistence.ReservationRepository
	Settings     persistence.SettingsRepository
	Sessions     persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a database in tb's temporary
// directory. Close is registered with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservas.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	storage, err := sqlite.Open(ctx, migration.TempFileTestSQLiteConfig(path), logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if _, err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Users:        storage.Users,
		Resources:    storage.Resources,
		Reservations: storage.Reservations,
		Settings:     storage.Settings,
		Sessions:     storage.Sessions,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedUser stores the fixture's account.
func (h *SQLiteHarness) SeedUser(tb testing.TB, fixture UserFixture) {
	tb.Helper()
	if err := h.Users.CreateUser(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("seed user %s: %v", fixture.ID, err)
	}
}

// SeedResource stores the fixture's resource.
func (h *SQLiteHarness) SeedResource(tb testing.TB, fixture ResourceFixture) {
	tb.Helper()
	if err := h.Resources.CreateResource(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("seed resource %s: %v", fixture.ID, err)
	}
}

// SeedReservation stores the fixture's reservation.
func (h *SQLiteHarness) SeedReservation(tb testing.TB, fixture ReservationFixture) {
	tb.Helper()
	if err := h.Reservations.CreateReservation(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("seed reservation %s: %v", fixture.ID, err)
	}
}
