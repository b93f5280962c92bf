package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/config"
	httptransport "github.com/Codexgsn/Gest-o-Escolas-sub000/internal/http"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/logging"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/media"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/notify"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence/sqlite"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence/sqlite/migration"
)

// services groups the application services sharing one storage.
type services struct {
	Auth         *application.AuthService
	Users        *application.UserService
	Resources    *application.ResourceService
	Reservations *application.ReservationService
	Settings     *application.SettingsService
}

// integrations are the optional external systems the services talk to.
type integrations struct {
	Notifier application.ChangeNotifier
	Images   application.ImageStore
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(w, parsed), nil
}

// openStorage opens the database at dsn and applies pending migrations.
func openStorage(ctx context.Context, dsn string, logger *slog.Logger) (*sqlite.Storage, error) {
	storage, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(dsn), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	applied, err := storage.Migrate(ctx)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	if len(applied) > 0 {
		logger.InfoContext(ctx, "database migrations applied", "count", len(applied))
	}
	return storage, nil
}

// openStorageWithoutMigrations opens the database as is, for status reports.
func openStorageWithoutMigrations(ctx context.Context, dsn string, logger *slog.Logger) (*sqlite.Storage, error) {
	storage, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(dsn), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return storage, nil
}

func newServices(storage *sqlite.Storage, cfg config.Config, deps integrations, logger *slog.Logger) (services, error) {
	now := time.Now
	idGenerator := uuid.NewString

	signer, err := application.NewTokenSigner(cfg.SessionSecret, now)
	if err != nil {
		return services{}, fmt.Errorf("configure session tokens: %w", err)
	}

	userRepo := newUserRepositoryAdapter(storage.Users)
	resourceRepo := newResourceRepositoryAdapter(storage.Resources)
	reservationRepo := newReservationRepositoryAdapter(storage.Reservations)
	settingsRepo := newSettingsRepositoryAdapter(storage.Settings)
	sessionRepo := newSessionRepositoryAdapter(storage.Sessions)

	settingsService := application.NewSettingsServiceWithLogger(settingsRepo, now, logger)
	return services{
		Auth:         application.NewAuthServiceWithLogger(userRepo, sessionRepo, signer, application.VerifyPassword, idGenerator, now, cfg.SessionTTL, logger),
		Users:        application.NewUserServiceWithLogger(userRepo, application.HashPassword, idGenerator, now, logger),
		Resources:    application.NewResourceServiceWithLogger(resourceRepo, settingsService, deps.Images, idGenerator, now, logger),
		Reservations: application.NewReservationServiceWithLogger(reservationRepo, resourceRepo, settingsService, deps.Notifier, idGenerator, now, cfg.Location, logger),
		Settings:     settingsService,
	}, nil
}

// dialIntegrations connects to Redis and MinIO when configured. The returned
// cleanup closes whatever was opened.
func dialIntegrations(ctx context.Context, cfg config.Config, logger *slog.Logger) (integrations, func(), error) {
	deps := integrations{Notifier: notify.NewLogNotifier(logger)}
	cleanup := func() {}

	if cfg.Redis.Enabled() {
		client, err := notify.Dial(ctx, cfg.Redis)
		if err != nil {
			return integrations{}, cleanup, err
		}
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}
		deps.Notifier = notify.NewRedisNotifier(client, cfg.Redis.Channel, logger)
		logger.InfoContext(ctx, "publishing reservation changes", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	if cfg.MinIO.Enabled() {
		store, err := media.Open(ctx, cfg.MinIO)
		if err != nil {
			cleanup()
			return integrations{}, func() {}, err
		}
		deps.Images = store
		logger.InfoContext(ctx, "resource images enabled", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.Bucket)
	}

	return deps, cleanup, nil
}

func newHandler(svc services, storage *sqlite.Storage, cfg config.Config, logger *slog.Logger) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(svc.Auth, logger),
		Users:        httptransport.NewUserHandler(svc.Users, logger),
		Resources:    httptransport.NewResourceHandler(svc.Resources, logger),
		Reservations: httptransport.NewReservationHandler(svc.Reservations, cfg.Location, logger),
		Settings:     httptransport.NewSettingsHandler(svc.Settings, logger),
		Sessions:     svc.Auth,
		Health:       storage.Ping,
		Logger:       logger,
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := openStorage(ctx, cfg.SQLiteDSN, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	deps, cleanup, err := dialIntegrations(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := newServices(storage, cfg, deps, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(svc, storage, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservas API listening", "addr", server.Addr, "timezone", cfg.Location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
