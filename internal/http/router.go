package http

import (
	"context"
	"log/slog"
	"net/http"
)

// RouterConfig lists the handlers mounted by NewRouter. Nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Resources    *ResourceHandler
	Reservations *ReservationHandler
	Settings     *SettingsHandler

	// Sessions authenticates every route except login and logout.
	Sessions SessionValidator
	// Health backs GET /healthz when set.
	Health func(ctx context.Context) error

	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.Sessions == nil {
			return h
		}
		return RequireSession(cfg.Sessions, cfg.Logger)(h)
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := cfg.Health(r.Context()); err != nil {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}

	if cfg.Auth != nil {
		mux.HandleFunc("POST /sessions", cfg.Auth.CreateSession)
		mux.HandleFunc("DELETE /sessions/current", cfg.Auth.DeleteCurrentSession)
	}

	if cfg.Resources != nil {
		mux.Handle("GET /resources", protect(cfg.Resources.List))
		mux.Handle("POST /resources", protect(cfg.Resources.Create))
		mux.Handle("GET /resources/{id}", protect(cfg.Resources.Get))
		mux.Handle("PUT /resources/{id}", protect(cfg.Resources.Update))
		mux.Handle("DELETE /resources/{id}", protect(cfg.Resources.Delete))
		mux.Handle("PUT /resources/{id}/image", protect(cfg.Resources.UploadImage))
	}

	if cfg.Reservations != nil {
		mux.Handle("GET /reservations", protect(cfg.Reservations.List))
		mux.Handle("POST /reservations", protect(cfg.Reservations.Create))
		mux.Handle("GET /reservations/conflicts", protect(cfg.Reservations.Conflicts))
		mux.Handle("GET /reservations/{id}", protect(cfg.Reservations.Get))
		mux.Handle("PUT /reservations/{id}", protect(cfg.Reservations.Update))
		mux.Handle("POST /reservations/{id}/cancel", protect(cfg.Reservations.Cancel))
		mux.Handle("GET /dashboard", protect(cfg.Reservations.Dashboard))
	}

	if cfg.Settings != nil {
		mux.Handle("GET /settings", protect(cfg.Settings.Get))
		mux.Handle("PUT /settings", protect(cfg.Settings.Update))
		mux.Handle("POST /settings/class-blocks/regenerate", protect(cfg.Settings.RegenerateClassBlocks))
		mux.Handle("GET /settings/time-slots", protect(cfg.Settings.TimeSlots))
	}

	if cfg.Users != nil {
		mux.Handle("GET /users", protect(cfg.Users.List))
		mux.Handle("POST /users", protect(cfg.Users.Create))
		mux.Handle("GET /users/{id}", protect(cfg.Users.Get))
		mux.Handle("PUT /users/{id}", protect(cfg.Users.Update))
		mux.Handle("DELETE /users/{id}", protect(cfg.Users.Delete))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
