package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLogger_PrefersContextLogger(t *testing.T) {
	t.Parallel()

	var records []slog.Record
	handler := &recordingHandler{records: &records}
	ctx := logging.ContextWithLogger(context.Background(), slog.New(handler))

	serviceLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), "ReservationService", "CreateReservation").Info("hello")

	if len(records) != 1 {
		t.Fatalf("expected context logger to receive the record, got %d", len(records))
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":                    nil,
		"unauthorized":        ErrUnauthorized,
		"not_found":           fmt.Errorf("wrap: %w", ErrNotFound),
		"conflict":            &ConflictError{},
		"already_cancelled":   ErrAlreadyCancelled,
		"already_exists":      ErrAlreadyExists,
		"invalid_credentials": ErrInvalidCredentials,
		"session_expired":     ErrSessionExpired,
		"session_revoked":     ErrSessionRevoked,
		"validation":          fieldError("name", "x"),
		"unexpected":          errors.New("boom"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}

type recordingHandler struct {
	records *[]slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }
