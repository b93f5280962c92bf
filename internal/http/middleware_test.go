package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	tokens    []string
}

func (f *fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	f.tokens = append(f.tokens, token)
	return f.principal, f.err
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", recorder.Body.String(), err)
	}
	return body
}

func TestRequireSessionRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		header      string
		cookie      *http.Cookie
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "missing credentials", wantStatus: http.StatusUnauthorized, wantMessage: errMissingSessionToken.Error()},
		{name: "non bearer header", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantMessage: errMissingSessionToken.Error()},
		{name: "invalid token", header: "Bearer garbage", err: application.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantMessage: errInvalidSession.Error()},
		{name: "revoked session", cookie: &http.Cookie{Name: sessionCookieName, Value: "revoked"}, err: application.ErrSessionRevoked, wantStatus: http.StatusUnauthorized, wantMessage: application.MessageSessionRevoked},
		{name: "expired session", header: "Bearer old", err: application.ErrSessionExpired, wantStatus: http.StatusUnauthorized, wantMessage: application.MessageSessionExpired},
		{name: "storage failure", header: "Bearer token", err: errors.New("database is locked"), wantStatus: http.StatusInternalServerError, wantMessage: application.MessageInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			validator := &fakeSessionValidator{err: tc.err}
			handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not be called when authentication fails")
			}))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if recorder.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, recorder.Code)
			}
			body := decodeEnvelope(t, recorder)
			if body["success"] != false || body["message"] != tc.wantMessage {
				t.Fatalf("unexpected body %v", body)
			}
		})
	}
}

func TestRequireSessionAttachesPrincipal(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1", Role: application.RoleUser}
	validator := &fakeSessionValidator{principal: principal}

	var (
		gotPrincipal application.Principal
		gotToken     string
	)
	handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrincipal, _ = PrincipalFromContext(r.Context())
		gotToken, _ = SessionTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer  signed-token ")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if gotPrincipal != principal {
		t.Fatalf("unexpected principal %#v", gotPrincipal)
	}
	if gotToken != "signed-token" || validator.tokens[0] != "signed-token" {
		t.Fatalf("expected trimmed token, got %q", gotToken)
	}
}

func TestRequestLoggerStoresLogger(t *testing.T) {
	t.Parallel()

	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Error("expected request logger in context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusTeapot {
		t.Fatalf("expected status passed through, got %d", recorder.Code)
	}
}
