package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/config"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/notify"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/testfixtures"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

type apiResponse struct {
	Status  int
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

func (c apiClient) do(method, target, token string, body any) apiResponse {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	c.handler.ServeHTTP(recorder, req)

	resp := apiResponse{Status: recorder.Code}
	if recorder.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(recorder.Body.Bytes(), &resp), recorder.Body.String())
	}
	return resp
}

func (r apiResponse) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dst))
}

func newAPI(t *testing.T) (apiClient, services) {
	t.Helper()

	h := testfixtures.NewSQLiteHarness(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	location := time.FixedZone("BRT", -3*60*60)
	cfg := config.Config{SessionSecret: "segredo-de-teste", SessionTTL: time.Hour, Location: location}

	svc, err := newServices(h.Storage, cfg, integrations{Notifier: notify.NewLogNotifier(logger)}, logger)
	require.NoError(t, err)

	_, err = svc.Users.CreateUser(context.Background(), application.CreateUserParams{
		Principal: application.SystemPrincipal(),
		Input:     application.UserInput{Name: "Direção", Email: "direcao@escola.test", Role: application.RoleAdmin, Password: "segredo123"},
	})
	require.NoError(t, err)
	_, err = svc.Users.CreateUser(context.Background(), application.CreateUserParams{
		Principal: application.SystemPrincipal(),
		Input:     application.UserInput{Name: "Professora", Email: "prof@escola.test", Role: application.RoleUser, Password: "segredo123"},
	})
	require.NoError(t, err)

	return apiClient{t: t, handler: newHandler(svc, h.Storage, cfg, logger)}, svc
}

func login(t *testing.T, api apiClient, email string) string {
	t.Helper()
	resp := api.do(http.MethodPost, "/sessions", "", map[string]string{"email": email, "password": "segredo123"})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var data struct {
		Token string `json:"token"`
	}
	resp.decode(t, &data)
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestAPIReservationLifecycle(t *testing.T) {
	t.Parallel()

	api, svc := newAPI(t)
	admin := login(t, api, "direcao@escola.test")
	professor := login(t, api, "prof@escola.test")

	resp := api.do(http.MethodPost, "/resources", professor, map[string]any{"name": "Laboratório", "type": "Laboratório", "location": "Bloco C", "capacity": 30})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = api.do(http.MethodPost, "/resources", admin, map[string]any{"name": "Laboratório", "type": "Laboratório", "location": "Bloco C", "capacity": 30})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Errors)
	var resource struct {
		ID string `json:"id"`
	}
	resp.decode(t, &resource)

	// 2030-03-11 is a Monday.
	booking := map[string]any{"resourceId": resource.ID, "date": "2030-03-11", "startTime": "10:00", "endTime": "11:00"}
	resp = api.do(http.MethodPost, "/reservations", professor, booking)
	require.Equal(t, http.StatusCreated, resp.Status, resp.Errors)
	var reservation struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Start     string `json:"start"`
		StartTime string `json:"startTime"`
	}
	resp.decode(t, &reservation)
	assert.Equal(t, "Confirmada", reservation.Status)
	assert.Equal(t, "2030-03-11T13:00:00Z", reservation.Start)
	assert.Equal(t, "10:00", reservation.StartTime)

	resp = api.do(http.MethodPost, "/reservations", admin, map[string]any{"resourceId": resource.ID, "date": "2030-03-11", "startTime": "10:30", "endTime": "11:30"})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, application.MessageConflict, resp.Message)

	resp = api.do(http.MethodGet, "/reservations/conflicts?resource_id="+resource.ID+"&date=2030-03-11&start_time=10:00&end_time=11:00&exclude_id="+reservation.ID, professor, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"conflict":false}`, string(resp.Data))

	resp = api.do(http.MethodPut, "/reservations/"+reservation.ID, professor, booking)
	assert.Equal(t, http.StatusOK, resp.Status, resp.Errors)

	resp = api.do(http.MethodPost, "/reservations/"+reservation.ID+"/cancel", professor, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	resp = api.do(http.MethodPost, "/reservations/"+reservation.ID+"/cancel", professor, nil)
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = api.do(http.MethodPost, "/reservations", admin, map[string]any{"resourceId": resource.ID, "date": "2030-03-11", "startTime": "10:30", "endTime": "11:30"})
	assert.Equal(t, http.StatusCreated, resp.Status, resp.Errors)

	resp = api.do(http.MethodPost, "/reservations", professor, map[string]any{"resourceId": resource.ID, "date": "2030-03-10", "startTime": "10:00", "endTime": "11:00"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Contains(t, resp.Errors, "date")

	users, err := svc.Users.ListUsers(context.Background(), application.SystemPrincipal())
	require.NoError(t, err)
	var professorID string
	for _, u := range users {
		if u.Email == "prof@escola.test" {
			professorID = u.ID
		}
	}
	require.NotEmpty(t, professorID)
	resp = api.do(http.MethodDelete, "/users/"+professorID, admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Contains(t, resp.Errors, "id")
}

func TestAPISessionLifecycle(t *testing.T) {
	t.Parallel()

	api, _ := newAPI(t)

	resp := api.do(http.MethodPost, "/sessions", "", map[string]string{"email": "prof@escola.test", "password": "errada"})
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	token := login(t, api, "prof@escola.test")
	resp = api.do(http.MethodGet, "/settings/time-slots", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var slots struct {
		Starts []string `json:"startSlots"`
	}
	resp.decode(t, &slots)
	assert.Equal(t, []string{"07:30", "08:20", "09:10", "09:30", "10:20", "11:10"}, slots.Starts)

	resp = api.do(http.MethodDelete, "/sessions/current", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.Status)

	resp = api.do(http.MethodGet, "/settings", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, application.MessageSessionRevoked, resp.Message)
}

func TestAPIHealth(t *testing.T) {
	t.Parallel()

	api, _ := newAPI(t)
	resp := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.Status)
}
