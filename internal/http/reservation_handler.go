package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
)

const dateLayout = "2006-01-02"

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	CancelReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	GetReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	CheckConflict(ctx context.Context, params application.ConflictCheckParams) (bool, error)
	Summary(ctx context.Context, principal application.Principal, day time.Time) (application.DashboardSummary, error)
}

// ReservationHandler serves bookings and the dashboard. Dates in requests
// and responses are in the school time zone.
type ReservationHandler struct {
	service   reservationService
	location  *time.Location
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, location *time.Location, logger *slog.Logger) *ReservationHandler {
	if location == nil {
		location = time.UTC
	}
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, location: location, now: time.Now, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "resource_id", req.ResourceID)
	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeData(r.Context(), w, http.StatusCreated, "Reserva criada com sucesso.", h.toDTO(reservation))
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "reservation_id", reservationID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "reservation_id", reservationID)
	reservation, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Input:         req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "reservation update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, "Reserva atualizada com sucesso.", h.toDTO(reservation))
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "reservation_id", reservationID)

	reservation, err := h.service.CancelReservation(r.Context(), principal, reservationID)
	if err != nil {
		logger.WarnContext(r.Context(), "reservation cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeData(r.Context(), w, http.StatusOK, "Reserva cancelada com sucesso.", h.toDTO(reservation))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservation, err := h.service.GetReservation(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", h.toDTO(reservation))
}

// List accepts resource_id, user_id, status, from and to. from and to are
// inclusive dates.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	filter := application.ReservationFilter{
		ResourceID: query.Get("resource_id"),
		UserID:     query.Get("user_id"),
		Status:     application.ReservationStatus(strings.TrimSpace(query.Get("status"))),
	}
	vErr := &application.ValidationError{}
	if from, ok := h.parseDate(query.Get("from"), "from", vErr); ok {
		filter.From = &from
	}
	if to, ok := h.parseDate(query.Get("to"), "to", vErr); ok {
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	reservations, err := h.service.ListReservations(r.Context(), application.ListReservationsParams{
		Principal: principal,
		Filter:    filter,
	})
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", h.toDTOs(reservations))
}

// Conflicts reports whether a prospective booking would collide with a
// confirmed reservation.
func (h *ReservationHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	conflict, err := h.service.CheckConflict(r.Context(), application.ConflictCheckParams{
		ResourceID: query.Get("resource_id"),
		Date:       query.Get("date"),
		StartTime:  query.Get("start_time"),
		EndTime:    query.Get("end_time"),
		ExcludeID:  query.Get("exclude_id"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	message := ""
	if conflict {
		message = application.MessageConflict
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, message, conflictResponse{Conflict: conflict})
}

// Dashboard returns the counters for ?date=, today when absent.
func (h *ReservationHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	day := h.now().In(h.location)
	vErr := &application.ValidationError{}
	if parsed, ok := h.parseDate(r.URL.Query().Get("date"), "date", vErr); ok {
		day = parsed
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	summary, err := h.service.Summary(r.Context(), principal, day)
	if err != nil {
		h.log(r.Context(), "Dashboard").WarnContext(r.Context(), "dashboard failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", dashboardDTO{
		Day:            summary.Day,
		ResourceCount:  summary.ResourceCount,
		ConfirmedToday: summary.ConfirmedToday,
		Upcoming:       h.toDTOs(summary.Upcoming),
	})
}

func (h *ReservationHandler) parseDate(value, field string, vErr *application.ValidationError) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(dateLayout, value, h.location)
	if err != nil {
		if vErr.FieldErrors == nil {
			vErr.FieldErrors = make(map[string]string)
		}
		vErr.FieldErrors[field] = "Data inválida. Use AAAA-MM-DD."
		return time.Time{}, false
	}
	return day, true
}

type reservationRequest struct {
	ResourceID  string  `json:"resourceId"`
	Date        string  `json:"date"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Description *string `json:"description"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		ResourceID:  r.ResourceID,
		Date:        r.Date,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Description: r.Description,
	}
}

type reservationDTO struct {
	ID           string  `json:"id"`
	ResourceID   string  `json:"resourceId"`
	ResourceName string  `json:"resourceName,omitempty"`
	UserID       string  `json:"userId"`
	UserName     string  `json:"userName,omitempty"`
	Date         string  `json:"date"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Status       string  `json:"status"`
	Description  *string `json:"description,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

func (h *ReservationHandler) toDTO(reservation application.Reservation) reservationDTO {
	start := reservation.Start.In(h.location)
	end := reservation.End.In(h.location)
	return reservationDTO{
		ID:           reservation.ID,
		ResourceID:   reservation.ResourceID,
		ResourceName: reservation.ResourceName,
		UserID:       reservation.UserID,
		UserName:     reservation.UserName,
		Date:         start.Format(dateLayout),
		StartTime:    start.Format("15:04"),
		EndTime:      endClock(start, end),
		Start:        formatTimestamp(reservation.Start),
		End:          formatTimestamp(reservation.End),
		Status:       string(reservation.Status),
		Description:  reservation.Description,
		CreatedAt:    formatTimestamp(reservation.CreatedAt),
		UpdatedAt:    formatTimestamp(reservation.UpdatedAt),
	}
}

// endClock renders the end as "24:00" when it falls on the midnight after
// the start date, so the DTO can be sent back unchanged.
func endClock(start, end time.Time) string {
	if end.Hour() == 0 && end.Minute() == 0 && end.YearDay() != start.YearDay() {
		return "24:00"
	}
	return end.Format("15:04")
}

func (h *ReservationHandler) toDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, h.toDTO(reservation))
	}
	return out
}

type conflictResponse struct {
	Conflict bool `json:"conflict"`
}

type dashboardDTO struct {
	Day            string           `json:"day"`
	ResourceCount  int              `json:"resourceCount"`
	ConfirmedToday int              `json:"confirmedToday"`
	Upcoming       []reservationDTO `json:"upcoming"`
}
