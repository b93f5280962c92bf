package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/schedule"
)

type settingsService interface {
	GetSettings(ctx context.Context) (application.Settings, error)
	UpdateSettings(ctx context.Context, params application.UpdateSettingsParams) (application.Settings, error)
	RegenerateClassBlocks(ctx context.Context, principal application.Principal) (application.Settings, error)
	TimeSlots(ctx context.Context) (schedule.TimeSlots, error)
}

// SettingsHandler serves the school day configuration.
type SettingsHandler struct {
	service   settingsService
	responder responder
	logger    *slog.Logger
}

func NewSettingsHandler(service settingsService, logger *slog.Logger) *SettingsHandler {
	base := defaultLogger(logger)
	return &SettingsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SettingsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SettingsHandler", operation, attrs...)
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", toSettingsDTO(settings))
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req settingsDTO
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode settings", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update")
	settings, err := h.service.UpdateSettings(r.Context(), application.UpdateSettingsParams{
		Principal: principal,
		Input: application.SettingsInput{
			StartTime:         req.StartTime,
			EndTime:           req.EndTime,
			ClassBlockMinutes: req.ClassBlockMinutes,
			OperatingDays:     req.OperatingDays,
			ClassBlocks:       req.ClassBlocks,
			Breaks:            req.Breaks,
			ResourceTags:      req.ResourceTags,
		},
	})
	if err != nil {
		logger.WarnContext(r.Context(), "settings update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "settings updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, "Configurações salvas com sucesso.", toSettingsDTO(settings))
}

func (h *SettingsHandler) RegenerateClassBlocks(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RegenerateClassBlocks")
	settings, err := h.service.RegenerateClassBlocks(r.Context(), principal)
	if err != nil {
		logger.WarnContext(r.Context(), "class block regeneration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "class blocks regenerated", "block_count", len(settings.ClassBlocks))
	h.responder.writeData(r.Context(), w, http.StatusOK, "Blocos de aula gerados com sucesso.", toSettingsDTO(settings))
}

// TimeSlots lists the selectable boundaries. With ?start=HH:MM the end
// options only hold times after that start.
func (h *SettingsHandler) TimeSlots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	start := ""
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := schedule.ParseTimeOfDay(raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: map[string]string{
				"start": "Horário de início inválido. Use HH:MM.",
			}})
			return
		}
		start = parsed.String()
	}

	slots, err := h.service.TimeSlots(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", toTimeSlotsDTO(slots, start))
}

type timeSlotsDTO struct {
	Boundaries []string         `json:"boundaries"`
	Starts     []string         `json:"startSlots"`
	Ends       []string         `json:"endSlots"`
	Pairs      []schedule.Block `json:"pairs"`
	EndOptions []string         `json:"endOptions"`
}

func toTimeSlotsDTO(slots schedule.TimeSlots, start string) timeSlotsDTO {
	dto := timeSlotsDTO{
		Boundaries: slots.Boundaries,
		Starts:     slots.Starts,
		Ends:       slots.Ends,
		Pairs:      slots.Pairs(),
		EndOptions: slots.EndOptions(start),
	}
	if dto.Boundaries == nil {
		dto.Boundaries = []string{}
	}
	if dto.Starts == nil {
		dto.Starts = []string{}
	}
	if dto.Ends == nil {
		dto.Ends = []string{}
	}
	if dto.Pairs == nil {
		dto.Pairs = []schedule.Block{}
	}
	return dto
}

type settingsDTO struct {
	StartTime         string           `json:"startTime"`
	EndTime           string           `json:"endTime"`
	ClassBlockMinutes int              `json:"classBlockMinutes"`
	OperatingDays     []int            `json:"operatingDays"`
	ClassBlocks       []schedule.Block `json:"classBlocks"`
	Breaks            []schedule.Block `json:"breaks"`
	ResourceTags      []string         `json:"resourceTags"`
	UpdatedAt         string           `json:"updatedAt,omitempty"`
}

func toSettingsDTO(settings application.Settings) settingsDTO {
	dto := settingsDTO{
		StartTime:         settings.StartTime,
		EndTime:           settings.EndTime,
		ClassBlockMinutes: settings.ClassBlockMinutes,
		OperatingDays:     settings.OperatingDays,
		ClassBlocks:       settings.ClassBlocks,
		Breaks:            settings.Breaks,
		ResourceTags:      settings.ResourceTags,
	}
	if !settings.UpdatedAt.IsZero() && settings.UpdatedAt.After(time.Unix(0, 0)) {
		dto.UpdatedAt = formatTimestamp(settings.UpdatedAt)
	}
	if dto.OperatingDays == nil {
		dto.OperatingDays = []int{}
	}
	if dto.ClassBlocks == nil {
		dto.ClassBlocks = []schedule.Block{}
	}
	if dto.Breaks == nil {
		dto.Breaks = []schedule.Block{}
	}
	if dto.ResourceTags == nil {
		dto.ResourceTags = []string{}
	}
	return dto
}
