package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/schedule"
)

// SettingsRepository persists the singleton settings record.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) (Settings, error)
}

// SettingsService reads and maintains the institution's scheduling rules.
type SettingsService struct {
	settings SettingsRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewSettingsService constructs a settings service.
func NewSettingsService(settings SettingsRepository, now func() time.Time) *SettingsService {
	return NewSettingsServiceWithLogger(settings, now, nil)
}

// NewSettingsServiceWithLogger constructs a settings service with a specified logger.
func NewSettingsServiceWithLogger(settings SettingsRepository, now func() time.Time, logger *slog.Logger) *SettingsService {
	if now == nil {
		now = time.Now
	}
	return &SettingsService{
		settings: settings,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *SettingsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SettingsService", operation, attrs...)
}

// GetSettings returns the stored settings. Every call reads storage, so a
// change written by another process is seen on the next request.
func (s *SettingsService) GetSettings(ctx context.Context) (Settings, error) {
	if s == nil {
		return Settings{}, fmt.Errorf("SettingsService is nil")
	}
	if s.settings == nil {
		return Settings{}, fmt.Errorf("settings repository not configured")
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		if isNotFound(err) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}
	return settings, nil
}

// UpdateSettings validates and replaces the settings. Administrators only.
func (s *SettingsService) UpdateSettings(ctx context.Context, params UpdateSettingsParams) (settings Settings, err error) {
	if s == nil {
		err = fmt.Errorf("SettingsService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSettings", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update settings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"class_blocks", len(settings.ClassBlocks),
			"breaks", len(settings.Breaks),
		).InfoContext(ctx, "settings updated")
	}()

	if !CanManageSettings(params.Principal) {
		err = ErrUnauthorized
		return
	}
	if s.settings == nil {
		err = fmt.Errorf("settings repository not configured")
		return
	}

	candidate, vErr := normalizeSettingsInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	candidate.UpdatedAt = s.now()

	settings, err = s.settings.SaveSettings(ctx, candidate)
	if err != nil {
		err = mapSettingsRepoError(err)
	}
	return
}

// RegenerateClassBlocks replaces the stored class blocks with the ones
// generated from the stored day bounds, block length and breaks. Running it
// twice yields the same blocks.
func (s *SettingsService) RegenerateClassBlocks(ctx context.Context, principal Principal) (settings Settings, err error) {
	if s == nil {
		err = fmt.Errorf("SettingsService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RegenerateClassBlocks", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to regenerate class blocks", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("class_blocks", len(settings.ClassBlocks)).InfoContext(ctx, "class blocks regenerated")
	}()

	if !CanManageSettings(principal) {
		err = ErrUnauthorized
		return
	}

	var current Settings
	current, err = s.GetSettings(ctx)
	if err != nil {
		return
	}

	var blocks []schedule.Block
	blocks, err = schedule.GenerateFromSettings(current.StartTime, current.EndTime, current.ClassBlockMinutes, current.Breaks)
	if err != nil {
		err = fieldError("classBlocks", fmt.Sprintf("Configuração inválida para gerar blocos: %v", err))
		return
	}

	current.ClassBlocks = blocks
	current.UpdatedAt = s.now()
	settings, err = s.settings.SaveSettings(ctx, current)
	if err != nil {
		err = mapSettingsRepoError(err)
	}
	return
}

// TimeSlots enumerates the selectable start and end times from the stored
// class blocks and breaks.
func (s *SettingsService) TimeSlots(ctx context.Context) (schedule.TimeSlots, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return schedule.TimeSlots{}, err
	}
	return schedule.EnumerateTimeSlots(settings.ClassBlocks, settings.Breaks), nil
}

// IsOperatingDay reports whether reservations may be placed on day's weekday.
// An empty operating day set allows every day.
func (s *SettingsService) IsOperatingDay(ctx context.Context, day time.Time) (bool, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	return settings.operatesOn(day.Weekday()), nil
}

func (st Settings) operatesOn(weekday time.Weekday) bool {
	if len(st.OperatingDays) == 0 {
		return true
	}
	for _, d := range st.OperatingDays {
		if time.Weekday(d) == weekday {
			return true
		}
	}
	return false
}

func normalizeSettingsInput(input SettingsInput) (Settings, *ValidationError) {
	vErr := &ValidationError{}
	out := Settings{
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		ClassBlockMinutes: input.ClassBlockMinutes,
	}

	start, startErr := schedule.ParseTimeOfDay(input.StartTime)
	if startErr != nil || start == schedule.MinutesPerDay {
		vErr.add("startTime", "Horário de início inválido. Use HH:MM.")
	}
	end, endErr := schedule.ParseTimeOfDay(input.EndTime)
	if endErr != nil {
		vErr.add("endTime", "Horário de término inválido. Use HH:MM.")
	}
	var day schedule.Interval
	if startErr == nil && endErr == nil {
		out.StartTime, out.EndTime = start.String(), end.String()
		day = schedule.Interval{Start: start, End: end}
		if !day.Valid() {
			vErr.add("endTime", "O término deve ser posterior ao início.")
		}
	}

	if input.ClassBlockMinutes < 1 {
		vErr.add("classBlockMinutes", "A duração do bloco deve ser de pelo menos 1 minuto.")
	} else if day.Valid() && input.ClassBlockMinutes > day.Minutes() {
		vErr.add("classBlockMinutes", "A duração do bloco excede o período letivo.")
	}

	days := make(map[int]struct{}, len(input.OperatingDays))
	for _, d := range input.OperatingDays {
		if d < 0 || d > 6 {
			vErr.add("operatingDays", "Dias de funcionamento devem estar entre 0 (domingo) e 6 (sábado).")
			continue
		}
		days[d] = struct{}{}
	}
	for d := range days {
		out.OperatingDays = append(out.OperatingDays, d)
	}
	sort.Ints(out.OperatingDays)

	out.ClassBlocks = normalizeBlocks("classBlocks", input.ClassBlocks, day, vErr)
	out.Breaks = normalizeBlocks("breaks", input.Breaks, day, vErr)
	out.ResourceTags = NormalizeTags(input.ResourceTags)

	return out, vErr
}

// normalizeBlocks checks that every block is well formed and, when the day
// bounds are valid, lies inside them. Blocks are returned sorted by start.
func normalizeBlocks(field string, blocks []schedule.Block, day schedule.Interval, vErr *ValidationError) []schedule.Block {
	if len(blocks) == 0 {
		return nil
	}
	intervals := make([]schedule.Interval, 0, len(blocks))
	for i, block := range blocks {
		interval, err := block.Interval()
		if err != nil || !interval.Valid() {
			vErr.add(fmt.Sprintf("%s[%d]", field, i), "Intervalo inválido. Use HH:MM e término posterior ao início.")
			continue
		}
		if day.Valid() && (interval.Start < day.Start || interval.End > day.End) {
			vErr.add(fmt.Sprintf("%s[%d]", field, i), "O intervalo deve estar dentro do período letivo.")
			continue
		}
		intervals = append(intervals, interval)
	}
	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
	return schedule.BlocksOf(intervals)
}

func mapSettingsRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isNotFound(err):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fieldError("classBlockMinutes", "A duração do bloco deve ser de pelo menos 1 minuto.")
	}
	return err
}
