package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/schedule"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/scheduler"
)

// ReservationRepository captures the persistence operations needed by the reservation service.
//
// CreateReservation and UpdateReservation must reject a confirmed row that
// overlaps another confirmed row of the same resource atomically with the
// write, reporting persistence.ErrOverlap.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	ListReservations(ctx context.Context, query ReservationQuery) ([]Reservation, error)
	CountReservations(ctx context.Context, query ReservationQuery) (int, error)
	FindOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]Reservation, error)
}

// ResourceLookup resolves and counts resources.
type ResourceLookup interface {
	GetResource(ctx context.Context, id string) (Resource, error)
	CountResources(ctx context.Context) (int, error)
}

// SettingsReader reads the scheduling rules.
type SettingsReader interface {
	GetSettings(ctx context.Context) (Settings, error)
}

// OperatingCalendar tells whether the institution opens on a given day.
type OperatingCalendar interface {
	IsOperatingDay(ctx context.Context, day time.Time) (bool, error)
}

// ChangeNotifier receives a signal after every committed reservation change.
type ChangeNotifier interface {
	NotifyReservationChange(ctx context.Context, change ReservationChange) error
}

const (
	dateLayout           = "2006-01-02"
	maxDescriptionLength = 500
	upcomingLimit        = 5
)

// ReservationService validates, authorizes and persists reservations while
// keeping confirmed reservations of a resource from overlapping.
type ReservationService struct {
	reservations ReservationRepository
	resources    ResourceLookup
	calendar     OperatingCalendar
	notifier     ChangeNotifier
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service. Dates and times
// submitted by clients are read in location; notifier may be nil.
func NewReservationService(reservations ReservationRepository, resources ResourceLookup, calendar OperatingCalendar, notifier ChangeNotifier, idGenerator func() string, now func() time.Time, location *time.Location) *ReservationService {
	return NewReservationServiceWithLogger(reservations, resources, calendar, notifier, idGenerator, now, location, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, resources ResourceLookup, calendar OperatingCalendar, notifier ChangeNotifier, idGenerator func() string, now func() time.Time, location *time.Location, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &ReservationService{
		reservations: reservations,
		resources:    resources,
		calendar:     calendar,
		notifier:     notifier,
		idGenerator:  idGenerator,
		now:          now,
		location:     location,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// HasConflict reports whether a confirmed reservation of resourceID other than
// excludeID overlaps [start, end). It fails closed: when storage cannot be
// read the error is logged and a conflict is reported.
func (s *ReservationService) HasConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) bool {
	if s == nil {
		return true
	}
	slot := reservationSlot{resourceID: resourceID, start: start, end: end}
	return s.ensureAvailable(ctx, slot, excludeID) != nil
}

// CheckConflict validates a prospective booking given as form values and
// reports whether it would conflict.
func (s *ReservationService) CheckConflict(ctx context.Context, params ConflictCheckParams) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("ReservationService is nil")
	}
	slot, vErr := s.parseSlot(params.ResourceID, params.Date, params.StartTime, params.EndTime)
	if vErr.HasErrors() {
		return false, vErr
	}
	return s.HasConflict(ctx, slot.resourceID, slot.start, slot.end, strings.TrimSpace(params.ExcludeID)), nil
}

func (s *ReservationService) conflicts(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]scheduler.Booking, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}
	existing, err := s.reservations.FindOverlapping(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	bookings := make([]scheduler.Booking, 0, len(existing))
	for _, r := range existing {
		bookings = append(bookings, toBooking(r))
	}
	candidate := scheduler.Booking{
		ID:         excludeID,
		ResourceID: resourceID,
		Start:      start,
		End:        end,
		Status:     scheduler.StatusConfirmed,
	}
	return scheduler.DetectConflicts(bookings, candidate), nil
}

// CreateReservation validates the form, checks operating days, the resource
// and conflicts, then stores a confirmed reservation owned by the principal.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"resource_id", params.Input.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"reservation_id", reservation.ID,
			"start", reservation.Start,
			"end", reservation.End,
		).InfoContext(ctx, "reservation created")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	var slot reservationSlot
	slot, err = s.validateInput(ctx, params.Input)
	if err != nil {
		return
	}

	if err = s.ensureAvailable(ctx, slot, ""); err != nil {
		return
	}

	now := s.now()
	reservation, err = s.reservations.CreateReservation(ctx, Reservation{
		ID:          s.idGenerator(),
		ResourceID:  slot.resourceID,
		UserID:      params.Principal.UserID,
		Start:       slot.start,
		End:         slot.end,
		Status:      StatusConfirmed,
		Description: slot.description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		err = mapReservationRepoError(err, slot.resourceID)
		return
	}

	s.notify(ctx, logger, ChangeCreated, reservation)
	return
}

// UpdateReservation edits the resource, date, times or description of a
// reservation. Only its owner or an administrator may do so and cancelled
// reservations cannot be edited.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"start", reservation.Start,
			"end", reservation.End,
		).InfoContext(ctx, "reservation updated")
	}()

	var existing Reservation
	existing, err = s.loadMutable(ctx, params.Principal, params.ReservationID)
	if err != nil {
		return
	}

	var slot reservationSlot
	slot, err = s.validateInput(ctx, params.Input)
	if err != nil {
		return
	}

	if err = s.ensureAvailable(ctx, slot, existing.ID); err != nil {
		return
	}

	updated := existing
	updated.ResourceID = slot.resourceID
	updated.Start = slot.start
	updated.End = slot.end
	updated.Description = slot.description
	updated.UpdatedAt = s.now()

	reservation, err = s.reservations.UpdateReservation(ctx, updated)
	if err != nil {
		err = mapReservationRepoError(err, slot.resourceID)
		return
	}

	s.notify(ctx, logger, ChangeUpdated, reservation)
	return
}

// CancelReservation moves a reservation to Cancelada, freeing its slot.
// Cancelling twice is rejected with ErrAlreadyCancelled.
func (s *ReservationService) CancelReservation(ctx context.Context, principal Principal, reservationID string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CancelReservation",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	var existing Reservation
	existing, err = s.loadMutable(ctx, principal, reservationID)
	if err != nil {
		return
	}

	existing.Status = StatusCancelled
	existing.UpdatedAt = s.now()
	reservation, err = s.reservations.UpdateReservation(ctx, existing)
	if err != nil {
		err = mapReservationRepoError(err, existing.ResourceID)
		return
	}

	s.notify(ctx, logger, ChangeCancelled, reservation)
	return
}

// GetReservation returns one reservation to any authenticated user.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if !principal.Authenticated() {
		return Reservation{}, ErrUnauthorized
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation repository not configured")
	}
	reservation, err := s.reservations.GetReservation(ctx, strings.TrimSpace(reservationID))
	if err != nil {
		return Reservation{}, mapReservationRepoError(err, "")
	}
	return reservation, nil
}

// ListReservations returns reservations ordered by start. Users who are not
// administrators only see their own unless they ask for one resource's calendar.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListReservations",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).DebugContext(ctx, "reservations listed")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if s.reservations == nil {
		return nil, nil
	}

	filter := params.Filter
	query := ReservationQuery{
		ResourceID:   strings.TrimSpace(filter.ResourceID),
		UserID:       strings.TrimSpace(filter.UserID),
		EndsAfter:    filter.From,
		StartsBefore: filter.To,
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			err = fieldError("status", "Status inválido.")
			return
		}
		query.Statuses = []ReservationStatus{filter.Status}
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		err = fieldError("to", "O fim do período deve ser posterior ao início.")
		return
	}
	if !params.Principal.IsAdmin() && query.ResourceID == "" {
		query.UserID = params.Principal.UserID
	}

	reservations, err = s.reservations.ListReservations(ctx, query)
	return
}

// Summary gathers the dashboard counters for day in the school time zone.
func (s *ReservationService) Summary(ctx context.Context, principal Principal, day time.Time) (summary DashboardSummary, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if s.reservations == nil || s.resources == nil {
		err = fmt.Errorf("repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "Summary", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build dashboard summary", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	local := day.In(s.location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	dayEnd := dayStart.AddDate(0, 0, 1)
	summary.Day = dayStart.Format(dateLayout)

	if summary.ResourceCount, err = s.resources.CountResources(ctx); err != nil {
		return
	}

	startUTC, endUTC := dayStart.UTC(), dayEnd.UTC()
	summary.ConfirmedToday, err = s.reservations.CountReservations(ctx, ReservationQuery{
		Statuses:     []ReservationStatus{StatusConfirmed},
		EndsAfter:    &startUTC,
		StartsBefore: &endUTC,
	})
	if err != nil {
		return
	}

	now := s.now().UTC()
	summary.Upcoming, err = s.reservations.ListReservations(ctx, ReservationQuery{
		UserID:    principal.UserID,
		Statuses:  []ReservationStatus{StatusConfirmed},
		EndsAfter: &now,
		Limit:     upcomingLimit,
	})
	return
}

// loadMutable fetches a reservation the principal may edit or cancel.
func (s *ReservationService) loadMutable(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	if !principal.Authenticated() {
		return Reservation{}, ErrUnauthorized
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation repository not configured")
	}
	existing, err := s.reservations.GetReservation(ctx, strings.TrimSpace(reservationID))
	if err != nil {
		return Reservation{}, mapReservationRepoError(err, "")
	}
	if !CanMutateReservation(principal, existing) {
		return Reservation{}, ErrUnauthorized
	}
	if existing.Status == StatusCancelled {
		return Reservation{}, ErrAlreadyCancelled
	}
	return existing, nil
}

// ensureAvailable turns overlapping confirmed reservations into a
// ConflictError. Like HasConflict it fails closed.
func (s *ReservationService) ensureAvailable(ctx context.Context, slot reservationSlot, excludeID string) error {
	conflicts, err := s.conflicts(ctx, slot.resourceID, slot.start, slot.end, excludeID)
	if err != nil {
		s.loggerWith(ctx, "HasConflict",
			"resource_id", slot.resourceID,
			"exclude_id", excludeID,
		).ErrorContext(ctx, "conflict check failed, treating as conflict", "error", err, "error_kind", ErrorKind(err))
		return &ConflictError{ResourceID: slot.resourceID}
	}
	if len(conflicts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.ID)
	}
	return &ConflictError{ResourceID: slot.resourceID, ReservationIDs: ids}
}

func (s *ReservationService) notify(ctx context.Context, logger *slog.Logger, kind ChangeKind, r Reservation) {
	if s.notifier == nil {
		return
	}
	change := ReservationChange{
		Kind:          kind,
		ReservationID: r.ID,
		ResourceID:    r.ResourceID,
		UserID:        r.UserID,
		Start:         r.Start,
		End:           r.End,
		Status:        r.Status,
		OccurredAt:    s.now(),
	}
	// The change is committed; a lost signal only delays a refresh.
	if err := s.notifier.NotifyReservationChange(ctx, change); err != nil {
		logger.WarnContext(ctx, "failed to publish reservation change", "error", err, "change", string(kind))
	}
}

type reservationSlot struct {
	resourceID  string
	day         time.Time
	start       time.Time
	end         time.Time
	description *string
}

// parseSlot checks the form fields and anchors the times to the date in the
// school time zone, returning UTC instants.
func (s *ReservationService) parseSlot(resourceID, date, startTime, endTime string) (reservationSlot, *ValidationError) {
	vErr := &ValidationError{}
	slot := reservationSlot{resourceID: strings.TrimSpace(resourceID)}

	if slot.resourceID == "" {
		vErr.add("resourceId", "Selecione um recurso.")
	}

	day, dateErr := time.ParseInLocation(dateLayout, strings.TrimSpace(date), s.location)
	if dateErr != nil {
		vErr.add("date", "Data inválida. Use AAAA-MM-DD.")
	}
	start, startErr := schedule.ParseTimeOfDay(startTime)
	if startErr != nil {
		vErr.add("startTime", "Horário de início inválido. Use HH:MM.")
	}
	end, endErr := schedule.ParseTimeOfDay(endTime)
	if endErr != nil {
		vErr.add("endTime", "Horário de término inválido. Use HH:MM.")
	}
	if startErr == nil && endErr == nil && end <= start {
		vErr.add("endTime", "O horário de término deve ser posterior ao de início.")
	}
	if vErr.HasErrors() {
		return reservationSlot{}, vErr
	}

	slot.day = day
	slot.start = start.On(day, s.location).UTC()
	slot.end = end.On(day, s.location).UTC()
	return slot, vErr
}

// validateInput runs the form checks plus the ones that need storage:
// operating days and resource existence.
func (s *ReservationService) validateInput(ctx context.Context, input ReservationInput) (reservationSlot, error) {
	slot, vErr := s.parseSlot(input.ResourceID, input.Date, input.StartTime, input.EndTime)
	if vErr.HasErrors() {
		return reservationSlot{}, vErr
	}

	vErr = &ValidationError{}
	if description := normalizeOptionalString(input.Description); description != nil {
		if utf8.RuneCountInString(*description) > maxDescriptionLength {
			vErr.add("description", fmt.Sprintf("A descrição deve ter no máximo %d caracteres.", maxDescriptionLength))
		}
		slot.description = description
	}

	if s.calendar != nil {
		open, err := s.calendar.IsOperatingDay(ctx, slot.day)
		switch {
		case err != nil && !isNotFound(err):
			return reservationSlot{}, fmt.Errorf("load settings: %w", err)
		case err == nil && !open:
			vErr.add("date", "A instituição não funciona no dia selecionado.")
		}
	}

	if s.resources != nil {
		if _, err := s.resources.GetResource(ctx, slot.resourceID); err != nil {
			if !isNotFound(err) {
				return reservationSlot{}, fmt.Errorf("load resource: %w", err)
			}
			vErr.add("resourceId", "Recurso não encontrado.")
		}
	}

	if vErr.HasErrors() {
		return reservationSlot{}, vErr
	}
	return slot, nil
}

func toBooking(r Reservation) scheduler.Booking {
	return scheduler.Booking{
		ID:         r.ID,
		ResourceID: r.ResourceID,
		Start:      r.Start,
		End:        r.End,
		Status:     string(r.Status),
	}
}

func mapReservationRepoError(err error, resourceID string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrOverlap):
		return &ConflictError{ResourceID: resourceID}
	case isNotFound(err):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return fieldError("resourceId", "Recurso não encontrado.")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fieldError("endTime", "O horário de término deve ser posterior ao de início.")
	}
	return err
}
