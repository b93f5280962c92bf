package main

import (
	"context"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/schedule"
)

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

// UpdateUser keeps the stored hash when passwordHash is empty.
func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if passwordHash == "" {
		current, err := a.repo.GetUser(ctx, user.ID)
		if err != nil {
			return application.User{}, err
		}
		passwordHash = current.PasswordHash
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	stored, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(stored))
	for _, user := range stored {
		users = append(users, toApplicationUser(user))
	}
	return users, nil
}

func (a *userRepositoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{User: toApplicationUser(stored), PasswordHash: stored.PasswordHash}, nil
}

type resourceRepositoryAdapter struct {
	repo persistence.ResourceRepository
}

func newResourceRepositoryAdapter(repo persistence.ResourceRepository) *resourceRepositoryAdapter {
	return &resourceRepositoryAdapter{repo: repo}
}

func (a *resourceRepositoryAdapter) CreateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	if err := a.repo.CreateResource(ctx, toPersistenceResource(resource)); err != nil {
		return application.Resource{}, err
	}
	return a.GetResource(ctx, resource.ID)
}

func (a *resourceRepositoryAdapter) GetResource(ctx context.Context, id string) (application.Resource, error) {
	stored, err := a.repo.GetResource(ctx, id)
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceRepositoryAdapter) UpdateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	if err := a.repo.UpdateResource(ctx, toPersistenceResource(resource)); err != nil {
		return application.Resource{}, err
	}
	return a.GetResource(ctx, resource.ID)
}

func (a *resourceRepositoryAdapter) DeleteResource(ctx context.Context, id string) error {
	return a.repo.DeleteResource(ctx, id)
}

func (a *resourceRepositoryAdapter) ListResources(ctx context.Context, filter application.ResourceFilter) ([]application.Resource, error) {
	stored, err := a.repo.ListResources(ctx, persistence.ResourceFilter{Type: filter.Type, Tag: filter.Tag})
	if err != nil {
		return nil, err
	}
	resources := make([]application.Resource, 0, len(stored))
	for _, resource := range stored {
		resources = append(resources, toApplicationResource(resource))
	}
	return resources, nil
}

func (a *resourceRepositoryAdapter) CountResources(ctx context.Context) (int, error) {
	return a.repo.CountResources(ctx)
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, reservation.ID)
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.UpdateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, reservation.ID)
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, query application.ReservationQuery) ([]application.Reservation, error) {
	stored, err := a.repo.ListReservations(ctx, toPersistenceFilter(query))
	if err != nil {
		return nil, err
	}
	return toApplicationReservations(stored), nil
}

func (a *reservationRepositoryAdapter) CountReservations(ctx context.Context, query application.ReservationQuery) (int, error) {
	return a.repo.CountReservations(ctx, toPersistenceFilter(query))
}

func (a *reservationRepositoryAdapter) FindOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]application.Reservation, error) {
	stored, err := a.repo.FindOverlapping(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	return toApplicationReservations(stored), nil
}

type settingsRepositoryAdapter struct {
	repo persistence.SettingsRepository
}

func newSettingsRepositoryAdapter(repo persistence.SettingsRepository) *settingsRepositoryAdapter {
	return &settingsRepositoryAdapter{repo: repo}
}

func (a *settingsRepositoryAdapter) GetSettings(ctx context.Context) (application.Settings, error) {
	stored, err := a.repo.GetSettings(ctx)
	if err != nil {
		return application.Settings{}, err
	}
	return toApplicationSettings(stored), nil
}

func (a *settingsRepositoryAdapter) SaveSettings(ctx context.Context, settings application.Settings) (application.Settings, error) {
	if err := a.repo.SaveSettings(ctx, toPersistenceSettings(settings)); err != nil {
		return application.Settings{}, err
	}
	return a.GetSettings(ctx)
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := a.repo.DeleteExpiredSessions(ctx, reference)
	return err
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Role:      application.Role(model.Role),
		Avatar:    cloneString(model.Avatar),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         string(user.Role),
		PasswordHash: passwordHash,
		Avatar:       cloneString(user.Avatar),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationResource(model persistence.Resource) application.Resource {
	return application.Resource{
		ID:        model.ID,
		Name:      model.Name,
		Type:      model.Type,
		Location:  model.Location,
		Capacity:  model.Capacity,
		Equipment: append([]string(nil), model.Equipment...),
		Tags:      append([]string(nil), model.Tags...),
		ImageURL:  cloneString(model.ImageURL),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceResource(resource application.Resource) persistence.Resource {
	return persistence.Resource{
		ID:        resource.ID,
		Name:      resource.Name,
		Type:      resource.Type,
		Location:  resource.Location,
		Capacity:  resource.Capacity,
		Equipment: append([]string(nil), resource.Equipment...),
		Tags:      append([]string(nil), resource.Tags...),
		ImageURL:  cloneString(resource.ImageURL),
		CreatedAt: resource.CreatedAt,
		UpdatedAt: resource.UpdatedAt,
	}
}

func toApplicationReservation(model persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:           model.ID,
		ResourceID:   model.ResourceID,
		UserID:       model.UserID,
		Start:        model.Start,
		End:          model.End,
		Status:       application.ReservationStatus(model.Status),
		Description:  cloneString(model.Description),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		ResourceName: model.ResourceName,
		UserName:     model.UserName,
	}
}

func toApplicationReservations(models []persistence.Reservation) []application.Reservation {
	out := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		out = append(out, toApplicationReservation(model))
	}
	return out
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:          reservation.ID,
		ResourceID:  reservation.ResourceID,
		UserID:      reservation.UserID,
		Start:       reservation.Start,
		End:         reservation.End,
		Status:      string(reservation.Status),
		Description: cloneString(reservation.Description),
		CreatedAt:   reservation.CreatedAt,
		UpdatedAt:   reservation.UpdatedAt,
	}
}

func toPersistenceFilter(query application.ReservationQuery) persistence.ReservationFilter {
	filter := persistence.ReservationFilter{
		ResourceID:   query.ResourceID,
		UserID:       query.UserID,
		EndsAfter:    cloneTime(query.EndsAfter),
		StartsBefore: cloneTime(query.StartsBefore),
		Limit:        query.Limit,
	}
	for _, status := range query.Statuses {
		filter.Statuses = append(filter.Statuses, string(status))
	}
	return filter
}

func toApplicationSettings(model persistence.Settings) application.Settings {
	return application.Settings{
		StartTime:         model.StartTime,
		EndTime:           model.EndTime,
		ClassBlockMinutes: model.ClassBlockMinutes,
		OperatingDays:     append([]int(nil), model.OperatingDays...),
		ClassBlocks:       toScheduleBlocks(model.ClassBlocks),
		Breaks:            toScheduleBlocks(model.Breaks),
		ResourceTags:      append([]string(nil), model.ResourceTags...),
		UpdatedAt:         model.UpdatedAt,
	}
}

func toPersistenceSettings(settings application.Settings) persistence.Settings {
	return persistence.Settings{
		StartTime:         settings.StartTime,
		EndTime:           settings.EndTime,
		ClassBlockMinutes: settings.ClassBlockMinutes,
		OperatingDays:     append([]int(nil), settings.OperatingDays...),
		ClassBlocks:       toTimeBlocks(settings.ClassBlocks),
		Breaks:            toTimeBlocks(settings.Breaks),
		ResourceTags:      append([]string(nil), settings.ResourceTags...),
		UpdatedAt:         settings.UpdatedAt,
	}
}

func toScheduleBlocks(blocks []persistence.TimeBlock) []schedule.Block {
	out := make([]schedule.Block, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, schedule.Block{StartTime: block.StartTime, EndTime: block.EndTime})
	}
	return out
}

func toTimeBlocks(blocks []schedule.Block) []persistence.TimeBlock {
	out := make([]persistence.TimeBlock, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, persistence.TimeBlock{StartTime: block.StartTime, EndTime: block.EndTime})
	}
	return out
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
