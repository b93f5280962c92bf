package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ResourceFilter narrows resource listings. Empty fields match everything.
type ResourceFilter struct {
	Type string
	Tag  string
}

// ResourceRepository exposes CRUD operations for resources. Deleting a
// resource removes its reservations.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	UpdateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context, filter ResourceFilter) ([]Resource, error)
	DeleteResource(ctx context.Context, id string) error
	CountResources(ctx context.Context) (int, error)
}

// ReservationFilter narrows reservation queries. Together EndsAfter and
// StartsBefore select reservations intersecting that window.
type ReservationFilter struct {
	ResourceID   string
	UserID       string
	Statuses     []string
	EndsAfter    *time.Time
	StartsBefore *time.Time
	Limit        int
}

// ReservationRepository stores reservations.
//
// CreateReservation and UpdateReservation check for overlapping confirmed
// reservations and write in one transaction, returning ErrOverlap instead of
// writing when the row would collide.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	CountReservations(ctx context.Context, filter ReservationFilter) (int, error)
	FindOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]Reservation, error)
}

// SettingsRepository reads and replaces the settings singleton.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error)
}
