package application

import (
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/schedule"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/scheduler"
)

// Role is the access level of an account.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "Usuário"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal has administrator rights.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authenticated reports whether the principal identifies a user.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// SystemPrincipal acts on behalf of operator tooling such as the CLI.
func SystemPrincipal() Principal {
	return Principal{UserID: "system", Role: RoleAdmin}
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = scheduler.StatusConfirmed
	StatusPending   ReservationStatus = scheduler.StatusPending
	StatusCancelled ReservationStatus = scheduler.StatusCancelled
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Resource is a bookable room or piece of equipment.
type Resource struct {
	ID        string
	Name      string
	Type      string
	Location  string
	Capacity  int
	Equipment []string
	Tags      []string
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResourceInput captures caller provided resource fields.
type ResourceInput struct {
	Name      string
	Type      string
	Location  string
	Capacity  int
	Equipment []string
	Tags      []string
}

// ResourceFilter narrows resource listings.
type ResourceFilter struct {
	Type string
	Tag  string
}

// CreateResourceParams wraps the data required to create a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// UpdateResourceParams wraps the data required to update a resource.
type UpdateResourceParams struct {
	Principal  Principal
	ResourceID string
	Input      ResourceInput
}

// Reservation is a booking of one resource over a half-open interval.
type Reservation struct {
	ID           string
	ResourceID   string
	UserID       string
	Start        time.Time
	End          time.Time
	Status       ReservationStatus
	Description  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResourceName string
	UserName     string
}

// ReservationInput is the form submitted to create or edit a reservation.
// Date is "YYYY-MM-DD"; StartTime and EndTime are "HH:MM" in the school time zone.
type ReservationInput struct {
	ResourceID  string
	Date        string
	StartTime   string
	EndTime     string
	Description *string
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationParams wraps the data required to edit a reservation.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Input         ReservationInput
}

// ConflictCheckParams describes a prospective booking to test for conflicts.
type ConflictCheckParams struct {
	ResourceID string
	Date       string
	StartTime  string
	EndTime    string
	ExcludeID  string
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	ResourceID string
	UserID     string
	Status     ReservationStatus
	From       *time.Time
	To         *time.Time
}

// ListReservationsParams wraps the data required to list reservations.
type ListReservationsParams struct {
	Principal Principal
	Filter    ReservationFilter
}

// ReservationQuery is the storage level selection used by ReservationRepository.
type ReservationQuery struct {
	ResourceID   string
	UserID       string
	Statuses     []ReservationStatus
	EndsAfter    *time.Time
	StartsBefore *time.Time
	Limit        int
}

// DashboardSummary aggregates the counters shown on the dashboard.
type DashboardSummary struct {
	Day            string
	ResourceCount  int
	ConfirmedToday int
	Upcoming       []Reservation
}

// ChangeKind names a reservation lifecycle event.
type ChangeKind string

const (
	ChangeCreated   ChangeKind = "created"
	ChangeUpdated   ChangeKind = "updated"
	ChangeCancelled ChangeKind = "cancelled"
)

// ReservationChange is the signal emitted after a reservation mutation so
// views showing reservations can refresh.
type ReservationChange struct {
	Kind          ChangeKind
	ReservationID string
	ResourceID    string
	UserID        string
	Start         time.Time
	End           time.Time
	Status        ReservationStatus
	OccurredAt    time.Time
}

// Settings holds the institution's scheduling rules.
type Settings struct {
	StartTime         string
	EndTime           string
	ClassBlockMinutes int
	OperatingDays     []int
	ClassBlocks       []schedule.Block
	Breaks            []schedule.Block
	ResourceTags      []string
	UpdatedAt         time.Time
}

// SettingsInput captures the administrator supplied settings.
type SettingsInput struct {
	StartTime         string
	EndTime           string
	ClassBlockMinutes int
	OperatingDays     []int
	ClassBlocks       []schedule.Block
	Breaks            []schedule.Block
	ResourceTags      []string
}

// UpdateSettingsParams wraps the data required to replace the settings.
type UpdateSettingsParams struct {
	Principal Principal
	Input     SettingsInput
}

// User is an account exposed by the application services.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Avatar    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserInput captures caller provided user attributes. An empty Password
// keeps the stored one on update.
type UserInput struct {
	Name     string
	Email    string
	Role     Role
	Password string
	Avatar   *string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
// AccessToken is the signed token clients present on later requests.
type AuthenticateResult struct {
	User        User
	Session     Session
	AccessToken string
}
