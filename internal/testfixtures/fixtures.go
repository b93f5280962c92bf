package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/schedule"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/scheduler"
)

var (
	userCounter        uint64
	resourceCounter    uint64
	reservationCounter uint64
	sessionCounter     uint64
)

// referenceTime is a Monday, noon UTC.
var referenceTime = time.Date(2024, time.March, 11, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Name         string
	Email        string
	Role         application.Role
	PasswordHash string
	Avatar       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Name:         fmt.Sprintf("Usuário %03d", idx),
		Email:        fmt.Sprintf("%s@escola.test", id),
		Role:         application.RoleUser,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserName overrides the generated name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserRole sets the account role.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserAdmin is shorthand for WithUserRole(application.RoleAdmin).
func WithUserAdmin() UserOption {
	return WithUserRole(application.RoleAdmin)
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserAvatar sets the avatar URL.
func WithUserAvatar(url string) UserOption {
	return func(f *UserFixture) {
		f.Avatar = &url
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Role:      f.Role,
		Avatar:    copyStringPtr(f.Avatar),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

// Principal returns the principal acting as this user.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		Role:         string(f.Role),
		PasswordHash: f.PasswordHash,
		Avatar:       copyStringPtr(f.Avatar),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Resource fixtures -------------------------

// ResourceFixture represents a deterministic bookable resource.
type ResourceFixture struct {
	ID        string
	Name      string
	Type      string
	Location  string
	Capacity  int
	Equipment []string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResourceOption configures the generated resource fixture.
type ResourceOption func(*ResourceFixture)

// NewResourceFixture returns a deterministic resource fixture with optional overrides.
func NewResourceFixture(opts ...ResourceOption) ResourceFixture {
	idx := atomic.AddUint64(&resourceCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ResourceFixture{
		ID:        fmt.Sprintf("resource-%03d", idx),
		Name:      fmt.Sprintf("Sala %03d", idx),
		Type:      "Sala",
		Location:  "Bloco A",
		Capacity:  30,
		Equipment: []string{"Projetor"},
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResourceID overrides the generated resource ID.
func WithResourceID(id string) ResourceOption {
	return func(f *ResourceFixture) {
		f.ID = id
	}
}

// WithResourceName overrides the generated name.
func WithResourceName(name string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Name = name
	}
}

// WithResourceType overrides the resource type.
func WithResourceType(kind string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Type = kind
	}
}

// WithResourceCapacity overrides the capacity.
func WithResourceCapacity(capacity int) ResourceOption {
	return func(f *ResourceFixture) {
		f.Capacity = capacity
	}
}

// WithResourceTags sets the tags.
func WithResourceTags(tags ...string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Tags = append([]string(nil), tags...)
	}
}

// Application returns the fixture as an application.Resource value.
func (f ResourceFixture) Application() application.Resource {
	return application.Resource{
		ID:        f.ID,
		Name:      f.Name,
		Type:      f.Type,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Equipment: append([]string(nil), f.Equipment...),
		Tags:      append([]string(nil), f.Tags...),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Resource value.
func (f ResourceFixture) Persistence() persistence.Resource {
	return persistence.Resource{
		ID:        f.ID,
		Name:      f.Name,
		Type:      f.Type,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Equipment: append([]string(nil), f.Equipment...),
		Tags:      append([]string(nil), f.Tags...),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as a create or update form.
func (f ResourceFixture) Input() application.ResourceInput {
	return application.ResourceInput{
		Name:      f.Name,
		Type:      f.Type,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Equipment: append([]string(nil), f.Equipment...),
		Tags:      append([]string(nil), f.Tags...),
	}
}

// ----------------------------- Reservation fixtures ----------------------

// ReservationFixture represents a deterministic reservation, confirmed by
// default and lasting one hour from ReferenceTime.
type ReservationFixture struct {
	ID          string
	ResourceID  string
	UserID      string
	Start       time.Time
	End         time.Time
	Status      application.ReservationStatus
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a deterministic reservation fixture with optional overrides.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	fixture := ReservationFixture{
		ID:         fmt.Sprintf("reservation-%03d", idx),
		ResourceID: "resource-001",
		UserID:     "user-001",
		Start:      referenceTime,
		End:        referenceTime.Add(time.Hour),
		Status:     application.StatusConfirmed,
		CreatedAt:  referenceTime,
		UpdatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationResource sets the booked resource.
func WithReservationResource(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ResourceID = id
	}
}

// WithReservationUser sets the owner.
func WithReservationUser(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.UserID = id
	}
}

// WithReservationInterval sets the half-open booked interval.
func WithReservationInterval(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// WithReservationStatus sets the lifecycle status.
func WithReservationStatus(status application.ReservationStatus) ReservationOption {
	return func(f *ReservationFixture) {
		f.Status = status
	}
}

// WithReservationDescription sets the optional description.
func WithReservationDescription(description string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Description = &description
	}
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:          f.ID,
		ResourceID:  f.ResourceID,
		UserID:      f.UserID,
		Start:       f.Start,
		End:         f.End,
		Status:      f.Status,
		Description: copyStringPtr(f.Description),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:          f.ID,
		ResourceID:  f.ResourceID,
		UserID:      f.UserID,
		Start:       f.Start,
		End:         f.End,
		Status:      string(f.Status),
		Description: copyStringPtr(f.Description),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Booking returns the fixture as the conflict detector sees it.
func (f ReservationFixture) Booking() scheduler.Booking {
	return scheduler.Booking{
		ID:         f.ID,
		ResourceID: f.ResourceID,
		Start:      f.Start,
		End:        f.End,
		Status:     string(f.Status),
	}
}

// ----------------------------- Settings ---------------------------------

// DefaultSettings mirrors the settings row seeded by the migrations.
func DefaultSettings() application.Settings {
	return application.Settings{
		StartTime:         "07:30",
		EndTime:           "12:00",
		ClassBlockMinutes: 50,
		OperatingDays:     []int{1, 2, 3, 4, 5},
		ClassBlocks: []schedule.Block{
			{StartTime: "07:30", EndTime: "08:20"},
			{StartTime: "08:20", EndTime: "09:10"},
			{StartTime: "09:30", EndTime: "10:20"},
			{StartTime: "10:20", EndTime: "11:10"},
			{StartTime: "11:10", EndTime: "12:00"},
		},
		Breaks: []schedule.Block{{StartTime: "09:10", EndTime: "09:30"}},
	}
}

// ----------------------------- Session fixtures -------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(8 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionUserID sets the user ID.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
