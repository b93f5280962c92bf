package testfixtures

import (
	"log/slog"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    time.UTC,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = time.UTC
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLocation sets the school time zone handed to reservation services.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

func (f *ServiceFactory) ids(override func() string) func() string {
	if override != nil {
		return override
	}
	return f.IDGenerator.NextFunc()
}

func (f *ServiceFactory) now(override func() time.Time) func() time.Time {
	if override != nil {
		return override
	}
	return f.Clock.NowFunc()
}

// ReservationServiceDeps captures dependencies for a reservation service.
type ReservationServiceDeps struct {
	Reservations application.ReservationRepository
	Resources    application.ResourceLookup
	Calendar     application.OperatingCalendar
	Notifier     application.ChangeNotifier
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewReservationService builds a reservation service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewReservationService(deps ReservationServiceDeps) *application.ReservationService {
	return application.NewReservationServiceWithLogger(
		deps.Reservations,
		deps.Resources,
		deps.Calendar,
		deps.Notifier,
		f.ids(deps.IDGenerator),
		f.now(deps.Now),
		f.Location,
		deps.Logger,
	)
}

// ResourceServiceDeps captures dependencies for a resource service.
type ResourceServiceDeps struct {
	Resources   application.ResourceRepository
	Settings    application.SettingsReader
	Images      application.ImageStore
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewResourceService builds a resource service.
func (f *ServiceFactory) NewResourceService(deps ResourceServiceDeps) *application.ResourceService {
	return application.NewResourceServiceWithLogger(
		deps.Resources,
		deps.Settings,
		deps.Images,
		f.ids(deps.IDGenerator),
		f.now(deps.Now),
		deps.Logger,
	)
}

// SettingsServiceDeps captures dependencies for a settings service.
type SettingsServiceDeps struct {
	Settings application.SettingsRepository
	Now      func() time.Time
	Logger   *slog.Logger
}

// NewSettingsService builds a settings service.
func (f *ServiceFactory) NewSettingsService(deps SettingsServiceDeps) *application.SettingsService {
	return application.NewSettingsServiceWithLogger(deps.Settings, f.now(deps.Now), deps.Logger)
}

// UserServiceDeps captures dependencies for a user service.
type UserServiceDeps struct {
	Users       application.UserRepository
	Hash        application.PasswordHashFunc
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewUserService builds a user service. Without Hash it hashes with cheap
// argon2id parameters so tests stay fast.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	hash := deps.Hash
	if hash == nil {
		hash = FastPasswordHasher().Hash
	}
	return application.NewUserServiceWithLogger(
		deps.Users,
		hash,
		f.ids(deps.IDGenerator),
		f.now(deps.Now),
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	Secret         string
	Verify         application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service signing tokens with deps.Secret,
// "segredo-de-teste" when empty.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) (*application.AuthService, error) {
	now := f.now(deps.Now)
	secret := deps.Secret
	if secret == "" {
		secret = "segredo-de-teste"
	}
	signer, err := application.NewTokenSigner(secret, now)
	if err != nil {
		return nil, err
	}
	verify := deps.Verify
	if verify == nil {
		verify = FastPasswordHasher().Verify
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		signer,
		verify,
		f.ids(deps.TokenGenerator),
		now,
		deps.SessionTTL,
		deps.Logger,
	), nil
}

// FastPasswordHasher returns an argon2id hasher with parameters small enough
// for tests. Hashes it produces verify with the production hasher.
func FastPasswordHasher() *application.PasswordHasher {
	return application.NewPasswordHasher(application.Argon2idParams{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
}
