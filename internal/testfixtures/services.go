package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
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

// WithLogger overrides the logger handed to the constructed services.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewReservationService builds a reservation service over the supplied
// repositories with the factory clock and identifier generator.
func (f *ServiceFactory) NewReservationService(reservations persistence.ReservationRepository, desks persistence.DeskRepository, offices persistence.OfficeRepository) *application.ReservationService {
	return application.NewReservationServiceWithLogger(
		reservations, desks, offices,
		f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger,
	)
}

// NewCheckInService builds a check-in service with the factory clock.
func (f *ServiceFactory) NewCheckInService(reservations persistence.ReservationRepository, desks persistence.DeskRepository, offices persistence.OfficeRepository) *application.CheckInService {
	return application.NewCheckInServiceWithLogger(reservations, desks, offices, f.Clock.NowFunc(), f.Logger)
}

// NewAvailabilityService builds an availability service with the factory
// clock.
func (f *ServiceFactory) NewAvailabilityService(reservations persistence.ReservationRepository, offices persistence.OfficeRepository) *application.AvailabilityService {
	return application.NewAvailabilityServiceWithLogger(reservations, offices, f.Clock.NowFunc(), f.Logger)
}

// NewAuthService builds an auth service issuing deterministic tokens.
func (f *ServiceFactory) NewAuthService(users persistence.UserRepository, sessions persistence.SessionRepository, ttl time.Duration) *application.AuthService {
	return application.NewAuthServiceWithLogger(
		users, sessions,
		application.VerifyPassword,
		f.IDGenerator.NextFunc(), f.Clock.NowFunc(), ttl, f.Logger,
	)
}

// NewUserService builds a user service with the factory defaults.
func (f *ServiceFactory) NewUserService(users persistence.UserRepository, outbox persistence.OutboxRepository) *application.UserService {
	return application.NewUserServiceWithLogger(users, outbox, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewOfficeService builds an office service with the factory defaults.
func (f *ServiceFactory) NewOfficeService(offices persistence.OfficeRepository) *application.OfficeService {
	return application.NewOfficeServiceWithLogger(offices, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewDeskService builds a desk service where desk IDs and QR tokens come
// from the same deterministic sequence.
func (f *ServiceFactory) NewDeskService(desks persistence.DeskRepository, offices persistence.OfficeRepository) *application.DeskService {
	next := f.IDGenerator.NextFunc()
	return application.NewDeskServiceWithLogger(desks, offices, next, next, f.Clock.NowFunc(), f.Logger)
}
