package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/clientservice"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	CreateGroup(ctx context.Context, bookings []*domain.Booking) ([]*domain.Booking, error)
	CountNoShows(ctx context.Context, businessID, clientID int64) (int, error)
}

// PractitionerRepository интерфейс репозитория специалистов
type PractitionerRepository interface {
	GetByID(ctx context.Context, businessID, id int64) (*domain.Practitioner, error)
}

// CatalogRepository интерфейс репозитория услуг
type CatalogRepository interface {
	GetByIDs(ctx context.Context, businessID int64, ids []int64) ([]*domain.Service, error)
}

// SettingsRepository интерфейс репозитория настроек бизнеса
type SettingsRepository interface {
	Get(ctx context.Context, businessID int64) (*domain.BusinessSettings, error)
}

// ConflictChecker интерфейс детектора конфликтов
type ConflictChecker interface {
	Check(ctx context.Context, businessID, practitionerID int64, proposed domain.Interval, excludeGroupID *string, opts conflict.CheckOptions) error
}

// ClientServiceClient интерфейс клиента для ClientService
type ClientServiceClient interface {
	GetProfileWithGracefulDegradation(ctx context.Context, clientID int64) (*clientservice.Profile, error)
}

// EventPublisher интерфейс издателя событий
type EventPublisher interface {
	Publish(eventType string, businessID int64, payload interface{})
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
