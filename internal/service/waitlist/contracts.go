package waitlist

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
)

// WaitlistRepository интерфейс репозитория записей вейтлиста
type WaitlistRepository interface {
	Create(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error)
	GetByID(ctx context.Context, businessID, id int64) (*domain.WaitlistEntry, error)
	ListWaiting(ctx context.Context, businessID int64) ([]*domain.WaitlistEntry, error)
	ListExpiredOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error)
	SetOffer(ctx context.Context, businessID, id int64, offer domain.SlotFreed, offeredAt, expiresAt time.Time) error
	TransitionState(ctx context.Context, businessID, id int64, from, to domain.WaitlistState) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// SettingsRepository интерфейс репозитория настроек бизнеса
type SettingsRepository interface {
	Get(ctx context.Context, businessID int64) (*domain.BusinessSettings, error)
}

// ConflictChecker интерфейс детектора конфликтов
type ConflictChecker interface {
	Check(ctx context.Context, businessID, practitionerID int64, proposed domain.Interval, excludeGroupID *string, opts conflict.CheckOptions) error
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
