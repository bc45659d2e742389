package bookings

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, businessID, id int64) (*domain.Booking, error)
	GetGroup(ctx context.Context, businessID int64, groupID string) ([]*domain.Booking, error)
	GetByPractitionerWithFilter(ctx context.Context, filter domain.PractitionerBookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, businessID, id int64, from, to domain.BookingStatus) error
	Cancel(ctx context.Context, businessID, id int64, from domain.BookingStatus, reason string) error
}

// SlotFreedHandler обрабатывает освобождение слота (вейтлист)
type SlotFreedHandler interface {
	HandleSlotFreed(ctx context.Context, freed domain.SlotFreed)
}

// EventPublisher интерфейс издателя событий
type EventPublisher interface {
	Publish(eventType string, businessID int64, payload interface{})
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
