package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
)

// AvailabilityModel интерфейс модели доступности специалиста
type AvailabilityModel interface {
	OpenWindows(ctx context.Context, businessID, practitionerID int64, from, to time.Time) ([]availability.DayWindows, error)
}

// PractitionerRepository интерфейс репозитория специалистов
type PractitionerRepository interface {
	GetByID(ctx context.Context, businessID, id int64) (*domain.Practitioner, error)
}

// CatalogRepository интерфейс репозитория услуг
type CatalogRepository interface {
	GetByID(ctx context.Context, businessID, id int64) (*domain.Service, error)
}

// SettingsRepository интерфейс репозитория настроек бизнеса
type SettingsRepository interface {
	Get(ctx context.Context, businessID int64) (*domain.BusinessSettings, error)
}

// ConflictChecker интерфейс детектора конфликтов
type ConflictChecker interface {
	Check(ctx context.Context, businessID, practitionerID int64, proposed domain.Interval, excludeGroupID *string, opts conflict.CheckOptions) error
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
