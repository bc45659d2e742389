package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	// LoadSchedule возвращает недельное расписание специалиста
	LoadSchedule(ctx context.Context, businessID, practitionerID int64) (domain.WeeklySchedule, error)
	// LoadExceptions возвращает исключения специалиста за период [from, to]
	LoadExceptions(ctx context.Context, businessID, practitionerID int64, from, to time.Time) ([]*domain.AvailabilityException, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
