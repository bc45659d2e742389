package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса на создание бронирования
//
// Варианты запроса:
//   - одна услуга: ServiceIDs с одним элементом
//   - составная запись: ServiceIDs с несколькими элементами, услуги
//     размещаются встык начиная со StartAt
//   - freestyle (без услуги, для персонала): ServiceIDs пуст,
//     DurationMinutes обязателен
type Request struct {
	BusinessID     int64                  // ID бизнеса (tenant)
	PractitionerID int64                  // ID специалиста
	ClientID       int64                  // ID клиента
	StartAt        time.Time              // Начало первой услуги
	Mode           domain.AppointmentMode // Формат приема (по умолчанию in_person)
	Notes          *string                // Дополнительные заметки (опционально)

	ServiceIDs []int64 // Услуги в порядке размещения

	// Параметры freestyle-бронирования
	DurationMinutes     *int // Длительность (обязательна без услуг)
	BufferBeforeMinutes int  // Буфер до (опционально)
	BufferAfterMinutes  int  // Буфер после (опционально)
}

// BookingView представление созданного бронирования в ответе
type BookingView struct {
	ID             int64
	BusinessID     int64
	PractitionerID int64
	ClientID       int64
	ServiceID      *int64
	ServiceName    *string
	StartAt        time.Time
	EndAt          time.Time
	Status         string
	Mode           string
	GroupID        *string
	GroupOrder     int
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Response модель ответа с созданными бронированиями
type Response struct {
	GroupID  *string       // Общий ID группы (nil для одиночной записи)
	Bookings []BookingView // Созданные бронирования в порядке размещения

	// DepositSuggested: у клиента накоплено достаточно неявок,
	// чтобы предложить предоплату
	DepositSuggested bool
	NoShowCount      int
}
