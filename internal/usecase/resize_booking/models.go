package resize_booking

import "time"

// Request модель запроса на изменение границ бронирования
// Изменяется только указанное бронирование, даже если оно участник группы.
// Незаданная граница остается прежней.
type Request struct {
	BusinessID int64      // ID бизнеса (tenant)
	BookingID  int64      // ID бронирования
	NewStartAt *time.Time // Новое начало (опционально)
	NewEndAt   *time.Time // Новый конец (опционально)
}

// Response модель ответа с обновленными границами
type Response struct {
	ID      int64
	StartAt time.Time
	EndAt   time.Time
}
