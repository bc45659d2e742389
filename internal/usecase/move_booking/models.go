package move_booking

import "time"

// Request модель запроса на перенос бронирования
// Для составной записи перенос применяется ко всем участникам группы
// с сохранением их взаимного расположения
type Request struct {
	BusinessID int64     // ID бизнеса (tenant)
	BookingID  int64     // ID переносимого бронирования
	NewStartAt time.Time // Новое начало именно этого бронирования
}

// MovedBooking представление перенесенного бронирования
type MovedBooking struct {
	ID      int64
	StartAt time.Time
	EndAt   time.Time
}

// Response модель ответа с результатом переноса
type Response struct {
	GroupID  *string        // ID группы, если запись составная
	Bookings []MovedBooking // Все перенесенные бронирования
}
