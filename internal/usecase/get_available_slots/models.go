package get_available_slots

import "time"

// Request модель запроса доступных слотов
// Длительность берется из услуги; для freestyle-интервала (без услуги)
// она передается явно через DurationMinutes
type Request struct {
	BusinessID     int64      // ID бизнеса (tenant)
	PractitionerID int64      // ID специалиста
	ServiceID      *int64     // ID услуги (опционально)
	DurationMinutes *int      // Явная длительность без услуги
	From           time.Time  // Начало диапазона (дата)
	To             time.Time  // Конец диапазона (дата, включительно)
}

// Slot доступный слот в ответе
type Slot struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// DaySlots слоты на одну дату
type DaySlots struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Slots []Slot `json:"slots"`
}

// Response модель ответа с доступными слотами по датам
type Response struct {
	PractitionerID int64      `json:"practitioner_id"`
	ServiceID      *int64     `json:"service_id,omitempty"`
	Days           []DaySlots `json:"days"`
}
