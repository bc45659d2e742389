package domain

// Default configuration values
const (
	DefaultSlotIncrementMinutes = 15
	DefaultOfferExpiryMinutes   = 120 // 2 hours

	// DepositWarningNoShowCount порог количества no-show, после которого
	// при создании бронирования рекомендуется предоплата (мягкое предупреждение)
	DepositWarningNoShowCount = 3
)

// Business validation constants
const (
	MinSlotIncrementMinutes = 5
	MaxSlotIncrementMinutes = 120
	MinDurationMinutes      = 5
	MaxDurationMinutes      = 480 // 8 hours
	MaxBufferMinutes        = 120
	MaxNotesLength          = 500
	MaxGroupMembers         = 10
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// FrozenStatuses список терминальных статусов
// Бронирования в этих статусах не учитываются при проверке конфликтов
var FrozenStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

// ActiveStatuses список статусов, занимающих время специалиста
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusModifiedPending,
}
