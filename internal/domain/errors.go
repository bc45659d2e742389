package domain

import "errors"

// Канонические ошибки планирования. Все они - восстановимые отказы,
// возвращаемые вызывающей стороне; они никогда не фатальны для процесса.
var (
	// ErrSlotOccupied возвращается при пересечении с другим активным бронированием
	ErrSlotOccupied = errors.New("slot is occupied")

	// ErrPastSlot возвращается, когда предложенный интервал начинается в прошлом
	ErrPastSlot = errors.New("slot is in the past")

	// ErrBookingFrozen возвращается при попытке изменить бронирование в терминальном статусе
	ErrBookingFrozen = errors.New("booking is frozen")

	// ErrInvalidInterval возвращается при неположительном или некорректном интервале
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrGroupPartialFailure возвращается, когда один из участников группы
	// не прошел валидацию - вся группа откатывается
	ErrGroupPartialFailure = errors.New("group member failed validation")

	// ErrOfferExpired возвращается для истекшего оффера вейтлиста
	ErrOfferExpired = errors.New("waitlist offer expired")

	// ErrNoAvailability возвращается, когда перечисление слотов не нашло кандидатов
	ErrNoAvailability = errors.New("no availability")

	// ErrMissingTenant возвращается на запрос без явного идентификатора бизнеса
	ErrMissingTenant = errors.New("missing business id")
)
