package waitlist

import "errors"

var (
	// ErrEntryNotFound возвращается, когда запись вейтлиста не найдена
	ErrEntryNotFound = errors.New("waitlist entry not found")

	// ErrNoActiveOffer возвращается при попытке принять оффер,
	// когда запись не находится в состоянии offered
	ErrNoActiveOffer = errors.New("waitlist entry has no active offer")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("waitlist service: internal error")
)
