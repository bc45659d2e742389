package waitlist

import "errors"

var (
	// ErrEntryNotFound возвращается, когда запись вейтлиста не найдена
	ErrEntryNotFound = errors.New("waitlist.repository: entry not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("waitlist.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("waitlist.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("waitlist.repository: failed to scan row")

	// ErrStateConflict возвращается, когда переход состояния не применился
	// (запись уже изменена конкурирующей операцией)
	ErrStateConflict = errors.New("waitlist.repository: entry state conflict")
)
