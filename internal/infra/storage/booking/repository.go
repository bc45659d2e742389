package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"business_id",
	"practitioner_id",
	"client_id",
	"service_id",
	"start_at",
	"end_at",
	"buffer_before_minutes",
	"buffer_after_minutes",
	"status",
	"mode",
	"group_id",
	"group_order",
	"service_name",
	"client_name",
	"notes",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
// Все методы принимают явный businessID (tenant) и отклоняют запрос без него
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает одно бронирование
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if err := requireTenant(booking.BusinessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"business_id",
			"practitioner_id",
			"client_id",
			"service_id",
			"start_at",
			"end_at",
			"buffer_before_minutes",
			"buffer_after_minutes",
			"status",
			"mode",
			"group_id",
			"group_order",
			"service_name",
			"client_name",
			"notes",
		).
		Values(
			booking.BusinessID,
			booking.PractitionerID,
			booking.ClientID,
			booking.ServiceID,
			booking.StartAt,
			booking.EndAt,
			booking.BufferBeforeMinutes,
			booking.BufferAfterMinutes,
			booking.Status,
			booking.Mode,
			booking.GroupID,
			booking.GroupOrder,
			booking.ServiceName,
			booking.ClientName,
			booking.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// CreateGroup создает все бронирования группы
// Вызывается ТОЛЬКО внутри транзакции: частичное создание группы - нарушение
// корректности, откат при любой ошибке обеспечивает менеджер транзакций
func (r *Repository) CreateGroup(ctx context.Context, bookings []*domain.Booking) ([]*domain.Booking, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return nil, fmt.Errorf("%w: CreateGroup requires an active transaction", ErrExecQuery)
	}

	created := make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		res, err := r.Create(ctx, b)
		if err != nil {
			return nil, err
		}
		created = append(created, res)
	}

	return created, nil
}

// GetByID получает бронирование по ID в рамках бизнеса
func (r *Repository) GetByID(ctx context.Context, businessID, id int64) (*domain.Booking, error) {
	if err := requireTenant(businessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id, "business_id": businessID})

	// Внутри транзакции строка блокируется: конкурирующий переход статуса
	// ждет и увидит уже зафиксированное состояние
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetGroup получает всех участников группы, отсортированных по group_order
func (r *Repository) GetGroup(ctx context.Context, businessID int64, groupID string) ([]*domain.Booking, error) {
	if err := requireTenant(businessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"group_id": groupID, "business_id": businessID}).
		OrderBy("group_order ASC")

	// Внутри транзакции блокируем участников группы на время операции
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetGroup - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetGroup - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrGroupNotFound
	}

	return bookings, nil
}

// GetByPractitionerWithFilter получает бронирования специалиста с фильтрацией
// по периоду и признаку заморозки
//
// Фильтр по периоду сравнивает занятые интервалы: бронирование попадает в
// выборку, если [start_at - buffer, end_at + buffer) пересекает [From, To)
func (r *Repository) GetByPractitionerWithFilter(ctx context.Context, filter domain.PractitionerBookingsFilter) ([]*domain.Booking, error) {
	if err := requireTenant(filter.BusinessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{
			"business_id":     filter.BusinessID,
			"practitioner_id": filter.PractitionerID,
		})

	// Пересечение занятых интервалов с запрошенным периодом (полуоткрытые границы)
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(
			"end_at + buffer_after_minutes * interval '1 minute' > ?", *filter.From)
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(
			"start_at - buffer_before_minutes * interval '1 minute' < ?", *filter.To)
	}

	if filter.ExcludeFrozen {
		frozen := make([]string, len(domain.FrozenStatuses))
		for i, s := range domain.FrozenStatuses {
			frozen[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": frozen})
	}

	selectBuilder = selectBuilder.OrderBy("start_at ASC")

	// Внутри транзакции блокируем строки периода: проверка конфликта и запись
	// мутации должны быть атомарны относительно других мутаций того же специалиста
	if dbmetrics.IsInTransaction(ctx) && filter.From != nil && filter.To != nil {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPractitionerWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPractitionerWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateTimes обновляет интервал бронирования (move/resize)
func (r *Repository) UpdateTimes(ctx context.Context, businessID, id int64, interval domain.Interval) error {
	if err := requireTenant(businessID); err != nil {
		return err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("start_at", interval.Start).
		Set("end_at", interval.End).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "business_id": businessID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateTimes - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateTimes - execute update: %v", ErrExecQuery, err)
	}

	return requireRowsAffected(result, "UpdateTimes")
}

// UpdateStatus переводит бронирование из статуса from в статус to
// Guard по from защищает от гонки двух конкурирующих переходов:
// проигравший получает ErrStatusConflict, терминальный статус не перезаписывается
func (r *Repository) UpdateStatus(ctx context.Context, businessID, id int64, from, to domain.BookingStatus) error {
	if err := requireTenant(businessID); err != nil {
		return err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":          id,
			"business_id": businessID,
			"status":      from,
		}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	return requireStatusApplied(result, "UpdateStatus")
}

// Cancel отменяет бронирование с указанием причины
// Guard по from аналогичен UpdateStatus
func (r *Repository) Cancel(ctx context.Context, businessID, id int64, from domain.BookingStatus, reason string) error {
	if err := requireTenant(businessID); err != nil {
		return err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":          id,
			"business_id": businessID,
			"status":      from,
		}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	return requireStatusApplied(result, "Cancel")
}

func requireStatusApplied(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// CountNoShows возвращает количество no-show клиента в рамках бизнеса
// Используется для мягкого предупреждения о предоплате
func (r *Repository) CountNoShows(ctx context.Context, businessID, clientID int64) (int, error) {
	if err := requireTenant(businessID); err != nil {
		return 0, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{
			"business_id": businessID,
			"client_id":   clientID,
			"status":      string(domain.StatusNoShow),
		}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: CountNoShows - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountNoShows - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// requireTenant отклоняет запрос без явного идентификатора бизнеса
func requireTenant(businessID int64) error {
	if businessID <= 0 {
		return fmt.Errorf("booking.repository: %w", domain.ErrMissingTenant)
	}
	return nil
}

func requireRowsAffected(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.BusinessID,
		&booking.PractitionerID,
		&booking.ClientID,
		&booking.ServiceID,
		&booking.StartAt,
		&booking.EndAt,
		&booking.BufferBeforeMinutes,
		&booking.BufferAfterMinutes,
		&booking.Status,
		&booking.Mode,
		&booking.GroupID,
		&booking.GroupOrder,
		&booking.ServiceName,
		&booking.ClientName,
		&booking.Notes,
		&booking.CancellationReason,
		&booking.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
