package practitioner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Repository репозиторий специалистов, их недельных расписаний и исключений
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория специалистов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает специалиста по ID в рамках бизнеса
func (r *Repository) GetByID(ctx context.Context, businessID, id int64) (*domain.Practitioner, error) {
	if err := requireTenant(businessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"business_id",
		"name",
		"slot_increment_minutes",
		"created_at",
		"updated_at",
	).
		From("practitioners").
		Where(squirrel.Eq{"id": id, "business_id": businessID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.Practitioner
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.BusinessID,
		&p.Name,
		&p.SlotIncrementMinutes,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrPractitionerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan practitioner: %v", ErrScanRow, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}

// LoadSchedule возвращает недельное расписание специалиста
// День недели без строк - закрытый день
func (r *Repository) LoadSchedule(ctx context.Context, businessID, practitionerID int64) (domain.WeeklySchedule, error) {
	if err := requireTenant(businessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"weekday",
		"start_time",
		"end_time",
	).
		From("practitioner_schedule").
		Where(squirrel.Eq{
			"business_id":     businessID,
			"practitioner_id": practitionerID,
		}).
		OrderBy("weekday ASC, start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: LoadSchedule - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: LoadSchedule - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	schedule := make(domain.WeeklySchedule)
	for rows.Next() {
		var weekday int
		var start, end types.TimeString

		if err := rows.Scan(&weekday, &start, &end); err != nil {
			return nil, fmt.Errorf("%w: LoadSchedule - scan row: %v", ErrScanRow, err)
		}

		wd := time.Weekday(weekday)
		schedule[wd] = append(schedule[wd], domain.TimeWindow{Start: start, End: end})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: LoadSchedule - rows error: %v", ErrScanRow, err)
	}

	return schedule, nil
}

// LoadExceptions возвращает исключения специалиста за период [from, to]
//
// Исключение хранится как набор строк на дату: строка с NULL-временами
// означает полное закрытие даты, строки с временами - замещающие окна
func (r *Repository) LoadExceptions(ctx context.Context, businessID, practitionerID int64, from, to time.Time) ([]*domain.AvailabilityException, error) {
	if err := requireTenant(businessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"date",
		"start_time",
		"end_time",
	).
		From("availability_exceptions").
		Where(squirrel.Eq{
			"business_id":     businessID,
			"practitioner_id": practitionerID,
		}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		OrderBy("date ASC, start_time ASC NULLS FIRST").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: LoadExceptions - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: LoadExceptions - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	// Группируем строки по дате
	byDate := make(map[string]*domain.AvailabilityException)
	var order []string

	for rows.Next() {
		var id int64
		var date time.Time
		var start, end *types.TimeString

		if err := rows.Scan(&id, &date, &start, &end); err != nil {
			return nil, fmt.Errorf("%w: LoadExceptions - scan row: %v", ErrScanRow, err)
		}

		key := date.Format(domain.DateFormat)
		exc, ok := byDate[key]
		if !ok {
			exc = &domain.AvailabilityException{
				ID:             id,
				BusinessID:     businessID,
				PractitionerID: practitionerID,
				Date:           date,
				Windows:        []domain.TimeWindow{},
			}
			byDate[key] = exc
			order = append(order, key)
		}

		// NULL-времена - закрытие даты: окон не добавляем
		if start != nil && end != nil {
			exc.Windows = append(exc.Windows, domain.TimeWindow{Start: *start, End: *end})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: LoadExceptions - rows error: %v", ErrScanRow, err)
	}

	result := make([]*domain.AvailabilityException, 0, len(order))
	for _, key := range order {
		result = append(result, byDate[key])
	}

	return result, nil
}

func requireTenant(businessID int64) error {
	if businessID <= 0 {
		return fmt.Errorf("practitioner.repository: %w", domain.ErrMissingTenant)
	}
	return nil
}
