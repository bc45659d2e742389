package waitlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var entryColumns = []string{
	"id",
	"business_id",
	"client_id",
	"practitioner_id",
	"service_id",
	"window_start",
	"window_end",
	"state",
	"offer_practitioner_id",
	"offer_service_id",
	"offer_start_at",
	"offer_end_at",
	"offered_at",
	"offer_expires_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий записей вейтлиста
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория вейтлиста
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись вейтлиста в состоянии waiting
func (r *Repository) Create(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	if err := requireTenant(entry.BusinessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("waitlist_entries").
		Columns(
			"business_id",
			"client_id",
			"practitioner_id",
			"service_id",
			"window_start",
			"window_end",
			"state",
		).
		Values(
			entry.BusinessID,
			entry.ClientID,
			entry.PractitionerID,
			entry.ServiceID,
			entry.WindowStart,
			entry.WindowEnd,
			domain.WaitlistWaiting,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&entry.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	entry.State = domain.WaitlistWaiting
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	return entry, nil
}

// GetByID получает запись вейтлиста по ID в рамках бизнеса
func (r *Repository) GetByID(ctx context.Context, businessID, id int64) (*domain.WaitlistEntry, error) {
	if err := requireTenant(businessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(entryColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"id": id, "business_id": businessID})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	entry, err := scanEntry(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan entry: %v", ErrScanRow, err)
	}

	return entry, nil
}

// ListWaiting возвращает записи в состоянии waiting, отсортированные FIFO
// (по created_at - ранжирование кандидатов каскада)
func (r *Repository) ListWaiting(ctx context.Context, businessID int64) ([]*domain.WaitlistEntry, error) {
	if err := requireTenant(businessID); err != nil {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(entryColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{
			"business_id": businessID,
			"state":       domain.WaitlistWaiting,
		}).
		OrderBy("created_at ASC, id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListWaiting - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWaiting - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListExpiredOffers возвращает записи во всех бизнесах, чей оффер истек к now
// Используется фоновой проверкой истечения (sweep)
func (r *Repository) ListExpiredOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(entryColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"state": domain.WaitlistOffered}).
		Where(squirrel.LtOrEq{"offer_expires_at": now}).
		OrderBy("offer_expires_at ASC, id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredOffers - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredOffers - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// SetOffer переводит запись waiting -> offered и записывает оффер
// Возвращает ErrStateConflict, если запись уже не в состоянии waiting
func (r *Repository) SetOffer(ctx context.Context, businessID, id int64, offer domain.SlotFreed, offeredAt, expiresAt time.Time) error {
	if err := requireTenant(businessID); err != nil {
		return err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("waitlist_entries").
		Set("state", domain.WaitlistOffered).
		Set("offer_practitioner_id", offer.PractitionerID).
		Set("offer_service_id", offer.ServiceID).
		Set("offer_start_at", offer.StartAt).
		Set("offer_end_at", offer.EndAt).
		Set("offered_at", offeredAt).
		Set("offer_expires_at", expiresAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":          id,
			"business_id": businessID,
			"state":       domain.WaitlistWaiting,
		}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetOffer - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetOffer - execute update: %v", ErrExecQuery, err)
	}

	return requireStateApplied(result, "SetOffer")
}

// TransitionState переводит запись из состояния from в состояние to
// Guard по from защищает от гонок между sweep, accept и ручными действиями
func (r *Repository) TransitionState(ctx context.Context, businessID, id int64, from, to domain.WaitlistState) error {
	if err := requireTenant(businessID); err != nil {
		return err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("waitlist_entries").
		Set("state", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":          id,
			"business_id": businessID,
			"state":       from,
		}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: TransitionState - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: TransitionState - execute update: %v", ErrExecQuery, err)
	}

	return requireStateApplied(result, "TransitionState")
}

func requireStateApplied(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.WaitlistEntry, error) {
	var entry domain.WaitlistEntry
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.BusinessID,
		&entry.ClientID,
		&entry.PractitionerID,
		&entry.ServiceID,
		&entry.WindowStart,
		&entry.WindowEnd,
		&entry.State,
		&entry.OfferPractitionerID,
		&entry.OfferServiceID,
		&entry.OfferStartAt,
		&entry.OfferEndAt,
		&entry.OfferedAt,
		&entry.OfferExpiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]*domain.WaitlistEntry, error) {
	entries := make([]*domain.WaitlistEntry, 0)

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanEntries - scan row: %v", ErrScanRow, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanEntries - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}

func requireTenant(businessID int64) error {
	if businessID <= 0 {
		return fmt.Errorf("waitlist.repository: %w", domain.ErrMissingTenant)
	}
	return nil
}
