package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// Repository репозиторий настроек бизнеса
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория настроек
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get возвращает настройки бизнеса
// Если строка не найдена, возвращаются настройки по умолчанию
func (r *Repository) Get(ctx context.Context, businessID int64) (*domain.BusinessSettings, error) {
	if businessID <= 0 {
		return nil, fmt.Errorf("settings.repository: %w", domain.ErrMissingTenant)
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"business_id",
		"allow_overlap",
		"waitlist_mode",
		"offer_expiry_minutes",
		"timezone",
		"created_at",
		"updated_at",
	).
		From("business_settings").
		Where(squirrel.Eq{"business_id": businessID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.BusinessSettings
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.BusinessID,
		&s.AllowOverlap,
		&s.WaitlistMode,
		&s.OfferExpiryMinutes,
		&s.Timezone,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.DefaultSettings(businessID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan settings: %v", ErrScanRow, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}
