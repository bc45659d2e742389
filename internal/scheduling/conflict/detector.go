package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// queryPadding запас при выборке бронирований: занятый интервал соседнего
// бронирования может выходить за его собственные границы на размер буфера
const queryPadding = time.Duration(domain.MaxBufferMinutes) * time.Minute

// CheckOptions опции проверки конфликтов
type CheckOptions struct {
	// ReadOnly: проверка выполняется только для отображения доступности,
	// правило PastSlot не применяется
	ReadOnly bool

	// ExcludeBookingIDs: бронирования, исключаемые из сравнения
	// (например, сама изменяемая запись при resize)
	ExcludeBookingIDs []int64
}

// Detector проверяет предложенный занятый интервал на конфликты
// с существующими бронированиями специалиста
type Detector struct {
	bookingRepo  BookingRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewDetector создает детектор конфликтов
func NewDetector(bookingRepo BookingRepository, logger Logger) *Detector {
	return &Detector{
		bookingRepo:  bookingRepo,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (d *Detector) WithTimeProvider(tp TimeProvider) *Detector {
	d.timeProvider = tp
	return d
}

// Check проверяет, можно ли разместить занятый интервал proposed у специалиста.
//
// Возвращает nil (допуск) либо одну из ошибок:
//   - domain.ErrInvalidInterval - интервал неположительной длины
//   - domain.ErrPastSlot - старт в прошлом (кроме ReadOnly-проверок)
//   - domain.ErrSlotOccupied - пересечение с чужим активным бронированием
//
// Замороженные бронирования (completed/cancelled/no_show) игнорируются всегда.
// Участники группы excludeGroupID не конфликтуют между собой.
// Интервалы полуоткрытые: [a,b) и [c,d) пересекаются при a < d && c < b,
// касание границами пересечением не считается.
//
// Внимание: настройку бизнеса AllowOverlap вызывающая сторона проверяет
// ДО вызова детектора - при включенном флаге детектор не вызывается вовсе.
func (d *Detector) Check(
	ctx context.Context,
	businessID, practitionerID int64,
	proposed domain.Interval,
	excludeGroupID *string,
	opts CheckOptions,
) error {
	if !proposed.IsValid() {
		return fmt.Errorf("%w: start=%s end=%s",
			domain.ErrInvalidInterval, proposed.Start.Format(time.RFC3339), proposed.End.Format(time.RFC3339))
	}

	if !opts.ReadOnly {
		now := d.timeProvider.Now()
		if proposed.Start.Before(now) {
			return domain.ErrPastSlot
		}
	}

	from := proposed.Start.Add(-queryPadding)
	to := proposed.End.Add(queryPadding)

	filter := domain.PractitionerBookingsFilter{
		BusinessID:     businessID,
		PractitionerID: practitionerID,
		From:           &from,
		To:             &to,
		ExcludeFrozen:  true,
	}

	bookings, err := d.bookingRepo.GetByPractitionerWithFilter(ctx, filter)
	if err != nil {
		d.logger.Error("Check: failed to load bookings for practitioner=%d: %v", practitionerID, err)
		return fmt.Errorf("%w: load bookings: %v", ErrInternal, err)
	}

	excluded := make(map[int64]struct{}, len(opts.ExcludeBookingIDs))
	for _, id := range opts.ExcludeBookingIDs {
		excluded[id] = struct{}{}
	}

	for _, b := range bookings {
		if b.IsFrozen() {
			continue
		}
		if _, ok := excluded[b.ID]; ok {
			continue
		}
		if b.SameGroup(excludeGroupID) {
			continue
		}
		if b.OccupiedInterval().Overlaps(proposed) {
			d.logger.Warn("Check: proposed interval conflicts with booking id=%d (practitioner=%d)",
				b.ID, practitionerID)
			return fmt.Errorf("%w: booking id=%d", domain.ErrSlotOccupied, b.ID)
		}
	}

	return nil
}
