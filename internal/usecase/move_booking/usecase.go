package move_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	storage "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
)

// UseCase use case для переноса бронирования
//
// Перенос участника группы смещает всех участников на одну и ту же дельту:
// группа двигается как единое целое. Перепроверка конфликтов выполняется
// для каждого участника на новом месте, собственная группа исключается.
// Любой отказ откатывает перенос целиком.
type UseCase struct {
	bookingRepo  BookingRepository
	settingsRepo SettingsRepository
	checker      ConflictChecker
	publisher    EventPublisher
	txManager    TransactionManager
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	settingsRepo SettingsRepository,
	checker ConflictChecker,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		settingsRepo: settingsRepo,
		checker:      checker,
		publisher:    publisher,
		txManager:    txManager,
		logger:       logger,
	}
}

// Execute выполняет use case переноса бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("MoveBooking: business=%d, booking=%d, newStart=%s",
		req.BusinessID, req.BookingID, req.NewStartAt.Format(time.RFC3339))

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("MoveBooking: validation failed: %v", err)
		return nil, err
	}

	settings, err := uc.settingsRepo.Get(ctx, req.BusinessID)
	if err != nil {
		uc.logger.Error("MoveBooking: failed to get settings for business=%d: %v", req.BusinessID, err)
		return nil, fmt.Errorf("%w: failed to get settings: %v", ErrInternal, err)
	}

	var (
		members        []*domain.Booking
		groupID        *string
		practitionerID int64
		oldRange       domain.Interval
		newRange       domain.Interval
	)

	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Загружаем переносимое бронирование
		booking, getErr := uc.bookingRepo.GetByID(txCtx, req.BusinessID, req.BookingID)
		if getErr != nil {
			if errors.Is(getErr, storage.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			uc.logger.Error("MoveBooking: failed to get booking id=%d: %v", req.BookingID, getErr)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, getErr)
		}

		// 2. Замороженные бронирования не переносятся
		if booking.IsFrozen() {
			uc.logger.Warn("MoveBooking: booking id=%d is frozen (status=%s)", booking.ID, booking.Status)
			return fmt.Errorf("%w: booking id=%d status=%s", domain.ErrBookingFrozen, booking.ID, booking.Status)
		}

		practitionerID = booking.PractitionerID
		groupID = booking.GroupID

		// 3. Собираем участников: группа блокируется FOR UPDATE
		if booking.IsGrouped() {
			group, groupErr := uc.bookingRepo.GetGroup(txCtx, req.BusinessID, *booking.GroupID)
			if groupErr != nil {
				uc.logger.Error("MoveBooking: failed to get group %s: %v", *booking.GroupID, groupErr)
				return fmt.Errorf("%w: failed to get group: %v", ErrInternal, groupErr)
			}
			members = group
		} else {
			members = []*domain.Booking{booking}
		}

		// 4. Дельта от старого начала перетянутого участника к новому
		delta := req.NewStartAt.Sub(booking.StartAt)
		if delta == 0 {
			uc.logger.Info("MoveBooking: booking id=%d already at requested start", booking.ID)
		}

		oldRange = memberRange(members)
		memberIDs := make([]int64, 0, len(members))
		for _, m := range members {
			memberIDs = append(memberIDs, m.ID)
		}

		// 5. Проверяем каждого участника на новом месте
		for _, m := range members {
			if m.IsFrozen() {
				return fmt.Errorf("%w: group member id=%d status=%s", domain.ErrBookingFrozen, m.ID, m.Status)
			}

			proposed := m.OccupiedInterval().Shift(delta)

			if settings.AllowOverlap {
				continue
			}

			checkErr := uc.checker.Check(txCtx, req.BusinessID, practitionerID, proposed, groupID, conflict.CheckOptions{
				ExcludeBookingIDs: memberIDs,
			})
			if checkErr != nil {
				uc.logger.Warn("MoveBooking: member id=%d rejected at new position: %v", m.ID, checkErr)
				return checkErr
			}
		}

		// 6. Применяем перенос ко всем участникам
		for _, m := range members {
			moved := m.Interval().Shift(delta)
			if updateErr := uc.bookingRepo.UpdateTimes(txCtx, req.BusinessID, m.ID, moved); updateErr != nil {
				uc.logger.Error("MoveBooking: failed to update booking id=%d: %v", m.ID, updateErr)
				return fmt.Errorf("%w: failed to update booking: %v", ErrInternal, updateErr)
			}
			m.StartAt = moved.Start
			m.EndAt = moved.End
		}

		newRange = memberRange(members)
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("MoveBooking: moved %d booking(s), booking id=%d now starts at %s",
		len(members), req.BookingID, req.NewStartAt.Format(time.RFC3339))

	// Событие после коммита: диапазон покрывает старое и новое положение
	uc.publisher.Publish(domain.EventBookingChanged, req.BusinessID, domain.BookingChanged{
		BusinessID:     req.BusinessID,
		PractitionerID: practitionerID,
		Action:         domain.ActionMoved,
		From:           earlier(oldRange.Start, newRange.Start),
		To:             later(oldRange.End, newRange.End),
		BookingIDs:     memberIDsOf(members),
		GroupID:        groupID,
	})

	return buildResponse(members, groupID), nil
}

func validateRequest(req *Request) error {
	if req.BusinessID <= 0 {
		return fmt.Errorf("%w: businessID must be positive", ErrInvalidInput)
	}
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	if req.NewStartAt.IsZero() {
		return fmt.Errorf("%w: newStartAt is required", ErrInvalidInput)
	}
	return nil
}

func memberRange(members []*domain.Booking) domain.Interval {
	iv := members[0].Interval()
	for _, m := range members[1:] {
		if m.StartAt.Before(iv.Start) {
			iv.Start = m.StartAt
		}
		if m.EndAt.After(iv.End) {
			iv.End = m.EndAt
		}
	}
	return iv
}

func memberIDsOf(members []*domain.Booking) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func buildResponse(members []*domain.Booking, groupID *string) *Response {
	moved := make([]MovedBooking, 0, len(members))
	for _, m := range members {
		moved = append(moved, MovedBooking{
			ID:      m.ID,
			StartAt: m.StartAt,
			EndAt:   m.EndAt,
		})
	}
	return &Response{
		GroupID:  groupID,
		Bookings: moved,
	}
}
