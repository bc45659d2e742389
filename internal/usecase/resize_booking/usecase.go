package resize_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	storage "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/slots"
)

// UseCase use case для изменения границ бронирования
// В отличие от переноса, resize действует на одного участника:
// соседи по группе не сдвигаются
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

// Execute выполняет use case изменения границ бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ResizeBooking: business=%d, booking=%d", req.BusinessID, req.BookingID)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ResizeBooking: validation failed: %v", err)
		return nil, err
	}

	settings, err := uc.settingsRepo.Get(ctx, req.BusinessID)
	if err != nil {
		uc.logger.Error("ResizeBooking: failed to get settings for business=%d: %v", req.BusinessID, err)
		return nil, fmt.Errorf("%w: failed to get settings: %v", ErrInternal, err)
	}

	var resized *domain.Booking

	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, getErr := uc.bookingRepo.GetByID(txCtx, req.BusinessID, req.BookingID)
		if getErr != nil {
			if errors.Is(getErr, storage.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			uc.logger.Error("ResizeBooking: failed to get booking id=%d: %v", req.BookingID, getErr)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, getErr)
		}

		if booking.IsFrozen() {
			uc.logger.Warn("ResizeBooking: booking id=%d is frozen (status=%s)", booking.ID, booking.Status)
			return fmt.Errorf("%w: booking id=%d status=%s", domain.ErrBookingFrozen, booking.ID, booking.Status)
		}

		newInterval := booking.Interval()
		if req.NewStartAt != nil {
			newInterval.Start = *req.NewStartAt
		}
		if req.NewEndAt != nil {
			newInterval.End = *req.NewEndAt
		}

		// Интервал нулевой или отрицательной длины недопустим
		if !newInterval.IsValid() {
			uc.logger.Warn("ResizeBooking: invalid interval start=%s end=%s",
				newInterval.Start.Format(time.RFC3339), newInterval.End.Format(time.RFC3339))
			return fmt.Errorf("%w: start=%s end=%s", domain.ErrInvalidInterval,
				newInterval.Start.Format(time.RFC3339), newInterval.End.Format(time.RFC3339))
		}

		if !settings.AllowOverlap {
			proposed := slots.OccupiedInterval(newInterval.Start, newInterval.End,
				booking.BufferBeforeMinutes, booking.BufferAfterMinutes)

			checkErr := uc.checker.Check(txCtx, req.BusinessID, booking.PractitionerID,
				proposed, booking.GroupID, conflict.CheckOptions{
					ExcludeBookingIDs: []int64{booking.ID},
				})
			if checkErr != nil {
				uc.logger.Warn("ResizeBooking: booking id=%d rejected: %v", booking.ID, checkErr)
				return checkErr
			}
		}

		if updateErr := uc.bookingRepo.UpdateTimes(txCtx, req.BusinessID, booking.ID, newInterval); updateErr != nil {
			uc.logger.Error("ResizeBooking: failed to update booking id=%d: %v", booking.ID, updateErr)
			return fmt.Errorf("%w: failed to update booking: %v", ErrInternal, updateErr)
		}

		booking.StartAt = newInterval.Start
		booking.EndAt = newInterval.End
		resized = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("ResizeBooking: booking id=%d resized to [%s, %s)",
		resized.ID, resized.StartAt.Format(time.RFC3339), resized.EndAt.Format(time.RFC3339))

	uc.publisher.Publish(domain.EventBookingChanged, req.BusinessID, domain.BookingChanged{
		BusinessID:     req.BusinessID,
		PractitionerID: resized.PractitionerID,
		Action:         domain.ActionResized,
		From:           resized.StartAt,
		To:             resized.EndAt,
		BookingIDs:     []int64{resized.ID},
		GroupID:        resized.GroupID,
	})

	return &Response{
		ID:      resized.ID,
		StartAt: resized.StartAt,
		EndAt:   resized.EndAt,
	}, nil
}

func validateRequest(req *Request) error {
	if req.BusinessID <= 0 {
		return fmt.Errorf("%w: businessID must be positive", ErrInvalidInput)
	}
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	if req.NewStartAt == nil && req.NewEndAt == nil {
		return fmt.Errorf("%w: at least one of newStartAt, newEndAt is required", ErrInvalidInput)
	}
	return nil
}
