package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// slotFreedTimeout ограничивает фоновую обработку освободившегося слота
const slotFreedTimeout = 30 * time.Second

// Service сервис для чтения бронирований и переходов статусов
//
// Переход в терминальный статус (completed/cancelled/no_show) освобождает
// занятый интервал: после коммита вейтлист получает SlotFreed асинхронно,
// событие уходит и в канал уведомлений
type Service struct {
	bookingRepo BookingRepository
	waitlist    SlotFreedHandler
	publisher   EventPublisher
	txManager   TransactionManager
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	waitlist SlotFreedHandler,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		waitlist:    waitlist,
		publisher:   publisher,
		txManager:   txManager,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID в рамках бизнеса
func (s *Service) GetByID(ctx context.Context, businessID, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for business=%d", id, businessID)

	booking, err := s.getBooking(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	return models.FromDomainBooking(booking), nil
}

// GetGroup получает все бронирования группы
func (s *Service) GetGroup(ctx context.Context, businessID int64, groupID string) (*models.BookingListResponse, error) {
	s.logger.Info("GetGroup: fetching group %s for business=%d", groupID, businessID)

	group, err := s.bookingRepo.GetGroup(ctx, businessID, groupID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrGroupNotFound) {
			s.logger.Warn("GetGroup: group %s not found", groupID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetGroup: repository error for group %s: %v", groupID, err)
		return nil, fmt.Errorf("%w: GetGroup - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(group), nil
}

// GetPractitionerBookings получает бронирования специалиста за период
func (s *Service) GetPractitionerBookings(ctx context.Context, req *models.GetPractitionerBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetPractitionerBookings: business=%d, practitioner=%d", req.BusinessID, req.PractitionerID)

	bookings, err := s.bookingRepo.GetByPractitionerWithFilter(ctx, req.ToDomainFilter())
	if err != nil {
		s.logger.Error("GetPractitionerBookings: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetPractitionerBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetPractitionerBookings: fetched %d booking(s)", len(bookings))
	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование
// Отмена терминальна: бронирование замораживается, слот освобождается
func (s *Service) Cancel(ctx context.Context, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: booking id=%d, business=%d", req.BookingID, req.BusinessID)

	var cancelled *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.getBooking(txCtx, req.BusinessID, req.BookingID)
		if err != nil {
			return err
		}

		if !booking.CanTransitionTo(domain.StatusCancelled) {
			s.logger.Warn("Cancel: booking id=%d cannot be cancelled from status=%s", booking.ID, booking.Status)
			return fmt.Errorf("%w: booking id=%d status=%s", domain.ErrBookingFrozen, booking.ID, booking.Status)
		}

		if err := s.bookingRepo.Cancel(txCtx, req.BusinessID, booking.ID, booking.Status, req.CancellationReason); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				s.logger.Warn("Cancel: booking id=%d changed concurrently", booking.ID)
				return fmt.Errorf("%w: booking id=%d changed concurrently", ErrInvalidTransition, booking.ID)
			}
			s.logger.Error("Cancel: repository error for booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusCancelled
		cancelled = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: booking id=%d cancelled", cancelled.ID)
	s.afterTerminal(cancelled, domain.ActionCancelled)

	return models.FromDomainBooking(cancelled), nil
}

// UpdateStatus переводит бронирование в новый статус по машине состояний
func (s *Service) UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: booking id=%d, business=%d, status=%s", req.BookingID, req.BusinessID, req.Status)

	newStatus, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status %q", req.Status)
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	var updated *domain.Booking

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.getBooking(txCtx, req.BusinessID, req.BookingID)
		if err != nil {
			return err
		}

		if !booking.CanTransitionTo(newStatus) {
			s.logger.Warn("UpdateStatus: transition %s -> %s rejected for booking id=%d",
				booking.Status, newStatus, booking.ID)
			if booking.IsFrozen() {
				return fmt.Errorf("%w: booking id=%d status=%s", domain.ErrBookingFrozen, booking.ID, booking.Status)
			}
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, newStatus)
		}

		if err := s.bookingRepo.UpdateStatus(txCtx, req.BusinessID, booking.ID, booking.Status, newStatus); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				s.logger.Warn("UpdateStatus: booking id=%d changed concurrently", booking.ID)
				return fmt.Errorf("%w: booking id=%d changed concurrently", ErrInvalidTransition, booking.ID)
			}
			s.logger.Error("UpdateStatus: repository error for booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
		}

		booking.Status = newStatus
		updated = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("UpdateStatus: booking id=%d now %s", updated.ID, updated.Status)

	if domain.IsTerminalStatus(updated.Status) {
		s.afterTerminal(updated, domain.ActionStatusChanged)
	} else {
		s.publishChanged(updated, domain.ActionStatusChanged)
	}

	return models.FromDomainBooking(updated), nil
}

// afterTerminal выполняет пост-обработку терминального перехода:
// событие об изменении, SlotFreed в канал уведомлений и асинхронно в вейтлист
func (s *Service) afterTerminal(booking *domain.Booking, action domain.BookingChangeAction) {
	s.publishChanged(booking, action)

	occupied := booking.OccupiedInterval()
	freed := domain.SlotFreed{
		BusinessID:     booking.BusinessID,
		PractitionerID: booking.PractitionerID,
		ServiceID:      booking.ServiceID,
		StartAt:        occupied.Start,
		EndAt:          occupied.End,
	}

	s.publisher.Publish(domain.EventSlotFreed, booking.BusinessID, freed)

	// Вейтлист обрабатывается вне запроса: его ошибки не влияют на ответ
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), slotFreedTimeout)
		defer cancel()
		s.waitlist.HandleSlotFreed(ctx, freed)
	}()
}

func (s *Service) publishChanged(booking *domain.Booking, action domain.BookingChangeAction) {
	s.publisher.Publish(domain.EventBookingChanged, booking.BusinessID, domain.BookingChanged{
		BusinessID:     booking.BusinessID,
		PractitionerID: booking.PractitionerID,
		Action:         action,
		From:           booking.StartAt,
		To:             booking.EndAt,
		BookingIDs:     []int64{booking.ID},
		GroupID:        booking.GroupID,
	})
}

func (s *Service) getBooking(ctx context.Context, businessID, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("getBooking: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("getBooking: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: getBooking - repository error: %v", ErrInternal, err)
	}
	return booking, nil
}
