package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	catalogStorage "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/catalog"
	practitionerStorage "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/practitioner"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/slots"
)

// UseCase use case для получения доступных слотов специалиста
//
// Слоты перечисляются по сетке SlotIncrementMinutes внутри открытых окон,
// затем каждый кандидат проверяется детектором конфликтов в режиме ReadOnly.
// Буферы услуги расширяют занятый интервал кандидата, но не сдвигают сетку.
type UseCase struct {
	availability     AvailabilityModel
	practitionerRepo PractitionerRepository
	catalogRepo      CatalogRepository
	settingsRepo     SettingsRepository
	checker          ConflictChecker
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	availability AvailabilityModel,
	practitionerRepo PractitionerRepository,
	catalogRepo CatalogRepository,
	settingsRepo SettingsRepository,
	checker ConflictChecker,
	logger Logger,
) *UseCase {
	return &UseCase{
		availability:     availability,
		practitionerRepo: practitionerRepo,
		catalogRepo:      catalogRepo,
		settingsRepo:     settingsRepo,
		checker:          checker,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: business=%d, practitioner=%d, from=%s, to=%s",
		req.BusinessID, req.PractitionerID, req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 1. Специалист и шаг сетки
	practitioner, err := uc.practitionerRepo.GetByID(ctx, req.BusinessID, req.PractitionerID)
	if err != nil {
		if errors.Is(err, practitionerStorage.ErrPractitionerNotFound) {
			uc.logger.Warn("GetAvailableSlots: practitioner id=%d not found", req.PractitionerID)
			return nil, ErrPractitionerNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get practitioner id=%d: %v", req.PractitionerID, err)
		return nil, fmt.Errorf("%w: failed to get practitioner: %v", ErrInternal, err)
	}

	increment := practitioner.SlotIncrementMinutes
	if increment <= 0 {
		increment = domain.DefaultSlotIncrementMinutes
	}

	// 2. Длительность и буферы: из услуги либо из запроса
	duration, bufferBefore, bufferAfter, err := uc.resolveDuration(ctx, req)
	if err != nil {
		return nil, err
	}

	// 3. Часовой пояс бизнеса
	settings, err := uc.settingsRepo.Get(ctx, req.BusinessID)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get settings for business=%d: %v", req.BusinessID, err)
		return nil, fmt.Errorf("%w: failed to get settings: %v", ErrInternal, err)
	}
	loc := settings.Location()

	// 4. Открытые окна по датам диапазона
	days, err := uc.availability.OpenWindows(ctx, req.BusinessID, req.PractitionerID, req.From, req.To)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to compute open windows: %v", err)
		return nil, fmt.Errorf("%w: failed to compute open windows: %v", ErrInternal, err)
	}

	now := uc.timeProvider.Now()
	result := make([]DaySlots, 0, len(days))

	for _, day := range days {
		daySlots := DaySlots{
			Date:  day.Date.Format(domain.DateFormat),
			Slots: make([]Slot, 0),
		}

		for _, window := range day.Windows {
			windowStart := window.Start.At(day.Date, loc)
			windowEnd := window.End.At(day.Date, loc)

			candidates := slots.CandidateStarts(windowStart, windowEnd,
				time.Duration(duration)*time.Minute,
				time.Duration(increment)*time.Minute)

			for _, start := range candidates {
				// Прошедшие старты не предлагаем
				if start.Before(now) {
					continue
				}

				end := start.Add(time.Duration(duration) * time.Minute)
				occupied := slots.OccupiedInterval(start, end, bufferBefore, bufferAfter)

				checkErr := uc.checker.Check(ctx, req.BusinessID, req.PractitionerID,
					occupied, nil, conflict.CheckOptions{ReadOnly: true})
				if checkErr != nil {
					if errors.Is(checkErr, domain.ErrSlotOccupied) {
						continue
					}
					uc.logger.Error("GetAvailableSlots: conflict check failed: %v", checkErr)
					return nil, fmt.Errorf("%w: conflict check failed: %v", ErrInternal, checkErr)
				}

				daySlots.Slots = append(daySlots.Slots, Slot{StartAt: start, EndAt: end})
			}
		}

		result = append(result, daySlots)
	}

	uc.logger.Info("GetAvailableSlots: practitioner=%d, %d day(s) computed", req.PractitionerID, len(result))

	return &Response{
		PractitionerID: req.PractitionerID,
		ServiceID:      req.ServiceID,
		Days:           result,
	}, nil
}

// resolveDuration возвращает длительность и буферы слота
func (uc *UseCase) resolveDuration(ctx context.Context, req *Request) (duration, bufferBefore, bufferAfter int, err error) {
	if req.ServiceID == nil {
		return *req.DurationMinutes, 0, 0, nil
	}

	service, err := uc.catalogRepo.GetByID(ctx, req.BusinessID, *req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogStorage.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found", *req.ServiceID)
			return 0, 0, 0, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", *req.ServiceID, err)
		return 0, 0, 0, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	return service.DurationMinutes, service.BufferBeforeMinutes, service.BufferAfterMinutes, nil
}

func validateRequest(req *Request) error {
	if req.BusinessID <= 0 {
		return fmt.Errorf("%w: businessID must be positive", ErrInvalidInput)
	}
	if req.PractitionerID <= 0 {
		return fmt.Errorf("%w: practitionerID must be positive", ErrInvalidInput)
	}
	if req.From.IsZero() || req.To.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}
	if req.To.Before(req.From) {
		return fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	if req.ServiceID == nil {
		if req.DurationMinutes == nil {
			return fmt.Errorf("%w: durationMinutes is required without serviceID", ErrInvalidInput)
		}
		if *req.DurationMinutes < domain.MinDurationMinutes || *req.DurationMinutes > domain.MaxDurationMinutes {
			return fmt.Errorf("%w: durationMinutes must be between %d and %d",
				ErrInvalidInput, domain.MinDurationMinutes, domain.MaxDurationMinutes)
		}
	} else if *req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}
	return nil
}
