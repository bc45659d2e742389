package create_booking

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.BusinessID <= 0 {
		return fmt.Errorf("%w: businessID must be positive", ErrInvalidInput)
	}

	if req.PractitionerID <= 0 {
		return fmt.Errorf("%w: practitionerID must be positive", ErrInvalidInput)
	}

	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if req.StartAt.IsZero() {
		return fmt.Errorf("%w: startAt is required", ErrInvalidInput)
	}

	if req.Mode != "" && !domain.ValidAppointmentMode(req.Mode) {
		return fmt.Errorf("%w: unknown appointment mode %q", ErrInvalidInput, req.Mode)
	}

	if len(req.ServiceIDs) > domain.MaxGroupMembers {
		return fmt.Errorf("%w: at most %d services per booking", ErrInvalidInput, domain.MaxGroupMembers)
	}

	for _, id := range req.ServiceIDs {
		if id <= 0 {
			return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
		}
	}

	// Freestyle-бронирование: без услуг длительность обязательна
	if len(req.ServiceIDs) == 0 {
		if req.DurationMinutes == nil {
			return fmt.Errorf("%w: durationMinutes is required without services", ErrInvalidInput)
		}
		if *req.DurationMinutes < domain.MinDurationMinutes || *req.DurationMinutes > domain.MaxDurationMinutes {
			return fmt.Errorf("%w: durationMinutes must be between %d and %d",
				ErrInvalidInput, domain.MinDurationMinutes, domain.MaxDurationMinutes)
		}
	} else if req.DurationMinutes != nil {
		return fmt.Errorf("%w: durationMinutes is not allowed with services", ErrInvalidInput)
	}

	if req.BufferBeforeMinutes < 0 || req.BufferBeforeMinutes > domain.MaxBufferMinutes {
		return fmt.Errorf("%w: bufferBeforeMinutes must be between 0 and %d", ErrInvalidInput, domain.MaxBufferMinutes)
	}

	if req.BufferAfterMinutes < 0 || req.BufferAfterMinutes > domain.MaxBufferMinutes {
		return fmt.Errorf("%w: bufferAfterMinutes must be between 0 and %d", ErrInvalidInput, domain.MaxBufferMinutes)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// validateModes проверяет, что формат приема допустим для каждой услуги
func validateModes(services []*domain.Service, mode domain.AppointmentMode) error {
	for _, svc := range services {
		if !svc.AllowsMode(mode) {
			return fmt.Errorf("%w: service id=%d does not allow mode %q", ErrModeNotAllowed, svc.ID, mode)
		}
	}
	return nil
}
