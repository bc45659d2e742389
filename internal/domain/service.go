package domain

import "time"

// Service represents a bookable service offered by a business
type Service struct {
	ID         int64
	BusinessID int64
	Name       string

	DurationMinutes int

	// Buffers consume practitioner time around the appointment
	// but are not part of the bookable interval itself.
	BufferBeforeMinutes int
	BufferAfterMinutes  int

	// Modes is the set of allowed appointment modes for this service.
	Modes []AppointmentMode

	Color *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllowsMode returns true if the service can be booked in the given mode.
// A service with no modes configured allows any mode.
func (s *Service) AllowsMode(mode AppointmentMode) bool {
	if len(s.Modes) == 0 {
		return true
	}
	for _, m := range s.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// TotalMinutes returns the full practitioner time the service consumes,
// duration plus both buffers.
func (s *Service) TotalMinutes() int {
	return s.BufferBeforeMinutes + s.DurationMinutes + s.BufferAfterMinutes
}
