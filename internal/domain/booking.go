package domain

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending         BookingStatus = "pending"
	StatusConfirmed       BookingStatus = "confirmed"
	StatusCompleted       BookingStatus = "completed"
	StatusCancelled       BookingStatus = "cancelled"
	StatusNoShow          BookingStatus = "no_show"
	StatusModifiedPending BookingStatus = "modified_pending"
)

// AppointmentMode represents how the appointment is held
type AppointmentMode string

const (
	ModeInPerson AppointmentMode = "in_person"
	ModeVideo    AppointmentMode = "video"
	ModePhone    AppointmentMode = "phone"
)

// Booking represents an appointment on a practitioner's calendar
type Booking struct {
	ID             int64
	BusinessID     int64
	PractitionerID int64
	ClientID       int64
	ServiceID      *int64 // nil = freestyle booking (no service, staff-chosen interval)

	StartAt time.Time
	EndAt   time.Time

	// Buffers are non-bookable padding around the service time.
	// They extend the occupied interval but not the booking itself.
	BufferBeforeMinutes int
	BufferAfterMinutes  int

	Status BookingStatus
	Mode   AppointmentMode

	// GroupID links sibling bookings created together (multi-service appointment).
	// Siblings move as a unit and never conflict with each other.
	GroupID    *string
	GroupOrder int

	// Denormalized data for history
	ServiceName *string
	ClientName  *string
	Notes       *string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFrozen returns true if the booking is in a terminal status.
// Frozen bookings never move, never resize and never conflict.
func (b *Booking) IsFrozen() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled || b.Status == StatusNoShow
}

// Interval returns the booking's own [StartAt, EndAt) interval.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartAt, End: b.EndAt}
}

// OccupiedInterval returns the booking's footprint on the calendar
// including the before/after buffers.
func (b *Booking) OccupiedInterval() Interval {
	return Interval{
		Start: b.StartAt.Add(-time.Duration(b.BufferBeforeMinutes) * time.Minute),
		End:   b.EndAt.Add(time.Duration(b.BufferAfterMinutes) * time.Minute),
	}
}

// SameGroup returns true if the booking belongs to the given group.
func (b *Booking) SameGroup(groupID *string) bool {
	if groupID == nil || b.GroupID == nil {
		return false
	}
	return *b.GroupID == *groupID
}

// IsGrouped returns true if the booking is part of a multi-service group.
func (b *Booking) IsGrouped() bool {
	return b.GroupID != nil
}

// CanTransitionTo validates a status change against the booking state machine:
// pending -> confirmed -> completed, cancelled/no_show reachable from any
// non-terminal state, modified_pending reachable from confirmed only.
// Terminal states are absorbing.
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	if b.IsFrozen() {
		return false
	}

	switch next {
	case StatusCancelled, StatusNoShow:
		return true
	case StatusConfirmed:
		return b.Status == StatusPending || b.Status == StatusModifiedPending
	case StatusCompleted:
		return b.Status == StatusConfirmed
	case StatusModifiedPending:
		return b.Status == StatusConfirmed
	default:
		return false
	}
}

// IsTerminalStatus returns true for statuses that permanently release the slot.
func IsTerminalStatus(s BookingStatus) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// ValidBookingStatus returns true for a known status value.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusModifiedPending:
		return true
	default:
		return false
	}
}

// ValidAppointmentMode returns true for a known appointment mode.
func ValidAppointmentMode(m AppointmentMode) bool {
	switch m {
	case ModeInPerson, ModeVideo, ModePhone:
		return true
	default:
		return false
	}
}

// Group is a derived aggregate: the bookings sharing a GroupID ordered by
// GroupOrder. It is never stored; members are the single source of truth.
type Group struct {
	ID      string
	Members []*Booking
}

// EffectiveInterval returns [min(StartAt), max(EndAt)) across members.
func (g *Group) EffectiveInterval() Interval {
	if len(g.Members) == 0 {
		return Interval{}
	}
	iv := g.Members[0].Interval()
	for _, m := range g.Members[1:] {
		if m.StartAt.Before(iv.Start) {
			iv.Start = m.StartAt
		}
		if m.EndAt.After(iv.End) {
			iv.End = m.EndAt
		}
	}
	return iv
}

// PractitionerBookingsFilter фильтр для выборки бронирований специалиста
type PractitionerBookingsFilter struct {
	BusinessID     int64 // Обязательный параметр (tenant)
	PractitionerID int64 // Обязательный параметр
	From           *time.Time // Начало периода (опционально)
	To             *time.Time // Конец периода (опционально)
	ExcludeFrozen  bool       // Исключить терминальные статусы (completed/cancelled/no_show)
}
