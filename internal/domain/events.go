package domain

import "time"

// Event types published to the notification side channel.
const (
	EventBookingChanged = "scheduling.booking.changed.v1"
	EventSlotFreed      = "scheduling.slot.freed.v1"
	EventWaitlistMatch  = "scheduling.waitlist.match.v1"
	EventWaitlistOffer  = "scheduling.waitlist.offer.v1"
)

// BookingChangeAction identifies what happened to a booking
type BookingChangeAction string

const (
	ActionCreated       BookingChangeAction = "created"
	ActionMoved         BookingChangeAction = "moved"
	ActionResized       BookingChangeAction = "resized"
	ActionCancelled     BookingChangeAction = "cancelled"
	ActionStatusChanged BookingChangeAction = "status_changed"
)

// BookingChanged is broadcast after every committed mutation so that
// connected viewers can refresh the affected range. Delivery is best-effort;
// clients can always re-fetch canonical state.
type BookingChanged struct {
	BusinessID     int64               `json:"business_id"`
	PractitionerID int64               `json:"practitioner_id"`
	Action         BookingChangeAction `json:"action"`
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	BookingIDs     []int64             `json:"booking_ids"`
	GroupID        *string             `json:"group_id,omitempty"`
}

// SlotFreed is raised when a booking enters a terminal status and its
// occupied interval becomes available again. Consumed by the waitlist.
type SlotFreed struct {
	BusinessID     int64     `json:"business_id"`
	PractitionerID int64     `json:"practitioner_id"`
	ServiceID      *int64    `json:"service_id,omitempty"`
	StartAt        time.Time `json:"start_at"`
	EndAt          time.Time `json:"end_at"`
}

// Interval returns the freed slot as an interval.
func (f SlotFreed) Interval() Interval {
	return Interval{Start: f.StartAt, End: f.EndAt}
}

// WaitlistMatchNotice is surfaced to staff in manual mode: a freed slot
// matched one or more waitlist entries but no automatic offer was made.
type WaitlistMatchNotice struct {
	BusinessID     int64     `json:"business_id"`
	PractitionerID int64     `json:"practitioner_id"`
	StartAt        time.Time `json:"start_at"`
	EndAt          time.Time `json:"end_at"`
	MatchesCount   int       `json:"matches_count"`
}

// WaitlistOfferNotice notifies a client that a freed slot was offered to them.
type WaitlistOfferNotice struct {
	BusinessID     int64     `json:"business_id"`
	EntryID        int64     `json:"entry_id"`
	ClientID       int64     `json:"client_id"`
	PractitionerID int64     `json:"practitioner_id"`
	StartAt        time.Time `json:"start_at"`
	EndAt          time.Time `json:"end_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
