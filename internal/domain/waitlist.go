package domain

import "time"

// WaitlistState represents the lifecycle state of a waitlist entry
type WaitlistState string

const (
	WaitlistWaiting   WaitlistState = "waiting"
	WaitlistOffered   WaitlistState = "offered"
	WaitlistExpired   WaitlistState = "expired"
	WaitlistMatched   WaitlistState = "matched"
	WaitlistCancelled WaitlistState = "cancelled"
)

// WaitlistMode selects how freed slots are offered to waitlist entries
type WaitlistMode string

const (
	// WaitlistManual: matches are surfaced to staff, no automatic offer.
	WaitlistManual WaitlistMode = "manual"
	// WaitlistAuto: the best-ranked match receives a single offer with expiry.
	WaitlistAuto WaitlistMode = "auto"
	// WaitlistAutoCascade: expired offers advance to the next-ranked match
	// until one accepts or the candidate list is exhausted.
	WaitlistAutoCascade WaitlistMode = "auto_cascade"
)

// WaitlistEntry is a client's standing request for a freed slot
type WaitlistEntry struct {
	ID         int64
	BusinessID int64
	ClientID   int64

	// PractitionerID nil = any practitioner
	PractitionerID *int64
	// ServiceID nil = any service
	ServiceID *int64

	// Desired time window the freed slot must fall within
	WindowStart time.Time
	WindowEnd   time.Time

	State WaitlistState

	// Offer record: the slot last offered to this entry.
	// Kept so an expired offer can cascade to the next candidate.
	OfferPractitionerID *int64
	OfferServiceID      *int64
	OfferStartAt        *time.Time
	OfferEndAt          *time.Time
	OfferedAt           *time.Time
	OfferExpiresAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal returns true for states that end the entry's lifecycle.
func (e *WaitlistEntry) IsTerminal() bool {
	return e.State == WaitlistMatched || e.State == WaitlistExpired || e.State == WaitlistCancelled
}

// Matches reports whether the freed slot satisfies the entry's preferences:
// practitioner (or any), service (or any) and the desired window containing
// the freed interval.
func (e *WaitlistEntry) Matches(practitionerID int64, serviceID *int64, slot Interval) bool {
	if e.PractitionerID != nil && *e.PractitionerID != practitionerID {
		return false
	}
	if e.ServiceID != nil {
		if serviceID == nil || *e.ServiceID != *serviceID {
			return false
		}
	}
	window := Interval{Start: e.WindowStart, End: e.WindowEnd}
	return window.Contains(slot)
}

// ValidWaitlistMode returns true for a known mode value.
func ValidWaitlistMode(m WaitlistMode) bool {
	switch m {
	case WaitlistManual, WaitlistAuto, WaitlistAutoCascade:
		return true
	default:
		return false
	}
}
