package domain

import "time"

// BusinessSettings holds the per-business (tenant) scheduling configuration
type BusinessSettings struct {
	BusinessID int64

	// AllowOverlap disables the conflict detector entirely for this business.
	AllowOverlap bool

	WaitlistMode WaitlistMode

	// OfferExpiryMinutes bounds how long a waitlist offer stays open.
	OfferExpiryMinutes int

	// Timezone is the IANA location name for resolving schedule windows.
	Timezone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location resolves the business timezone, falling back to UTC.
func (s *BusinessSettings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OfferExpiry returns the offer lifetime as a duration.
func (s *BusinessSettings) OfferExpiry() time.Duration {
	m := s.OfferExpiryMinutes
	if m <= 0 {
		m = DefaultOfferExpiryMinutes
	}
	return time.Duration(m) * time.Minute
}

// DefaultSettings returns the settings applied when a business has none stored.
func DefaultSettings(businessID int64) *BusinessSettings {
	return &BusinessSettings{
		BusinessID:         businessID,
		AllowOverlap:       false,
		WaitlistMode:       WaitlistManual,
		OfferExpiryMinutes: DefaultOfferExpiryMinutes,
	}
}
