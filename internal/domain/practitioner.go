package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Practitioner represents a bookable staff member of a business
type Practitioner struct {
	ID         int64
	BusinessID int64
	Name       string

	// SlotIncrementMinutes is the granularity of bookable start times (e.g. 15)
	SlotIncrementMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeWindow is a single active window within a day, e.g. 09:00-13:00
type TimeWindow struct {
	Start types.TimeString
	End   types.TimeString
}

// IsValid reports whether the window has positive length.
func (w TimeWindow) IsValid() bool {
	return w.Start.IsBefore(w.End)
}

// ScheduleEntry is one weekly-schedule row: a window active on a weekday.
type ScheduleEntry struct {
	Weekday time.Weekday
	Window  TimeWindow
}

// WeeklySchedule maps each weekday to its ordered list of active windows.
// A weekday with no windows is a closed day for the practitioner.
type WeeklySchedule map[time.Weekday][]TimeWindow

// AvailabilityException overrides the weekly schedule for a specific date.
// Its window list replaces the weekly windows entirely; an empty list means
// the practitioner is closed on that date.
type AvailabilityException struct {
	ID             int64
	BusinessID     int64
	PractitionerID int64
	Date           time.Time // date only, midnight in the business location
	Windows        []TimeWindow
}

// IsClosure returns true if the exception closes the whole date.
func (e *AvailabilityException) IsClosure() bool {
	return len(e.Windows) == 0
}
