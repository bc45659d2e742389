package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitlistEntry_Matches(t *testing.T) {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	slot := Interval{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)}

	practitionerID := int64(7)
	otherPractitioner := int64(8)
	serviceID := int64(3)
	otherService := int64(4)

	entry := func(pid, sid *int64, winStartHour, winEndHour int) *WaitlistEntry {
		return &WaitlistEntry{
			PractitionerID: pid,
			ServiceID:      sid,
			WindowStart:    day.Add(time.Duration(winStartHour) * time.Hour),
			WindowEnd:      day.Add(time.Duration(winEndHour) * time.Hour),
			State:          WaitlistWaiting,
		}
	}

	t.Run("wildcard practitioner and service", func(t *testing.T) {
		e := entry(nil, nil, 9, 18)
		assert.True(t, e.Matches(practitionerID, &serviceID, slot))
		assert.True(t, e.Matches(practitionerID, nil, slot))
	})

	t.Run("specific practitioner", func(t *testing.T) {
		e := entry(&practitionerID, nil, 9, 18)
		assert.True(t, e.Matches(practitionerID, nil, slot))
		assert.False(t, e.Matches(otherPractitioner, nil, slot))
	})

	t.Run("specific service", func(t *testing.T) {
		e := entry(nil, &serviceID, 9, 18)
		assert.True(t, e.Matches(practitionerID, &serviceID, slot))
		assert.False(t, e.Matches(practitionerID, &otherService, slot))
		assert.False(t, e.Matches(practitionerID, nil, slot),
			"freestyle slot does not satisfy a service-specific entry")
	})

	t.Run("window must contain the slot", func(t *testing.T) {
		assert.True(t, entry(nil, nil, 10, 11).Matches(practitionerID, nil, slot),
			"exact window match")
		assert.False(t, entry(nil, nil, 10, 10).Matches(practitionerID, nil, slot))
		assert.False(t, entry(nil, nil, 9, 10).Matches(practitionerID, nil, slot),
			"slot extends past window end")
		assert.False(t, entry(nil, nil, 11, 18).Matches(practitionerID, nil, slot),
			"slot starts before window")
	})
}

func TestWaitlistEntry_IsTerminal(t *testing.T) {
	for state, terminal := range map[WaitlistState]bool{
		WaitlistWaiting:   false,
		WaitlistOffered:   false,
		WaitlistMatched:   true,
		WaitlistExpired:   true,
		WaitlistCancelled: true,
	} {
		e := &WaitlistEntry{State: state}
		assert.Equal(t, terminal, e.IsTerminal(), "state %s", state)
	}
}
