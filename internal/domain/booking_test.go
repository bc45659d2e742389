package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking(status BookingStatus) *Booking {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	return &Booking{
		ID:             1,
		BusinessID:     100,
		PractitionerID: 7,
		ClientID:       42,
		StartAt:        start,
		EndAt:          start.Add(time.Hour),
		Status:         status,
	}
}

func TestBooking_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusNoShow, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusModifiedPending, false},

		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusModifiedPending, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusPending, false},

		{StatusModifiedPending, StatusConfirmed, true},
		{StatusModifiedPending, StatusCancelled, true},
		{StatusModifiedPending, StatusCompleted, false},

		// Терминальные статусы поглощающие
		{StatusCompleted, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusNoShow, false},
		{StatusNoShow, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			b := testBooking(tt.from)
			assert.Equal(t, tt.want, b.CanTransitionTo(tt.to))
		})
	}
}

func TestBooking_IsFrozen(t *testing.T) {
	assert.False(t, testBooking(StatusPending).IsFrozen())
	assert.False(t, testBooking(StatusConfirmed).IsFrozen())
	assert.False(t, testBooking(StatusModifiedPending).IsFrozen())
	assert.True(t, testBooking(StatusCompleted).IsFrozen())
	assert.True(t, testBooking(StatusCancelled).IsFrozen())
	assert.True(t, testBooking(StatusNoShow).IsFrozen())
}

func TestBooking_OccupiedInterval(t *testing.T) {
	b := testBooking(StatusConfirmed)
	b.BufferBeforeMinutes = 10
	b.BufferAfterMinutes = 15

	occupied := b.OccupiedInterval()
	assert.Equal(t, b.StartAt.Add(-10*time.Minute), occupied.Start)
	assert.Equal(t, b.EndAt.Add(15*time.Minute), occupied.End)

	// Буферы не меняют сам интервал бронирования
	assert.Equal(t, b.StartAt, b.Interval().Start)
	assert.Equal(t, b.EndAt, b.Interval().End)
}

func TestBooking_SameGroup(t *testing.T) {
	groupA := "3e7c9c4e-37e0-49b2-b52d-14cf84e9a111"
	groupB := "91f0dd9d-51b5-4d68-812e-6cf0a6b7f222"

	b := testBooking(StatusPending)
	assert.False(t, b.SameGroup(&groupA), "ungrouped booking matches nothing")

	b.GroupID = &groupA
	assert.True(t, b.SameGroup(&groupA))
	assert.False(t, b.SameGroup(&groupB))
	assert.False(t, b.SameGroup(nil))
}

func TestGroup_EffectiveInterval(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	gid := "3e7c9c4e-37e0-49b2-b52d-14cf84e9a111"

	first := testBooking(StatusPending)
	first.GroupID = &gid
	first.StartAt = start
	first.EndAt = start.Add(30 * time.Minute)

	second := testBooking(StatusPending)
	second.GroupID = &gid
	second.GroupOrder = 1
	second.StartAt = start.Add(30 * time.Minute)
	second.EndAt = start.Add(75 * time.Minute)

	g := &Group{ID: gid, Members: []*Booking{first, second}}
	effective := g.EffectiveInterval()

	require.True(t, effective.IsValid())
	assert.Equal(t, start, effective.Start)
	assert.Equal(t, start.Add(75*time.Minute), effective.End)
}

func TestGroup_EffectiveInterval_Empty(t *testing.T) {
	g := &Group{ID: "empty"}
	assert.False(t, g.EffectiveInterval().IsValid())
}
