package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func iv(startHour, startMin, endHour, endMin int) Interval {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return Interval{
		Start: day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:   day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
	}
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"partial overlap", iv(9, 0, 10, 0), iv(9, 30, 10, 30), true},
		{"contained", iv(9, 0, 12, 0), iv(10, 0, 11, 0), true},
		{"identical", iv(9, 0, 10, 0), iv(9, 0, 10, 0), true},
		{"touching end-to-start", iv(9, 0, 10, 0), iv(10, 0, 11, 0), false},
		{"touching start-to-end", iv(10, 0, 11, 0), iv(9, 0, 10, 0), false},
		{"disjoint", iv(9, 0, 10, 0), iv(14, 0, 15, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestInterval_Contains(t *testing.T) {
	window := iv(9, 0, 18, 0)

	assert.True(t, window.Contains(iv(9, 0, 18, 0)), "window contains itself")
	assert.True(t, window.Contains(iv(10, 0, 11, 0)))
	assert.False(t, window.Contains(iv(8, 30, 10, 0)), "starts before window")
	assert.False(t, window.Contains(iv(17, 30, 18, 30)), "ends after window")
}

func TestInterval_IsValid(t *testing.T) {
	assert.True(t, iv(9, 0, 9, 15).IsValid())
	assert.False(t, iv(9, 0, 9, 0).IsValid(), "zero length")
	assert.False(t, iv(10, 0, 9, 0).IsValid(), "inverted")
}

func TestInterval_Shift(t *testing.T) {
	moved := iv(9, 0, 10, 0).Shift(90 * time.Minute)
	assert.Equal(t, iv(10, 30, 11, 30), moved)

	back := iv(9, 0, 10, 0).Shift(-time.Hour)
	assert.Equal(t, iv(8, 0, 9, 0), back)
}
