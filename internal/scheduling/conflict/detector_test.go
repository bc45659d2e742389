package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

type stubBookingRepo struct {
	bookings []*domain.Booking
}

func (s *stubBookingRepo) GetByPractitionerWithFilter(ctx context.Context, filter domain.PractitionerBookingsFilter) ([]*domain.Booking, error) {
	return s.bookings, nil
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

var day = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func existing(id int64, startHour, startMin, endHour, endMin int) *domain.Booking {
	return &domain.Booking{
		ID:             id,
		BusinessID:     100,
		PractitionerID: 7,
		ClientID:       42,
		StartAt:        at(startHour, startMin),
		EndAt:          at(endHour, endMin),
		Status:         domain.StatusConfirmed,
	}
}

func newDetector(bookings ...*domain.Booking) *Detector {
	d := NewDetector(&stubBookingRepo{bookings: bookings}, nopLogger{})
	// "Сейчас" - полночь дня тестов, все слоты дня в будущем
	return d.WithTimeProvider(fixedTime{t: day})
}

func TestCheck_FreeSlot(t *testing.T) {
	d := newDetector(existing(1, 9, 0, 10, 0))

	err := d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(10, 0), End: at(11, 0)}, nil, CheckOptions{})
	assert.NoError(t, err, "touching intervals do not conflict")
}

func TestCheck_Overlap(t *testing.T) {
	d := newDetector(existing(1, 9, 0, 10, 0))

	err := d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(9, 30), End: at(10, 30)}, nil, CheckOptions{})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)
}

func TestCheck_BufferExtendsFootprint(t *testing.T) {
	b := existing(1, 9, 0, 10, 0)
	b.BufferAfterMinutes = 15
	d := newDetector(b)

	// 10:00-11:00 свободен сам по себе, но буфер соседа тянется до 10:15
	err := d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(10, 0), End: at(11, 0)}, nil, CheckOptions{})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)

	err = d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(10, 15), End: at(11, 0)}, nil, CheckOptions{})
	assert.NoError(t, err)
}

func TestCheck_FrozenIgnored(t *testing.T) {
	cancelled := existing(1, 9, 0, 10, 0)
	cancelled.Status = domain.StatusCancelled
	completed := existing(2, 9, 0, 10, 0)
	completed.Status = domain.StatusCompleted
	d := newDetector(cancelled, completed)

	err := d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(9, 0), End: at(10, 0)}, nil, CheckOptions{})
	assert.NoError(t, err, "frozen bookings never conflict")
}

func TestCheck_OwnGroupExcluded(t *testing.T) {
	gid := "3e7c9c4e-37e0-49b2-b52d-14cf84e9a111"
	sibling := existing(1, 9, 0, 10, 0)
	sibling.GroupID = &gid
	stranger := existing(2, 10, 0, 11, 0)
	d := newDetector(sibling, stranger)

	// Участник группы не конфликтует с собратом
	err := d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(9, 30), End: at(10, 0)}, &gid, CheckOptions{})
	assert.NoError(t, err)

	// Но конфликтует с посторонним бронированием
	err = d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(9, 30), End: at(10, 30)}, &gid, CheckOptions{})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)
}

func TestCheck_ExcludeBookingIDs(t *testing.T) {
	d := newDetector(existing(1, 9, 0, 10, 0))

	// Запись не конфликтует сама с собой при resize
	err := d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(9, 0), End: at(10, 30)}, nil,
		CheckOptions{ExcludeBookingIDs: []int64{1}})
	assert.NoError(t, err)
}

func TestCheck_PastSlot(t *testing.T) {
	d := NewDetector(&stubBookingRepo{}, nopLogger{}).
		WithTimeProvider(fixedTime{t: at(12, 0)})

	err := d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(10, 0), End: at(11, 0)}, nil, CheckOptions{})
	assert.ErrorIs(t, err, domain.ErrPastSlot)

	// ReadOnly-проверки не применяют правило прошлого
	err = d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(10, 0), End: at(11, 0)}, nil, CheckOptions{ReadOnly: true})
	assert.NoError(t, err)
}

func TestCheck_InvalidInterval(t *testing.T) {
	d := newDetector()

	err := d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(11, 0), End: at(10, 0)}, nil, CheckOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)

	err = d.Check(context.Background(), 100, 7,
		domain.Interval{Start: at(10, 0), End: at(10, 0)}, nil, CheckOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

func TestCheck_GroupMoveAsUnit(t *testing.T) {
	gid := "91f0dd9d-51b5-4d68-812e-6cf0a6b7f222"
	first := existing(1, 9, 0, 9, 30)
	first.GroupID = ptr.Ptr(gid)
	second := existing(2, 9, 30, 10, 15)
	second.GroupID = ptr.Ptr(gid)
	blocker := existing(3, 11, 0, 12, 0)
	d := newDetector(first, second, blocker)

	delta := 90 * time.Minute
	memberIDs := []int64{1, 2}

	// Первый участник после сдвига: 10:30-11:00, свободно
	err := d.Check(context.Background(), 100, 7,
		first.Interval().Shift(delta), ptr.Ptr(gid),
		CheckOptions{ExcludeBookingIDs: memberIDs})
	require.NoError(t, err)

	// Второй участник после сдвига: 11:00-11:45, занято посторонним
	err = d.Check(context.Background(), 100, 7,
		second.Interval().Shift(delta), ptr.Ptr(gid),
		CheckOptions{ExcludeBookingIDs: memberIDs})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)
}
