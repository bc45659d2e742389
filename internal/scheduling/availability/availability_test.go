package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type stubScheduleRepo struct {
	schedule   domain.WeeklySchedule
	exceptions []*domain.AvailabilityException
}

func (s *stubScheduleRepo) LoadSchedule(ctx context.Context, businessID, practitionerID int64) (domain.WeeklySchedule, error) {
	return s.schedule, nil
}

func (s *stubScheduleRepo) LoadExceptions(ctx context.Context, businessID, practitionerID int64, from, to time.Time) ([]*domain.AvailabilityException, error) {
	return s.exceptions, nil
}

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

func window(start, end string) domain.TimeWindow {
	return domain.TimeWindow{
		Start: types.TimeString(start),
		End:   types.TimeString(end),
	}
}

func TestOpenWindows_WeeklySchedule(t *testing.T) {
	// 2026-09-01 - вторник
	tuesday := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	repo := &stubScheduleRepo{
		schedule: domain.WeeklySchedule{
			time.Tuesday: {window("09:00", "13:00"), window("14:00", "18:00")},
		},
	}

	m := NewModel(repo, nopLogger{})
	days, err := m.OpenWindows(context.Background(), 100, 7, tuesday, tuesday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.False(t, days[0].IsClosed())
	assert.Equal(t, []domain.TimeWindow{window("09:00", "13:00"), window("14:00", "18:00")}, days[0].Windows)

	// Среда не задана в расписании - закрытый день
	assert.True(t, days[1].IsClosed())
}

func TestOpenWindows_ExceptionReplacesWeekly(t *testing.T) {
	tuesday := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	repo := &stubScheduleRepo{
		schedule: domain.WeeklySchedule{
			time.Tuesday: {window("09:00", "18:00")},
		},
		exceptions: []*domain.AvailabilityException{
			{Date: tuesday, Windows: []domain.TimeWindow{window("12:00", "15:00")}},
		},
	}

	m := NewModel(repo, nopLogger{})
	days, err := m.OpenWindows(context.Background(), 100, 7, tuesday, tuesday)
	require.NoError(t, err)
	require.Len(t, days, 1)

	// Исключение замещает недельные окна, а не дополняет их
	assert.Equal(t, []domain.TimeWindow{window("12:00", "15:00")}, days[0].Windows)
}

func TestOpenWindows_ClosureException(t *testing.T) {
	tuesday := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	repo := &stubScheduleRepo{
		schedule: domain.WeeklySchedule{
			time.Tuesday: {window("09:00", "18:00")},
		},
		exceptions: []*domain.AvailabilityException{
			{Date: tuesday, Windows: nil},
		},
	}

	m := NewModel(repo, nopLogger{})
	days, err := m.OpenWindows(context.Background(), 100, 7, tuesday, tuesday)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.True(t, days[0].IsClosed(), "exception with no windows closes the date")
}

func TestOpenWindows_InvalidRange(t *testing.T) {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	m := NewModel(&stubScheduleRepo{}, nopLogger{})
	_, err := m.OpenWindows(context.Background(), 100, 7, day, day.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestMergeWindows(t *testing.T) {
	t.Run("overlapping are merged", func(t *testing.T) {
		got := MergeWindows([]domain.TimeWindow{
			window("10:00", "12:00"),
			window("09:00", "11:00"),
		})
		assert.Equal(t, []domain.TimeWindow{window("09:00", "12:00")}, got)
	})

	t.Run("adjacent are merged", func(t *testing.T) {
		got := MergeWindows([]domain.TimeWindow{
			window("09:00", "12:00"),
			window("12:00", "15:00"),
		})
		assert.Equal(t, []domain.TimeWindow{window("09:00", "15:00")}, got)
	})

	t.Run("disjoint stay separate and sorted", func(t *testing.T) {
		got := MergeWindows([]domain.TimeWindow{
			window("14:00", "18:00"),
			window("09:00", "13:00"),
		})
		assert.Equal(t, []domain.TimeWindow{window("09:00", "13:00"), window("14:00", "18:00")}, got)
	})

	t.Run("invalid windows are dropped", func(t *testing.T) {
		got := MergeWindows([]domain.TimeWindow{
			window("12:00", "12:00"),
			window("15:00", "14:00"),
		})
		assert.Empty(t, got)
	})
}
