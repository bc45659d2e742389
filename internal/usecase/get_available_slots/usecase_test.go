package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type stubAvailability struct {
	days []availability.DayWindows
}

func (s *stubAvailability) OpenWindows(ctx context.Context, businessID, practitionerID int64, from, to time.Time) ([]availability.DayWindows, error) {
	return s.days, nil
}

type stubPractitionerRepo struct {
	increment int
}

func (s *stubPractitionerRepo) GetByID(ctx context.Context, businessID, id int64) (*domain.Practitioner, error) {
	return &domain.Practitioner{ID: id, BusinessID: businessID, SlotIncrementMinutes: s.increment}, nil
}

type stubCatalogRepo struct {
	service *domain.Service
}

func (s *stubCatalogRepo) GetByID(ctx context.Context, businessID, id int64) (*domain.Service, error) {
	return s.service, nil
}

type stubSettingsRepo struct{}

func (stubSettingsRepo) Get(ctx context.Context, businessID int64) (*domain.BusinessSettings, error) {
	return domain.DefaultSettings(businessID), nil
}

type stubChecker struct {
	busy []domain.Interval
}

func (s *stubChecker) Check(ctx context.Context, businessID, practitionerID int64, proposed domain.Interval, excludeGroupID *string, opts conflict.CheckOptions) error {
	for _, b := range s.busy {
		if b.Overlaps(proposed) {
			return domain.ErrSlotOccupied
		}
	}
	return nil
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

var day = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func window(start, end string) domain.TimeWindow {
	return domain.TimeWindow{Start: types.TimeString(start), End: types.TimeString(end)}
}

func newUC(avail *stubAvailability, checker *stubChecker, service *domain.Service) *UseCase {
	return NewUseCase(
		avail,
		&stubPractitionerRepo{increment: 15},
		&stubCatalogRepo{service: service},
		stubSettingsRepo{},
		checker,
		nopLogger{},
	).WithTimeProvider(fixedTime{t: day})
}

func TestExecute_GridWithinWindow(t *testing.T) {
	avail := &stubAvailability{days: []availability.DayWindows{
		{Date: day, Windows: []domain.TimeWindow{window("09:00", "12:00")}},
	}}
	uc := newUC(avail, &stubChecker{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		BusinessID:      100,
		PractitionerID:  7,
		DurationMinutes: ptr.Ptr(30),
		From:            day,
		To:              day,
	})
	require.NoError(t, err)

	require.Len(t, resp.Days, 1)
	assert.Equal(t, "2026-09-01", resp.Days[0].Date)

	// Сетка 15 минут, услуга 30 минут: старты 09:00 .. 11:30
	slots := resp.Days[0].Slots
	require.Len(t, slots, 11)
	assert.Equal(t, day.Add(9*time.Hour), slots[0].StartAt)
	assert.Equal(t, day.Add(9*time.Hour+30*time.Minute), slots[0].EndAt)
	assert.Equal(t, day.Add(11*time.Hour+30*time.Minute), slots[len(slots)-1].StartAt)
}

func TestExecute_OccupiedSlotsFiltered(t *testing.T) {
	avail := &stubAvailability{days: []availability.DayWindows{
		{Date: day, Windows: []domain.TimeWindow{window("09:00", "11:00")}},
	}}
	checker := &stubChecker{busy: []domain.Interval{
		{Start: day.Add(9*time.Hour + 30*time.Minute), End: day.Add(10 * time.Hour)},
	}}
	uc := newUC(avail, checker, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		BusinessID:      100,
		PractitionerID:  7,
		DurationMinutes: ptr.Ptr(30),
		From:            day,
		To:              day,
	})
	require.NoError(t, err)

	// Старты 09:15, 09:30, 09:45 пересекают занятый интервал
	starts := make([]time.Time, 0)
	for _, s := range resp.Days[0].Slots {
		starts = append(starts, s.StartAt)
	}
	assert.Contains(t, starts, day.Add(9*time.Hour))
	assert.NotContains(t, starts, day.Add(9*time.Hour+15*time.Minute))
	assert.NotContains(t, starts, day.Add(9*time.Hour+30*time.Minute))
	assert.NotContains(t, starts, day.Add(9*time.Hour+45*time.Minute))
	assert.Contains(t, starts, day.Add(10*time.Hour))
}

func TestExecute_ServiceBuffersShrinkAvailability(t *testing.T) {
	avail := &stubAvailability{days: []availability.DayWindows{
		{Date: day, Windows: []domain.TimeWindow{window("09:00", "11:00")}},
	}}
	// Сосед занимает 10:00-10:30; буфер услуги после 15 минут
	checker := &stubChecker{busy: []domain.Interval{
		{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)},
	}}
	service := &domain.Service{ID: 3, DurationMinutes: 30, BufferAfterMinutes: 15}
	uc := newUC(avail, checker, service)

	resp, err := uc.Execute(context.Background(), &Request{
		BusinessID:     100,
		PractitionerID: 7,
		ServiceID:      ptr.Ptr(int64(3)),
		From:           day,
		To:             day,
	})
	require.NoError(t, err)

	starts := make([]time.Time, 0)
	for _, s := range resp.Days[0].Slots {
		starts = append(starts, s.StartAt)
	}
	// 09:30 не подходит: услуга до 10:00 плюс буфер до 10:15 задевает соседа
	assert.Contains(t, starts, day.Add(9*time.Hour+15*time.Minute))
	assert.NotContains(t, starts, day.Add(9*time.Hour+30*time.Minute))
	// 10:30 подходит: буфер соседа не задан, своя услуга 10:30-11:00
	assert.Contains(t, starts, day.Add(10*time.Hour+30*time.Minute))
}

func TestExecute_PastStartsSkipped(t *testing.T) {
	avail := &stubAvailability{days: []availability.DayWindows{
		{Date: day, Windows: []domain.TimeWindow{window("09:00", "10:00")}},
	}}
	uc := NewUseCase(
		avail,
		&stubPractitionerRepo{increment: 15},
		&stubCatalogRepo{},
		stubSettingsRepo{},
		&stubChecker{},
		nopLogger{},
	).WithTimeProvider(fixedTime{t: day.Add(9*time.Hour + 20*time.Minute)})

	resp, err := uc.Execute(context.Background(), &Request{
		BusinessID:      100,
		PractitionerID:  7,
		DurationMinutes: ptr.Ptr(30),
		From:            day,
		To:              day,
	})
	require.NoError(t, err)

	// 09:00 и 09:15 в прошлом; 09:30 последний влезающий старт
	slots := resp.Days[0].Slots
	require.Len(t, slots, 1)
	assert.Equal(t, day.Add(9*time.Hour+30*time.Minute), slots[0].StartAt)
}

func TestExecute_ClosedDayEmptySlots(t *testing.T) {
	avail := &stubAvailability{days: []availability.DayWindows{
		{Date: day, Windows: nil},
	}}
	uc := newUC(avail, &stubChecker{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		BusinessID:      100,
		PractitionerID:  7,
		DurationMinutes: ptr.Ptr(30),
		From:            day,
		To:              day,
	})
	require.NoError(t, err)
	require.Len(t, resp.Days, 1)
	assert.Empty(t, resp.Days[0].Slots)
}

func TestExecute_Validation(t *testing.T) {
	uc := newUC(&stubAvailability{}, &stubChecker{}, nil)

	_, err := uc.Execute(context.Background(), &Request{
		BusinessID:     100,
		PractitionerID: 7,
		From:           day,
		To:             day,
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "duration required without service")

	_, err = uc.Execute(context.Background(), &Request{
		BusinessID:      100,
		PractitionerID:  7,
		DurationMinutes: ptr.Ptr(30),
		From:            day.AddDate(0, 0, 2),
		To:              day,
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "inverted range")
}
