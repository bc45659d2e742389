package move_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
	storage "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

type stubBookingRepo struct {
	bookings map[int64]*domain.Booking
	updated  map[int64]domain.Interval
}

func (s *stubBookingRepo) GetByID(ctx context.Context, businessID, id int64) (*domain.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, storage.ErrBookingNotFound
	}
	return b, nil
}

func (s *stubBookingRepo) GetGroup(ctx context.Context, businessID int64, groupID string) ([]*domain.Booking, error) {
	var members []*domain.Booking
	for _, b := range s.bookings {
		if b.GroupID != nil && *b.GroupID == groupID {
			members = append(members, b)
		}
	}
	return members, nil
}

func (s *stubBookingRepo) UpdateTimes(ctx context.Context, businessID, id int64, interval domain.Interval) error {
	if s.updated == nil {
		s.updated = make(map[int64]domain.Interval)
	}
	s.updated[id] = interval
	return nil
}

type stubSettingsRepo struct{ allowOverlap bool }

func (s *stubSettingsRepo) Get(ctx context.Context, businessID int64) (*domain.BusinessSettings, error) {
	settings := domain.DefaultSettings(businessID)
	settings.AllowOverlap = s.allowOverlap
	return settings, nil
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

type stubPublisher struct {
	payloads []interface{}
}

func (s *stubPublisher) Publish(eventType string, businessID int64, payload interface{}) {
	s.payloads = append(s.payloads, payload)
}

type stubTxManager struct{}

func (stubTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

var start = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func booking(id int64, offset, length time.Duration) *domain.Booking {
	return &domain.Booking{
		ID:             id,
		BusinessID:     100,
		PractitionerID: 7,
		ClientID:       42,
		StartAt:        start.Add(offset),
		EndAt:          start.Add(offset + length),
		Status:         domain.StatusConfirmed,
	}
}

func newUC(repo *stubBookingRepo, checker *stubChecker) (*UseCase, *stubPublisher) {
	publisher := &stubPublisher{}
	uc := NewUseCase(repo, &stubSettingsRepo{}, checker, publisher, stubTxManager{}, nopLogger{})
	return uc, publisher
}

func TestExecute_MoveSingle(t *testing.T) {
	repo := &stubBookingRepo{bookings: map[int64]*domain.Booking{
		1: booking(1, 0, time.Hour),
	}}
	uc, publisher := newUC(repo, &stubChecker{})

	resp, err := uc.Execute(context.Background(), &Request{
		BusinessID: 100,
		BookingID:  1,
		NewStartAt: start.Add(3 * time.Hour),
	})
	require.NoError(t, err)

	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, start.Add(3*time.Hour), resp.Bookings[0].StartAt)
	assert.Equal(t, start.Add(4*time.Hour), resp.Bookings[0].EndAt)

	require.Contains(t, repo.updated, int64(1))
	assert.Equal(t, start.Add(3*time.Hour), repo.updated[1].Start)

	require.Len(t, publisher.payloads, 1)
	changed := publisher.payloads[0].(domain.BookingChanged)
	assert.Equal(t, domain.ActionMoved, changed.Action)
	// Диапазон события покрывает старое и новое положение
	assert.Equal(t, start, changed.From)
	assert.Equal(t, start.Add(4*time.Hour), changed.To)
}

func TestExecute_MoveGroupAsUnit(t *testing.T) {
	gid := "3e7c9c4e-37e0-49b2-b52d-14cf84e9a111"
	first := booking(1, 0, 30*time.Minute)
	first.GroupID = ptr.Ptr(gid)
	second := booking(2, 30*time.Minute, time.Hour)
	second.GroupID = ptr.Ptr(gid)
	second.GroupOrder = 1

	repo := &stubBookingRepo{bookings: map[int64]*domain.Booking{1: first, 2: second}}
	uc, _ := newUC(repo, &stubChecker{})

	// Перенос за второго участника: дельта применяется ко всем
	resp, err := uc.Execute(context.Background(), &Request{
		BusinessID: 100,
		BookingID:  2,
		NewStartAt: second.StartAt.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	require.NotNil(t, resp.GroupID)
	require.Len(t, repo.updated, 2)
	assert.Equal(t, start.Add(2*time.Hour), repo.updated[1].Start)
	assert.Equal(t, start.Add(2*time.Hour+30*time.Minute), repo.updated[2].Start)
}

func TestExecute_GroupBlockedMemberRejectsWholeMove(t *testing.T) {
	gid := "91f0dd9d-51b5-4d68-812e-6cf0a6b7f222"
	first := booking(1, 0, 30*time.Minute)
	first.GroupID = ptr.Ptr(gid)
	second := booking(2, 30*time.Minute, time.Hour)
	second.GroupID = ptr.Ptr(gid)

	repo := &stubBookingRepo{bookings: map[int64]*domain.Booking{1: first, 2: second}}
	// После сдвига на 2 часа второй участник (12:30-13:30) занят
	checker := &stubChecker{busy: []domain.Interval{
		{Start: start.Add(3 * time.Hour), End: start.Add(4 * time.Hour)},
	}}
	uc, publisher := newUC(repo, checker)

	_, err := uc.Execute(context.Background(), &Request{
		BusinessID: 100,
		BookingID:  1,
		NewStartAt: start.Add(2 * time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)
	assert.Empty(t, repo.updated, "no member moves when any member conflicts")
	assert.Empty(t, publisher.payloads)
}

func TestExecute_FrozenBookingRejected(t *testing.T) {
	frozen := booking(1, 0, time.Hour)
	frozen.Status = domain.StatusCompleted
	repo := &stubBookingRepo{bookings: map[int64]*domain.Booking{1: frozen}}
	uc, _ := newUC(repo, &stubChecker{})

	_, err := uc.Execute(context.Background(), &Request{
		BusinessID: 100,
		BookingID:  1,
		NewStartAt: start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrBookingFrozen)
}

func TestExecute_NotFound(t *testing.T) {
	repo := &stubBookingRepo{bookings: map[int64]*domain.Booking{}}
	uc, _ := newUC(repo, &stubChecker{})

	_, err := uc.Execute(context.Background(), &Request{
		BusinessID: 100,
		BookingID:  99,
		NewStartAt: start,
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
