package waitlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
	"github.com/m04kA/SMC-SchedulingService/internal/service/waitlist/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// fakeWaitlistRepo хранит записи в памяти и повторяет guard-семантику
// репозитория: переход из неожидаемого состояния дает ErrStateConflict
type fakeWaitlistRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*domain.WaitlistEntry
}

func newFakeWaitlistRepo() *fakeWaitlistRepo {
	return &fakeWaitlistRepo{entries: make(map[int64]*domain.WaitlistEntry)}
}

func (f *fakeWaitlistRepo) Create(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	entry.ID = f.nextID
	entry.State = domain.WaitlistWaiting
	entry.CreatedAt = time.Now()
	f.entries[entry.ID] = entry
	return entry, nil
}

func (f *fakeWaitlistRepo) GetByID(ctx context.Context, businessID, id int64) (*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok || entry.BusinessID != businessID {
		return nil, waitlistRepo.ErrEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeWaitlistRepo) ListWaiting(ctx context.Context, businessID int64) ([]*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// FIFO по id (id растет с порядком создания)
	var result []*domain.WaitlistEntry
	for id := int64(1); id <= f.nextID; id++ {
		if e, ok := f.entries[id]; ok && e.BusinessID == businessID && e.State == domain.WaitlistWaiting {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeWaitlistRepo) ListExpiredOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*domain.WaitlistEntry
	for id := int64(1); id <= f.nextID; id++ {
		e, ok := f.entries[id]
		if ok && e.State == domain.WaitlistOffered && e.OfferExpiresAt != nil && !e.OfferExpiresAt.After(now) {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeWaitlistRepo) SetOffer(ctx context.Context, businessID, id int64, offer domain.SlotFreed, offeredAt, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok || entry.BusinessID != businessID {
		return waitlistRepo.ErrEntryNotFound
	}
	if entry.State != domain.WaitlistWaiting {
		return waitlistRepo.ErrStateConflict
	}
	entry.State = domain.WaitlistOffered
	entry.OfferPractitionerID = &offer.PractitionerID
	entry.OfferServiceID = offer.ServiceID
	entry.OfferStartAt = &offer.StartAt
	entry.OfferEndAt = &offer.EndAt
	entry.OfferedAt = &offeredAt
	entry.OfferExpiresAt = &expiresAt
	return nil
}

func (f *fakeWaitlistRepo) TransitionState(ctx context.Context, businessID, id int64, from, to domain.WaitlistState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok || entry.BusinessID != businessID {
		return waitlistRepo.ErrEntryNotFound
	}
	if entry.State != from {
		return waitlistRepo.ErrStateConflict
	}
	entry.State = to
	return nil
}

func (f *fakeWaitlistRepo) stateOf(id int64) domain.WaitlistState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[id].State
}

func (f *fakeWaitlistRepo) snapshot() map[int64]domain.WaitlistEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[int64]domain.WaitlistEntry, len(f.entries))
	for id, e := range f.entries {
		snap[id] = *e
	}
	return snap
}

func (f *fakeWaitlistRepo) restore(snap map[int64]domain.WaitlistEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[int64]*domain.WaitlistEntry, len(snap))
	for id, e := range snap {
		copied := e
		f.entries[id] = &copied
	}
}

type stubBookingRepo struct {
	mu      sync.Mutex
	nextID  int64
	created []*domain.Booking
}

func (s *stubBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.created = append(s.created, b)
	return b, nil
}

func (s *stubBookingRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type stubSettingsRepo struct {
	mode domain.WaitlistMode
}

func (s *stubSettingsRepo) Get(ctx context.Context, businessID int64) (*domain.BusinessSettings, error) {
	settings := domain.DefaultSettings(businessID)
	settings.WaitlistMode = s.mode
	return settings, nil
}

type stubChecker struct {
	err error
}

func (s *stubChecker) Check(ctx context.Context, businessID, practitionerID int64, proposed domain.Interval, excludeGroupID *string, opts conflict.CheckOptions) error {
	return s.err
}

type capturedEvent struct {
	eventType string
	payload   interface{}
}

type stubPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (s *stubPublisher) Publish(eventType string, businessID int64, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, capturedEvent{eventType: eventType, payload: payload})
}

func (s *stubPublisher) byType(eventType string) []capturedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []capturedEvent
	for _, e := range s.events {
		if e.eventType == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (s *stubPublisher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// stubTxManager повторяет транзакционный контракт: ошибка closure
// откатывает всё, что closure успел записать
type stubTxManager struct {
	repo     *fakeWaitlistRepo
	bookings *stubBookingRepo
}

func (m stubTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	entriesSnap := m.repo.snapshot()
	m.bookings.mu.Lock()
	bookingsSnap := make([]*domain.Booking, len(m.bookings.created))
	copy(bookingsSnap, m.bookings.created)
	nextIDSnap := m.bookings.nextID
	m.bookings.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.repo.restore(entriesSnap)
		m.bookings.mu.Lock()
		m.bookings.created = bookingsSnap
		m.bookings.nextID = nextIDSnap
		m.bookings.mu.Unlock()
		return err
	}
	return nil
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

var now = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func freedSlot() domain.SlotFreed {
	return domain.SlotFreed{
		BusinessID:     100,
		PractitionerID: 7,
		ServiceID:      ptr.Ptr(int64(3)),
		StartAt:        now.Add(time.Hour),
		EndAt:          now.Add(2 * time.Hour),
	}
}

type fixture struct {
	svc       *Service
	repo      *fakeWaitlistRepo
	bookings  *stubBookingRepo
	publisher *stubPublisher
	checker   *stubChecker
}

func newFixture(t *testing.T, mode domain.WaitlistMode) *fixture {
	t.Helper()

	repo := newFakeWaitlistRepo()
	bookings := &stubBookingRepo{}
	publisher := &stubPublisher{}
	checker := &stubChecker{}

	svc := NewService(
		repo,
		bookings,
		&stubSettingsRepo{mode: mode},
		checker,
		publisher,
		stubTxManager{repo: repo, bookings: bookings},
		metrics.NewWith(prometheus.NewRegistry(), "waitlist-test"),
		nopLogger{},
	).WithTimeProvider(fixedTime{t: now})

	return &fixture{svc: svc, repo: repo, bookings: bookings, publisher: publisher, checker: checker}
}

func join(t *testing.T, f *fixture, practitionerID, serviceID *int64) *models.EntryResponse {
	t.Helper()
	entry, err := f.svc.Join(context.Background(), &models.JoinRequest{
		BusinessID:     100,
		ClientID:       42,
		PractitionerID: practitionerID,
		ServiceID:      serviceID,
		WindowStart:    now,
		WindowEnd:      now.Add(8 * time.Hour),
	})
	require.NoError(t, err)
	return entry
}

func TestJoin_Validation(t *testing.T) {
	f := newFixture(t, domain.WaitlistManual)

	_, err := f.svc.Join(context.Background(), &models.JoinRequest{
		BusinessID:  100,
		ClientID:    42,
		WindowStart: now.Add(time.Hour),
		WindowEnd:   now,
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "inverted window")

	_, err = f.svc.Join(context.Background(), &models.JoinRequest{
		BusinessID:  100,
		ClientID:    42,
		WindowStart: now.Add(-3 * time.Hour),
		WindowEnd:   now.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "window entirely in the past")
}

func TestHandleSlotFreed_ManualMode(t *testing.T) {
	f := newFixture(t, domain.WaitlistManual)
	first := join(t, f, nil, nil)
	second := join(t, f, nil, nil)

	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	notices := f.publisher.byType(domain.EventWaitlistMatch)
	require.Len(t, notices, 1)
	notice := notices[0].payload.(domain.WaitlistMatchNotice)
	assert.Equal(t, 2, notice.MatchesCount)

	// Записи остаются в ожидании, офферы не выдаются
	assert.Equal(t, domain.WaitlistWaiting, f.repo.stateOf(first.ID))
	assert.Equal(t, domain.WaitlistWaiting, f.repo.stateOf(second.ID))
}

func TestHandleSlotFreed_AutoOffersFirstInFIFO(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	first := join(t, f, nil, nil)
	second := join(t, f, nil, nil)

	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	assert.Equal(t, domain.WaitlistOffered, f.repo.stateOf(first.ID))
	assert.Equal(t, domain.WaitlistWaiting, f.repo.stateOf(second.ID))

	offers := f.publisher.byType(domain.EventWaitlistOffer)
	require.Len(t, offers, 1)
	offer := offers[0].payload.(domain.WaitlistOfferNotice)
	assert.Equal(t, first.ID, offer.EntryID)
	assert.Equal(t, now.Add(time.Duration(domain.DefaultOfferExpiryMinutes)*time.Minute), offer.ExpiresAt)
}

func TestHandleSlotFreed_PreferencesFilterCandidates(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	wrongPractitioner := join(t, f, ptr.Ptr(int64(99)), nil)
	match := join(t, f, ptr.Ptr(int64(7)), ptr.Ptr(int64(3)))

	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	assert.Equal(t, domain.WaitlistWaiting, f.repo.stateOf(wrongPractitioner.ID))
	assert.Equal(t, domain.WaitlistOffered, f.repo.stateOf(match.ID))
}

func TestHandleSlotFreed_NoCandidates(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)

	f.svc.HandleSlotFreed(context.Background(), freedSlot())
	assert.Zero(t, f.publisher.count())
}

func TestAcceptOffer_CreatesConfirmedBooking(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	entry := join(t, f, nil, nil)
	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	resp, err := f.svc.AcceptOffer(context.Background(), &models.AcceptOfferRequest{
		BusinessID: 100,
		EntryID:    entry.ID,
		ClientID:   42,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.WaitlistMatched, f.repo.stateOf(entry.ID))
	require.Equal(t, 1, f.bookings.count())

	booking := f.bookings.created[0]
	assert.Equal(t, domain.StatusConfirmed, booking.Status)
	assert.Equal(t, now.Add(time.Hour), booking.StartAt)
	assert.Equal(t, resp.BookingID, booking.ID)

	changed := f.publisher.byType(domain.EventBookingChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, domain.ActionCreated, changed[0].payload.(domain.BookingChanged).Action)
}

func TestAcceptOffer_WrongClient(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	entry := join(t, f, nil, nil)
	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	_, err := f.svc.AcceptOffer(context.Background(), &models.AcceptOfferRequest{
		BusinessID: 100,
		EntryID:    entry.ID,
		ClientID:   777,
	})
	assert.ErrorIs(t, err, ErrEntryNotFound, "foreign entries look like not found")
}

func TestAcceptOffer_NoActiveOffer(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	entry := join(t, f, nil, nil)

	_, err := f.svc.AcceptOffer(context.Background(), &models.AcceptOfferRequest{
		BusinessID: 100,
		EntryID:    entry.ID,
		ClientID:   42,
	})
	assert.ErrorIs(t, err, ErrNoActiveOffer)
}

func TestAcceptOffer_Expired(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	entry := join(t, f, nil, nil)
	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	// Дедлайн оффера прошел
	f.svc.WithTimeProvider(fixedTime{t: now.Add(time.Duration(domain.DefaultOfferExpiryMinutes+1) * time.Minute)})

	_, err := f.svc.AcceptOffer(context.Background(), &models.AcceptOfferRequest{
		BusinessID: 100,
		EntryID:    entry.ID,
		ClientID:   42,
	})
	assert.ErrorIs(t, err, domain.ErrOfferExpired)
	assert.Zero(t, f.bookings.count())
}

func TestAcceptOffer_SlotTakenMeanwhile(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	entry := join(t, f, nil, nil)
	waiting := join(t, f, nil, nil)
	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	// Слот успели занять обычным бронированием
	f.checker.err = domain.ErrSlotOccupied

	_, err := f.svc.AcceptOffer(context.Background(), &models.AcceptOfferRequest{
		BusinessID: 100,
		EntryID:    entry.ID,
		ClientID:   42,
	})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)

	// Оффер истекает несмотря на откат транзакции принятия
	assert.Equal(t, domain.WaitlistExpired, f.repo.stateOf(entry.ID))
	assert.Zero(t, f.bookings.count())

	// Повторная попытка принять уже истекший оффер
	_, err = f.svc.AcceptOffer(context.Background(), &models.AcceptOfferRequest{
		BusinessID: 100,
		EntryID:    entry.ID,
		ClientID:   42,
	})
	assert.ErrorIs(t, err, ErrNoActiveOffer)

	// В режиме auto проигранный слот НЕ уходит следующему кандидату
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, domain.WaitlistWaiting, f.repo.stateOf(waiting.ID))
}

func TestAcceptOffer_SlotTakenCascadesInAutoCascade(t *testing.T) {
	f := newFixture(t, domain.WaitlistAutoCascade)
	entry := join(t, f, nil, nil)
	next := join(t, f, nil, nil)
	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	f.checker.err = domain.ErrSlotOccupied

	_, err := f.svc.AcceptOffer(context.Background(), &models.AcceptOfferRequest{
		BusinessID: 100,
		EntryID:    entry.ID,
		ClientID:   42,
	})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)
	assert.Equal(t, domain.WaitlistExpired, f.repo.stateOf(entry.ID))

	// Каскад передает слот следующему кандидату в фоне
	assert.Eventually(t, func() bool {
		return f.repo.stateOf(next.ID) == domain.WaitlistOffered
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweep_ExpiresAndCascades(t *testing.T) {
	f := newFixture(t, domain.WaitlistAutoCascade)
	first := join(t, f, nil, nil)
	second := join(t, f, nil, nil)

	f.svc.HandleSlotFreed(context.Background(), freedSlot())
	require.Equal(t, domain.WaitlistOffered, f.repo.stateOf(first.ID))

	// Прошло больше срока оффера
	f.svc.WithTimeProvider(fixedTime{t: now.Add(time.Duration(domain.DefaultOfferExpiryMinutes+5) * time.Minute)})
	f.svc.Sweep(context.Background())

	// Первый истек, слот каскадом ушел второму
	assert.Equal(t, domain.WaitlistExpired, f.repo.stateOf(first.ID))
	assert.Equal(t, domain.WaitlistOffered, f.repo.stateOf(second.ID))

	offers := f.publisher.byType(domain.EventWaitlistOffer)
	require.Len(t, offers, 2)
	assert.Equal(t, second.ID, offers[1].payload.(domain.WaitlistOfferNotice).EntryID)
}

func TestSweep_AutoModeDoesNotCascade(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	first := join(t, f, nil, nil)
	second := join(t, f, nil, nil)

	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	f.svc.WithTimeProvider(fixedTime{t: now.Add(time.Duration(domain.DefaultOfferExpiryMinutes+5) * time.Minute)})
	f.svc.Sweep(context.Background())

	assert.Equal(t, domain.WaitlistExpired, f.repo.stateOf(first.ID))
	assert.Equal(t, domain.WaitlistWaiting, f.repo.stateOf(second.ID),
		"auto mode expires the offer without cascading")
}

func TestSweep_NothingExpired(t *testing.T) {
	f := newFixture(t, domain.WaitlistAuto)
	entry := join(t, f, nil, nil)
	f.svc.HandleSlotFreed(context.Background(), freedSlot())

	f.svc.Sweep(context.Background())
	assert.Equal(t, domain.WaitlistOffered, f.repo.stateOf(entry.ID))
}
