package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
	"github.com/m04kA/SMC-SchedulingService/internal/service/waitlist/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
)

// Service сервис вейтлиста: постановка в очередь, матчинг освободившихся
// слотов, офферы с истечением и каскад
//
// Кандидаты ранжируются FIFO по времени постановки в очередь. Переходы
// состояний записей защищены guard-условием в репозитории: проигравшая
// гонку операция получает ErrStateConflict и не дублирует оффер
type Service struct {
	waitlistRepo WaitlistRepository
	bookingRepo  BookingRepository
	settingsRepo SettingsRepository
	checker      ConflictChecker
	publisher    EventPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	metrics      *metrics.Metrics
	logger       Logger
}

// NewService создает новый экземпляр сервиса вейтлиста
func NewService(
	waitlistRepo WaitlistRepository,
	bookingRepo BookingRepository,
	settingsRepo SettingsRepository,
	checker ConflictChecker,
	publisher EventPublisher,
	txManager TransactionManager,
	m *metrics.Metrics,
	logger Logger,
) *Service {
	return &Service{
		waitlistRepo: waitlistRepo,
		bookingRepo:  bookingRepo,
		settingsRepo: settingsRepo,
		checker:      checker,
		publisher:    publisher,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		metrics:      m,
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Join ставит клиента в вейтлист
func (s *Service) Join(ctx context.Context, req *models.JoinRequest) (*models.EntryResponse, error) {
	s.logger.Info("Join: business=%d, client=%d, window=[%s, %s)",
		req.BusinessID, req.ClientID, req.WindowStart.Format(time.RFC3339), req.WindowEnd.Format(time.RFC3339))

	if err := validateJoinRequest(req, s.timeProvider.Now()); err != nil {
		s.logger.Warn("Join: validation failed: %v", err)
		return nil, err
	}

	entry := &domain.WaitlistEntry{
		BusinessID:     req.BusinessID,
		ClientID:       req.ClientID,
		PractitionerID: req.PractitionerID,
		ServiceID:      req.ServiceID,
		WindowStart:    req.WindowStart,
		WindowEnd:      req.WindowEnd,
	}

	created, err := s.waitlistRepo.Create(ctx, entry)
	if err != nil {
		s.logger.Error("Join: failed to create entry: %v", err)
		return nil, fmt.Errorf("%w: failed to create entry: %v", ErrInternal, err)
	}

	s.logger.Info("Join: entry id=%d created", created.ID)
	return models.FromDomainEntry(created), nil
}

// GetEntry возвращает запись вейтлиста
func (s *Service) GetEntry(ctx context.Context, businessID, entryID int64) (*models.EntryResponse, error) {
	entry, err := s.getEntry(ctx, businessID, entryID)
	if err != nil {
		return nil, err
	}
	return models.FromDomainEntry(entry), nil
}

// HandleSlotFreed обрабатывает освобождение слота
//
// Поведение зависит от режима бизнеса:
//   - manual: персоналу публикуется уведомление о количестве совпадений
//   - auto: лучший кандидат получает оффер с дедлайном
//   - auto_cascade: как auto; истекший оффер передается следующему кандидату
func (s *Service) HandleSlotFreed(ctx context.Context, freed domain.SlotFreed) {
	s.logger.Info("HandleSlotFreed: business=%d, practitioner=%d, slot=[%s, %s)",
		freed.BusinessID, freed.PractitionerID,
		freed.StartAt.Format(time.RFC3339), freed.EndAt.Format(time.RFC3339))

	settings, err := s.settingsRepo.Get(ctx, freed.BusinessID)
	if err != nil {
		s.logger.Error("HandleSlotFreed: failed to get settings for business=%d: %v", freed.BusinessID, err)
		return
	}

	candidates, err := s.matchCandidates(ctx, freed)
	if err != nil {
		s.logger.Error("HandleSlotFreed: failed to match candidates: %v", err)
		return
	}

	if len(candidates) == 0 {
		s.logger.Info("HandleSlotFreed: no matching entries for business=%d", freed.BusinessID)
		return
	}

	switch settings.WaitlistMode {
	case domain.WaitlistManual:
		s.publisher.Publish(domain.EventWaitlistMatch, freed.BusinessID, domain.WaitlistMatchNotice{
			BusinessID:     freed.BusinessID,
			PractitionerID: freed.PractitionerID,
			StartAt:        freed.StartAt,
			EndAt:          freed.EndAt,
			MatchesCount:   len(candidates),
		})
		s.logger.Info("HandleSlotFreed: manual mode, %d match(es) surfaced to staff", len(candidates))

	case domain.WaitlistAuto, domain.WaitlistAutoCascade:
		s.offerToFirst(ctx, freed, candidates, settings.OfferExpiry())

	default:
		s.logger.Warn("HandleSlotFreed: unknown waitlist mode %q for business=%d",
			settings.WaitlistMode, freed.BusinessID)
	}
}

// matchCandidates возвращает подходящие записи в порядке FIFO
func (s *Service) matchCandidates(ctx context.Context, freed domain.SlotFreed) ([]*domain.WaitlistEntry, error) {
	waiting, err := s.waitlistRepo.ListWaiting(ctx, freed.BusinessID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*domain.WaitlistEntry, 0)
	for _, entry := range waiting {
		if entry.Matches(freed.PractitionerID, freed.ServiceID, freed.Interval()) {
			candidates = append(candidates, entry)
		}
	}
	return candidates, nil
}

// offerToFirst выдает оффер первому кандидату, который еще в состоянии waiting
func (s *Service) offerToFirst(ctx context.Context, freed domain.SlotFreed, candidates []*domain.WaitlistEntry, expiry time.Duration) {
	now := s.timeProvider.Now()
	expiresAt := now.Add(expiry)

	for _, entry := range candidates {
		err := s.waitlistRepo.SetOffer(ctx, freed.BusinessID, entry.ID, freed, now, expiresAt)
		if err != nil {
			if errors.Is(err, waitlistRepo.ErrStateConflict) {
				// Запись увели конкурирующей операцией, пробуем следующую
				s.logger.Info("offerToFirst: entry id=%d already transitioned, trying next", entry.ID)
				continue
			}
			s.logger.Error("offerToFirst: failed to set offer for entry id=%d: %v", entry.ID, err)
			return
		}

		s.metrics.WaitlistOffersTotal.WithLabelValues("offered").Inc()
		s.publisher.Publish(domain.EventWaitlistOffer, freed.BusinessID, domain.WaitlistOfferNotice{
			BusinessID:     freed.BusinessID,
			EntryID:        entry.ID,
			ClientID:       entry.ClientID,
			PractitionerID: freed.PractitionerID,
			StartAt:        freed.StartAt,
			EndAt:          freed.EndAt,
			ExpiresAt:      expiresAt,
		})

		s.logger.Info("offerToFirst: entry id=%d offered slot until %s",
			entry.ID, expiresAt.Format(time.RFC3339))
		return
	}

	s.logger.Info("offerToFirst: all %d candidate(s) already transitioned", len(candidates))
}

// AcceptOffer принимает текущий оффер записи и создает бронирование
//
// Слот перепроверяется детектором конфликтов: если его успели занять,
// оффер считается истекшим и каскад продолжается со следующего кандидата
func (s *Service) AcceptOffer(ctx context.Context, req *models.AcceptOfferRequest) (*models.AcceptOfferResponse, error) {
	s.logger.Info("AcceptOffer: business=%d, entry=%d", req.BusinessID, req.EntryID)

	if err := validateAcceptRequest(req); err != nil {
		s.logger.Warn("AcceptOffer: validation failed: %v", err)
		return nil, err
	}

	var (
		booking   *domain.Booking
		lostEntry *domain.WaitlistEntry
	)

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		entry, err := s.getEntry(txCtx, req.BusinessID, req.EntryID)
		if err != nil {
			return err
		}

		if entry.ClientID != req.ClientID {
			s.logger.Warn("AcceptOffer: entry id=%d belongs to client=%d, not %d",
				entry.ID, entry.ClientID, req.ClientID)
			return ErrEntryNotFound
		}

		if entry.State != domain.WaitlistOffered || entry.OfferStartAt == nil || entry.OfferEndAt == nil || entry.OfferPractitionerID == nil {
			s.logger.Warn("AcceptOffer: entry id=%d has no active offer (state=%s)", entry.ID, entry.State)
			return ErrNoActiveOffer
		}

		now := s.timeProvider.Now()
		if entry.OfferExpiresAt != nil && now.After(*entry.OfferExpiresAt) {
			s.logger.Warn("AcceptOffer: offer for entry id=%d expired at %s",
				entry.ID, entry.OfferExpiresAt.Format(time.RFC3339))
			return fmt.Errorf("%w: expired at %s", domain.ErrOfferExpired, entry.OfferExpiresAt.Format(time.RFC3339))
		}

		slot := domain.Interval{Start: *entry.OfferStartAt, End: *entry.OfferEndAt}

		// Перепроверка: слот могли занять, пока оффер был открыт
		checkErr := s.checker.Check(txCtx, req.BusinessID, *entry.OfferPractitionerID, slot, nil, conflict.CheckOptions{})
		if checkErr != nil {
			if errors.Is(checkErr, domain.ErrSlotOccupied) || errors.Is(checkErr, domain.ErrPastSlot) {
				s.logger.Warn("AcceptOffer: slot for entry id=%d no longer available: %v", entry.ID, checkErr)
				// Переход offered -> expired НЕ здесь: транзакция откатится
				// вместе с ним. Фиксируем запись и истекаем оффер после отката
				lostEntry = entry
				return checkErr
			}
			s.logger.Error("AcceptOffer: conflict check failed for entry id=%d: %v", entry.ID, checkErr)
			return fmt.Errorf("%w: conflict check failed: %v", ErrInternal, checkErr)
		}

		created, createErr := s.bookingRepo.Create(txCtx, &domain.Booking{
			BusinessID:     req.BusinessID,
			PractitionerID: *entry.OfferPractitionerID,
			ClientID:       entry.ClientID,
			ServiceID:      entry.OfferServiceID,
			StartAt:        slot.Start,
			EndAt:          slot.End,
			Status:         domain.StatusConfirmed,
			Mode:           domain.ModeInPerson,
		})
		if createErr != nil {
			s.logger.Error("AcceptOffer: failed to create booking for entry id=%d: %v", entry.ID, createErr)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, createErr)
		}

		if trErr := s.waitlistRepo.TransitionState(txCtx, req.BusinessID, entry.ID,
			domain.WaitlistOffered, domain.WaitlistMatched); trErr != nil {
			s.logger.Error("AcceptOffer: failed to mark entry id=%d matched: %v", entry.ID, trErr)
			return fmt.Errorf("%w: failed to mark entry matched: %v", ErrInternal, trErr)
		}

		booking = created
		return nil
	})

	if err != nil {
		if lostEntry != nil {
			s.expireLostOffer(context.WithoutCancel(ctx), lostEntry)
		}
		return nil, err
	}

	s.metrics.WaitlistOffersTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("AcceptOffer: entry id=%d matched, booking id=%d created", req.EntryID, booking.ID)

	s.publisher.Publish(domain.EventBookingChanged, req.BusinessID, domain.BookingChanged{
		BusinessID:     req.BusinessID,
		PractitionerID: booking.PractitionerID,
		Action:         domain.ActionCreated,
		From:           booking.StartAt,
		To:             booking.EndAt,
		BookingIDs:     []int64{booking.ID},
	})

	return &models.AcceptOfferResponse{
		EntryID:   req.EntryID,
		BookingID: booking.ID,
		StartAt:   booking.StartAt,
		EndAt:     booking.EndAt,
	}, nil
}

// Sweep переводит истекшие офферы в expired и продолжает каскад
// Вызывается фоновым планировщиком
func (s *Service) Sweep(ctx context.Context) {
	now := s.timeProvider.Now()
	s.metrics.WaitlistSweepsTotal.Inc()

	expired, err := s.waitlistRepo.ListExpiredOffers(ctx, now)
	if err != nil {
		s.logger.Error("Sweep: failed to list expired offers: %v", err)
		return
	}

	if len(expired) == 0 {
		return
	}

	s.logger.Info("Sweep: %d expired offer(s) found", len(expired))

	for _, entry := range expired {
		err := s.waitlistRepo.TransitionState(ctx, entry.BusinessID, entry.ID,
			domain.WaitlistOffered, domain.WaitlistExpired)
		if err != nil {
			if errors.Is(err, waitlistRepo.ErrStateConflict) {
				// Оффер успели принять или отменить
				continue
			}
			s.logger.Error("Sweep: failed to expire entry id=%d: %v", entry.ID, err)
			continue
		}

		s.metrics.WaitlistSweepExpired.Inc()
		s.metrics.WaitlistOffersTotal.WithLabelValues("expired").Inc()
		s.logger.Info("Sweep: entry id=%d expired", entry.ID)

		s.cascadeAfterExpiry(ctx, entry)
	}
}

// expireLostOffer истекает оффер, слот которого заняли, пока он был открыт
// Вызывается ВНЕ транзакции принятия: её откат не должен отменять истечение.
// Каскад продолжается по правилам режима (только auto_cascade)
func (s *Service) expireLostOffer(ctx context.Context, entry *domain.WaitlistEntry) {
	err := s.waitlistRepo.TransitionState(ctx, entry.BusinessID, entry.ID,
		domain.WaitlistOffered, domain.WaitlistExpired)
	if err != nil {
		if errors.Is(err, waitlistRepo.ErrStateConflict) {
			// Запись уже истек sweep или отменил клиент, каскад не дублируем
			s.logger.Info("expireLostOffer: entry id=%d already transitioned", entry.ID)
			return
		}
		s.logger.Error("expireLostOffer: failed to expire entry id=%d: %v", entry.ID, err)
		return
	}

	s.metrics.WaitlistOffersTotal.WithLabelValues("lost").Inc()
	s.logger.Info("expireLostOffer: entry id=%d expired, slot was taken", entry.ID)

	go s.cascadeAfterExpiry(ctx, entry)
}

// cascadeAfterExpiry передает слот истекшего оффера следующему кандидату,
// если бизнес работает в режиме auto_cascade
func (s *Service) cascadeAfterExpiry(ctx context.Context, entry *domain.WaitlistEntry) {
	if entry.OfferPractitionerID == nil || entry.OfferStartAt == nil || entry.OfferEndAt == nil {
		return
	}

	settings, err := s.settingsRepo.Get(ctx, entry.BusinessID)
	if err != nil {
		s.logger.Error("cascadeAfterExpiry: failed to get settings for business=%d: %v", entry.BusinessID, err)
		return
	}

	if settings.WaitlistMode != domain.WaitlistAutoCascade {
		return
	}

	s.HandleSlotFreed(ctx, domain.SlotFreed{
		BusinessID:     entry.BusinessID,
		PractitionerID: *entry.OfferPractitionerID,
		ServiceID:      entry.OfferServiceID,
		StartAt:        *entry.OfferStartAt,
		EndAt:          *entry.OfferEndAt,
	})
}

func (s *Service) getEntry(ctx context.Context, businessID, entryID int64) (*domain.WaitlistEntry, error) {
	entry, err := s.waitlistRepo.GetByID(ctx, businessID, entryID)
	if err != nil {
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			s.logger.Warn("getEntry: entry id=%d not found", entryID)
			return nil, ErrEntryNotFound
		}
		s.logger.Error("getEntry: repository error for entry id=%d: %v", entryID, err)
		return nil, fmt.Errorf("%w: getEntry - repository error: %v", ErrInternal, err)
	}
	return entry, nil
}

func validateJoinRequest(req *models.JoinRequest, now time.Time) error {
	if req.BusinessID <= 0 {
		return fmt.Errorf("%w: businessID must be positive", ErrInvalidInput)
	}
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}
	if req.PractitionerID != nil && *req.PractitionerID <= 0 {
		return fmt.Errorf("%w: practitionerID must be positive", ErrInvalidInput)
	}
	if req.ServiceID != nil && *req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}
	if req.WindowStart.IsZero() || req.WindowEnd.IsZero() {
		return fmt.Errorf("%w: windowStart and windowEnd are required", ErrInvalidInput)
	}
	if !req.WindowEnd.After(req.WindowStart) {
		return fmt.Errorf("%w: windowEnd must be after windowStart", ErrInvalidInput)
	}
	if req.WindowEnd.Before(now) {
		return fmt.Errorf("%w: window is entirely in the past", ErrInvalidInput)
	}
	return nil
}

func validateAcceptRequest(req *models.AcceptOfferRequest) error {
	if req.BusinessID <= 0 {
		return fmt.Errorf("%w: businessID must be positive", ErrInvalidInput)
	}
	if req.EntryID <= 0 {
		return fmt.Errorf("%w: entryID must be positive", ErrInvalidInput)
	}
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}
	return nil
}
