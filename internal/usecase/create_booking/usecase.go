package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	clientClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/clientservice"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling/conflict"
	storage "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/practitioner"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// UseCase use case для создания бронирования (одиночного или составного)
type UseCase struct {
	bookingRepo      BookingRepository
	practitionerRepo PractitionerRepository
	catalogRepo      CatalogRepository
	settingsRepo     SettingsRepository
	checker          ConflictChecker
	clientClient     ClientServiceClient
	publisher        EventPublisher
	txManager        TransactionManager
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	practitionerRepo PractitionerRepository,
	catalogRepo CatalogRepository,
	settingsRepo SettingsRepository,
	checker ConflictChecker,
	clientClient ClientServiceClient,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:      bookingRepo,
		practitionerRepo: practitionerRepo,
		catalogRepo:      catalogRepo,
		settingsRepo:     settingsRepo,
		checker:          checker,
		clientClient:     clientClient,
		publisher:        publisher,
		txManager:        txManager,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования
// Проверка конфликтов и запись выполняются в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: business=%d, practitioner=%d, client=%d, start=%s, services=%v",
		req.BusinessID, req.PractitionerID, req.ClientID, req.StartAt.Format(time.RFC3339), req.ServiceIDs)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ModeInPerson
	}

	// 2. Проверяем существование специалиста
	if _, err := uc.practitionerRepo.GetByID(ctx, req.BusinessID, req.PractitionerID); err != nil {
		if errors.Is(err, storage.ErrPractitionerNotFound) {
			uc.logger.Warn("CreateBooking: practitioner id=%d not found", req.PractitionerID)
			return nil, ErrPractitionerNotFound
		}
		uc.logger.Error("CreateBooking: failed to get practitioner id=%d: %v", req.PractitionerID, err)
		return nil, fmt.Errorf("%w: failed to get practitioner: %v", ErrInternal, err)
	}

	// 3. Получаем настройки бизнеса
	settings, err := uc.settingsRepo.Get(ctx, req.BusinessID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get settings for business=%d: %v", req.BusinessID, err)
		return nil, fmt.Errorf("%w: failed to get settings: %v", ErrInternal, err)
	}

	// 4. Резолвим услуги и проверяем формат приема
	services, err := uc.resolveServices(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := validateModes(services, mode); err != nil {
		uc.logger.Warn("CreateBooking: mode validation failed: %v", err)
		return nil, err
	}

	// 5. Получаем профиль клиента (graceful degradation: имя опционально)
	clientName, err := uc.fetchClientName(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	// 6. Раскладываем участников встык начиная со StartAt
	members := layoutMembers(req, services, mode, clientName)

	grouped := len(members) > 1
	var groupID *string
	if grouped {
		groupID = ptr.Ptr(uuid.NewString())
		for i, m := range members {
			m.GroupID = groupID
			m.GroupOrder = i
		}
	}

	var created []*domain.Booking

	// 7. Проверка конфликтов и запись в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 7.1. Проверяем каждого участника; собственная группа исключается
		if !settings.AllowOverlap {
			for _, m := range members {
				checkErr := uc.checker.Check(txCtx, req.BusinessID, req.PractitionerID,
					m.OccupiedInterval(), groupID, conflict.CheckOptions{})
				if checkErr != nil {
					uc.logger.Warn("CreateBooking: member order=%d rejected: %v", m.GroupOrder, checkErr)
					if grouped {
						return fmt.Errorf("%w: member order=%d: %v", domain.ErrGroupPartialFailure, m.GroupOrder, checkErr)
					}
					return checkErr
				}
			}
		}

		// 7.2. Сохраняем: группа атомарно, одиночная запись напрямую
		if grouped {
			createdGroup, createErr := uc.bookingRepo.CreateGroup(txCtx, members)
			if createErr != nil {
				uc.logger.Error("CreateBooking: failed to create group: %v", createErr)
				return fmt.Errorf("%w: failed to create group: %v", domain.ErrGroupPartialFailure, createErr)
			}
			created = createdGroup
			return nil
		}

		single, createErr := uc.bookingRepo.Create(txCtx, members[0])
		if createErr != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", createErr)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, createErr)
		}
		created = []*domain.Booking{single}
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: created %d booking(s), first id=%d", len(created), created[0].ID)

	// 8. Публикуем событие после коммита, не внутри транзакции
	uc.publishChanged(req, created, groupID)

	// 9. Мягкое предупреждение о предоплате по истории неявок
	noShows := uc.countNoShows(ctx, req.BusinessID, req.ClientID)

	return buildResponse(created, groupID, noShows), nil
}

// resolveServices загружает услуги запроса
// Для freestyle-бронирования возвращает nil
func (uc *UseCase) resolveServices(ctx context.Context, req *Request) ([]*domain.Service, error) {
	if len(req.ServiceIDs) == 0 {
		return nil, nil
	}

	services, err := uc.catalogRepo.GetByIDs(ctx, req.BusinessID, req.ServiceIDs)
	if err != nil {
		uc.logger.Warn("CreateBooking: failed to resolve services %v: %v", req.ServiceIDs, err)
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
	}
	return services, nil
}

// fetchClientName получает имя клиента для денормализации
// При недоступности ClientService бронирование продолжается без имени,
// отсутствие самого клиента остается ошибкой
func (uc *UseCase) fetchClientName(ctx context.Context, clientID int64) (*string, error) {
	profile, err := uc.clientClient.GetProfileWithGracefulDegradation(ctx, clientID)
	if err != nil {
		if errors.Is(err, clientClient.ErrClientNotFound) {
			uc.logger.Warn("CreateBooking: client id=%d not found", clientID)
			return nil, ErrClientNotFound
		}
		uc.logger.Warn("CreateBooking: proceeding without client name for id=%d: %v", clientID, err)
		return nil, nil
	}
	if profile.DisplayName == "" {
		return nil, nil
	}
	return &profile.DisplayName, nil
}

func (uc *UseCase) countNoShows(ctx context.Context, businessID, clientID int64) int {
	count, err := uc.bookingRepo.CountNoShows(ctx, businessID, clientID)
	if err != nil {
		uc.logger.Warn("CreateBooking: failed to count no-shows for client=%d: %v", clientID, err)
		return 0
	}
	return count
}

func (uc *UseCase) publishChanged(req *Request, created []*domain.Booking, groupID *string) {
	ids := make([]int64, 0, len(created))
	from := created[0].StartAt
	to := created[0].EndAt
	for _, b := range created {
		ids = append(ids, b.ID)
		if b.StartAt.Before(from) {
			from = b.StartAt
		}
		if b.EndAt.After(to) {
			to = b.EndAt
		}
	}

	uc.publisher.Publish(domain.EventBookingChanged, req.BusinessID, domain.BookingChanged{
		BusinessID:     req.BusinessID,
		PractitionerID: req.PractitionerID,
		Action:         domain.ActionCreated,
		From:           from,
		To:             to,
		BookingIDs:     ids,
		GroupID:        groupID,
	})
}

// layoutMembers строит участников бронирования встык от StartAt
func layoutMembers(req *Request, services []*domain.Service, mode domain.AppointmentMode, clientName *string) []*domain.Booking {
	// Freestyle: один участник с явной длительностью и буферами
	if len(services) == 0 {
		end := req.StartAt.Add(time.Duration(*req.DurationMinutes) * time.Minute)
		return []*domain.Booking{{
			BusinessID:          req.BusinessID,
			PractitionerID:      req.PractitionerID,
			ClientID:            req.ClientID,
			StartAt:             req.StartAt,
			EndAt:               end,
			BufferBeforeMinutes: req.BufferBeforeMinutes,
			BufferAfterMinutes:  req.BufferAfterMinutes,
			Status:              domain.StatusPending,
			Mode:                mode,
			ClientName:          clientName,
			Notes:               req.Notes,
		}}
	}

	members := make([]*domain.Booking, 0, len(services))
	cursor := req.StartAt

	for _, svc := range services {
		end := cursor.Add(time.Duration(svc.DurationMinutes) * time.Minute)
		members = append(members, &domain.Booking{
			BusinessID:          req.BusinessID,
			PractitionerID:      req.PractitionerID,
			ClientID:            req.ClientID,
			ServiceID:           ptr.Ptr(svc.ID),
			StartAt:             cursor,
			EndAt:               end,
			BufferBeforeMinutes: svc.BufferBeforeMinutes,
			BufferAfterMinutes:  svc.BufferAfterMinutes,
			Status:              domain.StatusPending,
			Mode:                mode,
			ServiceName:         ptr.Ptr(svc.Name),
			ClientName:          clientName,
			Notes:               req.Notes,
		})
		cursor = end
	}

	return members
}

func buildResponse(created []*domain.Booking, groupID *string, noShows int) *Response {
	views := make([]BookingView, 0, len(created))
	for _, b := range created {
		views = append(views, BookingView{
			ID:             b.ID,
			BusinessID:     b.BusinessID,
			PractitionerID: b.PractitionerID,
			ClientID:       b.ClientID,
			ServiceID:      b.ServiceID,
			ServiceName:    b.ServiceName,
			StartAt:        b.StartAt,
			EndAt:          b.EndAt,
			Status:         string(b.Status),
			Mode:           string(b.Mode),
			GroupID:        b.GroupID,
			GroupOrder:     b.GroupOrder,
			Notes:          b.Notes,
			CreatedAt:      b.CreatedAt,
			UpdatedAt:      b.UpdatedAt,
		})
	}

	return &Response{
		GroupID:          groupID,
		Bookings:         views,
		DepositSuggested: noShows >= domain.DepositWarningNoShowCount,
		NoShowCount:      noShows,
	}
}
