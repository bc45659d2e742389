package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody     = "некорректное тело запроса"
	msgInvalidStartAt         = "некорректный формат времени начала, ожидается RFC3339"
	msgSlotOccupied           = "выбранный интервал уже занят"
	msgPastSlot               = "нельзя бронировать время в прошлом"
	msgPractitionerNotFound   = "специалист не найден"
	msgServiceNotFound        = "услуга не найдена"
	msgClientNotFound         = "клиент не найден"
	msgModeNotAllowed         = "формат приема недоступен для выбранной услуги"
	msgGroupFailed            = "не удалось создать составную запись"
	msgInvalidInput           = "некорректные входные данные"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse startAt: %v", err)
		handlers.RespondBadRequest(w, msgInvalidStartAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotOccupied):
			h.logger.Warn("POST /bookings - Slot occupied: practitioner_id=%d", req.PractitionerID)
			handlers.RespondError(w, http.StatusConflict, msgSlotOccupied)

		case errors.Is(err, domain.ErrGroupPartialFailure):
			h.logger.Warn("POST /bookings - Group creation failed: practitioner_id=%d, error=%v", req.PractitionerID, err)
			handlers.RespondError(w, http.StatusConflict, msgGroupFailed)

		case errors.Is(err, domain.ErrPastSlot):
			h.logger.Warn("POST /bookings - Past slot: practitioner_id=%d", req.PractitionerID)
			handlers.RespondBadRequest(w, msgPastSlot)

		case errors.Is(err, createBooking.ErrPractitionerNotFound):
			h.logger.Warn("POST /bookings - Practitioner not found: practitioner_id=%d", req.PractitionerID)
			handlers.RespondNotFound(w, msgPractitionerNotFound)

		case errors.Is(err, createBooking.ErrServiceNotFound):
			h.logger.Warn("POST /bookings - Service not found: business_id=%d", req.BusinessID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, createBooking.ErrClientNotFound):
			h.logger.Warn("POST /bookings - Client not found: client_id=%d", req.ClientID)
			handlers.RespondNotFound(w, msgClientNotFound)

		case errors.Is(err, createBooking.ErrModeNotAllowed):
			h.logger.Warn("POST /bookings - Mode not allowed: mode=%s", req.Mode)
			handlers.RespondBadRequest(w, msgModeNotAllowed)

		case errors.Is(err, createBooking.ErrInvalidInput), errors.Is(err, domain.ErrInvalidInterval):
			h.logger.Warn("POST /bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: business_id=%d, error=%v", req.BusinessID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Created %d booking(s): business_id=%d, practitioner_id=%d",
		len(result.Bookings), req.BusinessID, req.PractitionerID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
