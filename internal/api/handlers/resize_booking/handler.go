package resize_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	resizeBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/resize_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidTime        = "некорректный формат времени, ожидается RFC3339"
	msgBookingNotFound    = "бронирование не найдено"
	msgBookingFrozen      = "бронирование в терминальном статусе и не может быть изменено"
	msgSlotOccupied       = "новый интервал уже занят"
	msgInvalidInterval    = "интервал бронирования должен иметь положительную длину"
	msgPastSlot           = "нельзя изменить бронирование на время в прошлом"
	msgInvalidInput       = "некорректные входные данные"
)

type Handler struct {
	useCase ResizeBookingUseCase
	logger  Logger
}

func NewHandler(useCase ResizeBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/resize
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/resize - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req ResizeBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/%d/resize - Invalid request body: %v", bookingID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(bookingID)
	if err != nil {
		h.logger.Warn("PATCH /bookings/%d/resize - Failed to parse time: %v", bookingID, err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, resizeBooking.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/%d/resize - Booking not found", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, domain.ErrBookingFrozen):
			h.logger.Warn("PATCH /bookings/%d/resize - Booking frozen", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgBookingFrozen)

		case errors.Is(err, domain.ErrSlotOccupied):
			h.logger.Warn("PATCH /bookings/%d/resize - Slot occupied", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgSlotOccupied)

		case errors.Is(err, domain.ErrInvalidInterval):
			h.logger.Warn("PATCH /bookings/%d/resize - Invalid interval: %v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInterval)

		case errors.Is(err, domain.ErrPastSlot):
			h.logger.Warn("PATCH /bookings/%d/resize - Past slot", bookingID)
			handlers.RespondBadRequest(w, msgPastSlot)

		case errors.Is(err, resizeBooking.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/%d/resize - Invalid input: %v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PATCH /bookings/%d/resize - Failed to resize booking: %v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/%d/resize - Resized to [%s, %s)", bookingID, result.StartAt, result.EndAt)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
