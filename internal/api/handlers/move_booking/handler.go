package move_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	moveBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/move_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidStartAt     = "некорректный формат времени начала, ожидается RFC3339"
	msgBookingNotFound    = "бронирование не найдено"
	msgBookingFrozen      = "бронирование в терминальном статусе и не может быть перенесено"
	msgSlotOccupied       = "новый интервал уже занят"
	msgPastSlot           = "нельзя перенести бронирование в прошлое"
	msgInvalidInput       = "некорректные входные данные"
)

type Handler struct {
	useCase MoveBookingUseCase
	logger  Logger
}

func NewHandler(useCase MoveBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/move
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/move - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req MoveBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/%d/move - Invalid request body: %v", bookingID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(bookingID)
	if err != nil {
		h.logger.Warn("PATCH /bookings/%d/move - Failed to parse newStartAt: %v", bookingID, err)
		handlers.RespondBadRequest(w, msgInvalidStartAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, moveBooking.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/%d/move - Booking not found", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, domain.ErrBookingFrozen):
			h.logger.Warn("PATCH /bookings/%d/move - Booking frozen", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgBookingFrozen)

		case errors.Is(err, domain.ErrSlotOccupied):
			h.logger.Warn("PATCH /bookings/%d/move - Slot occupied", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgSlotOccupied)

		case errors.Is(err, domain.ErrPastSlot):
			h.logger.Warn("PATCH /bookings/%d/move - Past slot", bookingID)
			handlers.RespondBadRequest(w, msgPastSlot)

		case errors.Is(err, moveBooking.ErrInvalidInput), errors.Is(err, domain.ErrInvalidInterval):
			h.logger.Warn("PATCH /bookings/%d/move - Invalid input: %v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PATCH /bookings/%d/move - Failed to move booking: %v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/%d/move - Moved %d booking(s)", bookingID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
