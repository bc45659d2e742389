package accept_offer

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/waitlist"
	"github.com/m04kA/SMC-SchedulingService/internal/service/waitlist/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidEntryID     = "некорректный ID записи вейтлиста"
	msgEntryNotFound      = "запись вейтлиста не найдена"
	msgNoActiveOffer      = "у записи нет активного предложения"
	msgOfferExpired       = "предложение истекло"
	msgSlotTaken          = "предложенный слот уже занят"
	msgInvalidInput       = "некорректные входные данные"
)

// AcceptOfferRequest HTTP request model
type AcceptOfferRequest struct {
	BusinessID int64 `json:"businessId"`
	ClientID   int64 `json:"clientId"`
}

type Handler struct {
	service WaitlistService
	logger  Logger
}

func NewHandler(service WaitlistService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/waitlist/{entryId}/accept
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(mux.Vars(r)["entryId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /waitlist/{id}/accept - Invalid entry ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEntryID)
		return
	}

	var req AcceptOfferRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /waitlist/%d/accept - Invalid request body: %v", entryID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.AcceptOffer(r.Context(), &models.AcceptOfferRequest{
		BusinessID: req.BusinessID,
		EntryID:    entryID,
		ClientID:   req.ClientID,
	})
	if err != nil {
		switch {
		case errors.Is(err, waitlist.ErrEntryNotFound):
			h.logger.Warn("POST /waitlist/%d/accept - Entry not found", entryID)
			handlers.RespondNotFound(w, msgEntryNotFound)

		case errors.Is(err, waitlist.ErrNoActiveOffer):
			h.logger.Warn("POST /waitlist/%d/accept - No active offer", entryID)
			handlers.RespondError(w, http.StatusConflict, msgNoActiveOffer)

		case errors.Is(err, domain.ErrOfferExpired):
			h.logger.Warn("POST /waitlist/%d/accept - Offer expired", entryID)
			handlers.RespondError(w, http.StatusGone, msgOfferExpired)

		case errors.Is(err, domain.ErrSlotOccupied), errors.Is(err, domain.ErrPastSlot):
			h.logger.Warn("POST /waitlist/%d/accept - Slot no longer available: %v", entryID, err)
			handlers.RespondError(w, http.StatusConflict, msgSlotTaken)

		case errors.Is(err, waitlist.ErrInvalidInput):
			h.logger.Warn("POST /waitlist/%d/accept - Invalid input: %v", entryID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /waitlist/%d/accept - Failed to accept offer: %v", entryID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist/%d/accept - Booking id=%d created", entryID, result.BookingID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
