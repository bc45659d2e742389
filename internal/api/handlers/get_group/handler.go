package get_group

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
)

const (
	msgInvalidGroupID    = "некорректный ID группы"
	msgInvalidBusinessID = "некорректный ID бизнеса"
	msgGroupNotFound     = "группа бронирований не найдена"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings/groups/{groupId}?businessId=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	if _, err := uuid.Parse(groupID); err != nil {
		h.logger.Warn("GET /bookings/groups/{id} - Invalid group ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidGroupID)
		return
	}

	businessID, err := strconv.ParseInt(r.URL.Query().Get("businessId"), 10, 64)
	if err != nil || businessID <= 0 {
		h.logger.Warn("GET /bookings/groups/%s - Invalid business ID", groupID)
		handlers.RespondBadRequest(w, msgInvalidBusinessID)
		return
	}

	result, err := h.service.GetGroup(r.Context(), businessID, groupID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /bookings/groups/%s - Group not found", groupID)
			handlers.RespondNotFound(w, msgGroupNotFound)

		default:
			h.logger.Error("GET /bookings/groups/%s - Failed to fetch group: %v", groupID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings/groups/%s - Fetched %d bookings", groupID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
