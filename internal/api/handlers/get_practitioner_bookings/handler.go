package get_practitioner_bookings

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

const (
	msgInvalidBusinessID     = "некорректный ID бизнеса"
	msgInvalidPractitionerID = "некорректный ID специалиста"
	msgInvalidPeriod         = "некорректный формат периода, ожидается RFC3339"
	msgInvalidInput          = "некорректные параметры запроса"
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

// Handle GET /api/v1/businesses/{businessId}/practitioners/{practitionerId}/bookings?from=&to=&includeFrozen=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	businessID, err := strconv.ParseInt(vars["businessId"], 10, 64)
	if err != nil || businessID <= 0 {
		h.logger.Warn("GET /practitioners/{id}/bookings - Invalid business ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBusinessID)
		return
	}

	practitionerID, err := strconv.ParseInt(vars["practitionerId"], 10, 64)
	if err != nil || practitionerID <= 0 {
		h.logger.Warn("GET /practitioners/{id}/bookings - Invalid practitioner ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPractitionerID)
		return
	}

	req := &models.GetPractitionerBookingsRequest{
		BusinessID:     businessID,
		PractitionerID: practitionerID,
	}

	query := r.URL.Query()
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.logger.Warn("GET /practitioners/%d/bookings - Invalid 'from': %v", practitionerID, err)
			handlers.RespondBadRequest(w, msgInvalidPeriod)
			return
		}
		req.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.logger.Warn("GET /practitioners/%d/bookings - Invalid 'to': %v", practitionerID, err)
			handlers.RespondBadRequest(w, msgInvalidPeriod)
			return
		}
		req.To = &to
	}
	req.IncludeFrozen = query.Get("includeFrozen") == "true"

	result, err := h.service.GetPractitionerBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /practitioners/%d/bookings - Invalid input: %v", practitionerID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /practitioners/%d/bookings - Failed to fetch bookings: %v", practitionerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /practitioners/%d/bookings - Fetched %d bookings", practitionerID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
