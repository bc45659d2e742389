package join_waitlist

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/waitlist"
	"github.com/m04kA/SMC-SchedulingService/internal/service/waitlist/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidWindow      = "некорректный формат окна, ожидается RFC3339"
	msgInvalidInput       = "некорректные входные данные"
)

// JoinWaitlistRequest HTTP request model
type JoinWaitlistRequest struct {
	BusinessID     int64  `json:"businessId"`
	ClientID       int64  `json:"clientId"`
	PractitionerID *int64 `json:"practitionerId,omitempty"`
	ServiceID      *int64 `json:"serviceId,omitempty"`
	WindowStart    string `json:"windowStart"` // RFC3339
	WindowEnd      string `json:"windowEnd"`   // RFC3339
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

// Handle POST /api/v1/waitlist
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req JoinWaitlistRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /waitlist - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	windowStart, err := time.Parse(time.RFC3339, req.WindowStart)
	if err != nil {
		h.logger.Warn("POST /waitlist - Invalid windowStart: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindow)
		return
	}

	windowEnd, err := time.Parse(time.RFC3339, req.WindowEnd)
	if err != nil {
		h.logger.Warn("POST /waitlist - Invalid windowEnd: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindow)
		return
	}

	result, err := h.service.Join(r.Context(), &models.JoinRequest{
		BusinessID:     req.BusinessID,
		ClientID:       req.ClientID,
		PractitionerID: req.PractitionerID,
		ServiceID:      req.ServiceID,
		WindowStart:    windowStart,
		WindowEnd:      windowEnd,
	})
	if err != nil {
		switch {
		case errors.Is(err, waitlist.ErrInvalidInput):
			h.logger.Warn("POST /waitlist - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /waitlist - Failed to join: business_id=%d, error=%v", req.BusinessID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist - Entry id=%d created for client_id=%d", result.ID, req.ClientID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
