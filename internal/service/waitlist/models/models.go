package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// JoinRequest запрос на постановку в вейтлист
// Nil у PractitionerID/ServiceID означает "любой"
type JoinRequest struct {
	BusinessID     int64     `json:"businessId"`
	ClientID       int64     `json:"clientId"`
	PractitionerID *int64    `json:"practitionerId,omitempty"`
	ServiceID      *int64    `json:"serviceId,omitempty"`
	WindowStart    time.Time `json:"windowStart"`
	WindowEnd      time.Time `json:"windowEnd"`
}

// AcceptOfferRequest запрос на принятие текущего оффера
type AcceptOfferRequest struct {
	BusinessID int64 `json:"businessId"`
	EntryID    int64 `json:"entryId"`
	ClientID   int64 `json:"clientId"`
}

// EntryResponse представление записи вейтлиста
type EntryResponse struct {
	ID             int64      `json:"id"`
	BusinessID     int64      `json:"businessId"`
	ClientID       int64      `json:"clientId"`
	PractitionerID *int64     `json:"practitionerId,omitempty"`
	ServiceID      *int64     `json:"serviceId,omitempty"`
	WindowStart    time.Time  `json:"windowStart"`
	WindowEnd      time.Time  `json:"windowEnd"`
	State          string     `json:"state"`
	OfferStartAt   *time.Time `json:"offerStartAt,omitempty"`
	OfferEndAt     *time.Time `json:"offerEndAt,omitempty"`
	OfferExpiresAt *time.Time `json:"offerExpiresAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// AcceptOfferResponse ответ на принятие оффера: созданное бронирование
type AcceptOfferResponse struct {
	EntryID   int64     `json:"entryId"`
	BookingID int64     `json:"bookingId"`
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt"`
}

// FromDomainEntry конвертирует domain.WaitlistEntry в response
func FromDomainEntry(e *domain.WaitlistEntry) *EntryResponse {
	return &EntryResponse{
		ID:             e.ID,
		BusinessID:     e.BusinessID,
		ClientID:       e.ClientID,
		PractitionerID: e.PractitionerID,
		ServiceID:      e.ServiceID,
		WindowStart:    e.WindowStart,
		WindowEnd:      e.WindowEnd,
		State:          string(e.State),
		OfferStartAt:   e.OfferStartAt,
		OfferEndAt:     e.OfferEndAt,
		OfferExpiresAt: e.OfferExpiresAt,
		CreatedAt:      e.CreatedAt,
	}
}
