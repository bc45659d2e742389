package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	BusinessID         int64  `json:"businessId"`
	BookingID          int64  `json:"bookingId"`
	CancellationReason string `json:"cancellationReason"`
}

// UpdateStatusRequest запрос на обновление статуса бронирования
type UpdateStatusRequest struct {
	BusinessID int64  `json:"businessId"`
	BookingID  int64  `json:"bookingId"`
	Status     string `json:"status"`
}

// GetPractitionerBookingsRequest запрос бронирований специалиста за период
type GetPractitionerBookingsRequest struct {
	BusinessID     int64      `json:"businessId"`
	PractitionerID int64      `json:"practitionerId"`
	From           *time.Time `json:"from,omitempty"`
	To             *time.Time `json:"to,omitempty"`
	IncludeFrozen  bool       `json:"includeFrozen,omitempty"` // Включить завершенные и отмененные
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetPractitionerBookingsRequest) ToDomainFilter() domain.PractitionerBookingsFilter {
	return domain.PractitionerBookingsFilter{
		BusinessID:     r.BusinessID,
		PractitionerID: r.PractitionerID,
		From:           r.From,
		To:             r.To,
		ExcludeFrozen:  !r.IncludeFrozen,
	}
}

// Response модели

// BookingResponse представление бронирования
type BookingResponse struct {
	ID             int64      `json:"id"`
	BusinessID     int64      `json:"businessId"`
	PractitionerID int64      `json:"practitionerId"`
	ClientID       int64      `json:"clientId"`
	ServiceID      *int64     `json:"serviceId,omitempty"`
	StartAt        time.Time  `json:"startAt"`
	EndAt          time.Time  `json:"endAt"`
	BufferBefore   int        `json:"bufferBeforeMinutes"`
	BufferAfter    int        `json:"bufferAfterMinutes"`
	Status         string     `json:"status"`
	Mode           string     `json:"mode"`
	GroupID        *string    `json:"groupId,omitempty"`
	GroupOrder     int        `json:"groupOrder,omitempty"`
	ServiceName    *string    `json:"serviceName,omitempty"`
	ClientName     *string    `json:"clientName,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Total    int                `json:"total"`
}

// FromDomainBooking конвертирует domain.Booking в response
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:             b.ID,
		BusinessID:     b.BusinessID,
		PractitionerID: b.PractitionerID,
		ClientID:       b.ClientID,
		ServiceID:      b.ServiceID,
		StartAt:        b.StartAt,
		EndAt:          b.EndAt,
		BufferBefore:   b.BufferBeforeMinutes,
		BufferAfter:    b.BufferAfterMinutes,
		Status:         string(b.Status),
		Mode:           string(b.Mode),
		GroupID:        b.GroupID,
		GroupOrder:     b.GroupOrder,
		ServiceName:    b.ServiceName,
		ClientName:     b.ClientName,
		Notes:          b.Notes,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain.Booking в response
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	result := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, FromDomainBooking(b))
	}
	return &BookingListResponse{
		Bookings: result,
		Total:    len(result),
	}
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus
func ToDomainBookingStatus(s string) (domain.BookingStatus, error) {
	status := domain.BookingStatus(s)
	if !domain.ValidBookingStatus(status) {
		return "", ErrInvalidStatus
	}
	return status, nil
}
