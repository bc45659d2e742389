package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	BusinessID     int64   `json:"businessId"`
	PractitionerID int64   `json:"practitionerId"`
	ClientID       int64   `json:"clientId"`
	StartAt        string  `json:"startAt"` // RFC3339, "2026-09-15T10:00:00+03:00"
	Mode           string  `json:"mode,omitempty"`
	Notes          *string `json:"notes,omitempty"`

	ServiceIDs []int64 `json:"serviceIds,omitempty"`

	DurationMinutes     *int `json:"durationMinutes,omitempty"`
	BufferBeforeMinutes int  `json:"bufferBeforeMinutes,omitempty"`
	BufferAfterMinutes  int  `json:"bufferAfterMinutes,omitempty"`
}

// BookingView HTTP представление бронирования
type BookingView struct {
	ID          int64   `json:"id"`
	ServiceID   *int64  `json:"serviceId,omitempty"`
	ServiceName *string `json:"serviceName,omitempty"`
	StartAt     string  `json:"startAt"`
	EndAt       string  `json:"endAt"`
	Status      string  `json:"status"`
	Mode        string  `json:"mode"`
	GroupID     *string `json:"groupId,omitempty"`
	GroupOrder  int     `json:"groupOrder"`
	Notes       *string `json:"notes,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	GroupID          *string       `json:"groupId,omitempty"`
	Bookings         []BookingView `json:"bookings"`
	DepositSuggested bool          `json:"depositSuggested"`
	NoShowCount      int           `json:"noShowCount"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	startAt, err := time.Parse(time.RFC3339, r.StartAt)
	if err != nil {
		return nil, err
	}

	return &createBooking.Request{
		BusinessID:          r.BusinessID,
		PractitionerID:      r.PractitionerID,
		ClientID:            r.ClientID,
		StartAt:             startAt,
		Mode:                domain.AppointmentMode(r.Mode),
		Notes:               r.Notes,
		ServiceIDs:          r.ServiceIDs,
		DurationMinutes:     r.DurationMinutes,
		BufferBeforeMinutes: r.BufferBeforeMinutes,
		BufferAfterMinutes:  r.BufferAfterMinutes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	views := make([]BookingView, 0, len(resp.Bookings))
	for _, b := range resp.Bookings {
		views = append(views, BookingView{
			ID:          b.ID,
			ServiceID:   b.ServiceID,
			ServiceName: b.ServiceName,
			StartAt:     b.StartAt.Format(time.RFC3339),
			EndAt:       b.EndAt.Format(time.RFC3339),
			Status:      b.Status,
			Mode:        b.Mode,
			GroupID:     b.GroupID,
			GroupOrder:  b.GroupOrder,
			Notes:       b.Notes,
			CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		})
	}

	return &CreateBookingResponse{
		GroupID:          resp.GroupID,
		Bookings:         views,
		DepositSuggested: resp.DepositSuggested,
		NoShowCount:      resp.NoShowCount,
	}
}
