package resize_booking

import (
	"time"

	resizeBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/resize_booking"
)

// ResizeBookingRequest HTTP request model
// Незаданная граница остается прежней
type ResizeBookingRequest struct {
	BusinessID int64   `json:"businessId"`
	NewStartAt *string `json:"newStartAt,omitempty"` // RFC3339
	NewEndAt   *string `json:"newEndAt,omitempty"`   // RFC3339
}

// ResizeBookingResponse HTTP response model
type ResizeBookingResponse struct {
	ID      int64  `json:"id"`
	StartAt string `json:"startAt"`
	EndAt   string `json:"endAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ResizeBookingRequest) ToUseCaseRequest(bookingID int64) (*resizeBooking.Request, error) {
	req := &resizeBooking.Request{
		BusinessID: r.BusinessID,
		BookingID:  bookingID,
	}

	if r.NewStartAt != nil {
		newStartAt, err := time.Parse(time.RFC3339, *r.NewStartAt)
		if err != nil {
			return nil, err
		}
		req.NewStartAt = &newStartAt
	}

	if r.NewEndAt != nil {
		newEndAt, err := time.Parse(time.RFC3339, *r.NewEndAt)
		if err != nil {
			return nil, err
		}
		req.NewEndAt = &newEndAt
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *resizeBooking.Response) *ResizeBookingResponse {
	return &ResizeBookingResponse{
		ID:      resp.ID,
		StartAt: resp.StartAt.Format(time.RFC3339),
		EndAt:   resp.EndAt.Format(time.RFC3339),
	}
}
