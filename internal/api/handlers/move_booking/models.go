package move_booking

import (
	"time"

	moveBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/move_booking"
)

// MoveBookingRequest HTTP request model
type MoveBookingRequest struct {
	BusinessID int64  `json:"businessId"`
	NewStartAt string `json:"newStartAt"` // RFC3339
}

// MovedBookingView перенесенное бронирование в ответе
type MovedBookingView struct {
	ID      int64  `json:"id"`
	StartAt string `json:"startAt"`
	EndAt   string `json:"endAt"`
}

// MoveBookingResponse HTTP response model
type MoveBookingResponse struct {
	GroupID  *string            `json:"groupId,omitempty"`
	Bookings []MovedBookingView `json:"bookings"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *MoveBookingRequest) ToUseCaseRequest(bookingID int64) (*moveBooking.Request, error) {
	newStartAt, err := time.Parse(time.RFC3339, r.NewStartAt)
	if err != nil {
		return nil, err
	}

	return &moveBooking.Request{
		BusinessID: r.BusinessID,
		BookingID:  bookingID,
		NewStartAt: newStartAt,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *moveBooking.Response) *MoveBookingResponse {
	views := make([]MovedBookingView, 0, len(resp.Bookings))
	for _, b := range resp.Bookings {
		views = append(views, MovedBookingView{
			ID:      b.ID,
			StartAt: b.StartAt.Format(time.RFC3339),
			EndAt:   b.EndAt.Format(time.RFC3339),
		})
	}

	return &MoveBookingResponse{
		GroupID:  resp.GroupID,
		Bookings: views,
	}
}
