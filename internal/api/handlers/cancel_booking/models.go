package cancel_booking

import (
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	BusinessID         int64  `json:"businessId"`
	CancellationReason string `json:"cancellationReason"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(bookingID int64) *models.CancelBookingRequest {
	return &models.CancelBookingRequest{
		BusinessID:         r.BusinessID,
		BookingID:          bookingID,
		CancellationReason: r.CancellationReason,
	}
}
