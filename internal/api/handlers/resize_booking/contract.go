package resize_booking

import (
	"context"

	resizeBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/resize_booking"
)

type ResizeBookingUseCase interface {
	Execute(ctx context.Context, req *resizeBooking.Request) (*resizeBooking.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
