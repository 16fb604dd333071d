package form

import (
	"context"
	"errors"

	"github.com/example/table-booking/internal/domain/booking"
)

var (
	ErrUnknownField = errors.New("form: unknown field")
	ErrUnknownSlot  = errors.New("form: slot is not offered for the selected date")
)

// Service is the booking service as the controller sees it. CreateBooking
// reports a refusal as *booking.RejectedError.
type Service interface {
	AvailableSlots(ctx context.Context, date string) ([]string, error)
	CreateBooking(ctx context.Context, f booking.Form) (booking.Summary, error)
}

// Recorder observes fetch and submission results, typically for metrics.
type Recorder interface {
	SlotFetch(result string)
	Submission(status string)
}

const (
	FetchOK    = "ok"
	FetchError = "error"
	FetchStale = "stale"
)

type noopRecorder struct{}

func (noopRecorder) SlotFetch(string)  {}
func (noopRecorder) Submission(string) {}
