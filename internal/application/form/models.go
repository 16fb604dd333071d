package form

import "github.com/example/table-booking/internal/domain/booking"

// Status is the result of one submit attempt.
type Status string

const (
	StatusInvalid   Status = "invalid"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

const (
	MsgServiceUnavailable = "Booking service unavailable, please try again."
	MsgSlotsUnavailable   = "Could not load available time slots, please try again."
)

type Outcome struct {
	Status  Status
	Errors  booking.Errors
	Summary booking.Summary
	// Message is the notice shown to the user for rejected and failed submits.
	Message string
}

// State is a point-in-time copy of everything the controller holds.
type State struct {
	Form   booking.Form
	Errors booking.Errors
	Slots  []string
	// Summary is the last confirmed booking, nil until the first one.
	Summary *booking.Summary

	// SlotError is set when the last availability fetch failed; Slots then
	// still holds the previous list.
	SlotError string
	// Notice is a pending blocking message for the user.
	Notice string
}

func (s State) clone() State {
	out := s
	out.Errors = copyErrors(s.Errors)
	out.Slots = booking.CloneSlots(s.Slots)
	if s.Summary != nil {
		sum := *s.Summary
		out.Summary = &sum
	}
	return out
}

// SlotSelected reports whether slot is the chosen time.
func (s State) SlotSelected(slot string) bool { return s.Form.Time == slot }
