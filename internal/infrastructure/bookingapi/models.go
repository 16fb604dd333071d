package bookingapi

import (
	"bytes"
	"encoding/json"

	"github.com/example/table-booking/internal/domain/booking"
)

const bookingsPath = "/api/bookings"

type slotsResponse struct {
	AvailableSlots []string `json:"availableSlots"`
}

type createResponse struct {
	Success bool            `json:"success"`
	Booking *bookingPayload `json:"booking,omitempty"`
	Message string          `json:"message,omitempty"`
}

// bookingPayload is the booking echoed back by the service. Services are not
// consistent about quoting numbers, so every field takes a string or a number.
type bookingPayload struct {
	Name    lenientString `json:"name"`
	Contact lenientString `json:"contact"`
	Date    lenientString `json:"date"`
	Time    lenientString `json:"time"`
	Guests  lenientString `json:"guests"`
}

func (p bookingPayload) summary() booking.Summary {
	return booking.Summary{
		Name:    string(p.Name),
		Contact: string(p.Contact),
		Date:    string(p.Date),
		Time:    string(p.Time),
		Guests:  string(p.Guests),
	}
}

// lenientString decodes a JSON string, or a JSON number kept as its literal text.
type lenientString string

func (s *lenientString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = lenientString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = lenientString(n.String())
	return nil
}
