package booking

import "fmt"

// Field names a single input of the booking form. The string values double as
// the JSON keys and HTML form names.
type Field string

const (
	FieldName    Field = "name"
	FieldContact Field = "contact"
	FieldDate    Field = "date"
	FieldTime    Field = "time"
	FieldGuests  Field = "guests"
)

// Fields lists every form field in display order.
var Fields = []Field{FieldName, FieldContact, FieldDate, FieldTime, FieldGuests}

func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Form holds the values exactly as entered. Date is an ISO calendar date
// (YYYY-MM-DD) and Guests is numeric text.
type Form struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Guests  string `json:"guests"`
}

func (f Form) Get(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldContact:
		return f.Contact
	case FieldDate:
		return f.Date
	case FieldTime:
		return f.Time
	case FieldGuests:
		return f.Guests
	}
	return ""
}

// With returns a copy of f with one field replaced.
func (f Form) With(field Field, value string) Form {
	switch field {
	case FieldName:
		f.Name = value
	case FieldContact:
		f.Contact = value
	case FieldDate:
		f.Date = value
	case FieldTime:
		f.Time = value
	case FieldGuests:
		f.Guests = value
	}
	return f
}

func (f Form) IsZero() bool { return f == Form{} }

// Summary is the confirmed booking as echoed back by the booking service.
type Summary struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Guests  string `json:"guests"`
}
