package booking

import (
	"regexp"
	"strconv"
)

const (
	MsgNameRequired  = "Name is required"
	MsgContactFormat = "Contact must be a 10-digit number"
	MsgDateRequired  = "Date is required"
	MsgTimeRequired  = "Select a valid time slot"
	MsgGuestsInvalid = "Guests must be a positive number"
)

var contactRe = regexp.MustCompile(`^[0-9]{10}$`)

// Errors maps a failing field to its message. Valid fields have no entry.
type Errors map[Field]string

func (e Errors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

func (e Errors) Empty() bool { return len(e) == 0 }

// Validate checks every rule against f and returns the failing fields.
// All rules run on every call.
func Validate(f Form) Errors {
	errs := Errors{}
	if f.Name == "" {
		errs[FieldName] = MsgNameRequired
	}
	if !contactRe.MatchString(f.Contact) {
		errs[FieldContact] = MsgContactFormat
	}
	if f.Date == "" {
		errs[FieldDate] = MsgDateRequired
	}
	if f.Time == "" {
		errs[FieldTime] = MsgTimeRequired
	}
	if n, err := strconv.Atoi(f.Guests); err != nil || n <= 0 {
		errs[FieldGuests] = MsgGuestsInvalid
	}
	return errs
}
