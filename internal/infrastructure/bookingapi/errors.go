package bookingapi

import "errors"

var (
	// ErrDateRequired is returned when availability is requested without a date.
	ErrDateRequired = errors.New("bookingapi: date is required")

	// ErrUnavailable wraps transport failures: dial errors, timeouts, cancellation.
	ErrUnavailable = errors.New("bookingapi: service unavailable")

	// ErrBadResponse covers unexpected status codes and payloads that do not
	// match the service contract.
	ErrBadResponse = errors.New("bookingapi: invalid response")
)
