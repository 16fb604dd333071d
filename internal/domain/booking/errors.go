package booking

import "fmt"

// RejectedError is a booking the service refused, with the service's reason.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("booking rejected: %s", e.Message)
}
