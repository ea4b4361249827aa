package services

import (
	"errors"
	"fmt"
)

// ErrSuperseded is the cancel cause of a request replaced by a newer one of
// the same kind from the same owner.
var ErrSuperseded = errors.New("superseded by a newer request")

// ValidationError is raised before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Server error (%d)", e.Status)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
