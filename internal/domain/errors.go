package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is the base error for any referenced entity that does not exist.
// Handlers should map this (and everything that wraps it) to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrRequestNotFound is returned when a charter request id does not exist.
var ErrRequestNotFound = fmt.Errorf("charter request %w", ErrNotFound)

// ErrQuoteNotFound is returned when a quote id does not exist or belongs to a
// different request than the one named in the call.
var ErrQuoteNotFound = fmt.Errorf("quote %w", ErrNotFound)

// ErrOperatorNotFound is returned when an operator or its coverage does not exist.
var ErrOperatorNotFound = fmt.Errorf("operator %w", ErrNotFound)

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. passenger count below one, inverted capacity range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidTransition is returned when a lifecycle event is not legal from
// the request's current status. It is always recoverable by the caller.
// Handlers should map this to HTTP 409 Conflict.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrDuplicateQuote is returned when an operator already has a quote on the
// request. Handlers should map this to HTTP 409 Conflict.
var ErrDuplicateQuote = errors.New("duplicate quote")

// ErrStorageUnavailable wraps any failure of the persistence collaborator.
// The core never retries; it surfaces the error unchanged.
// Handlers should map this to HTTP 503.
var ErrStorageUnavailable = errors.New("storage unavailable")

// TransitionError describes a rejected lifecycle event.
// errors.Is(err, ErrInvalidTransition) reports true for every TransitionError.
type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from %s", ErrInvalidTransition, e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
