package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these so
// the transport layer can map it without knowing the specific cause.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
)

var (
	ErrMemberExists       = fmt.Errorf("%w: member already exists with this email", ErrConflict)
	ErrAlreadyRegistered  = fmt.Errorf("%w: already registered for this event", ErrConflict)
	ErrAlreadyReviewed    = fmt.Errorf("%w: already reviewed this event", ErrConflict)
	ErrConcurrentUpdate   = fmt.Errorf("%w: event was modified concurrently", ErrConflict)
	ErrMemberNotFound     = fmt.Errorf("%w: member", ErrNotFound)
	ErrEventNotFound      = fmt.Errorf("%w: event", ErrNotFound)
	ErrInvalidCategory    = fmt.Errorf("%w: unknown category", ErrInvalidInput)
	ErrInvalidRating      = fmt.Errorf("%w: rating must be an integer between 1 and 5", ErrInvalidInput)
	ErrInvalidRole        = fmt.Errorf("%w: role must be student or organizer", ErrInvalidInput)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrWrongRole          = fmt.Errorf("%w: role not allowed for this action", ErrUnauthorized)
	ErrNotOwner           = fmt.Errorf("%w: only the organizer who created the event may change it", ErrUnauthorized)
)

// MissingFieldError reports a required input that was empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s is required", ErrInvalidInput, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrInvalidInput }
