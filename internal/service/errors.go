package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by BookingManager.  Handlers translate them into
// HTTP status codes; any other error is an unexpected failure.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("booking not found")
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("forbidden")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrDateConflict    = errors.New("product is already booked for the selected date range")
	ErrLockTimeout     = errors.New("timed out waiting for product lock")
	// ErrUnauthenticated means the token names an account that no longer
	// exists.
	ErrUnauthenticated = errors.New("unknown principal")

	// ErrAccountNotFound is wrapped by AccountProvisioner implementations
	// when GetAccount finds no account.
	ErrAccountNotFound = errors.New("account not found")
)

// ValidationError describes one rejected input field.  It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }
