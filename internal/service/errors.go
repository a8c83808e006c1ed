package service

import (
	"errors"
	"fmt"
)

// Error kinds. The text of each kind is the machine readable code sent to clients.
var (
	ErrValidation    = errors.New("validation_error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not_found")
	ErrQuotaExceeded = errors.New("quota_exceeded")
	ErrGeneration    = errors.New("generation_error")
	ErrPayment       = errors.New("payment_error")
	ErrInvalidState  = errors.New("invalid_state")
)

// Error is a domain failure carrying a user facing message. It matches its
// kind and its cause with errors.Is.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}
