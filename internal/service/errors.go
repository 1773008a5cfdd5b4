package service

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by a service wraps exactly one of
// them so callers can map it with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrUpstream        = errors.New("upstream unavailable")
)

// Error is a client-facing message tagged with its category.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrProductNotFound     = newError(ErrNotFound, "product not found")
	ErrOutOfStock          = newError(ErrConflict, "product is out of stock")
	ErrEmptyCart           = newError(ErrConflict, "cart is empty")
	ErrOrderNotFound       = newError(ErrNotFound, "order not found")
	ErrOrderNotCancellable = newError(ErrConflict, "order can no longer be cancelled")
	ErrInvalidTransition   = newError(ErrConflict, "status transition not allowed")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrUserExists          = newError(ErrConflict, "user already exists")
	ErrBannerNotFound      = newError(ErrNotFound, "banner not found")
	ErrInvalidOTP          = newError(ErrUnauthorized, "invalid otp")
	ErrOTPExpired          = newError(ErrUnauthorized, "otp expired or not requested")
	ErrOTPLocked           = newError(ErrTooManyAttempts, "too many wrong otp attempts, request a new one")
	ErrInvalidCredentials  = newError(ErrUnauthorized, "invalid phone or password")
)

func validationError(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}
