package repository

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConflict means a conditional write lost against a concurrent change.
	ErrConflict = errors.New("record changed concurrently")

	ErrOTPMissing  = errors.New("otp expired or not requested")
	ErrOTPMismatch = errors.New("otp does not match")
	ErrOTPLocked   = errors.New("too many otp attempts")
)
