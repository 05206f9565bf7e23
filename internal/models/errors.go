package models

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure so callers can branch without matching
// on message text.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error is a domain-level error carrying a semantic code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Common domain errors.
var (
	ErrProfileNotFound     = NewError(ErrCodeNotFound, "profile not found")
	ErrQuotaNotFound       = NewError(ErrCodeNotFound, "quota not found")
	ErrParticipantNotFound = NewError(ErrCodeNotFound, "participant not found")
	ErrBidNotFound         = NewError(ErrCodeNotFound, "bid not found")
	ErrQuotaNotOpen        = NewError(ErrCodeConflict, "quota is not open")
	ErrDuplicateRequest    = NewError(ErrCodeConflict, "participation already requested")
	ErrDuplicateEmail      = NewError(ErrCodeConflict, "email already registered")
	ErrDuplicateTaxID      = NewError(ErrCodeConflict, "tax id already registered")
	ErrQuotaFull           = NewError(ErrCodeConflict, "quota has no remaining capacity")
	ErrNotQuotaOwner       = NewError(ErrCodeForbidden, "only the quota owner may perform this action")
	ErrNotParticipant      = NewError(ErrCodeForbidden, "not a participant of this quota")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredentials  = NewError(ErrCodeUnauthorized, "invalid email or password")
)

// CodeOf extracts the error code, defaulting to INTERNAL.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
