// Package apperr defines the typed domain errors returned by the dispatch
// engine. Every public usecase operation surfaces failures as *Error values
// carrying a stable machine code, so callers branch on codes instead of
// string matching.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Error codes returned by the engine.
const (
	CodeInvalidLocation       = "INVALID_LOCATION"
	CodeMissingRequiredFields = "MISSING_REQUIRED_FIELDS"
	CodeInvalidSurge          = "INVALID_SURGE"
	CodeRideNotFound          = "RIDE_NOT_FOUND"
	CodeInvalidRideStatus     = "INVALID_RIDE_STATUS"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeRideNotCapturable     = "RIDE_NOT_CAPTURABLE"
	CodeNoDriversAvailable    = "NO_DRIVERS_AVAILABLE"
	CodeActiveRideExists      = "ACTIVE_RIDE_EXISTS"
	CodeRateLimited           = "RATE_LIMITED"
	CodePaymentDeclined       = "PAYMENT_DECLINED"
	CodeProviderUnavailable   = "PROVIDER_UNAVAILABLE"
)

// Error is a domain error with a stable code and a user-facing message.
type Error struct {
	Code      string     `json:"code"`
	Message   string     `json:"message"`
	Retryable bool       `json:"retryable"`
	ResetAt   *time.Time `json:"reset_at,omitempty"` // set for RATE_LIMITED
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error wrapping an underlying cause.
func Wrap(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// RateLimited creates a RATE_LIMITED error carrying the window reset time.
func RateLimited(resetAt time.Time) *Error {
	return &Error{
		Code:      CodeRateLimited,
		Message:   "too many payment attempts, please wait before retrying",
		Retryable: true,
		ResetAt:   &resetAt,
	}
}

// CodeOf extracts the domain error code from err, or "" if err is not a
// domain error.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given domain code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
