package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for storage API status classification.
// Use errors.Is(err, api.ErrNotFound) to check.
var (
	ErrNotFound     = errors.New("storage: not found")
	ErrForbidden    = errors.New("storage: permission denied")
	ErrUnauthorized = errors.New("storage: unauthorized")
	ErrTransient    = errors.New("storage: transient failure")
	ErrRequest      = errors.New("storage: request failed")
)

// Error wraps a sentinel with the HTTP status and the provider's message
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx codes.
func ClassifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusTooManyRequests,
		code == http.StatusRequestTimeout,
		code >= http.StatusInternalServerError:
		return ErrTransient
	default:
		return ErrRequest
	}
}

// NewError builds an *Error for the given status
func NewError(code int, message string) *Error {
	return &Error{StatusCode: code, Message: message, Err: ClassifyStatus(code)}
}

// IsNotFound reports whether err means the target does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
