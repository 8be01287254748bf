package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the console and its API client
var (
	// Authentication errors
	ErrAuthentication  = errors.New("authentication failed")
	ErrSessionExpired  = errors.New("session expired")
	ErrConsentRequired = errors.New("consent required")

	// Request errors
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")

	// Infrastructure errors
	ErrTransport = errors.New("transport error")
	ErrRemote    = errors.New("remote api error")

	// Credential errors
	ErrIncompletePair = errors.New("credential pair must carry both tokens")
)

// APIError is a non-success response from the remote API that was passed through
// to the caller untouched.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote api returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("remote api returned %d: %s", e.StatusCode, e.Detail)
}

// Unwrap maps the status code onto the sentinel taxonomy so callers can use Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrRemote
	}
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
