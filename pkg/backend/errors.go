package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for the backend package.
var (
	// ErrNotFound indicates the backend could not find a matching
	// object or tracker.
	ErrNotFound = errors.New("backend: not found")

	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("backend: unavailable")

	// ErrBadRequest indicates the backend rejected the request.
	ErrBadRequest = errors.New("backend: bad request")
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the backend's detail/error field, or the raw body
	// when neither is present.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("backend: request failed (status %d)", e.StatusCode)
}

// Is maps API errors onto the package sentinels so callers can use
// errors.Is without inspecting status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == 404
	case ErrBadRequest:
		return e.StatusCode >= 400 && e.StatusCode < 500
	}
	return false
}
