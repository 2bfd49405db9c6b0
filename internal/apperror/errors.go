// Package apperror maps notifier failures to HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
	// ErrDataIntegrity marks an event whose collaborators omitted data the
	// notification needs, such as a lend event with no prior terms.
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrUpstream marks a failed call to the subgraph, RPC node or a sender.
	ErrUpstream = errors.New("upstream service failure")
)

// AppError pairs an underlying error with the status and message a client sees.
type AppError struct {
	Err        error  // Original error (for logging)
	Message    string // Client-facing message
	StatusCode int
	Field      string // Set for validation errors
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func ValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Field:      field,
	}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// DataIntegrity reports that a collaborator omitted data an event requires.
func DataIntegrity(message string) *AppError {
	return &AppError{
		Err:        ErrDataIntegrity,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// Upstream wraps a failed call to an external data source.
func Upstream(err error, message string) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrUpstream, err),
		Message:    message,
		StatusCode: http.StatusBadGateway,
	}
}

// GetStatusCode extracts the HTTP status from err, defaulting to 500.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrDataIntegrity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage extracts the client-facing message from err.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
