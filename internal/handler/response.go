package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/model"
)

// ErrorResponse represents a JSON error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondAppError writes a JSON error response from an AppError.
// It extracts the status code and message from the error.
func respondAppError(w http.ResponseWriter, err *apperror.AppError) {
	resp := ErrorResponse{
		Error: err.Message,
		Field: err.Field,
	}
	respondJSON(w, err.StatusCode, resp)
}

// respondServiceError maps a service error to a response. Errors that are
// not AppErrors are reported as 500 without leaking their text.
func respondServiceError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		respondAppError(w, appErr)
	case errors.Is(err, model.ErrUnknownEventType):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		status := apperror.GetStatusCode(err)
		if status == http.StatusInternalServerError {
			respondError(w, status, "internal server error")
			return
		}
		respondError(w, status, apperror.GetMessage(err))
	}
}
