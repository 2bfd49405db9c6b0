package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON_Success(t *testing.T) {
	rr := httptest.NewRecorder()

	data := map[string]string{"message": "success"}
	respondJSON(rr, http.StatusOK, data)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rr.Body.String(), "success")
}

func TestRespondJSON_Created(t *testing.T) {
	rr := httptest.NewRecorder()

	data := map[string]int{"id": 123}
	respondJSON(rr, http.StatusCreated, data)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "123")
}

func TestRespondJSON_EmptyData(t *testing.T) {
	rr := httptest.NewRecorder()

	respondJSON(rr, http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String()) // nil data results in no body
}

func TestRespondJSON_Array(t *testing.T) {
	rr := httptest.NewRecorder()

	data := []string{"a", "b", "c"}
	respondJSON(rr, http.StatusOK, data)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `["a","b","c"]`)
}

func TestRespondError_BadRequest(t *testing.T) {
	rr := httptest.NewRecorder()

	respondError(rr, http.StatusBadRequest, "invalid input")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid input")
}

func TestRespondError_Unauthorized(t *testing.T) {
	rr := httptest.NewRecorder()

	respondError(rr, http.StatusUnauthorized, "not authorized")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "not authorized")
}

func TestRespondError_NotFound(t *testing.T) {
	rr := httptest.NewRecorder()

	respondError(rr, http.StatusNotFound, "resource not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "resource not found")
}

func TestRespondError_InternalServerError(t *testing.T) {
	rr := httptest.NewRecorder()

	respondError(rr, http.StatusInternalServerError, "internal error")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal error")
}

func TestRespondError_Conflict(t *testing.T) {
	rr := httptest.NewRecorder()

	respondError(rr, http.StatusConflict, "resource already exists")

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "resource already exists")
}

func TestRespondAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperror.AppError
		wantStatus int
		wantField  string
	}{
		{"validation", apperror.ValidationError("email", "must be a valid email address"), http.StatusBadRequest, "email"},
		{"not found", apperror.NotFound("notification request"), http.StatusNotFound, ""},
		{"data integrity", apperror.DataIntegrity("no prior terms"), http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			respondAppError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.err.Message, resp.Error)
			assert.Equal(t, tt.wantField, resp.Field)
		})
	}
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "app error",
			err:        fmt.Errorf("format: %w", apperror.Upstream(errors.New("timeout"), "failed to look up prior loan terms")),
			wantStatus: http.StatusBadGateway,
			wantBody:   "failed to look up prior loan terms",
		},
		{
			name:       "unknown event type",
			err:        fmt.Errorf("%w: %q", model.ErrUnknownEventType, "MintEvent"),
			wantStatus: http.StatusBadRequest,
			wantBody:   "MintEvent",
		},
		{
			name:       "sentinel",
			err:        fmt.Errorf("lookup: %w", apperror.ErrDataIntegrity),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "data integrity",
		},
		{
			name:       "internal error text is hidden",
			err:        errors.New("pq: password authentication failed"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			respondServiceError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			assert.NotContains(t, rr.Body.String(), "password")
		})
	}
}

// Benchmark tests
func BenchmarkRespondJSON(b *testing.B) {
	data := map[string]interface{}{
		"subject":    "Loan #65: monarchs has been fully repaid",
		"recipients": []string{"0x0dd7d78ed27632839cd2a929ee570ead346c19fc"},
	}

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		respondJSON(w, http.StatusOK, data)
	}
}

func BenchmarkRespondError(b *testing.B) {
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		respondError(w, http.StatusBadRequest, "test error message")
	}
}
