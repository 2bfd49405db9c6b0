package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockScanTrigger struct {
	mock.Mock
}

func (m *MockScanTrigger) RunNow() {
	m.Called()
}

func TestScanHandler_Run(t *testing.T) {
	trigger := new(MockScanTrigger)
	trigger.On("RunNow").Return()

	h := NewScanHandler(trigger)
	req := httptest.NewRequest(http.MethodPost, "/api/expiry-scan/run", nil)
	w := httptest.NewRecorder()

	h.Run(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"scheduled"`)
	trigger.AssertExpectations(t)
}
