package handler

import (
	"net/http"
	"time"
)

type ScanHandler struct {
	trigger ScanTriggerInterface
}

func NewScanHandler(trigger ScanTriggerInterface) *ScanHandler {
	return &ScanHandler{trigger: trigger}
}

// ScanTriggeredResponse acknowledges a manual scan.
type ScanTriggeredResponse struct {
	Status      string    `json:"status" example:"scheduled"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// Run godoc
// @Summary Run the expiry scan now
// @Description Trigger an immediate expiry scan. Skipped if a scan is already in progress.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 202 {object} ScanTriggeredResponse
// @Failure 401 {object} ErrorResponse
// @Router /expiry-scan/run [post]
func (h *ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	h.trigger.RunNow()
	respondJSON(w, http.StatusAccepted, ScanTriggeredResponse{
		Status:      "scheduled",
		TriggeredAt: time.Now().UTC(),
	})
}
