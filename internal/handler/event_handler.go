package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nftpawnshop/backend/internal/logger"
	"github.com/nftpawnshop/backend/internal/model"
	_ "github.com/nftpawnshop/backend/internal/service" // swagger types
)

const maxEventBodyBytes = 1 << 20

type EventHandler struct {
	service EventServiceInterface
	now     func() time.Time
}

func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service, now: time.Now}
}

// Handle godoc
// @Summary Ingest a loan lifecycle event
// @Description Format a lifecycle event emitted by the indexer and deliver notifications to subscribers and the Discord channel
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventType path string true "Event type" Enums(CreateEvent, LendEvent, BuyoutEvent, RepaymentEvent, CollateralSeizureEvent)
// @Param input body object true "Event payload as produced by the indexer"
// @Success 202 {object} service.DeliveryReport
// @Success 204 "Event produced no notifications"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /events/{eventType} [post]
func (h *EventHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(t model.EventType) bool { return !t.IsExpiry() })
}

// HandleCron godoc
// @Summary Ingest a loan expiry event
// @Description Deliver an approaching-due or past-due notice for the loan in the body
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventType path string true "Event type" Enums(LiquidationOccurring, LiquidationOccurred)
// @Param input body model.RawLoan true "Loan snapshot"
// @Success 202 {object} service.DeliveryReport
// @Success 204 "Event produced no notifications"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /events/cron/{eventType} [post]
func (h *EventHandler) HandleCron(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, model.EventType.IsExpiry)
}

func (h *EventHandler) handle(w http.ResponseWriter, r *http.Request, allowed func(model.EventType) bool) {
	eventType, err := model.ParseEventType(chi.URLParam(r, "eventType"))
	if err != nil || !allowed(eventType) {
		respondError(w, http.StatusBadRequest, "unsupported event type")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := model.DecodeEvent(eventType, body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.service.HandleEvent(r.Context(), ev, h.now().Unix())
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to handle event",
			slog.String("event_type", string(eventType)),
			slog.String("loan_id", ev.LoanRecord().ID),
			slog.String("error", err.Error()),
		)
		respondServiceError(w, err)
		return
	}

	if report.Suppressed {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respondJSON(w, http.StatusAccepted, report)
}
