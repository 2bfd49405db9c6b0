package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/nftpawnshop/backend/internal/model" // swagger types
)

type NotificationRequestHandler struct {
	service NotificationRequestServiceInterface
}

func NewNotificationRequestHandler(service NotificationRequestServiceInterface) *NotificationRequestHandler {
	return &NotificationRequestHandler{service: service}
}

// SubscribeInput is the body of a subscription request.
type SubscribeInput struct {
	Email string `json:"email" example:"borrower@example.com"`
}

// Create godoc
// @Summary Subscribe to loan notifications
// @Description Register an email address to receive notifications for loans involving an Ethereum address
// @Tags notifications
// @Accept json
// @Produce json
// @Param address path string true "Ethereum address"
// @Param input body SubscribeInput true "Delivery destination"
// @Success 201 {object} model.NotificationRequest
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /addresses/{address}/notifications [post]
func (h *NotificationRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input SubscribeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.service.Subscribe(r.Context(), chi.URLParam(r, "address"), input.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, req)
}

// List godoc
// @Summary List notification subscriptions
// @Description Get every notification request registered for an Ethereum address
// @Tags notifications
// @Produce json
// @Param address path string true "Ethereum address"
// @Success 200 {array} model.NotificationRequest
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /addresses/{address}/notifications [get]
func (h *NotificationRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListRequests(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, requests)
}

// Delete godoc
// @Summary Unsubscribe from loan notifications
// @Description Remove a notification request belonging to an Ethereum address
// @Tags notifications
// @Param address path string true "Ethereum address"
// @Param id path string true "Notification request ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /addresses/{address}/notifications/{id} [delete]
func (h *NotificationRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.Unsubscribe(r.Context(), chi.URLParam(r, "address"), id); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
