package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/model"
)

// TokenSource returns a bearer token for the event intake API.
type TokenSource func() (string, error)

// WebhookDispatcher posts expiry events to a remote notifier's cron intake
// route, for scans run outside the API process.
type WebhookDispatcher struct {
	baseURL string
	token   TokenSource
	client  *http.Client
}

// NewWebhookDispatcher creates a dispatcher targeting baseURL.
func NewWebhookDispatcher(baseURL string, token TokenSource, client *http.Client) *WebhookDispatcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookDispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// Dispatch implements Dispatcher. Only expiry events are accepted.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, ev model.Event) error {
	t := ev.EventType()
	if !t.IsExpiry() {
		return fmt.Errorf("%w: %s cannot be dispatched to the cron route", model.ErrUnknownEventType, t)
	}

	payload, err := json.Marshal(ev.LoanRecord())
	if err != nil {
		return fmt.Errorf("marshal loan %s: %w", ev.LoanRecord().ID, err)
	}

	url := d.baseURL + "/api/events/cron/" + string(t)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != nil {
		token, err := d.token()
		if err != nil {
			return fmt.Errorf("sign dispatch request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch %s for loan %s: %w", t, ev.LoanRecord().ID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusNoContent:
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("dispatch %s for loan %s: status %d: %s", t, ev.LoanRecord().ID, resp.StatusCode, strings.TrimSpace(string(body)))
	switch resp.StatusCode {
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", apperror.ErrDataIntegrity, err)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %w", apperror.ErrValidation, err)
	default:
		return err
	}
}
