// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/logger"
	"github.com/nftpawnshop/backend/internal/metrics"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/nftpawnshop/backend/internal/repository"
)

// NotificationRequestStore persists email subscriptions per address.
type NotificationRequestStore interface {
	Create(ctx context.Context, req *model.NotificationRequest) error
	ListByAddress(ctx context.Context, address string) ([]model.NotificationRequest, error)
	Delete(ctx context.Context, id uuid.UUID, address string) error
}

// DeliveryReport summarizes what HandleEvent sent.
type DeliveryReport struct {
	EventType    model.EventType `json:"eventType"`
	Subject      string          `json:"subject,omitempty"`
	Recipients   []string        `json:"recipients"`
	EmailsSent   int             `json:"emailsSent"`
	EmailsFailed int             `json:"emailsFailed"`
	ChatPosted   bool            `json:"chatPosted"`
	Suppressed   bool            `json:"suppressed"`
}

// NotificationService formats loan events and delivers them to subscribers
type NotificationService struct {
	formatter   *EventFormatter
	discord     *DiscordFormatter
	requests    NotificationRequestStore
	renderer    *EmailRenderer
	emailSender EmailSender
	chat        ChatSender
	now         Clock
	logger      *slog.Logger
}

// NewNotificationService creates a new notification service. emailSender and
// chat may be nil to disable that channel.
func NewNotificationService(
	formatter *EventFormatter,
	discord *DiscordFormatter,
	requests NotificationRequestStore,
	renderer *EmailRenderer,
	emailSender EmailSender,
	chat ChatSender,
	log *slog.Logger,
) *NotificationService {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationService{
		formatter:   formatter,
		discord:     discord,
		requests:    requests,
		renderer:    renderer,
		emailSender: emailSender,
		chat:        chat,
		now:         time.Now,
		logger:      log,
	}
}

// HandleEvent formats ev as of now and delivers it. Nothing is sent when
// formatting fails.
func (s *NotificationService) HandleEvent(ctx context.Context, ev model.Event, now int64) (*DeliveryReport, error) {
	eventType := string(ev.EventType())
	ctx = logger.WithEventType(logger.WithLoanID(ctx, ev.LoanRecord().ID), eventType)
	log := s.logger.With(slog.String("event_type", eventType), slog.String("loan_id", ev.LoanRecord().ID))
	if id := logger.RequestID(ctx); id != "" {
		log = log.With(slog.String("request_id", id))
	}
	m := metrics.Notifier()

	prior, err := s.formatter.PriorTerms(ctx, ev)
	if err != nil {
		m.RecordEvent(eventType, "failed")
		return nil, err
	}
	notification, err := s.formatter.Format(ctx, ev, now, prior)
	if err != nil {
		m.RecordEvent(eventType, "failed")
		return nil, err
	}
	var botMessage string
	if s.discord != nil && s.chat != nil {
		if botMessage, err = s.discord.Format(ctx, ev, now, prior); err != nil {
			m.RecordEvent(eventType, "failed")
			return nil, err
		}
	}

	report := &DeliveryReport{EventType: ev.EventType(), Recipients: []string{}}
	if notification == nil && botMessage == "" {
		report.Suppressed = true
		m.RecordEvent(eventType, "suppressed")
		log.Info("Event produced no notifications")
		return report, nil
	}

	if notification != nil {
		report.Subject = notification.Subject
		report.Recipients = notification.Recipients()
		for _, addr := range report.Recipients {
			s.deliverEmails(ctx, log, addr, notification.Subject, notification.Components[addr], report)
		}
	}

	if botMessage != "" {
		if err := s.chat.Post(ctx, botMessage); err != nil {
			m.RecordDelivery("discord", "failed")
			log.Error("Failed to post bot message", slog.String("error", err.Error()))
		} else {
			m.RecordDelivery("discord", "sent")
			report.ChatPosted = true
		}
	}

	m.RecordEvent(eventType, "formatted")
	log.Info("Event delivered",
		slog.Int("recipients", len(report.Recipients)),
		slog.Int("emails_sent", report.EmailsSent),
		slog.Int("emails_failed", report.EmailsFailed),
	)
	return report, nil
}

// Dispatch implements Dispatcher for in-process expiry scans.
func (s *NotificationService) Dispatch(ctx context.Context, ev model.Event) error {
	_, err := s.HandleEvent(ctx, ev, s.now().Unix())
	return err
}

// deliverEmails sends one recipient's components to every email destination
// subscribed for the address. Failures are counted, never returned.
func (s *NotificationService) deliverEmails(ctx context.Context, log *slog.Logger, address, subject string, components *model.NotificationComponents, report *DeliveryReport) {
	if s.emailSender == nil || s.requests == nil || s.renderer == nil {
		return
	}
	m := metrics.Notifier()

	requests, err := s.requests.ListByAddress(ctx, strings.ToLower(address))
	if err != nil {
		log.Error("Failed to list notification requests",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		m.RecordDelivery("email", "failed")
		report.EmailsFailed++
		return
	}

	for _, req := range requests {
		if req.DeliveryMethod != model.DeliveryMethodEmail {
			continue
		}
		body, err := s.renderer.Render(subject, components)
		if err == nil {
			err = s.emailSender.Send(req.DeliveryDestination, subject, body)
		}
		if err != nil {
			log.Error("Failed to send notification email",
				slog.String("address", address),
				slog.String("request_id", req.ID.String()),
				slog.String("error", err.Error()),
			)
			m.RecordDelivery("email", "failed")
			report.EmailsFailed++
			continue
		}
		m.RecordDelivery("email", "sent")
		report.EmailsSent++
	}
}

// Subscribe registers an email destination for events involving address.
func (s *NotificationService) Subscribe(ctx context.Context, address, email string) (*model.NotificationRequest, error) {
	addr, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationError("email", "must be a valid email address")
	}

	req := &model.NotificationRequest{
		EthereumAddress:     addr,
		DeliveryMethod:      model.DeliveryMethodEmail,
		DeliveryDestination: email,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create notification request: %w", err)
	}
	return req, nil
}

// Unsubscribe removes a notification request belonging to address.
func (s *NotificationService) Unsubscribe(ctx context.Context, address string, id uuid.UUID) error {
	addr, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, id, addr); err != nil {
		if errors.Is(err, repository.ErrNotificationRequestNotFound) {
			return apperror.NotFound("notification request")
		}
		return fmt.Errorf("delete notification request: %w", err)
	}
	return nil
}

// ListRequests returns the notification requests registered for address.
func (s *NotificationService) ListRequests(ctx context.Context, address string) ([]model.NotificationRequest, error) {
	addr, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.ListByAddress(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("list notification requests: %w", err)
	}
	return requests, nil
}

func normalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", apperror.ValidationError("address", "must be an ethereum address")
	}
	return strings.ToLower(address), nil
}
