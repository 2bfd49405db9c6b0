package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// EmailSender defines the interface for sending emails
type EmailSender interface {
	Send(to, subject, body string) error
}

// ChatSender posts a public message to a chat channel.
type ChatSender interface {
	Post(ctx context.Context, message string) error
}

// SMTPEmailSender sends HTML email through an SMTP relay.
type SMTPEmailSender struct {
	addr string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPEmailSender creates a sender. Authentication is skipped when
// username is empty.
func NewSMTPEmailSender(host string, port int, username, password, from string) *SMTPEmailSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPEmailSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		auth: auth,
		from: from,
		send: smtp.SendMail,
	}
}

// Send implements EmailSender.
func (s *SMTPEmailSender) Send(to, subject, body string) error {
	if err := s.send(s.addr, s.auth, s.from, []string{to}, buildMessage(s.from, to, subject, body)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// DiscordWebhookSender posts bot messages to a Discord webhook, throttled to
// stay under the webhook rate limit.
type DiscordWebhookSender struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewDiscordWebhookSender creates a sender allowing perSecond posts per second.
func NewDiscordWebhookSender(url string, perSecond float64, client *http.Client) *DiscordWebhookSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &DiscordWebhookSender{
		url:     url,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Post implements ChatSender.
func (s *DiscordWebhookSender) Post(ctx context.Context, message string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord rate limit: %w", err)
	}

	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("marshal discord message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
