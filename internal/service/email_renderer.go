package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/nftpawnshop/backend/internal/model"
)

//go:embed templates/notification.html
var templateFS embed.FS

// EmailRenderer renders notification components as an HTML email body.
type EmailRenderer struct {
	tmpl *template.Template
}

// NewEmailRenderer parses the embedded email template.
func NewEmailRenderer() (*EmailRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/notification.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &EmailRenderer{tmpl: tmpl}, nil
}

type emailData struct {
	Subject    string
	Components *model.NotificationComponents
}

// Render returns the HTML body for one recipient.
func (r *EmailRenderer) Render(subject string, components *model.NotificationComponents) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, emailData{Subject: subject, Components: components}); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
