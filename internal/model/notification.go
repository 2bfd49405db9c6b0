package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// FormattedTerms is one block of loan terms as shown to a recipient.
type FormattedTerms struct {
	Prefix   string `json:"prefix"`
	Amount   string `json:"amount"`
	Duration string `json:"duration"`
	Interest string `json:"interest"`
}

// NotificationComponents is the content for one recipient of one event.
type NotificationComponents struct {
	Header             string           `json:"header"`
	MainMessage        string           `json:"mainMessage"`
	MessageBeforeTerms []string         `json:"messageBeforeTerms"`
	Terms              []FormattedTerms `json:"terms"`
	MessageAfterTerms  []string         `json:"messageAfterTerms"`
	ViewLinks          []string         `json:"viewLinks"`
	Footer             string           `json:"footer"`
}

// Notification is the formatted output for one event, keyed by recipient
// address as it appears in the event.
type Notification struct {
	EventType  EventType                          `json:"eventType"`
	Subject    string                             `json:"subject"`
	Components map[string]*NotificationComponents `json:"components"`
}

// Recipients returns the recipient addresses in sorted order.
func (n *Notification) Recipients() []string {
	out := make([]string, 0, len(n.Components))
	for addr := range n.Components {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

type DeliveryMethod string

const (
	DeliveryMethodEmail DeliveryMethod = "email"
)

// NotificationRequest subscribes a delivery destination to events for an
// ethereum address.
type NotificationRequest struct {
	ID                  uuid.UUID      `db:"id" json:"id"`
	EthereumAddress     string         `db:"ethereum_address" json:"ethereumAddress"`
	DeliveryMethod      DeliveryMethod `db:"delivery_method" json:"deliveryMethod"`
	DeliveryDestination string         `db:"delivery_destination" json:"deliveryDestination"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
}
