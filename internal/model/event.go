package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType tags one of the closed set of loan lifecycle events.
type EventType string

const (
	EventTypeCreate               EventType = "CreateEvent"
	EventTypeLend                 EventType = "LendEvent"
	EventTypeBuyout               EventType = "BuyoutEvent"
	EventTypeRepayment            EventType = "RepaymentEvent"
	EventTypeCollateralSeizure    EventType = "CollateralSeizureEvent"
	EventTypeLiquidationOccurring EventType = "LiquidationOccurring"
	EventTypeLiquidationOccurred  EventType = "LiquidationOccurred"
)

var ErrUnknownEventType = errors.New("unknown event type")

// EventTypes lists every supported event type.
var EventTypes = []EventType{
	EventTypeCreate,
	EventTypeLend,
	EventTypeBuyout,
	EventTypeRepayment,
	EventTypeCollateralSeizure,
	EventTypeLiquidationOccurring,
	EventTypeLiquidationOccurred,
}

// IsExpiry reports whether t is one of the synthetic, scanner-produced events.
func (t EventType) IsExpiry() bool {
	return t == EventTypeLiquidationOccurring || t == EventTypeLiquidationOccurred
}

// Event is implemented by every lifecycle event variant.
type Event interface {
	EventType() EventType
	// LoanRecord is the loan as embedded in the event.
	LoanRecord() RawLoan
	// TxHash is empty for synthetic events.
	TxHash() string
	isEvent()
}

// EventBase carries the fields shared by on-chain events.
type EventBase struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
	Loan      RawLoan `json:"loan"`
}

func (e EventBase) LoanRecord() RawLoan { return e.Loan }
func (e EventBase) TxHash() string      { return e.ID }
func (EventBase) isEvent()              {}

type CreateEvent struct {
	EventBase
	Creator string `json:"creator"`
}

type LendEvent struct {
	EventBase
	Lender                string  `json:"lender"`
	BorrowTicketHolder    string  `json:"borrowTicketHolder"`
	LoanAmount            Numeric `json:"loanAmount"`
	PerSecondInterestRate Numeric `json:"perSecondInterestRate"`
	DurationSeconds       Numeric `json:"durationSeconds"`
}

type BuyoutEvent struct {
	EventBase
	NewLender          string  `json:"newLender"`
	LendTicketHolder   string  `json:"lendTicketHolder"`
	BorrowTicketHolder string  `json:"borrowTicketHolder"`
	LoanAmount         Numeric `json:"loanAmount"`
	InterestEarned     Numeric `json:"interestEarned"`
}

type RepaymentEvent struct {
	EventBase
	Repayer            string  `json:"repayer"`
	LendTicketHolder   string  `json:"lendTicketHolder"`
	BorrowTicketHolder string  `json:"borrowTicketHolder"`
	InterestEarned     Numeric `json:"interestEarned"`
	LoanAmount         Numeric `json:"loanAmount"`
}

type CollateralSeizureEvent struct {
	EventBase
	LendTicketHolder   string `json:"lendTicketHolder"`
	BorrowTicketHolder string `json:"borrowTicketHolder"`
}

// LiquidationOccurring is emitted by the expiry scanner for a loan about to
// reach maturity. Its payload is the loan itself.
type LiquidationOccurring struct {
	RawLoan
}

// LiquidationOccurred is emitted by the expiry scanner for a loan past maturity.
type LiquidationOccurred struct {
	RawLoan
}

func (CreateEvent) EventType() EventType            { return EventTypeCreate }
func (LendEvent) EventType() EventType              { return EventTypeLend }
func (BuyoutEvent) EventType() EventType            { return EventTypeBuyout }
func (RepaymentEvent) EventType() EventType         { return EventTypeRepayment }
func (CollateralSeizureEvent) EventType() EventType { return EventTypeCollateralSeizure }
func (LiquidationOccurring) EventType() EventType   { return EventTypeLiquidationOccurring }
func (LiquidationOccurred) EventType() EventType    { return EventTypeLiquidationOccurred }

func (e LiquidationOccurring) LoanRecord() RawLoan { return e.RawLoan }
func (LiquidationOccurring) TxHash() string        { return "" }
func (LiquidationOccurring) isEvent()              {}

func (e LiquidationOccurred) LoanRecord() RawLoan { return e.RawLoan }
func (LiquidationOccurred) TxHash() string        { return "" }
func (LiquidationOccurred) isEvent()              {}

// ParseEventType validates an event type tag.
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
}

// DecodeEvent unmarshals data into the variant named by t.
func DecodeEvent(t EventType, data []byte) (Event, error) {
	var ev Event
	var err error
	switch t {
	case EventTypeCreate:
		var e CreateEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypeLend:
		var e LendEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypeBuyout:
		var e BuyoutEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypeRepayment:
		var e RepaymentEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypeCollateralSeizure:
		var e CollateralSeizureEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypeLiquidationOccurring:
		var e LiquidationOccurring
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypeLiquidationOccurred:
		var e LiquidationOccurred
		err = json.Unmarshal(data, &e)
		ev = e
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return ev, nil
}
