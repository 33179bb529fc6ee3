package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RefundPolicy string

const (
	// RefundBasePrice refunds the event's current base price for every ticket,
	// whatever was paid.
	RefundBasePrice RefundPolicy = "base_price"
	RefundPaidPrice RefundPolicy = "paid_price"
)

func ParseRefundPolicy(s string) (RefundPolicy, error) {
	switch p := RefundPolicy(s); p {
	case RefundBasePrice, RefundPaidPrice:
		return p, nil
	}
	return "", fmt.Errorf("unknown refund policy %q", s)
}

// Amount falls back to the paid price when the event has no base price.
func (p RefundPolicy) Amount(e Event, t Ticket) decimal.Decimal {
	if p == RefundPaidPrice || !e.Pricing.Base.Valid {
		return t.Price
	}
	return e.Pricing.Base.Decimal
}

type Refund struct {
	ID           string          `json:"refund_id"`
	TicketID     string          `json:"ticket_id"`
	TicketNumber string          `json:"ticket_number"`
	EventID      string          `json:"event_id"`
	UserID       string          `json:"user_id"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EventCancellation cancels every active ticket of an event and records a
// refund for each of them.
type EventCancellation struct {
	Event  Event
	Reason string
	At     time.Time
	Policy RefundPolicy
}

// TicketCancellation is an attendee cancelling one of their own tickets.
type TicketCancellation struct {
	TicketID        string
	UserID          string
	Reason          string
	At              time.Time
	ReleaseCapacity bool
}

type EventSales struct {
	EventID          string          `json:"event_id"`
	TicketsSold      int             `json:"tickets_sold"`
	TicketsCancelled int             `json:"tickets_cancelled"`
	Revenue          decimal.Decimal `json:"revenue"`
	EventDeleted     bool            `json:"event_deleted"`
	LastUpdate       time.Time       `json:"last_update"`
}

// SalesChange is one increment applied to an event's sales figures.
type SalesChange struct {
	EventID      string
	Sold         int
	Cancelled    int
	Revenue      decimal.Decimal
	EventDeleted bool
	At           time.Time
}
