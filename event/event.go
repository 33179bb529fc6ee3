package event

import (
	"time"

	"cursedticket/entity"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/shopspring/decimal"
)

type Header struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func newHeader(idempotencyKey string, publishedAt time.Time) Header {
	if idempotencyKey == "" {
		idempotencyKey = watermill.NewUUID()
	}

	return Header{
		ID:             watermill.NewUUID(),
		PublishedAt:    publishedAt.UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// TicketsIssued is published once per stored batch.
type TicketsIssued struct {
	Header        Header          `json:"header"`
	EventID       string          `json:"event_id"`
	Category      entity.Category `json:"category"`
	UserID        string          `json:"user_id"`
	TicketIDs     []string        `json:"ticket_ids"`
	TicketNumbers []string        `json:"ticket_numbers"`
	Tier          entity.Tier     `json:"tier"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Total         decimal.Decimal `json:"total"`
	IssuedAt      time.Time       `json:"issued_at"`
}

func NewTicketsIssued(idempotencyKey string, batch entity.TicketBatch) TicketsIssued {
	e := TicketsIssued{
		EventID:       batch.EventID,
		TicketIDs:     make([]string, 0, len(batch.Tickets)),
		TicketNumbers: make([]string, 0, len(batch.Tickets)),
		Total:         decimal.Zero,
	}

	for _, t := range batch.Tickets {
		e.Category = t.EventCategory
		e.UserID = t.UserID
		e.Tier = t.Tier
		e.UnitPrice = t.Price
		e.IssuedAt = t.PurchasedAt
		e.TicketIDs = append(e.TicketIDs, t.ID)
		e.TicketNumbers = append(e.TicketNumbers, t.Number)
		e.Total = e.Total.Add(t.Price)
	}

	e.Header = newHeader(idempotencyKey, e.IssuedAt)
	return e
}

const (
	CauseEventDeleted = "event_deleted"
	CauseAttendee     = "attendee"
)

type TicketCanceled struct {
	Header       Header          `json:"header"`
	TicketID     string          `json:"ticket_id"`
	TicketNumber string          `json:"ticket_number"`
	EventID      string          `json:"event_id"`
	UserID       string          `json:"user_id"`
	Price        decimal.Decimal `json:"price"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Reason       string          `json:"reason"`
	Cause        string          `json:"cause"`
	CanceledAt   time.Time       `json:"canceled_at"`
}

func NewTicketCanceled(idempotencyKey, cause string, ticket entity.Ticket, refund entity.Refund) TicketCanceled {
	return TicketCanceled{
		Header:       newHeader(idempotencyKey, refund.CreatedAt),
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		EventID:      ticket.EventID,
		UserID:       ticket.UserID,
		Price:        ticket.Price,
		RefundAmount: refund.Amount,
		Reason:       refund.Reason,
		Cause:        cause,
		CanceledAt:   refund.CreatedAt,
	}
}

type EventDeleted struct {
	Header    Header          `json:"header"`
	EventID   string          `json:"event_id"`
	Category  entity.Category `json:"category"`
	Name      string          `json:"name"`
	DeletedAt time.Time       `json:"deleted_at"`
}

func NewEventDeleted(idempotencyKey string, e entity.Event, deletedAt time.Time) EventDeleted {
	return EventDeleted{
		Header:    newHeader(idempotencyKey, deletedAt),
		EventID:   e.ID,
		Category:  e.Category,
		Name:      e.Name,
		DeletedAt: deletedAt.UTC(),
	}
}
