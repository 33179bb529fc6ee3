package http

import (
	"context"

	"cursedticket/booking"
	"cursedticket/clock"
	"cursedticket/entity"
	"cursedticket/idempotency"
)

const (
	headerKeyIdempotencyKey = "Idempotency-Key"
	headerKeyReplayed       = "Idempotent-Replayed"
)

type Reconciler interface {
	Purchase(ctx context.Context, req booking.PurchaseRequest) (booking.PurchaseResult, error)
	DeleteEvent(ctx context.Context, req booking.DeleteEventRequest) (booking.DeleteEventResult, error)
	CancelTicket(ctx context.Context, ticketID, userID, reason string) (entity.Ticket, entity.Refund, error)
}

type EventRepo interface {
	booking.EventCatalog
	List(ctx context.Context, filter entity.EventFilter) ([]entity.Event, error)
	Add(ctx context.Context, e entity.Event) error
	Update(ctx context.Context, category entity.Category, eventID string, upd entity.EventUpdate) (entity.Event, error)
}

type TicketRepo interface {
	ListByUser(ctx context.Context, userID string) ([]entity.Ticket, error)
	GetByNumber(ctx context.Context, number string) (entity.Ticket, error)
}

type RefundRepo interface {
	List(ctx context.Context, eventID string) ([]entity.Refund, error)
}

type SalesRepo interface {
	Get(ctx context.Context, eventID string) (entity.EventSales, error)
}

type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key string) (*idempotency.Response, error)
	Save(ctx context.Context, scope, key string, resp idempotency.Response) error
	Release(ctx context.Context, scope, key string) error
}

type handler struct {
	reconciler  Reconciler
	events      EventRepo
	tickets     TicketRepo
	refunds     RefundRepo
	sales       SalesRepo
	idempotency IdempotencyStore
	clock       clock.Clock
}
