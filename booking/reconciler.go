package booking

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"cursedticket/clock"
	"cursedticket/entity"
	"cursedticket/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type EventRepo interface {
	EventCatalog
	Delete(ctx context.Context, eventID string) error
}

type TicketStore interface {
	BookedSeats(ctx context.Context, eventID string, labels []string) ([]string, error)
	AddBatch(ctx context.Context, batch entity.TicketBatch) error
	Cancel(ctx context.Context, c entity.TicketCancellation) (entity.Ticket, entity.Refund, error)
	CancelByEvent(ctx context.Context, c entity.EventCancellation) ([]entity.Refund, error)
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

type Config struct {
	// ReserveCapacity decrements the event's available counter as part of
	// issuing tickets and gives it back on attendee cancellation.
	ReserveCapacity bool
	RefundPolicy    entity.RefundPolicy
}

type Reconciler struct {
	events  EventRepo
	tickets TicketStore
	clock   clock.Clock
	config  Config
}

func NewReconciler(events EventRepo, tickets TicketStore, c clock.Clock, config Config) Reconciler {
	if events == nil {
		panic("missing events")
	}
	if tickets == nil {
		panic("missing tickets")
	}
	if c == nil {
		panic("missing clock")
	}
	if config.RefundPolicy == "" {
		config.RefundPolicy = entity.RefundBasePrice
	}

	return Reconciler{
		events:  events,
		tickets: tickets,
		clock:   c,
		config:  config,
	}
}

type PurchaseRequest struct {
	EventID string
	// Category is optional.
	Category entity.Category
	UserID   string
	Tier     string
	Quantity float64
	// Seats selects specific seats and takes precedence over Quantity.
	Seats []string
}

type PurchaseResult struct {
	EventID       string
	Requested     int
	Issued        int
	SeatSelection bool
	TicketNumbers []string
	Tickets       []entity.Ticket
	UnitPrice     decimal.Decimal
	Tier          entity.Tier
	Total         decimal.Decimal
}

func (r PurchaseResult) Message() string {
	if r.SeatSelection {
		return fmt.Sprintf("%d of %d requested seats were available.", r.Issued, r.Requested)
	}
	if r.Issued < r.Requested {
		return fmt.Sprintf("%d of %d requested tickets were issued, the limit is %d per purchase.", r.Issued, r.Requested, MaxTicketsPerPurchase)
	}
	if r.Issued == 1 {
		return "1 ticket issued."
	}
	return fmt.Sprintf("%d tickets issued.", r.Issued)
}

func (r Reconciler) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	result, err := r.purchase(ctx, req)
	if err != nil {
		metrics.TrackPurchaseFailure(Kind(err))
		return PurchaseResult{}, err
	}

	metrics.TrackTicketsIssued(string(result.Tickets[0].EventCategory), string(result.Tier), result.Issued)
	log.FromContext(ctx).WithFields(logrus.Fields{
		"event_id": result.EventID,
		"issued":   result.Issued,
		"tier":     result.Tier,
	}).Info("Tickets issued")

	return result, nil
}

func (r Reconciler) purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return PurchaseResult{}, entity.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	event, err := Locate(ctx, r.events, req.EventID, req.Category)
	if err != nil {
		return PurchaseResult{}, err
	}

	now := r.clock.Now()
	if !event.OnSaleAt(now) {
		return PurchaseResult{}, fmt.Errorf("%w: event is %s", ErrEventNotOnSale, event.StatusAt(now))
	}

	price, tier, err := ResolvePrice(event.Pricing, req.Tier)
	if err != nil {
		return PurchaseResult{}, err
	}

	seats, requested, err := r.grantSeats(ctx, event, req)
	if err != nil {
		return PurchaseResult{}, err
	}

	tickets := make([]entity.Ticket, 0, len(seats))
	for _, seat := range seats {
		tickets = append(tickets, entity.Ticket{
			ID:            uuid.NewString(),
			Number:        NewTicketNumber(now),
			EventID:       event.ID,
			EventCategory: event.Category,
			UserID:        req.UserID,
			Price:         price,
			Tier:          tier,
			Snapshot:      entity.SnapshotOf(event),
			Seat:          seat,
			Status:        entity.TicketStatusActive,
			PurchasedAt:   now,
		})
	}

	batch := entity.TicketBatch{
		EventID:         event.ID,
		Tickets:         tickets,
		ReserveCapacity: r.config.ReserveCapacity,
	}
	if err := r.tickets.AddBatch(ctx, batch); err != nil {
		switch {
		case isSeatTaken(err):
			return PurchaseResult{}, fmt.Errorf("%w: %s", ErrSeatConflict, err)
		case isNotEnoughTickets(err):
			return PurchaseResult{}, fmt.Errorf("%w: %s", ErrSoldOut, err)
		case isContended(err):
			return PurchaseResult{}, fmt.Errorf("%w: %s", ErrConcurrentUpdate, err)
		case IsNotFound(err):
			return PurchaseResult{}, ErrEventNotFound
		default:
			return PurchaseResult{}, PersistenceError{Requested: len(tickets), Err: err}
		}
	}

	numbers := make([]string, 0, len(tickets))
	for _, t := range tickets {
		numbers = append(numbers, t.Number)
	}

	return PurchaseResult{
		EventID:       event.ID,
		Requested:     requested,
		Issued:        len(tickets),
		SeatSelection: len(req.Seats) > 0,
		TicketNumbers: numbers,
		Tickets:       tickets,
		UnitPrice:     price,
		Tier:          tier,
		Total:         price.Mul(decimal.NewFromInt(int64(len(tickets)))),
	}, nil
}

// grantSeats returns one seat per ticket to issue and the number of units the
// caller asked for.
func (r Reconciler) grantSeats(ctx context.Context, event entity.Event, req PurchaseRequest) ([]entity.Seat, int, error) {
	if len(req.Seats) > 0 {
		labels, err := ValidateSeats(req.Seats)
		if err != nil {
			return nil, 0, err
		}

		// Partial fulfilment is decided on this read. A seat taken between
		// here and the insert fails the whole batch with ErrSeatConflict.
		booked, err := r.tickets.BookedSeats(ctx, event.ID, labels)
		if err != nil {
			return nil, 0, fmt.Errorf("finding booked seats: %w", err)
		}

		available := AvailableSeats(labels, booked)
		if len(available) == 0 {
			return nil, 0, ErrSeatConflict
		}

		seats := make([]entity.Seat, 0, len(available))
		for _, label := range available {
			seats = append(seats, entity.SeatFromLabel(label))
		}
		return seats, len(labels), nil
	}

	n, err := ValidateQuantity(req.Quantity)
	if err != nil {
		return nil, 0, err
	}

	requested := n
	if req.Quantity > float64(n) {
		requested = int(math.Min(req.Quantity, math.MaxInt32))
	}

	seats := make([]entity.Seat, n)
	for i := range seats {
		seats[i] = entity.GeneralAdmission()
	}
	return seats, requested, nil
}

// NewTicketNumber is unique with high probability; the store's unique
// constraint catches the rest.
func NewTicketNumber(now time.Time) string {
	return fmt.Sprintf("CT-%s-%s", now.UTC().Format("20060102150405"), shortuuid.New()[:8])
}

type DeleteEventRequest struct {
	EventID      string
	Category     entity.Category
	Reason       string
	PurgeTickets bool
}

type DeleteEventResult struct {
	EventID       string          `json:"event_id"`
	Cancelled     int             `json:"tickets_cancelled"`
	Refunds       []entity.Refund `json:"refunds"`
	PurgedTickets int64           `json:"tickets_purged"`
}

const DefaultDeletionReason = "event deleted by administrator"

// DeleteEvent cancels every active ticket of the event, recording a refund
// for each, and only then removes the event. When the removal fails the
// tickets stay cancelled.
func (r Reconciler) DeleteEvent(ctx context.Context, req DeleteEventRequest) (DeleteEventResult, error) {
	event, err := Locate(ctx, r.events, req.EventID, req.Category)
	if err != nil {
		return DeleteEventResult{}, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultDeletionReason
	}

	logger := log.FromContext(ctx).WithField("event_id", event.ID)

	refunds, err := r.tickets.CancelByEvent(ctx, entity.EventCancellation{
		Event:  event,
		Reason: reason,
		At:     r.clock.Now(),
		Policy: r.config.RefundPolicy,
	})
	if err != nil {
		return DeleteEventResult{}, fmt.Errorf("cancelling tickets of event %s: %w", event.ID, err)
	}
	metrics.TrackTicketsCancelled("event_deleted", len(refunds))

	result := DeleteEventResult{
		EventID:   event.ID,
		Cancelled: len(refunds),
		Refunds:   refunds,
	}

	if req.PurgeTickets {
		purged, err := r.tickets.DeleteByEvent(ctx, event.ID)
		if err != nil {
			return result, fmt.Errorf("purging tickets of event %s: %w", event.ID, err)
		}
		result.PurgedTickets = purged
	}

	if err := r.events.Delete(ctx, event.ID); err != nil {
		if IsNotFound(err) {
			// removed by a concurrent delete
			return result, ErrEventNotFound
		}
		logger.WithError(err).Error("Tickets cancelled but event not deleted")
		return result, fmt.Errorf("deleting event %s: %w", event.ID, err)
	}

	metrics.TrackEventDeleted()
	logger.WithField("tickets_cancelled", len(refunds)).Info("Event deleted")

	return result, nil
}

// CancelTicket lets an attendee cancel one of their active tickets. The
// refund is the price paid.
func (r Reconciler) CancelTicket(ctx context.Context, ticketID, userID, reason string) (entity.Ticket, entity.Refund, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "cancelled by attendee"
	}

	ticket, refund, err := r.tickets.Cancel(ctx, entity.TicketCancellation{
		TicketID:        ticketID,
		UserID:          userID,
		Reason:          reason,
		At:              r.clock.Now(),
		ReleaseCapacity: r.config.ReserveCapacity,
	})
	if err != nil {
		switch {
		case IsNotFound(err):
			return entity.Ticket{}, entity.Refund{}, ErrTicketNotFound
		case isForbidden(err):
			return entity.Ticket{}, entity.Refund{}, ErrTicketNotOwned
		case isAlreadyCancelled(err):
			return entity.Ticket{}, entity.Refund{}, ErrAlreadyCancelled
		case isContended(err):
			return entity.Ticket{}, entity.Refund{}, fmt.Errorf("%w: %s", ErrConcurrentUpdate, err)
		default:
			return entity.Ticket{}, entity.Refund{}, fmt.Errorf("cancelling ticket %s: %w", ticketID, err)
		}
	}

	metrics.TrackTicketsCancelled("attendee", 1)

	return ticket, refund, nil
}
