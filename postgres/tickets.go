package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cursedticket/entity"
	"cursedticket/event"
	"cursedticket/message"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const ticketColumns = `ticket_id, ticket_number, event_id, event_category, user_id, price, tier,
	event_name, event_date, venue_name, organizer_id,
	seat_section, seat_row, seat_number, COALESCE(seat_label, '') AS seat_label,
	status, purchased_at, cancelled_at, cancellation_reason`

type ticketRow struct {
	ID                 string          `db:"ticket_id"`
	Number             string          `db:"ticket_number"`
	EventID            string          `db:"event_id"`
	EventCategory      string          `db:"event_category"`
	UserID             string          `db:"user_id"`
	Price              decimal.Decimal `db:"price"`
	Tier               string          `db:"tier"`
	EventName          string          `db:"event_name"`
	EventDate          time.Time       `db:"event_date"`
	VenueName          string          `db:"venue_name"`
	OrganizerID        string          `db:"organizer_id"`
	SeatSection        string          `db:"seat_section"`
	SeatRow            string          `db:"seat_row"`
	SeatNumber         string          `db:"seat_number"`
	SeatLabel          string          `db:"seat_label"`
	Status             string          `db:"status"`
	PurchasedAt        time.Time       `db:"purchased_at"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
	CancellationReason string          `db:"cancellation_reason"`
}

func (r ticketRow) toEntity() entity.Ticket {
	t := entity.Ticket{
		ID:            r.ID,
		Number:        r.Number,
		EventID:       r.EventID,
		EventCategory: entity.Category(r.EventCategory),
		UserID:        r.UserID,
		Price:         r.Price,
		Tier:          entity.Tier(r.Tier),
		Snapshot: entity.Snapshot{
			EventName:   r.EventName,
			EventDate:   r.EventDate.UTC(),
			VenueName:   r.VenueName,
			OrganizerID: r.OrganizerID,
		},
		Seat: entity.Seat{
			Section: r.SeatSection,
			Row:     r.SeatRow,
			Number:  r.SeatNumber,
			Label:   r.SeatLabel,
		},
		Status:             entity.TicketStatus(r.Status),
		PurchasedAt:        r.PurchasedAt.UTC(),
		CancellationReason: r.CancellationReason,
	}
	if r.CancelledAt != nil {
		at := r.CancelledAt.UTC()
		t.CancelledAt = &at
	}
	return t
}

type TicketRepo struct {
	db     *sqlx.DB
	logger watermill.LoggerAdapter
}

func NewTicketRepo(db *sqlx.DB, logger watermill.LoggerAdapter) TicketRepo {
	if db == nil {
		panic("missing db")
	}

	return TicketRepo{
		db:     db,
		logger: logger,
	}
}

// BookedSeats returns the labels among the given ones held by active tickets.
func (r TicketRepo) BookedSeats(ctx context.Context, eventID string, labels []string) ([]string, error) {
	var booked []string
	err := r.db.SelectContext(ctx, &booked, `SELECT seat_label FROM tickets
		WHERE event_id = $1 AND status = 'active' AND seat_label = ANY($2)`,
		eventID, pq.Array(labels))
	if err != nil {
		return nil, fmt.Errorf("selecting booked seats: %w", err)
	}

	return booked, nil
}

// AddBatch stores every ticket of the batch or none of them.
func (r TicketRepo) AddBatch(ctx context.Context, batch entity.TicketBatch) error {
	return inTx(ctx, r.db, r.logger, func(tx *sqlx.Tx) error {
		return r.addBatch(ctx, tx, batch)
	})
}

func (r TicketRepo) addBatch(ctx context.Context, tx *sqlx.Tx, batch entity.TicketBatch) error {
	if batch.ReserveCapacity {
		if err := reserve(ctx, tx, batch.EventID, len(batch.Tickets)); err != nil {
			return err
		}
	}

	for _, t := range batch.Tickets {
		_, err := tx.ExecContext(ctx, `INSERT INTO tickets (
			ticket_id, ticket_number, event_id, event_category, user_id, price, tier,
			event_name, event_date, venue_name, organizer_id,
			seat_section, seat_row, seat_number, seat_label,
			status, purchased_at, cancellation_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, '')`,
			t.ID, t.Number, t.EventID, t.EventCategory, t.UserID, t.Price, t.Tier,
			t.Snapshot.EventName, t.Snapshot.EventDate, t.Snapshot.VenueName, t.Snapshot.OrganizerID,
			t.Seat.Section, t.Seat.Row, t.Seat.Number, nullIfEmpty(t.Seat.Label),
			t.Status, t.PurchasedAt)
		switch {
		case isSeatIndexViolation(err):
			return seatTakenError{err: err}
		case err != nil:
			return fmt.Errorf("inserting ticket %s: %w", t.Number, err)
		}
	}

	e := event.NewTicketsIssued(uuid.NewString(), batch)
	if err := message.PublishInTx(ctx, e, tx.Tx, r.logger); err != nil {
		return fmt.Errorf("publishing event in transaction: %w", err)
	}

	return nil
}

func reserve(ctx context.Context, tx *sqlx.Tx, eventID string, n int) error {
	var available int
	err := tx.GetContext(ctx, &available, `SELECT available_tickets FROM events
		WHERE event_id = $1 FOR UPDATE`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundError{what: "event", id: eventID}
	}
	if err != nil {
		return fmt.Errorf("selecting available tickets: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE events SET available_tickets = available_tickets - $2
		WHERE event_id = $1 AND available_tickets >= $2`, eventID, n)
	if err != nil {
		return fmt.Errorf("reserving tickets: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if updated != 1 {
		return notEnoughTicketsError{
			ticketsAvailable: available,
			ticketsRequested: n,
		}
	}

	return nil
}

// Cancel moves one of the user's active tickets to cancelled and refunds the
// price paid.
func (r TicketRepo) Cancel(ctx context.Context, c entity.TicketCancellation) (entity.Ticket, entity.Refund, error) {
	var (
		ticket entity.Ticket
		refund entity.Refund
	)
	err := inTx(ctx, r.db, r.logger, func(tx *sqlx.Tx) error {
		var err error
		ticket, refund, err = r.cancel(ctx, tx, c)
		return err
	})
	if err != nil {
		return entity.Ticket{}, entity.Refund{}, err
	}

	return ticket, refund, nil
}

func (r TicketRepo) cancel(ctx context.Context, tx *sqlx.Tx, c entity.TicketCancellation) (entity.Ticket, entity.Refund, error) {
	var row ticketRow
	err := tx.GetContext(ctx, &row, `SELECT `+ticketColumns+` FROM tickets
		WHERE ticket_id = $1 FOR UPDATE`, c.TicketID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Ticket{}, entity.Refund{}, notFoundError{what: "ticket", id: c.TicketID}
	}
	if err != nil {
		return entity.Ticket{}, entity.Refund{}, fmt.Errorf("selecting ticket: %w", err)
	}

	ticket := row.toEntity()
	if ticket.UserID != c.UserID {
		return entity.Ticket{}, entity.Refund{}, forbiddenError{ticketID: ticket.ID}
	}
	if ticket.Status == entity.TicketStatusCancelled {
		return entity.Ticket{}, entity.Refund{}, alreadyCancelledError{ticketID: ticket.ID}
	}

	_, err = tx.ExecContext(ctx, `UPDATE tickets
		SET status = 'cancelled', cancelled_at = $2, cancellation_reason = $3
		WHERE ticket_id = $1`, ticket.ID, c.At, c.Reason)
	if err != nil {
		return entity.Ticket{}, entity.Refund{}, fmt.Errorf("cancelling ticket: %w", err)
	}

	at := c.At.UTC()
	ticket.Status = entity.TicketStatusCancelled
	ticket.CancelledAt = &at
	ticket.CancellationReason = c.Reason

	if c.ReleaseCapacity {
		_, err := tx.ExecContext(ctx, `UPDATE events
			SET available_tickets = LEAST(available_tickets + 1, total_tickets)
			WHERE event_id = $1`, ticket.EventID)
		if err != nil {
			return entity.Ticket{}, entity.Refund{}, fmt.Errorf("releasing ticket: %w", err)
		}
	}

	refund, err := r.refund(ctx, tx, ticket, ticket.Price, c.Reason, at)
	if err != nil {
		return entity.Ticket{}, entity.Refund{}, err
	}

	e := event.NewTicketCanceled(c.TicketID, event.CauseAttendee, ticket, refund)
	if err := message.PublishInTx(ctx, e, tx.Tx, r.logger); err != nil {
		return entity.Ticket{}, entity.Refund{}, fmt.Errorf("publishing event in transaction: %w", err)
	}

	return ticket, refund, nil
}

// CancelByEvent cancels every active ticket of the event in one transaction,
// writing a refund and a TicketCanceled event for each.
func (r TicketRepo) CancelByEvent(ctx context.Context, c entity.EventCancellation) ([]entity.Refund, error) {
	var refunds []entity.Refund
	err := inTx(ctx, r.db, r.logger, func(tx *sqlx.Tx) error {
		var err error
		refunds, err = r.cancelByEvent(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	return refunds, nil
}

func (r TicketRepo) cancelByEvent(ctx context.Context, tx *sqlx.Tx, c entity.EventCancellation) ([]entity.Refund, error) {
	var rows []ticketRow
	err := tx.SelectContext(ctx, &rows, `UPDATE tickets
		SET status = 'cancelled', cancelled_at = $2, cancellation_reason = $3
		WHERE event_id = $1 AND status = 'active'
		RETURNING `+ticketColumns, c.Event.ID, c.At, c.Reason)
	if err != nil {
		return nil, fmt.Errorf("cancelling tickets: %w", err)
	}

	at := c.At.UTC()
	refunds := make([]entity.Refund, 0, len(rows))
	for _, row := range rows {
		ticket := row.toEntity()

		refund, err := r.refund(ctx, tx, ticket, c.Policy.Amount(c.Event, ticket), c.Reason, at)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)

		e := event.NewTicketCanceled(ticket.ID, event.CauseEventDeleted, ticket, refund)
		if err := message.PublishInTx(ctx, e, tx.Tx, r.logger); err != nil {
			return nil, fmt.Errorf("publishing event in transaction: %w", err)
		}
	}

	return refunds, nil
}

func (r TicketRepo) refund(ctx context.Context, tx *sqlx.Tx, ticket entity.Ticket, amount decimal.Decimal, reason string, at time.Time) (entity.Refund, error) {
	refund := entity.Refund{
		ID:           uuid.NewString(),
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		EventID:      ticket.EventID,
		UserID:       ticket.UserID,
		Amount:       amount,
		Reason:       reason,
		CreatedAt:    at,
	}

	_, err := tx.ExecContext(ctx, `INSERT INTO refunds
		(refund_id, ticket_id, ticket_number, event_id, user_id, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		refund.ID, refund.TicketID, refund.TicketNumber, refund.EventID, refund.UserID,
		refund.Amount, refund.Reason, refund.CreatedAt)
	if err != nil {
		return entity.Refund{}, fmt.Errorf("inserting refund for ticket %s: %w", ticket.ID, err)
	}

	return refund, nil
}

func (r TicketRepo) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tickets WHERE event_id = $1", eventID)
	if err != nil {
		return 0, fmt.Errorf("executing delete query: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return n, nil
}

func (r TicketRepo) ListByUser(ctx context.Context, userID string) ([]entity.Ticket, error) {
	var rows []ticketRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+ticketColumns+` FROM tickets
		WHERE user_id = $1 ORDER BY purchased_at DESC, ticket_number`, userID)
	if err != nil {
		return nil, fmt.Errorf("selecting tickets: %w", err)
	}

	tickets := make([]entity.Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, row.toEntity())
	}
	return tickets, nil
}

func (r TicketRepo) GetByNumber(ctx context.Context, number string) (entity.Ticket, error) {
	var row ticketRow
	err := r.db.GetContext(ctx, &row, `SELECT `+ticketColumns+` FROM tickets
		WHERE ticket_number = $1`, number)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Ticket{}, notFoundError{what: "ticket", id: number}
	}
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("selecting ticket: %w", err)
	}

	return row.toEntity(), nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
