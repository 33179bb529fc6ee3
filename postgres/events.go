package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cursedticket/clock"
	"cursedticket/entity"
	"cursedticket/event"
	"cursedticket/message"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const eventColumns = `event_id, category, name, starts_at, ends_at,
	venue_name, venue_address, venue_city, venue_capacity,
	price_base, price_vip, price_student, price_senior,
	total_tickets, available_tickets, organizer_id, status, details`

type eventRow struct {
	ID               string              `db:"event_id"`
	Category         string              `db:"category"`
	Name             string              `db:"name"`
	StartsAt         time.Time           `db:"starts_at"`
	EndsAt           *time.Time          `db:"ends_at"`
	VenueName        string              `db:"venue_name"`
	VenueAddress     string              `db:"venue_address"`
	VenueCity        string              `db:"venue_city"`
	VenueCapacity    int                 `db:"venue_capacity"`
	PriceBase        decimal.NullDecimal `db:"price_base"`
	PriceVIP         decimal.NullDecimal `db:"price_vip"`
	PriceStudent     decimal.NullDecimal `db:"price_student"`
	PriceSenior      decimal.NullDecimal `db:"price_senior"`
	TotalTickets     int                 `db:"total_tickets"`
	AvailableTickets int                 `db:"available_tickets"`
	OrganizerID      string              `db:"organizer_id"`
	Status           string              `db:"status"`
	Details          entity.Details      `db:"details"`
}

func (r eventRow) toEntity() entity.Event {
	e := entity.Event{
		ID:       r.ID,
		Name:     r.Name,
		Category: entity.Category(r.Category),
		Date:     r.StartsAt.UTC(),
		Venue: entity.Venue{
			Name:     r.VenueName,
			Address:  r.VenueAddress,
			City:     r.VenueCity,
			Capacity: r.VenueCapacity,
		},
		Pricing: entity.Pricing{
			Base:    r.PriceBase,
			VIP:     r.PriceVIP,
			Student: r.PriceStudent,
			Senior:  r.PriceSenior,
		},
		TotalTickets:     r.TotalTickets,
		AvailableTickets: r.AvailableTickets,
		OrganizerID:      r.OrganizerID,
		Status:           entity.EventStatus(r.Status),
		Details:          r.Details,
	}
	if r.EndsAt != nil {
		end := r.EndsAt.UTC()
		e.EndDate = &end
	}
	return e
}

type EventRepo struct {
	db     *sqlx.DB
	clock  clock.Clock
	logger watermill.LoggerAdapter
}

func NewEventRepo(db *sqlx.DB, c clock.Clock, logger watermill.LoggerAdapter) EventRepo {
	if db == nil {
		panic("missing db")
	}
	if c == nil {
		panic("missing clock")
	}

	return EventRepo{
		db:     db,
		clock:  c,
		logger: logger,
	}
}

// FindByID only matches events of the given category.
func (r EventRepo) FindByID(ctx context.Context, category entity.Category, eventID string) (entity.Event, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row, `SELECT `+eventColumns+`
		FROM events WHERE event_id = $1 AND category = $2`, eventID, category)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Event{}, notFoundError{what: string(category), id: eventID}
	}
	if err != nil {
		return entity.Event{}, fmt.Errorf("selecting event: %w", err)
	}

	return r.withStatus(row.toEntity()), nil
}

func (r EventRepo) List(ctx context.Context, filter entity.EventFilter) ([]entity.Event, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.OrganizerID != "" {
		args = append(args, filter.OrganizerID)
		where = append(where, fmt.Sprintf("organizer_id = $%d", len(args)))
	}
	if filter.UpcomingOnly {
		args = append(args, r.clock.Now())
		where = append(where, fmt.Sprintf("starts_at > $%d AND status <> 'cancelled'", len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY starts_at, event_id"

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("selecting events: %w", err)
	}

	events := make([]entity.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, r.withStatus(row.toEntity()))
	}
	return events, nil
}

func (r EventRepo) Add(ctx context.Context, e entity.Event) error {
	e = r.withStatus(e)

	_, err := r.db.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		eventArgs(e)...)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	return nil
}

// Update applies the allow-listed changes under a row lock.
func (r EventRepo) Update(ctx context.Context, category entity.Category, eventID string, upd entity.EventUpdate) (entity.Event, error) {
	var updated entity.Event
	err := inTx(ctx, r.db, r.logger, func(tx *sqlx.Tx) error {
		var err error
		updated, err = r.update(ctx, tx, category, eventID, upd)
		return err
	})
	if err != nil {
		return entity.Event{}, err
	}

	return updated, nil
}

func (r EventRepo) update(ctx context.Context, tx *sqlx.Tx, category entity.Category, eventID string, upd entity.EventUpdate) (entity.Event, error) {
	var row eventRow
	err := tx.GetContext(ctx, &row, `SELECT `+eventColumns+`
		FROM events WHERE event_id = $1 AND category = $2 FOR UPDATE`, eventID, category)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Event{}, notFoundError{what: string(category), id: eventID}
	}
	if err != nil {
		return entity.Event{}, fmt.Errorf("selecting event: %w", err)
	}

	e, err := upd.Apply(row.toEntity())
	if err != nil {
		return entity.Event{}, err
	}
	e = r.withStatus(e)

	_, err = tx.ExecContext(ctx, `UPDATE events SET
		category = $2, name = $3, starts_at = $4, ends_at = $5,
		venue_name = $6, venue_address = $7, venue_city = $8, venue_capacity = $9,
		price_base = $10, price_vip = $11, price_student = $12, price_senior = $13,
		total_tickets = $14, available_tickets = $15, organizer_id = $16, status = $17, details = $18
		WHERE event_id = $1`, eventArgs(e)...)
	if err != nil {
		return entity.Event{}, fmt.Errorf("updating event: %w", err)
	}

	return e, nil
}

// Delete removes the event and publishes EventDeleted through the outbox.
func (r EventRepo) Delete(ctx context.Context, eventID string) error {
	return inTx(ctx, r.db, r.logger, func(tx *sqlx.Tx) error {
		return r.delete(ctx, tx, eventID)
	})
}

func (r EventRepo) delete(ctx context.Context, tx *sqlx.Tx, eventID string) error {
	var row eventRow
	err := tx.GetContext(ctx, &row, `DELETE FROM events WHERE event_id = $1 RETURNING `+eventColumns, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundError{what: "event", id: eventID}
	}
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	e := event.NewEventDeleted(eventID, row.toEntity(), r.clock.Now())
	if err := message.PublishInTx(ctx, e, tx.Tx, r.logger); err != nil {
		return fmt.Errorf("publishing event in transaction: %w", err)
	}

	return nil
}

func (r EventRepo) withStatus(e entity.Event) entity.Event {
	e.Status = e.StatusAt(r.clock.Now())
	return e
}

func eventArgs(e entity.Event) []any {
	return []any{
		e.ID, e.Category, e.Name, e.Date, e.EndDate,
		e.Venue.Name, e.Venue.Address, e.Venue.City, e.Venue.Capacity,
		e.Pricing.Base, e.Pricing.VIP, e.Pricing.Student, e.Pricing.Senior,
		e.TotalTickets, e.AvailableTickets, e.OrganizerID, e.Status, e.Details,
	}
}
