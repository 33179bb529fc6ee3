package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cursedticket/entity"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type salesRow struct {
	EventID          string          `db:"event_id"`
	TicketsSold      int             `db:"tickets_sold"`
	TicketsCancelled int             `db:"tickets_cancelled"`
	Revenue          decimal.Decimal `db:"revenue"`
	EventDeleted     bool            `db:"event_deleted"`
	LastUpdate       time.Time       `db:"last_update"`
}

// SalesRepo stores the per-event sales read model.
type SalesRepo struct {
	db *sqlx.DB
}

func NewSalesRepo(db *sqlx.DB) SalesRepo {
	if db == nil {
		panic("missing db")
	}

	return SalesRepo{
		db: db,
	}
}

// Apply adds the change to the event's figures unless messageID was applied
// before. It reports whether anything changed.
func (r SalesRepo) Apply(ctx context.Context, messageID string, change entity.SalesChange) (bool, error) {
	var applied bool
	err := inTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		var err error
		applied, err = apply(ctx, tx, messageID, change)
		return err
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

func apply(ctx context.Context, tx *sqlx.Tx, messageID string, change entity.SalesChange) (bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO processed_events (message_id, processed_at)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, messageID, change.At)
	if err != nil {
		return false, fmt.Errorf("marking message processed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO event_sales
		(event_id, tickets_sold, tickets_cancelled, revenue, event_deleted, last_update)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO UPDATE SET
			tickets_sold = event_sales.tickets_sold + EXCLUDED.tickets_sold,
			tickets_cancelled = event_sales.tickets_cancelled + EXCLUDED.tickets_cancelled,
			revenue = event_sales.revenue + EXCLUDED.revenue,
			event_deleted = event_sales.event_deleted OR EXCLUDED.event_deleted,
			last_update = GREATEST(event_sales.last_update, EXCLUDED.last_update)`,
		change.EventID, change.Sold, change.Cancelled, change.Revenue, change.EventDeleted, change.At)
	if err != nil {
		return false, fmt.Errorf("upserting event sales: %w", err)
	}

	return true, nil
}

func (r SalesRepo) Get(ctx context.Context, eventID string) (entity.EventSales, error) {
	var row salesRow
	err := r.db.GetContext(ctx, &row, `SELECT event_id, tickets_sold, tickets_cancelled, revenue, event_deleted, last_update
		FROM event_sales WHERE event_id = $1`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.EventSales{}, notFoundError{what: "sales of event", id: eventID}
	}
	if err != nil {
		return entity.EventSales{}, fmt.Errorf("selecting event sales: %w", err)
	}

	return entity.EventSales{
		EventID:          row.EventID,
		TicketsSold:      row.TicketsSold,
		TicketsCancelled: row.TicketsCancelled,
		Revenue:          row.Revenue,
		EventDeleted:     row.EventDeleted,
		LastUpdate:       row.LastUpdate.UTC(),
	}, nil
}
