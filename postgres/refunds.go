package postgres

import (
	"context"
	"fmt"
	"time"

	"cursedticket/entity"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type refundRow struct {
	ID           string          `db:"refund_id"`
	TicketID     string          `db:"ticket_id"`
	TicketNumber string          `db:"ticket_number"`
	EventID      string          `db:"event_id"`
	UserID       string          `db:"user_id"`
	Amount       decimal.Decimal `db:"amount"`
	Reason       string          `db:"reason"`
	CreatedAt    time.Time       `db:"created_at"`
}

type RefundRepo struct {
	db *sqlx.DB
}

func NewRefundRepo(db *sqlx.DB) RefundRepo {
	if db == nil {
		panic("missing db")
	}

	return RefundRepo{
		db: db,
	}
}

// List returns the refund ledger, newest first. An empty eventID lists all.
func (r RefundRepo) List(ctx context.Context, eventID string) ([]entity.Refund, error) {
	query := `SELECT refund_id, ticket_id, ticket_number, event_id, user_id, amount, reason, created_at
		FROM refunds`
	var args []any
	if eventID != "" {
		query += " WHERE event_id = $1"
		args = append(args, eventID)
	}
	query += " ORDER BY created_at DESC, refund_id"

	var rows []refundRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("selecting refunds: %w", err)
	}

	refunds := make([]entity.Refund, 0, len(rows))
	for _, row := range rows {
		refunds = append(refunds, entity.Refund{
			ID:           row.ID,
			TicketID:     row.TicketID,
			TicketNumber: row.TicketNumber,
			EventID:      row.EventID,
			UserID:       row.UserID,
			Amount:       row.Amount,
			Reason:       row.Reason,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return refunds, nil
}
