package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func InitialiseDB(ctx context.Context, db *sqlx.DB) error {
	if err := CreateEventsTable(ctx, db); err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	if err := CreateTicketsTable(ctx, db); err != nil {
		return fmt.Errorf("creating tickets table: %w", err)
	}

	if err := CreateRefundsTable(ctx, db); err != nil {
		return fmt.Errorf("creating refunds table: %w", err)
	}

	if err := CreateSalesTables(ctx, db); err != nil {
		return fmt.Errorf("creating sales tables: %w", err)
	}

	return nil
}

func CreateEventsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS events (
		event_id VARCHAR(64) PRIMARY KEY,
		category VARCHAR(32) NOT NULL,
		name VARCHAR(255) NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ,
		venue_name VARCHAR(255) NOT NULL DEFAULT '',
		venue_address VARCHAR(255) NOT NULL DEFAULT '',
		venue_city VARCHAR(255) NOT NULL DEFAULT '',
		venue_capacity INTEGER NOT NULL DEFAULT 0,
		price_base NUMERIC(10, 2),
		price_vip NUMERIC(10, 2),
		price_student NUMERIC(10, 2),
		price_senior NUMERIC(10, 2),
		total_tickets INTEGER NOT NULL CHECK (total_tickets >= 0),
		available_tickets INTEGER NOT NULL CHECK (available_tickets >= 0),
		organizer_id VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL,
		details JSONB NOT NULL DEFAULT '{}',
		CHECK (available_tickets <= total_tickets)
	);

	CREATE INDEX IF NOT EXISTS events_category_idx ON events (category);
	CREATE INDEX IF NOT EXISTS events_organizer_idx ON events (organizer_id);`)
	return err
}

// Tickets outlive their event, so there is no foreign key to events.
func CreateTicketsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS tickets (
		ticket_id VARCHAR(64) PRIMARY KEY,
		ticket_number VARCHAR(64) NOT NULL UNIQUE,
		event_id VARCHAR(64) NOT NULL,
		event_category VARCHAR(32) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		price NUMERIC(10, 2) NOT NULL,
		tier VARCHAR(16) NOT NULL,
		event_name VARCHAR(255) NOT NULL,
		event_date TIMESTAMPTZ NOT NULL,
		venue_name VARCHAR(255) NOT NULL,
		organizer_id VARCHAR(255) NOT NULL,
		seat_section VARCHAR(64) NOT NULL,
		seat_row VARCHAR(16) NOT NULL DEFAULT '',
		seat_number VARCHAR(16) NOT NULL DEFAULT '',
		seat_label VARCHAR(32),
		status VARCHAR(16) NOT NULL,
		purchased_at TIMESTAMPTZ NOT NULL,
		cancelled_at TIMESTAMPTZ,
		cancellation_reason TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS tickets_event_idx ON tickets (event_id);
	CREATE INDEX IF NOT EXISTS tickets_user_idx ON tickets (user_id);
	CREATE UNIQUE INDEX IF NOT EXISTS `+seatIndex+` ON tickets (event_id, seat_label)
		WHERE status = 'active' AND seat_label IS NOT NULL;`)
	return err
}

func CreateRefundsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS refunds (
		refund_id VARCHAR(64) PRIMARY KEY,
		ticket_id VARCHAR(64) NOT NULL UNIQUE,
		ticket_number VARCHAR(64) NOT NULL,
		event_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		amount NUMERIC(10, 2) NOT NULL,
		reason TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS refunds_event_idx ON refunds (event_id);`)
	return err
}

func CreateSalesTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS event_sales (
		event_id VARCHAR(64) PRIMARY KEY,
		tickets_sold INTEGER NOT NULL DEFAULT 0,
		tickets_cancelled INTEGER NOT NULL DEFAULT 0,
		revenue NUMERIC(12, 2) NOT NULL DEFAULT 0,
		event_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		last_update TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS processed_events (
		message_id VARCHAR(64) PRIMARY KEY,
		processed_at TIMESTAMPTZ NOT NULL
	);`)
	return err
}
