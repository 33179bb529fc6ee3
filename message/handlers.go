package message

import (
	"context"
	"fmt"

	"cursedticket/entity"
	"cursedticket/event"
	"cursedticket/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/shopspring/decimal"
)

type SalesRepo interface {
	Apply(ctx context.Context, messageID string, change entity.SalesChange) (bool, error)
}

func handleProjectTicketsIssued(repo SalesRepo) func(context.Context, *event.TicketsIssued) error {
	return func(ctx context.Context, e *event.TicketsIssued) error {
		return project(ctx, repo, "TicketsIssued", e.Header.ID, entity.SalesChange{
			EventID: e.EventID,
			Sold:    len(e.TicketIDs),
			Revenue: e.Total,
			At:      e.IssuedAt,
		})
	}
}

// Revenue is kept net of refunds.
func handleProjectTicketCanceled(repo SalesRepo) func(context.Context, *event.TicketCanceled) error {
	return func(ctx context.Context, e *event.TicketCanceled) error {
		return project(ctx, repo, "TicketCanceled", e.Header.ID, entity.SalesChange{
			EventID:   e.EventID,
			Cancelled: 1,
			Revenue:   e.RefundAmount.Neg(),
			At:        e.CanceledAt,
		})
	}
}

func handleProjectEventDeleted(repo SalesRepo) func(context.Context, *event.EventDeleted) error {
	return func(ctx context.Context, e *event.EventDeleted) error {
		return project(ctx, repo, "EventDeleted", e.Header.ID, entity.SalesChange{
			EventID:      e.EventID,
			Revenue:      decimal.Zero,
			EventDeleted: true,
			At:           e.DeletedAt,
		})
	}
}

func project(ctx context.Context, repo SalesRepo, name, messageID string, change entity.SalesChange) error {
	applied, err := repo.Apply(ctx, messageID, change)
	if err != nil {
		return fmt.Errorf("applying %s to sales: %w", name, err)
	}

	if !applied {
		log.FromContext(ctx).WithField("event_id", change.EventID).Info("Skipping already applied " + name)
		metrics.TrackSalesProjection(name, "duplicate")
		return nil
	}

	metrics.TrackSalesProjection(name, "applied")
	return nil
}
