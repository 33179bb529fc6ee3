package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursedticket_tickets_issued_total",
			Help: "Tickets issued by purchases",
		},
		[]string{"category", "tier"},
	)

	purchaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursedticket_purchase_failures_total",
			Help: "Rejected or failed purchase requests",
		},
		[]string{"kind"},
	)

	ticketsCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursedticket_tickets_cancelled_total",
			Help: "Tickets moved to cancelled",
		},
		[]string{"cause"},
	)

	eventsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cursedticket_events_deleted_total",
			Help: "Events removed through the deletion cascade",
		},
	)

	salesProjected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursedticket_sales_projections_total",
			Help: "Domain events applied to the sales read model",
		},
		[]string{"event", "outcome"},
	)

	messageHandling = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cursedticket_message_handling_seconds",
			Help:    "Time spent in message handlers, per attempt",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "outcome"},
	)
)

func TrackTicketsIssued(category, tier string, n int) {
	ticketsIssued.WithLabelValues(category, tier).Add(float64(n))
}

func TrackPurchaseFailure(kind string) {
	purchaseFailures.WithLabelValues(kind).Inc()
}

func TrackTicketsCancelled(cause string, n int) {
	ticketsCancelled.WithLabelValues(cause).Add(float64(n))
}

func TrackEventDeleted() {
	eventsDeleted.Inc()
}

// TrackSalesProjection records whether a domain event changed the read model
// ("applied") or was a redelivery ("duplicate").
func TrackSalesProjection(event, outcome string) {
	salesProjected.WithLabelValues(event, outcome).Inc()
}

func TrackMessageHandled(handler, outcome string, took time.Duration) {
	messageHandling.WithLabelValues(handler, outcome).Observe(took.Seconds())
}
