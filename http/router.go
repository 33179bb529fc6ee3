package http

import (
	"net/http"

	"cursedticket/clock"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ErrServerClosed = http.ErrServerClosed

type RouterDeps struct {
	Reconciler  Reconciler
	EventRepo   EventRepo
	TicketRepo  TicketRepo
	RefundRepo  RefundRepo
	SalesRepo   SalesRepo
	Idempotency IdempotencyStore
	Clock       clock.Clock
}

func NewRouter(deps RouterDeps) *echo.Echo {
	server := commonHTTP.NewEcho()
	server.HTTPErrorHandler = httpErrorHandler

	server.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	c := deps.Clock
	if c == nil {
		c = clock.Real{}
	}

	handler := handler{
		reconciler:  deps.Reconciler,
		events:      deps.EventRepo,
		tickets:     deps.TicketRepo,
		refunds:     deps.RefundRepo,
		sales:       deps.SalesRepo,
		idempotency: deps.Idempotency,
		clock:       c,
	}

	server.GET("/events", handler.ListEvents)
	server.POST("/events", handler.CreateEvent)
	server.GET("/events/:id", handler.GetEvent)
	server.PATCH("/events/:id", handler.UpdateEvent)
	server.DELETE("/events/:id", handler.DeleteEvent)
	server.GET("/events/:id/sales", handler.GetEventSales)
	server.POST("/events/:id/purchase", handler.PurchaseTickets)

	server.GET("/users/:id/tickets", handler.ListUserTickets)
	server.POST("/tickets/:id/cancel", handler.CancelTicket)
	server.GET("/tickets/:number/qr", handler.TicketQRCode)

	server.GET("/refunds", handler.ListRefunds)

	return server
}
