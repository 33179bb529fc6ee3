package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"cursedticket/booking"
	"cursedticket/entity"
	"cursedticket/idempotency"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

type purchaseRequest struct {
	Category string   `json:"category"`
	UserID   string   `json:"user_id"`
	Tier     string   `json:"tier"`
	Quantity *float64 `json:"quantity"`
	Seats    []string `json:"seats"`
}

type purchaseResponse struct {
	Requested     int             `json:"requested"`
	Issued        int             `json:"issued"`
	TicketNumbers []string        `json:"ticket_numbers"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Tier          entity.Tier     `json:"tier"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Message       string          `json:"message"`
	Tickets       []entity.Ticket `json:"tickets"`
}

func (h handler) PurchaseTickets(c echo.Context) error {
	var request purchaseRequest
	if err := c.Bind(&request); err != nil {
		return bindError(err)
	}

	var category entity.Category
	if request.Category != "" {
		var err error
		if category, err = entity.ParseCategory(request.Category); err != nil {
			return respondError(c, err)
		}
	}

	// a purchase without seats or quantity is for one ticket
	quantity := 1.0
	if request.Quantity != nil {
		quantity = *request.Quantity
	}

	ctx := c.Request().Context()
	eventID := c.Param("id")
	scope := "purchase:" + eventID
	key := c.Request().Header.Get(headerKeyIdempotencyKey)
	if h.idempotency == nil {
		key = ""
	}

	if key != "" {
		stored, err := h.idempotency.Claim(ctx, scope, key)
		if err != nil {
			return respondError(c, err)
		}
		if stored != nil {
			c.Response().Header().Set(headerKeyReplayed, "true")
			return c.JSONBlob(stored.Status, stored.Body)
		}
	}

	result, err := h.reconciler.Purchase(ctx, booking.PurchaseRequest{
		EventID:  eventID,
		Category: category,
		UserID:   request.UserID,
		Tier:     request.Tier,
		Quantity: quantity,
		Seats:    request.Seats,
	})
	if err != nil {
		if key != "" {
			if releaseErr := h.idempotency.Release(ctx, scope, key); releaseErr != nil {
				log.FromContext(ctx).WithError(releaseErr).Error("Failed to release idempotency key")
			}
		}
		return respondError(c, err)
	}

	body, err := json.Marshal(purchaseResponse{
		Requested:     result.Requested,
		Issued:        result.Issued,
		TicketNumbers: result.TicketNumbers,
		UnitPrice:     result.UnitPrice,
		Tier:          result.Tier,
		TotalPrice:    result.Total,
		Message:       result.Message(),
		Tickets:       result.Tickets,
	})
	if err != nil {
		return respondError(c, fmt.Errorf("marshalling purchase response: %w", err))
	}

	if key != "" {
		resp := idempotency.Response{Status: http.StatusCreated, Body: body}
		if err := h.idempotency.Save(ctx, scope, key, resp); err != nil {
			// The tickets exist, so the purchase still succeeds. The key is
			// freed so it does not stay pending until it expires.
			log.FromContext(ctx).WithError(err).Error("Failed to save idempotent response")
			if releaseErr := h.idempotency.Release(ctx, scope, key); releaseErr != nil {
				log.FromContext(ctx).WithError(releaseErr).Error("Failed to release idempotency key")
			}
		}
	}

	return c.JSONBlob(http.StatusCreated, body)
}

func (h handler) ListUserTickets(c echo.Context) error {
	tickets, err := h.tickets.ListByUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tickets)
}

type cancelTicketRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type cancelTicketResponse struct {
	Ticket entity.Ticket `json:"ticket"`
	Refund entity.Refund `json:"refund"`
}

func (h handler) CancelTicket(c echo.Context) error {
	var request cancelTicketRequest
	if err := c.Bind(&request); err != nil {
		return bindError(err)
	}

	if request.UserID == "" {
		return respondError(c, entity.ValidationError{Field: "user_id", Reason: "must not be empty"})
	}

	ticket, refund, err := h.reconciler.CancelTicket(c.Request().Context(), c.Param("id"), request.UserID, request.Reason)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, cancelTicketResponse{Ticket: ticket, Refund: refund})
}

// TicketQRCode renders a PNG for the door scanner. Cancelled tickets get no
// code.
func (h handler) TicketQRCode(c echo.Context) error {
	ticket, err := h.tickets.GetByNumber(c.Request().Context(), c.Param("number"))
	if booking.IsNotFound(err) {
		return respondError(c, booking.ErrTicketNotFound)
	}
	if err != nil {
		return respondError(c, err)
	}

	if ticket.Status == entity.TicketStatusCancelled {
		return respondError(c, fmt.Errorf("%w: %s", booking.ErrAlreadyCancelled, ticket.Number))
	}

	png, err := qrcode.Encode(qrPayload(ticket), qrcode.Medium, 256)
	if err != nil {
		return respondError(c, fmt.Errorf("encoding qr code: %w", err))
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

func qrPayload(t entity.Ticket) string {
	return fmt.Sprintf("CURSEDTICKET:%s:%s:%s", t.Number, t.EventID, t.Seat.Label)
}

func (h handler) ListRefunds(c echo.Context) error {
	refunds, err := h.refunds.List(c.Request().Context(), c.QueryParam("event_id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, refunds)
}
