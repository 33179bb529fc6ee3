package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cursedticket/booking"
	"cursedticket/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type createEventRequest struct {
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	Date         time.Time      `json:"date"`
	EndDate      *time.Time     `json:"end_date"`
	Venue        entity.Venue   `json:"venue"`
	Pricing      pricingRequest `json:"pricing"`
	TotalTickets int            `json:"total_tickets"`
	OrganizerID  string         `json:"organizer_id"`
	Details      entity.Details `json:"details"`
}

type pricingRequest struct {
	Base    *decimal.Decimal `json:"base"`
	VIP     *decimal.Decimal `json:"vip"`
	Student *decimal.Decimal `json:"student"`
	Senior  *decimal.Decimal `json:"senior"`
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func bindError(err error) error {
	return &echo.HTTPError{
		Code:     http.StatusBadRequest,
		Message:  "failed to parse request",
		Internal: fmt.Errorf("failed to bind request: %w", err),
	}
}

// categoryHint parses the optional ?category= query parameter.
func categoryHint(c echo.Context) (entity.Category, error) {
	raw := c.QueryParam("category")
	if raw == "" {
		return "", nil
	}
	return entity.ParseCategory(raw)
}

func (h handler) ListEvents(c echo.Context) error {
	category, err := categoryHint(c)
	if err != nil {
		return respondError(c, err)
	}

	upcoming, _ := strconv.ParseBool(c.QueryParam("upcoming"))

	events, err := h.events.List(c.Request().Context(), entity.EventFilter{
		Category:     category,
		OrganizerID:  c.QueryParam("organizer_id"),
		UpcomingOnly: upcoming,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, events)
}

func (h handler) GetEvent(c echo.Context) error {
	hint, err := categoryHint(c)
	if err != nil {
		return respondError(c, err)
	}

	event, err := booking.Locate(c.Request().Context(), h.events, c.Param("id"), hint)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, event)
}

func (h handler) CreateEvent(c echo.Context) error {
	var request createEventRequest
	if err := c.Bind(&request); err != nil {
		return bindError(err)
	}

	category, err := entity.ParseCategory(request.Category)
	if err != nil {
		return respondError(c, err)
	}

	event := entity.Event{
		ID:       uuid.NewString(),
		Name:     request.Name,
		Category: category,
		Date:     request.Date.UTC(),
		EndDate:  request.EndDate,
		Venue:    request.Venue,
		Pricing: entity.Pricing{
			Base:    nullDecimal(request.Pricing.Base),
			VIP:     nullDecimal(request.Pricing.VIP),
			Student: nullDecimal(request.Pricing.Student),
			Senior:  nullDecimal(request.Pricing.Senior),
		},
		TotalTickets:     request.TotalTickets,
		AvailableTickets: request.TotalTickets,
		OrganizerID:      request.OrganizerID,
		Details:          request.Details,
	}
	event.Status = event.StatusAt(h.clock.Now())

	if err := event.Validate(); err != nil {
		return respondError(c, err)
	}

	if err := h.events.Add(c.Request().Context(), event); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, event)
}

func (h handler) UpdateEvent(c echo.Context) error {
	var update entity.EventUpdate
	if err := c.Bind(&update); err != nil {
		return bindError(err)
	}

	hint, err := categoryHint(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	event, err := booking.Locate(ctx, h.events, c.Param("id"), hint)
	if err != nil {
		return respondError(c, err)
	}

	updated, err := h.events.Update(ctx, event.Category, event.ID, update)
	if booking.IsNotFound(err) {
		// deleted in between
		return respondError(c, booking.ErrEventNotFound)
	}
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

func (h handler) DeleteEvent(c echo.Context) error {
	hint, err := categoryHint(c)
	if err != nil {
		return respondError(c, err)
	}

	purge, _ := strconv.ParseBool(c.QueryParam("purge_tickets"))

	result, err := h.reconciler.DeleteEvent(c.Request().Context(), booking.DeleteEventRequest{
		EventID:      c.Param("id"),
		Category:     hint,
		Reason:       c.QueryParam("reason"),
		PurgeTickets: purge,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// GetEventSales keeps answering for deleted events, since the read model
// outlives them.
func (h handler) GetEventSales(c echo.Context) error {
	ctx := c.Request().Context()
	eventID := c.Param("id")

	sales, err := h.sales.Get(ctx, eventID)
	if err == nil {
		return c.JSON(http.StatusOK, sales)
	}
	if !booking.IsNotFound(err) {
		return respondError(c, err)
	}

	// nothing projected yet
	if _, err := booking.Locate(ctx, h.events, eventID, ""); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, entity.EventSales{EventID: eventID, Revenue: decimal.Zero})
}
