package entity_test

import (
	"testing"
	"time"

	"cursedticket/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMovie(t *testing.T) entity.Event {
	t.Helper()

	return entity.Event{
		ID:               "0b4f3a52-9c55-4d0e-b1e8-8cc3a0b1f1a1",
		Name:             "Night of the Living Bugs",
		Category:         entity.CategoryMovie,
		Date:             time.Date(2026, 11, 1, 20, 0, 0, 0, time.UTC),
		Venue:            entity.Venue{Name: "Hall 1", City: "Oslo", Capacity: 120},
		Pricing:          entity.Pricing{Base: decimal.NewNullDecimal(decimal.NewFromInt(20))},
		TotalTickets:     100,
		AvailableTickets: 100,
		OrganizerID:      "organizer-1",
		Details:          entity.Details{Movie: &entity.MovieDetails{Director: "R. Romero", DurationMinutes: 96}},
	}
}

func TestEvent_StatusAt(t *testing.T) {
	e := newMovie(t)
	end := e.Date.Add(2 * time.Hour)

	testCases := []struct {
		name    string
		now     time.Time
		endDate *time.Time
		status  entity.EventStatus
		want    entity.EventStatus
	}{
		{name: "far before start", now: e.Date.Add(-72 * time.Hour), want: entity.EventStatusUpcoming},
		{name: "exactly 24h before start", now: e.Date.Add(-24 * time.Hour), want: entity.EventStatusOngoing},
		{name: "within 24h of start", now: e.Date.Add(-time.Hour), want: entity.EventStatusOngoing},
		{name: "date passed without end date", now: e.Date.Add(time.Minute), want: entity.EventStatusEnded},
		{name: "running with end date", now: e.Date.Add(time.Hour), endDate: &end, want: entity.EventStatusOngoing},
		{name: "after end date", now: end.Add(time.Second), endDate: &end, want: entity.EventStatusEnded},
		{name: "cancelled stays cancelled", now: e.Date.Add(-72 * time.Hour), status: entity.EventStatusCancelled, want: entity.EventStatusCancelled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev := e
			ev.EndDate = tc.endDate
			ev.Status = tc.status

			assert.Equal(t, tc.want, ev.StatusAt(tc.now))
		})
	}
}

func TestEvent_OnSaleAt(t *testing.T) {
	e := newMovie(t)

	assert.True(t, e.OnSaleAt(e.Date.Add(-48*time.Hour)))
	assert.False(t, e.OnSaleAt(e.Date.Add(time.Hour)))

	e.Status = entity.EventStatusCancelled
	assert.False(t, e.OnSaleAt(e.Date.Add(-48*time.Hour)))
}

func TestEvent_Validate(t *testing.T) {
	require.NoError(t, newMovie(t).Validate())

	testCases := []struct {
		name   string
		modify func(e *entity.Event)
		field  string
	}{
		{name: "empty name", modify: func(e *entity.Event) { e.Name = " " }, field: "name"},
		{name: "available above total", modify: func(e *entity.Event) { e.AvailableTickets = 101 }, field: "available_tickets"},
		{name: "negative available", modify: func(e *entity.Event) { e.AvailableTickets = -1 }, field: "available_tickets"},
		{name: "negative vip price", modify: func(e *entity.Event) {
			e.Pricing.VIP = decimal.NewNullDecimal(decimal.NewFromInt(-5))
		}, field: "pricing.vip"},
		{name: "details of another category", modify: func(e *entity.Event) {
			e.Details = entity.Details{Orchestra: &entity.OrchestraDetails{Conductor: "K. Petrenko"}}
		}, field: "details"},
		{name: "end before start", modify: func(e *entity.Event) {
			end := e.Date.Add(-time.Hour)
			e.EndDate = &end
		}, field: "end_date"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newMovie(t)
			tc.modify(&e)

			var validationErr entity.ValidationError
			require.ErrorAs(t, e.Validate(), &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestParseCategory(t *testing.T) {
	for input, want := range map[string]entity.Category{
		"movie":      entity.CategoryMovie,
		"Movies":     entity.CategoryMovie,
		"stage-play": entity.CategoryStagePlay,
		"stage_play": entity.CategoryStagePlay,
		"orchestra":  entity.CategoryOrchestra,
	} {
		got, err := entity.ParseCategory(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := entity.ParseCategory("opera")
	assert.Error(t, err)
}

func TestDetails_ScanValue(t *testing.T) {
	d := entity.Details{StagePlay: &entity.StagePlayDetails{Playwright: "Ibsen", Cast: []string{"Nora"}}}

	v, err := d.Value()
	require.NoError(t, err)

	var scanned entity.Details
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, d, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Equal(t, entity.Details{}, scanned)
}

func TestSeatFromLabel(t *testing.T) {
	assert.Equal(t, entity.Seat{Section: "General", Row: "A", Number: "12", Label: "A12"}, entity.SeatFromLabel("A12"))
	assert.Equal(t, entity.Seat{Section: "General", Row: "BOX", Label: "BOX"}, entity.SeatFromLabel("BOX"))
	assert.Equal(t, entity.Seat{Section: "General"}, entity.GeneralAdmission())
}

func TestRefundPolicy_Amount(t *testing.T) {
	e := newMovie(t)
	ticket := entity.Ticket{Price: decimal.NewFromInt(35)}

	assert.True(t, decimal.NewFromInt(20).Equal(entity.RefundBasePrice.Amount(e, ticket)))
	assert.True(t, decimal.NewFromInt(35).Equal(entity.RefundPaidPrice.Amount(e, ticket)))

	e.Pricing.Base = decimal.NullDecimal{}
	assert.True(t, decimal.NewFromInt(35).Equal(entity.RefundBasePrice.Amount(e, ticket)))

	_, err := entity.ParseRefundPolicy("half")
	assert.Error(t, err)
}
