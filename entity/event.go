package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMovie     Category = "movie"
	CategoryStagePlay Category = "stage_play"
	CategoryOrchestra Category = "orchestra"
)

// Categories is the probe order used when an event id arrives without a
// category hint. The first category holding the id wins.
var Categories = []Category{CategoryMovie, CategoryStagePlay, CategoryOrchestra}

func ParseCategory(s string) (Category, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch Category(normalized) {
	case CategoryMovie, "movies":
		return CategoryMovie, nil
	case CategoryStagePlay, "stageplay", "stage_plays":
		return CategoryStagePlay, nil
	case CategoryOrchestra, "orchestras":
		return CategoryOrchestra, nil
	}

	return "", ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", s)}
}

// EventFilter narrows event listings. Zero values match everything.
type EventFilter struct {
	Category     Category
	OrganizerID  string
	UpcomingOnly bool
}

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusEnded     EventStatus = "ended"
	EventStatusCancelled EventStatus = "cancelled"
)

const ongoingWindow = 24 * time.Hour

type Venue struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Capacity int    `json:"capacity"`
}

type Pricing struct {
	Base    decimal.NullDecimal `json:"base"`
	VIP     decimal.NullDecimal `json:"vip"`
	Student decimal.NullDecimal `json:"student"`
	Senior  decimal.NullDecimal `json:"senior"`
}

// Price returns the configured price for the tier. Regular maps to the base
// price.
func (p Pricing) Price(tier Tier) decimal.NullDecimal {
	switch tier {
	case TierVIP:
		return p.VIP
	case TierStudent:
		return p.Student
	case TierSenior:
		return p.Senior
	default:
		return p.Base
	}
}

type Event struct {
	ID               string      `json:"event_id"`
	Name             string      `json:"name"`
	Category         Category    `json:"category"`
	Date             time.Time   `json:"date"`
	EndDate          *time.Time  `json:"end_date,omitempty"`
	Venue            Venue       `json:"venue"`
	Pricing          Pricing     `json:"pricing"`
	TotalTickets     int         `json:"total_tickets"`
	AvailableTickets int         `json:"available_tickets"`
	OrganizerID      string      `json:"organizer_id"`
	Status           EventStatus `json:"status"`
	Details          Details     `json:"details"`
}

// StatusAt derives the lifecycle status at the given instant. A cancelled
// event stays cancelled.
func (e Event) StatusAt(now time.Time) EventStatus {
	if e.Status == EventStatusCancelled {
		return EventStatusCancelled
	}

	end := e.Date
	if e.EndDate != nil {
		end = *e.EndDate
	}

	switch {
	case now.After(end):
		return EventStatusEnded
	case !now.Before(e.Date.Add(-ongoingWindow)):
		return EventStatusOngoing
	default:
		return EventStatusUpcoming
	}
}

func (e Event) OnSaleAt(now time.Time) bool {
	status := e.StatusAt(now)
	return status == EventStatusUpcoming || status == EventStatusOngoing
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if _, err := ParseCategory(string(e.Category)); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ValidationError{Field: "date", Reason: "must be set"}
	}
	if e.EndDate != nil && e.EndDate.Before(e.Date) {
		return ValidationError{Field: "end_date", Reason: "must not be before date"}
	}
	if strings.TrimSpace(e.OrganizerID) == "" {
		return ValidationError{Field: "organizer_id", Reason: "must not be empty"}
	}
	if e.TotalTickets < 0 {
		return ValidationError{Field: "total_tickets", Reason: "must not be negative"}
	}
	if e.AvailableTickets < 0 || e.AvailableTickets > e.TotalTickets {
		return ValidationError{Field: "available_tickets", Reason: "must be between 0 and total_tickets"}
	}
	if e.Venue.Capacity < 0 {
		return ValidationError{Field: "venue.capacity", Reason: "must not be negative"}
	}

	prices := map[string]decimal.NullDecimal{
		"pricing.base":    e.Pricing.Base,
		"pricing.vip":     e.Pricing.VIP,
		"pricing.student": e.Pricing.Student,
		"pricing.senior":  e.Pricing.Senior,
	}
	for field, price := range prices {
		if price.Valid && price.Decimal.IsNegative() {
			return ValidationError{Field: field, Reason: "must not be negative"}
		}
	}

	return e.Details.Validate(e.Category)
}

type MovieDetails struct {
	Director        string   `json:"director"`
	DurationMinutes int      `json:"duration_minutes"`
	Genre           string   `json:"genre"`
	Rating          string   `json:"rating"`
	Cast            []string `json:"cast,omitempty"`
}

type StagePlayDetails struct {
	Playwright      string   `json:"playwright"`
	Director        string   `json:"director"`
	DurationMinutes int      `json:"duration_minutes"`
	Cast            []string `json:"cast,omitempty"`
}

type OrchestraDetails struct {
	Conductor string   `json:"conductor"`
	Program   []string `json:"program,omitempty"`
	Soloists  []string `json:"soloists,omitempty"`
}

// Details carries the category specific payload. At most one member is set
// and it must match the event category.
type Details struct {
	Movie     *MovieDetails     `json:"movie,omitempty"`
	StagePlay *StagePlayDetails `json:"stage_play,omitempty"`
	Orchestra *OrchestraDetails `json:"orchestra,omitempty"`
}

func (d Details) Validate(category Category) error {
	set := map[Category]bool{
		CategoryMovie:     d.Movie != nil,
		CategoryStagePlay: d.StagePlay != nil,
		CategoryOrchestra: d.Orchestra != nil,
	}
	for c, ok := range set {
		if ok && c != category {
			return ValidationError{Field: "details", Reason: fmt.Sprintf("%s details given for a %s event", c, category)}
		}
	}

	if d.Movie != nil && d.Movie.DurationMinutes < 0 {
		return ValidationError{Field: "details.movie.duration_minutes", Reason: "must not be negative"}
	}
	if d.StagePlay != nil && d.StagePlay.DurationMinutes < 0 {
		return ValidationError{Field: "details.stage_play.duration_minutes", Reason: "must not be negative"}
	}

	return nil
}

func (d Details) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshalling event details: %w", err)
	}
	// lib/pq sends []byte as bytea, which JSONB rejects.
	return string(b), nil
}

func (d *Details) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*d = Details{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported event details type %T", src)
	}

	if err := json.Unmarshal(b, d); err != nil {
		return fmt.Errorf("unmarshalling event details: %w", err)
	}
	return nil
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
