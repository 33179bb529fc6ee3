package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventUpdate lists every field an organizer may change on an existing event.
// Nil pointers are left untouched.
type EventUpdate struct {
	Name         *string        `json:"name,omitempty"`
	Date         *time.Time     `json:"date,omitempty"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	Venue        *VenueUpdate   `json:"venue,omitempty"`
	Pricing      *PricingUpdate `json:"pricing,omitempty"`
	TotalTickets *int           `json:"total_tickets,omitempty"`
	Cancelled    *bool          `json:"cancelled,omitempty"`

	Movie     *MovieUpdate     `json:"movie,omitempty"`
	StagePlay *StagePlayUpdate `json:"stage_play,omitempty"`
	Orchestra *OrchestraUpdate `json:"orchestra,omitempty"`
}

type VenueUpdate struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	City     *string `json:"city,omitempty"`
	Capacity *int    `json:"capacity,omitempty"`
}

type PricingUpdate struct {
	Base    *decimal.Decimal `json:"base,omitempty"`
	VIP     *decimal.Decimal `json:"vip,omitempty"`
	Student *decimal.Decimal `json:"student,omitempty"`
	Senior  *decimal.Decimal `json:"senior,omitempty"`
	// Clear removes optional tier prices. The base price cannot be cleared.
	Clear []Tier `json:"clear,omitempty"`
}

type MovieUpdate struct {
	Director        *string   `json:"director,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	Genre           *string   `json:"genre,omitempty"`
	Rating          *string   `json:"rating,omitempty"`
	Cast            *[]string `json:"cast,omitempty"`
}

type StagePlayUpdate struct {
	Playwright      *string   `json:"playwright,omitempty"`
	Director        *string   `json:"director,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	Cast            *[]string `json:"cast,omitempty"`
}

type OrchestraUpdate struct {
	Conductor *string   `json:"conductor,omitempty"`
	Program   *[]string `json:"program,omitempty"`
	Soloists  *[]string `json:"soloists,omitempty"`
}

// Apply returns a copy of the event with the update applied, or a
// ValidationError. Changing the ticket total shifts the available counter by
// the same delta.
func (u EventUpdate) Apply(e Event) (Event, error) {
	if err := u.checkCategory(e.Category); err != nil {
		return Event{}, err
	}

	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.EndDate != nil {
		end := *u.EndDate
		e.EndDate = &end
	}
	if u.Venue != nil {
		e.Venue = u.Venue.apply(e.Venue)
	}
	if u.Pricing != nil {
		pricing, err := u.Pricing.apply(e.Pricing)
		if err != nil {
			return Event{}, err
		}
		e.Pricing = pricing
	}
	if u.TotalTickets != nil {
		delta := *u.TotalTickets - e.TotalTickets
		if e.AvailableTickets+delta < 0 {
			return Event{}, ValidationError{Field: "total_tickets", Reason: "would drop below tickets already sold"}
		}
		e.TotalTickets = *u.TotalTickets
		e.AvailableTickets += delta
	}
	if u.Cancelled != nil {
		if *u.Cancelled {
			e.Status = EventStatusCancelled
		} else if e.Status == EventStatusCancelled {
			// re-derived on save
			e.Status = EventStatusUpcoming
		}
	}

	e.Details = u.applyDetails(e.Details)

	if err := e.Validate(); err != nil {
		return Event{}, err
	}

	return e, nil
}

func (u EventUpdate) checkCategory(category Category) error {
	if u.Movie != nil && category != CategoryMovie {
		return ValidationError{Field: "movie", Reason: "event is not a movie"}
	}
	if u.StagePlay != nil && category != CategoryStagePlay {
		return ValidationError{Field: "stage_play", Reason: "event is not a stage play"}
	}
	if u.Orchestra != nil && category != CategoryOrchestra {
		return ValidationError{Field: "orchestra", Reason: "event is not an orchestra concert"}
	}
	return nil
}

func (u VenueUpdate) apply(v Venue) Venue {
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Address != nil {
		v.Address = *u.Address
	}
	if u.City != nil {
		v.City = *u.City
	}
	if u.Capacity != nil {
		v.Capacity = *u.Capacity
	}
	return v
}

func (u PricingUpdate) apply(p Pricing) (Pricing, error) {
	set := func(price *decimal.Decimal, target *decimal.NullDecimal) {
		if price != nil {
			*target = decimal.NewNullDecimal(*price)
		}
	}
	set(u.Base, &p.Base)
	set(u.VIP, &p.VIP)
	set(u.Student, &p.Student)
	set(u.Senior, &p.Senior)

	for _, tier := range u.Clear {
		switch tier {
		case TierVIP:
			p.VIP = decimal.NullDecimal{}
		case TierStudent:
			p.Student = decimal.NullDecimal{}
		case TierSenior:
			p.Senior = decimal.NullDecimal{}
		default:
			return Pricing{}, ValidationError{Field: "pricing.clear", Reason: "only vip, student and senior prices can be cleared"}
		}
	}

	return p, nil
}

func (u EventUpdate) applyDetails(d Details) Details {
	if u.Movie != nil {
		m := MovieDetails{}
		if d.Movie != nil {
			m = *d.Movie
		}
		if u.Movie.Director != nil {
			m.Director = *u.Movie.Director
		}
		if u.Movie.DurationMinutes != nil {
			m.DurationMinutes = *u.Movie.DurationMinutes
		}
		if u.Movie.Genre != nil {
			m.Genre = *u.Movie.Genre
		}
		if u.Movie.Rating != nil {
			m.Rating = *u.Movie.Rating
		}
		if u.Movie.Cast != nil {
			m.Cast = *u.Movie.Cast
		}
		d.Movie = &m
	}

	if u.StagePlay != nil {
		s := StagePlayDetails{}
		if d.StagePlay != nil {
			s = *d.StagePlay
		}
		if u.StagePlay.Playwright != nil {
			s.Playwright = *u.StagePlay.Playwright
		}
		if u.StagePlay.Director != nil {
			s.Director = *u.StagePlay.Director
		}
		if u.StagePlay.DurationMinutes != nil {
			s.DurationMinutes = *u.StagePlay.DurationMinutes
		}
		if u.StagePlay.Cast != nil {
			s.Cast = *u.StagePlay.Cast
		}
		d.StagePlay = &s
	}

	if u.Orchestra != nil {
		o := OrchestraDetails{}
		if d.Orchestra != nil {
			o = *d.Orchestra
		}
		if u.Orchestra.Conductor != nil {
			o.Conductor = *u.Orchestra.Conductor
		}
		if u.Orchestra.Program != nil {
			o.Program = *u.Orchestra.Program
		}
		if u.Orchestra.Soloists != nil {
			o.Soloists = *u.Orchestra.Soloists
		}
		d.Orchestra = &o
	}

	return d
}
