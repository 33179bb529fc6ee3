package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "active"
	TicketStatusCancelled TicketStatus = "cancelled"
)

type Tier string

const (
	TierRegular Tier = "regular"
	TierStudent Tier = "student"
	TierSenior  Tier = "senior"
	TierVIP     Tier = "vip"
)

const GeneralSection = "General"

type Seat struct {
	Section string `json:"section"`
	Row     string `json:"row,omitempty"`
	Number  string `json:"number,omitempty"`
	Label   string `json:"label,omitempty"`
}

func GeneralAdmission() Seat {
	return Seat{Section: GeneralSection}
}

// SeatFromLabel splits a label such as "A12" into row "A" and number "12".
func SeatFromLabel(label string) Seat {
	i := strings.IndexFunc(label, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return Seat{Section: GeneralSection, Row: label, Label: label}
	}

	return Seat{
		Section: GeneralSection,
		Row:     label[:i],
		Number:  label[i:],
		Label:   label,
	}
}

// Snapshot is the event as it looked when the ticket was bought. Later event
// edits do not reach it.
type Snapshot struct {
	EventName   string    `json:"event_name"`
	EventDate   time.Time `json:"event_date"`
	VenueName   string    `json:"venue_name"`
	OrganizerID string    `json:"organizer_id"`
}

func SnapshotOf(e Event) Snapshot {
	return Snapshot{
		EventName:   e.Name,
		EventDate:   e.Date,
		VenueName:   e.Venue.Name,
		OrganizerID: e.OrganizerID,
	}
}

type Ticket struct {
	ID                 string          `json:"ticket_id"`
	Number             string          `json:"ticket_number"`
	EventID            string          `json:"event_id"`
	EventCategory      Category        `json:"event_category"`
	UserID             string          `json:"user_id"`
	Price              decimal.Decimal `json:"price"`
	Tier               Tier            `json:"tier"`
	Snapshot           Snapshot        `json:"snapshot"`
	Seat               Seat            `json:"seat"`
	Status             TicketStatus    `json:"status"`
	PurchasedAt        time.Time       `json:"purchased_at"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
}

// TicketBatch is persisted all or nothing.
type TicketBatch struct {
	EventID string
	Tickets []Ticket
	// ReserveCapacity takes len(Tickets) off the event's available counter in
	// the same transaction, failing when not enough are left.
	ReserveCapacity bool
}
