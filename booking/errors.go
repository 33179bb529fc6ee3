package booking

import (
	"errors"
	"fmt"

	"cursedticket/entity"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventNotOnSale     = errors.New("event is not on sale")
	ErrInvalidQuantity    = errors.New("quantity must be a positive whole number")
	ErrInvalidSeats       = errors.New("invalid seat selection")
	ErrPricingUnavailable = errors.New("pricing is unavailable for this event")
	ErrSeatConflict       = errors.New("requested seats are already booked")
	ErrSoldOut            = errors.New("not enough tickets left")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTicketNotOwned     = errors.New("ticket belongs to another user")
	ErrAlreadyCancelled   = errors.New("ticket is already cancelled")
	ErrConcurrentUpdate   = errors.New("too many concurrent updates, try again")
)

// PersistenceError is returned when the ticket store fails to write a batch.
// Batches are atomic, so Issued is always zero.
type PersistenceError struct {
	Requested int
	Issued    int
	Err       error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("%d of %d requested tickets issued: %s", e.Issued, e.Requested, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

// Kind names the error for clients and metrics.
func Kind(err error) string {
	var persistenceErr PersistenceError
	var validationErr entity.ValidationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return "validation"
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrTicketNotFound):
		return "not_found"
	case errors.Is(err, ErrEventNotOnSale):
		return "not_on_sale"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidSeats):
		return "invalid_seats"
	case errors.Is(err, ErrPricingUnavailable):
		return "pricing_unavailable"
	case errors.Is(err, ErrSeatConflict):
		return "seat_conflict"
	case errors.Is(err, ErrSoldOut):
		return "sold_out"
	case errors.Is(err, ErrTicketNotOwned):
		return "forbidden"
	case errors.Is(err, ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, ErrConcurrentUpdate), isContended(err):
		return "conflict"
	case errors.As(err, &persistenceErr):
		return "persistence_failure"
	default:
		return "internal"
	}
}

// Storage errors describe themselves through these methods so the store does
// not need to import this package.

// IsNotFound reports whether a storage error means the record does not exist.
func IsNotFound(err error) bool {
	var e interface{ NotFound() bool }
	return errors.As(err, &e) && e.NotFound()
}

func isSeatTaken(err error) bool {
	var e interface{ SeatTaken() bool }
	return errors.As(err, &e) && e.SeatTaken()
}

func isNotEnoughTickets(err error) bool {
	var e interface{ NotEnoughTickets() bool }
	return errors.As(err, &e) && e.NotEnoughTickets()
}

func isForbidden(err error) bool {
	var e interface{ Forbidden() bool }
	return errors.As(err, &e) && e.Forbidden()
}

func isAlreadyCancelled(err error) bool {
	var e interface{ AlreadyCancelled() bool }
	return errors.As(err, &e) && e.AlreadyCancelled()
}

func isContended(err error) bool {
	var e interface{ Contended() bool }
	return errors.As(err, &e) && e.Contended()
}
