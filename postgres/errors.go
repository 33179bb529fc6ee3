package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	seatIndex            = "tickets_event_seat_active"
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

type notFoundError struct {
	what string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.what, e.id)
}

func (e notFoundError) NotFound() bool {
	return true
}

type notEnoughTicketsError struct {
	ticketsAvailable int
	ticketsRequested int
}

func (e notEnoughTicketsError) Error() string {
	return fmt.Sprintf("not enough tickets: tickets available %d, tickets requested %d", e.ticketsAvailable, e.ticketsRequested)
}

func (e notEnoughTicketsError) NotEnoughTickets() bool {
	return true
}

type seatTakenError struct {
	err error
}

func (e seatTakenError) Error() string {
	return fmt.Sprintf("seat already taken: %s", e.err)
}

func (e seatTakenError) Unwrap() error {
	return e.err
}

func (e seatTakenError) SeatTaken() bool {
	return true
}

type forbiddenError struct {
	ticketID string
}

func (e forbiddenError) Error() string {
	return fmt.Sprintf("ticket %s belongs to another user", e.ticketID)
}

func (e forbiddenError) Forbidden() bool {
	return true
}

type alreadyCancelledError struct {
	ticketID string
}

func (e alreadyCancelledError) Error() string {
	return fmt.Sprintf("ticket %s is already cancelled", e.ticketID)
}

func (e alreadyCancelledError) AlreadyCancelled() bool {
	return true
}

// contendedError means the transaction kept losing against concurrent
// writers. Trying again later may succeed.
type contendedError struct {
	err error
}

func (e contendedError) Error() string {
	return fmt.Sprintf("too much concurrent activity: %s", e.err)
}

func (e contendedError) Unwrap() error {
	return e.err
}

func (e contendedError) Contended() bool {
	return true
}

func isSeatIndexViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == seatIndex
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == serializationFailure || pqErr.Code == deadlockDetected
}
