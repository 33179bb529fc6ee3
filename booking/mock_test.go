package booking_test

import (
	"context"
	"errors"
	"sync"

	"cursedticket/entity"
)

type storeError struct {
	notFound         bool
	seatTaken        bool
	notEnoughTickets bool
	forbidden        bool
	alreadyCancelled bool
	contended        bool
}

func (e storeError) Error() string          { return "store error" }
func (e storeError) NotFound() bool         { return e.notFound }
func (e storeError) SeatTaken() bool        { return e.seatTaken }
func (e storeError) NotEnoughTickets() bool { return e.notEnoughTickets }
func (e storeError) Forbidden() bool        { return e.forbidden }
func (e storeError) AlreadyCancelled() bool { return e.alreadyCancelled }
func (e storeError) Contended() bool        { return e.contended }

type callLog struct {
	lock  sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) Calls() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string(nil), l.calls...)
}

type MockEventRepo struct {
	lock      sync.Mutex
	events    map[entity.Category]map[string]entity.Event
	Probed    []entity.Category
	Deleted   []string
	DeleteErr error
	log       *callLog
}

func NewMockEventRepo(log *callLog, events ...entity.Event) *MockEventRepo {
	r := &MockEventRepo{
		events: make(map[entity.Category]map[string]entity.Event),
		log:    log,
	}
	for _, e := range events {
		r.Put(e)
	}
	return r
}

func (r *MockEventRepo) Put(e entity.Event) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.events[e.Category] == nil {
		r.events[e.Category] = make(map[string]entity.Event)
	}
	r.events[e.Category][e.ID] = e
}

func (r *MockEventRepo) FindByID(_ context.Context, category entity.Category, eventID string) (entity.Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.Probed = append(r.Probed, category)
	e, ok := r.events[category][eventID]
	if !ok {
		return entity.Event{}, storeError{notFound: true}
	}
	return e, nil
}

func (r *MockEventRepo) Delete(_ context.Context, eventID string) error {
	r.log.add("delete_event")

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	for _, events := range r.events {
		delete(events, eventID)
	}
	r.Deleted = append(r.Deleted, eventID)
	return nil
}

type MockTicketStore struct {
	lock      sync.Mutex
	tickets   []entity.Ticket
	AddErr    error
	CancelErr error
	Batches   []entity.TicketBatch
	log       *callLog
}

func NewMockTicketStore(log *callLog, tickets ...entity.Ticket) *MockTicketStore {
	return &MockTicketStore{tickets: tickets, log: log}
}

func (s *MockTicketStore) Tickets() []entity.Ticket {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]entity.Ticket(nil), s.tickets...)
}

func (s *MockTicketStore) BookedSeats(_ context.Context, eventID string, labels []string) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wanted := make(map[string]bool, len(labels))
	for _, l := range labels {
		wanted[l] = true
	}

	var booked []string
	for _, t := range s.tickets {
		if t.EventID == eventID && t.Status == entity.TicketStatusActive && wanted[t.Seat.Label] {
			booked = append(booked, t.Seat.Label)
		}
	}
	return booked, nil
}

func (s *MockTicketStore) AddBatch(_ context.Context, batch entity.TicketBatch) error {
	s.log.add("add_batch")

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.AddErr != nil {
		return s.AddErr
	}
	s.Batches = append(s.Batches, batch)
	s.tickets = append(s.tickets, batch.Tickets...)
	return nil
}

func (s *MockTicketStore) Cancel(_ context.Context, c entity.TicketCancellation) (entity.Ticket, entity.Refund, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.CancelErr != nil {
		return entity.Ticket{}, entity.Refund{}, s.CancelErr
	}

	for i, t := range s.tickets {
		if t.ID != c.TicketID {
			continue
		}
		if t.UserID != c.UserID {
			return entity.Ticket{}, entity.Refund{}, storeError{forbidden: true}
		}
		if t.Status == entity.TicketStatusCancelled {
			return entity.Ticket{}, entity.Refund{}, storeError{alreadyCancelled: true}
		}

		at := c.At
		t.Status = entity.TicketStatusCancelled
		t.CancelledAt = &at
		t.CancellationReason = c.Reason
		s.tickets[i] = t

		return t, entity.Refund{TicketID: t.ID, EventID: t.EventID, UserID: t.UserID, Amount: t.Price, Reason: c.Reason, CreatedAt: at}, nil
	}

	return entity.Ticket{}, entity.Refund{}, storeError{notFound: true}
}

func (s *MockTicketStore) CancelByEvent(_ context.Context, c entity.EventCancellation) ([]entity.Refund, error) {
	s.log.add("cancel_by_event")

	s.lock.Lock()
	defer s.lock.Unlock()

	var refunds []entity.Refund
	for i, t := range s.tickets {
		if t.EventID != c.Event.ID || t.Status != entity.TicketStatusActive {
			continue
		}

		at := c.At
		t.Status = entity.TicketStatusCancelled
		t.CancelledAt = &at
		t.CancellationReason = c.Reason
		s.tickets[i] = t

		refunds = append(refunds, entity.Refund{
			TicketID:     t.ID,
			TicketNumber: t.Number,
			EventID:      t.EventID,
			UserID:       t.UserID,
			Amount:       c.Policy.Amount(c.Event, t),
			Reason:       c.Reason,
			CreatedAt:    at,
		})
	}
	return refunds, nil
}

func (s *MockTicketStore) DeleteByEvent(_ context.Context, eventID string) (int64, error) {
	s.log.add("delete_by_event")

	s.lock.Lock()
	defer s.lock.Unlock()

	kept := s.tickets[:0]
	var n int64
	for _, t := range s.tickets {
		if t.EventID == eventID {
			n++
			continue
		}
		kept = append(kept, t)
	}
	s.tickets = kept
	return n, nil
}

var errDatabaseDown = errors.New("database down")
