package http

import (
	"context"
	"sync"

	"cursedticket/booking"
	"cursedticket/entity"
	"cursedticket/idempotency"
)

type notFound struct{}

func (notFound) Error() string  { return "not found" }
func (notFound) NotFound() bool { return true }

type mockReconciler struct {
	lock      sync.Mutex
	purchases []booking.PurchaseRequest
	result    booking.PurchaseResult
	err       error
	deletes   []booking.DeleteEventRequest
}

func (m *mockReconciler) Purchase(_ context.Context, req booking.PurchaseRequest) (booking.PurchaseResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.purchases = append(m.purchases, req)
	if m.err != nil {
		return booking.PurchaseResult{}, m.err
	}
	return m.result, nil
}

func (m *mockReconciler) DeleteEvent(_ context.Context, req booking.DeleteEventRequest) (booking.DeleteEventResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.deletes = append(m.deletes, req)
	if m.err != nil {
		return booking.DeleteEventResult{}, m.err
	}
	return booking.DeleteEventResult{EventID: req.EventID}, nil
}

func (m *mockReconciler) CancelTicket(_ context.Context, ticketID, userID, reason string) (entity.Ticket, entity.Refund, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.err != nil {
		return entity.Ticket{}, entity.Refund{}, m.err
	}
	return entity.Ticket{ID: ticketID, UserID: userID, Status: entity.TicketStatusCancelled, CancellationReason: reason},
		entity.Refund{TicketID: ticketID, UserID: userID, Reason: reason},
		nil
}

func (m *mockReconciler) Purchases() []booking.PurchaseRequest {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]booking.PurchaseRequest(nil), m.purchases...)
}

type mockEventRepo struct {
	lock   sync.Mutex
	events map[string]entity.Event
}

func newMockEventRepo(events ...entity.Event) *mockEventRepo {
	r := &mockEventRepo{events: make(map[string]entity.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *mockEventRepo) FindByID(_ context.Context, category entity.Category, eventID string) (entity.Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	e, ok := r.events[eventID]
	if !ok || e.Category != category {
		return entity.Event{}, notFound{}
	}
	return e, nil
}

func (r *mockEventRepo) List(_ context.Context, filter entity.EventFilter) ([]entity.Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var events []entity.Event
	for _, e := range r.events {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.OrganizerID != "" && e.OrganizerID != filter.OrganizerID {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *mockEventRepo) Add(_ context.Context, e entity.Event) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.events[e.ID] = e
	return nil
}

func (r *mockEventRepo) Update(_ context.Context, category entity.Category, eventID string, upd entity.EventUpdate) (entity.Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	e, ok := r.events[eventID]
	if !ok || e.Category != category {
		return entity.Event{}, notFound{}
	}

	updated, err := upd.Apply(e)
	if err != nil {
		return entity.Event{}, err
	}
	r.events[eventID] = updated
	return updated, nil
}

type mockTicketRepo struct {
	tickets []entity.Ticket
}

func (r mockTicketRepo) ListByUser(_ context.Context, userID string) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	for _, t := range r.tickets {
		if t.UserID == userID {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (r mockTicketRepo) GetByNumber(_ context.Context, number string) (entity.Ticket, error) {
	for _, t := range r.tickets {
		if t.Number == number {
			return t, nil
		}
	}
	return entity.Ticket{}, notFound{}
}

type mockRefundRepo struct {
	refunds []entity.Refund
}

func (r mockRefundRepo) List(_ context.Context, eventID string) ([]entity.Refund, error) {
	var refunds []entity.Refund
	for _, refund := range r.refunds {
		if eventID == "" || refund.EventID == eventID {
			refunds = append(refunds, refund)
		}
	}
	return refunds, nil
}

type mockSalesRepo struct {
	sales map[string]entity.EventSales
}

func (r mockSalesRepo) Get(_ context.Context, eventID string) (entity.EventSales, error) {
	s, ok := r.sales[eventID]
	if !ok {
		return entity.EventSales{}, notFound{}
	}
	return s, nil
}

type mockIdempotencyStore struct {
	lock    sync.Mutex
	entries map[string]*idempotency.Response
	saveErr error
}

func newMockIdempotencyStore() *mockIdempotencyStore {
	return &mockIdempotencyStore{entries: make(map[string]*idempotency.Response)}
}

func (s *mockIdempotencyStore) Claim(_ context.Context, scope, key string) (*idempotency.Response, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	resp, ok := s.entries[scope+key]
	if !ok {
		s.entries[scope+key] = nil
		return nil, nil
	}
	if resp == nil {
		return nil, idempotency.ErrInProgress
	}
	return resp, nil
}

func (s *mockIdempotencyStore) Save(_ context.Context, scope, key string, resp idempotency.Response) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries[scope+key] = &resp
	return nil
}

func (s *mockIdempotencyStore) Release(_ context.Context, scope, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.entries, scope+key)
	return nil
}
