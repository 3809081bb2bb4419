package booking

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/queue"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/repository"
)

// memStore is an in-memory stand-in for the SQL repositories.  Its
// WithTx serialises transactions with a mutex the way InnoDB row
// locks serialise them in production, and restores a snapshot when
// the transaction function fails, so rollback semantics hold.
type memStore struct {
	mu         sync.Mutex
	seats      map[uint64]model.Seat
	flights    map[uint64]model.Flight
	nextTicket uint64
	tickets    []model.Ticket
	passengers []model.Passenger
	addons     []model.TicketAddon
	roundTrips []model.RoundTripBooking

	// failTicketAt makes the Nth CreateTx call fail (1-based, 0 = never).
	failTicketAt int
	ticketCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		seats:   make(map[uint64]model.Seat),
		flights: make(map[uint64]model.Flight),
	}
}

func (m *memStore) addFlight(f model.Flight) { m.flights[f.ID] = f }

func (m *memStore) addSeat(s model.Seat) { m.seats[s.ID] = s }

func (m *memStore) seat(id uint64) model.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seats[id]
}

type memSnapshot struct {
	seats       map[uint64]model.Seat
	nextTicket  uint64
	tickets     []model.Ticket
	passengers  []model.Passenger
	addons      []model.TicketAddon
	roundTrips  []model.RoundTripBooking
	ticketCalls int
}

func (m *memStore) snapshotLocked() memSnapshot {
	seats := make(map[uint64]model.Seat, len(m.seats))
	for id, s := range m.seats {
		seats[id] = s
	}
	return memSnapshot{
		seats:       seats,
		nextTicket:  m.nextTicket,
		tickets:     append([]model.Ticket(nil), m.tickets...),
		passengers:  append([]model.Passenger(nil), m.passengers...),
		addons:      append([]model.TicketAddon(nil), m.addons...),
		roundTrips:  append([]model.RoundTripBooking(nil), m.roundTrips...),
		ticketCalls: m.ticketCalls,
	}
}

func (m *memStore) restoreLocked(snap memSnapshot) {
	m.seats = snap.seats
	m.nextTicket = snap.nextTicket
	m.tickets = snap.tickets
	m.passengers = snap.passengers
	m.addons = snap.addons
	m.roundTrips = snap.roundTrips
	m.ticketCalls = snap.ticketCalls
}

// WithTx implements TxRunner.
func (m *memStore) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshotLocked()
	if err := fn(nil); err != nil {
		m.restoreLocked(snap)
		return err
	}
	return nil
}

// SeatStore.

func (m *memStore) FindByIDs(ctx context.Context, flightID uint64, seatIDs []uint64) ([]model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectSeats(flightID, seatIDs), nil
}

func (m *memStore) FindForUpdateTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatIDs []uint64) ([]model.Seat, error) {
	return m.selectSeats(flightID, seatIDs), nil
}

func (m *memStore) selectSeats(flightID uint64, seatIDs []uint64) []model.Seat {
	var out []model.Seat
	for _, id := range seatIDs {
		if s, ok := m.seats[id]; ok && s.FlightID == flightID {
			out = append(out, s)
		}
	}
	return out
}

func (m *memStore) UpdateHoldTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, userID uint64, expiresAt time.Time) error {
	for _, id := range seatIDs {
		s := m.seats[id]
		exp := expiresAt
		uid := userID
		s.HoldExpiresAt = &exp
		s.HoldUserID = &uid
		m.seats[id] = s
	}
	return nil
}

func (m *memStore) ClearHoldTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, requireUserID uint64) (int64, error) {
	var n int64
	for _, id := range seatIDs {
		s, ok := m.seats[id]
		if !ok || s.IsBooked {
			continue
		}
		if requireUserID != 0 {
			if s.HoldUserID == nil || *s.HoldUserID != requireUserID {
				continue
			}
		}
		s.HoldExpiresAt = nil
		s.HoldUserID = nil
		m.seats[id] = s
		n++
	}
	return n, nil
}

func (m *memStore) MarkBookedTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) error {
	for _, id := range seatIDs {
		s := m.seats[id]
		s.IsBooked = true
		s.HoldExpiresAt = nil
		s.HoldUserID = nil
		m.seats[id] = s
	}
	return nil
}

// FlightStore.

func (m *memStore) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error) {
	f, ok := m.flights[id]
	if !ok {
		return nil, repository.ErrFlightNotFound
	}
	return &f, nil
}

// TicketStore.

func (m *memStore) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	m.ticketCalls++
	if m.failTicketAt > 0 && m.ticketCalls == m.failTicketAt {
		return fmt.Errorf("ticket insert failed")
	}
	m.nextTicket++
	t.ID = m.nextTicket
	m.tickets = append(m.tickets, *t)
	return nil
}

func (m *memStore) CreatePassengerTx(ctx context.Context, tx *sql.Tx, p *model.Passenger) error {
	m.passengers = append(m.passengers, *p)
	return nil
}

func (m *memStore) CreateAddonsBulkTx(ctx context.Context, tx *sql.Tx, addons []model.TicketAddon) error {
	m.addons = append(m.addons, addons...)
	return nil
}

func (m *memStore) CreateRoundTripTx(ctx context.Context, tx *sql.Tx, rt *model.RoundTripBooking) error {
	m.roundTrips = append(m.roundTrips, *rt)
	return nil
}

// manualClock is a settable Clock for expiry tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(t time.Time) *manualClock { return &manualClock{now: t} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier captures confirmation events and can be made to
// fail to verify that notification errors never break a commit.
type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
	err    error
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}
