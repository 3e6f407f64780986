// Package storetest is an in-memory implementation of every repository plus a
// transaction manager, for service tests that need real contention and
// rollback behaviour without Postgres.
//
// Transactions are serialized. Work outside a transaction takes the same lock
// per call, so every operation observes a consistent state the way a
// conditional UPDATE does against a real database.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"busline/internal/bookings"
	"busline/internal/locks"
	"busline/internal/payments"
	"busline/internal/seats"
	"busline/internal/shared/transaction"
	"busline/internal/trips"
)

type txKey struct{}

type tables struct {
	routes   map[uint]trips.Route
	buses    map[uint]trips.Bus
	trips    map[uint]trips.Trip
	seats    map[uint]seats.Seat
	bookings map[uint]bookings.Booking
	payments map[uint]bookings.Payment
	logs     []bookings.BookingLog
	locks    map[string]locks.JobLock
	nextID   map[string]uint
}

func newTables() tables {
	return tables{
		routes:   map[uint]trips.Route{},
		buses:    map[uint]trips.Bus{},
		trips:    map[uint]trips.Trip{},
		seats:    map[uint]seats.Seat{},
		bookings: map[uint]bookings.Booking{},
		payments: map[uint]bookings.Payment{},
		locks:    map[string]locks.JobLock{},
		nextID:   map[string]uint{},
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.routes {
		c.routes[k] = v
	}
	for k, v := range t.buses {
		c.buses[k] = v
	}
	for k, v := range t.trips {
		c.trips[k] = v
	}
	for k, v := range t.seats {
		c.seats[k] = v
	}
	for k, v := range t.bookings {
		c.bookings[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = v
	}
	c.logs = append([]bookings.BookingLog(nil), t.logs...)
	for k, v := range t.locks {
		c.locks[k] = v
	}
	for k, v := range t.nextID {
		c.nextID[k] = v
	}
	return c
}

// Store holds all tables. The zero value is not usable; call New.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data tables

	// Now stamps created_at/updated_at. Tests may replace it before use.
	Now func() time.Time

	// FailNext, when set, is returned by the next mutating call and cleared.
	FailNext error
}

func New() *Store {
	return &Store{data: newTables(), Now: time.Now}
}

// Do implements transaction.Manager with snapshot rollback.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	hookCtx, flush := transaction.WithCommitHooks(ctx)
	err := fn(context.WithValue(hookCtx, txKey{}, s))
	if err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}
	s.txMu.Unlock()

	if err != nil {
		return err
	}
	flush()
	return nil
}

var _ transaction.Manager = (*Store)(nil)

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock guards one repository call.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) injected() error {
	if err := s.FailNext; err != nil {
		s.FailNext = nil
		return err
	}
	return nil
}

func (s *Store) id(table string) uint {
	s.data.nextID[table]++
	return s.data.nextID[table]
}

//  REPOSITORY VIEWS

func (s *Store) Seats() seats.Repository       { return seatRepo{s} }
func (s *Store) Trips() trips.Repository       { return tripRepo{s} }
func (s *Store) Bookings() bookings.Repository { return bookingRepo{s} }
func (s *Store) Payments() payments.Repository { return paymentRepo{s} }
func (s *Store) Locks() locks.Repository       { return lockRepo{s} }

//  FIXTURES AND INSPECTION

// SeedTrip inserts a scheduled trip with capacity AVAILABLE seats numbered
// S1..Sn and returns the trip (with route and bus) and its seats.
func (s *Store) SeedTrip(price int64, capacity int, depart time.Time) (trips.Trip, []seats.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	route := trips.Route{ID: s.id("routes"), Origin: "Lagos", Destination: "Abuja", DistanceKm: 760, CreatedAt: now, UpdatedAt: now}
	s.data.routes[route.ID] = route
	bus := trips.Bus{ID: s.id("buses"), PlateNo: fmt.Sprintf("LAG-%03d", route.ID), BusType: "coach", Capacity: capacity, CreatedAt: now, UpdatedAt: now}
	s.data.buses[bus.ID] = bus

	trip := trips.Trip{
		ID:         s.id("trips"),
		RouteID:    route.ID,
		BusID:      bus.ID,
		Price:      price,
		DepartTime: depart,
		ArriveTime: depart.Add(8 * time.Hour),
		Status:     trips.StatusScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.data.trips[trip.ID] = trip

	built, err := seats.BuildTripSeats(trip.ID, capacity, 0)
	if err != nil {
		panic(err)
	}
	for i := range built {
		built[i].ID = s.id("seats")
		built[i].CreatedAt, built[i].UpdatedAt = now, now
		s.data.seats[built[i].ID] = built[i]
	}

	trip.Route, trip.Bus = &route, &bus
	return trip, built
}

// Seat returns the current row for id.
func (s *Store) Seat(id uint) seats.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.seats[id]
}

// PutSeat overwrites a seat row, for arranging expired holds.
func (s *Store) PutSeat(seat seats.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.seats[seat.ID] = seat
}

func (s *Store) Booking(id uint) (bookings.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data.bookings[id]
	return b, ok
}

func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.bookings)
}

func (s *Store) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.payments)
}

func (s *Store) Logs(bookingID uint) []bookings.BookingLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []bookings.BookingLog
	for _, l := range s.data.logs {
		if l.BookingID == bookingID {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) Lock(name string) (locks.JobLock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data.locks[name]
	return l, ok
}

func sortSeatsByPosition(list []seats.Seat) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].TripID != list[j].TripID {
			return list[i].TripID < list[j].TripID
		}
		return list[i].Position < list[j].Position
	})
}

func ptr[T any](v T) *T { return &v }
