package storetest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"busline/internal/seats"
	"busline/internal/trips"

	"gorm.io/gorm"
)

type seatRepo struct{ s *Store }

func (r seatRepo) CreateSeats(ctx context.Context, list []seats.Seat) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}

	taken := map[string]bool{}
	for _, seat := range r.s.data.seats {
		taken[fmt.Sprintf("%d/%s", seat.TripID, seat.SeatNumber)] = true
	}
	now := r.s.Now()
	for i := range list {
		key := fmt.Sprintf("%d/%s", list[i].TripID, list[i].SeatNumber)
		if taken[key] {
			return fmt.Errorf("duplicate seat %s", key)
		}
		taken[key] = true
		list[i].ID = r.s.id("seats")
		list[i].CreatedAt, list[i].UpdatedAt = now, now
		r.s.data.seats[list[i].ID] = list[i]
	}
	return nil
}

func (r seatRepo) FindByIDs(ctx context.Context, tripID uint, ids []uint) ([]seats.Seat, error) {
	defer r.s.lock(ctx)()
	var out []seats.Seat
	for _, id := range ids {
		if seat, ok := r.s.data.seats[id]; ok && seat.TripID == tripID {
			out = append(out, seat)
		}
	}
	sortSeatsByPosition(out)
	return out, nil
}

func (r seatRepo) FindByIDsAnyTrip(ctx context.Context, ids []uint) ([]seats.Seat, error) {
	defer r.s.lock(ctx)()
	var out []seats.Seat
	for _, id := range ids {
		if seat, ok := r.s.data.seats[id]; ok {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r seatRepo) FindAvailable(ctx context.Context, tripID uint, limit int) ([]seats.Seat, error) {
	defer r.s.lock(ctx)()
	out := r.where(func(seat seats.Seat) bool {
		return seat.TripID == tripID && seat.Status == seats.StatusAvailable
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r seatRepo) CountAvailable(ctx context.Context, tripID uint) (int64, error) {
	list, err := r.FindAvailable(ctx, tripID, 0)
	return int64(len(list)), err
}

func (r seatRepo) FindByOwner(ctx context.Context, bookingID uint, holdToken string) ([]seats.Seat, error) {
	defer r.s.lock(ctx)()
	return r.where(func(seat seats.Seat) bool {
		return (seat.BookingID != nil && *seat.BookingID == bookingID) ||
			(seat.HoldToken != nil && *seat.HoldToken == holdToken)
	}), nil
}

func (r seatRepo) FindExpiredHolds(ctx context.Context, holdCutoff time.Time) ([]seats.Seat, error) {
	defer r.s.lock(ctx)()
	return r.where(func(seat seats.Seat) bool {
		return seat.Status == seats.StatusReserved && seat.ReservedAt != nil && seat.ReservedAt.Before(holdCutoff)
	}), nil
}

func (r seatRepo) ReserveSeats(ctx context.Context, tripID uint, ids []uint, holdToken string, now, holdCutoff time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	return r.update(ids, func(seat seats.Seat) bool {
		if seat.TripID != tripID {
			return false
		}
		return seat.Status == seats.StatusAvailable ||
			(seat.Status == seats.StatusReserved && seat.ReservedAt != nil && seat.ReservedAt.Before(holdCutoff))
	}, func(seat *seats.Seat) {
		seat.Status = seats.StatusReserved
		seat.ReservedAt = ptr(now)
		seat.HoldToken = ptr(holdToken)
		seat.BookingID = nil
	}), nil
}

func (r seatRepo) ConfirmSeats(ctx context.Context, tripID uint, ids []uint, bookingID uint, holdToken string, holdCutoff *time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	return r.update(ids, func(seat seats.Seat) bool {
		if seat.TripID != tripID || seat.Status != seats.StatusReserved {
			return false
		}
		if seat.HoldToken == nil || *seat.HoldToken != holdToken {
			return false
		}
		return holdCutoff == nil || (seat.ReservedAt != nil && !seat.ReservedAt.Before(*holdCutoff))
	}, func(seat *seats.Seat) {
		seat.Status = seats.StatusBooked
		seat.BookingID = ptr(bookingID)
		seat.ReservedAt = nil
		seat.HoldToken = nil
	}), nil
}

func (r seatRepo) ReleaseSeats(ctx context.Context, ids []uint) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	return r.update(ids, func(seat seats.Seat) bool {
		return seat.Status != seats.StatusAvailable
	}, clearSeat), nil
}

func (r seatRepo) ReleaseExpiredSeats(ctx context.Context, ids []uint, holdCutoff time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	return r.update(ids, func(seat seats.Seat) bool {
		return seat.Status == seats.StatusReserved && seat.ReservedAt != nil && seat.ReservedAt.Before(holdCutoff)
	}, clearSeat), nil
}

func clearSeat(seat *seats.Seat) {
	seat.Status = seats.StatusAvailable
	seat.ReservedAt = nil
	seat.HoldToken = nil
	seat.BookingID = nil
}

func (r seatRepo) where(match func(seats.Seat) bool) []seats.Seat {
	var out []seats.Seat
	for _, seat := range r.s.data.seats {
		if match(seat) {
			out = append(out, seat)
		}
	}
	sortSeatsByPosition(out)
	return out
}

func (r seatRepo) update(ids []uint, match func(seats.Seat) bool, apply func(*seats.Seat)) int64 {
	var n int64
	seen := map[uint]bool{}
	now := r.s.Now()
	for _, id := range ids {
		seat, ok := r.s.data.seats[id]
		if !ok || seen[id] || !match(seat) {
			continue
		}
		seen[id] = true
		apply(&seat)
		seat.UpdatedAt = now
		r.s.data.seats[id] = seat
		n++
	}
	return n
}

//  TRIPS

type tripRepo struct{ s *Store }

func (r tripRepo) CreateRoute(ctx context.Context, route *trips.Route) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	route.ID = r.s.id("routes")
	route.CreatedAt, route.UpdatedAt = r.s.Now(), r.s.Now()
	r.s.data.routes[route.ID] = *route
	return nil
}

func (r tripRepo) CreateBus(ctx context.Context, bus *trips.Bus) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	bus.ID = r.s.id("buses")
	bus.CreatedAt, bus.UpdatedAt = r.s.Now(), r.s.Now()
	r.s.data.buses[bus.ID] = *bus
	return nil
}

func (r tripRepo) GetRouteByID(ctx context.Context, id uint) (*trips.Route, error) {
	defer r.s.lock(ctx)()
	route, ok := r.s.data.routes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &route, nil
}

func (r tripRepo) GetBusByID(ctx context.Context, id uint) (*trips.Bus, error) {
	defer r.s.lock(ctx)()
	bus, ok := r.s.data.buses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &bus, nil
}

func (r tripRepo) CreateTrip(ctx context.Context, trip *trips.Trip) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	trip.ID = r.s.id("trips")
	trip.CreatedAt, trip.UpdatedAt = r.s.Now(), r.s.Now()
	stored := *trip
	stored.Route, stored.Bus = nil, nil
	r.s.data.trips[trip.ID] = stored
	return nil
}

func (r tripRepo) GetTripByID(ctx context.Context, id uint) (*trips.Trip, error) {
	defer r.s.lock(ctx)()
	trip, ok := r.s.data.trips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	r.s.withRelations(&trip)
	return &trip, nil
}

func (r tripRepo) ListTrips(ctx context.Context, query trips.TripListQuery, now time.Time) ([]trips.Trip, int64, error) {
	defer r.s.lock(ctx)()
	var all []trips.Trip
	for _, trip := range r.s.data.trips {
		if query.RouteID != 0 && trip.RouteID != query.RouteID {
			continue
		}
		if query.Status != "" && trip.Status != query.Status {
			continue
		}
		if query.Upcoming && !trip.DepartTime.After(now) {
			continue
		}
		r.s.withRelations(&trip)
		all = append(all, trip)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DepartTime.Before(all[j].DepartTime) })
	return paginate(all, query.Page, query.Limit), int64(len(all)), nil
}

func (r tripRepo) UpdateTripStatus(ctx context.Context, id uint, status trips.Status) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	trip, ok := r.s.data.trips[id]
	if !ok {
		return 0, nil
	}
	trip.Status = status
	trip.UpdatedAt = r.s.Now()
	r.s.data.trips[id] = trip
	return 1, nil
}

func (s *Store) withRelations(trip *trips.Trip) {
	if route, ok := s.data.routes[trip.RouteID]; ok {
		trip.Route = &route
	}
	if bus, ok := s.data.buses[trip.BusID]; ok {
		trip.Bus = &bus
	}
}

func paginate[T any](list []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return list
	}
	start := (page - 1) * limit
	if start >= len(list) {
		return nil
	}
	return list[start:min(start+limit, len(list))]
}
