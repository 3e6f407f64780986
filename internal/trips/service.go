package trips

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/constants"
	"busline/internal/shared/transaction"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"gorm.io/gorm"
)

type Service interface {
	CreateRoute(ctx context.Context, req CreateRouteRequest) (*Route, error)
	CreateBus(ctx context.Context, req CreateBusRequest) (*Bus, error)
	CreateTrip(ctx context.Context, req CreateTripRequest) (*TripResponse, error)

	GetTrip(ctx context.Context, id uint) (*TripResponse, error)
	ListTrips(ctx context.Context, query TripListQuery) (*TripListResponse, error)
	UpdateStatus(ctx context.Context, id uint, status Status) (*TripResponse, error)

	// CheckBookable returns the trip when it exists, is scheduled in the
	// future and still has at least one AVAILABLE seat.
	CheckBookable(ctx context.Context, id uint) (*Trip, error)
}

type service struct {
	repo  Repository
	seats seats.Service
	tx    transaction.Manager
	cache cache.Service
	log   *logger.Logger
	now   func() time.Time
}

type Option func(*service)

func WithCache(c cache.Service) Option {
	return func(s *service) { s.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, seatService seats.Service, tx transaction.Manager, opts ...Option) Service {
	s := &service{
		repo:  repo,
		seats: seatService,
		tx:    tx,
		log:   logger.GetDefault().WithComponent("trips"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateRoute(ctx context.Context, req CreateRouteRequest) (*Route, error) {
	route := &Route{
		Origin:      req.Origin,
		Destination: req.Destination,
		DistanceKm:  req.DistanceKm,
	}
	if err := s.repo.CreateRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	return route, nil
}

func (s *service) CreateBus(ctx context.Context, req CreateBusRequest) (*Bus, error) {
	bus := &Bus{
		PlateNo:     req.PlateNo,
		BusType:     req.BusType,
		Capacity:    req.Capacity,
		SeatsPerRow: req.SeatsPerRow,
	}
	if err := s.repo.CreateBus(ctx, bus); err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	return bus, nil
}

// CreateTrip inserts the trip and one AVAILABLE seat per unit of bus capacity
// in a single transaction.
func (s *service) CreateTrip(ctx context.Context, req CreateTripRequest) (*TripResponse, error) {
	if !req.ArriveTime.After(req.DepartTime) {
		return nil, fmt.Errorf("%w: arrive_time must be after depart_time", apperrors.ErrValidation)
	}
	if !req.DepartTime.After(s.now()) {
		return nil, fmt.Errorf("%w: depart_time must be in the future", apperrors.ErrValidation)
	}

	var (
		trip    *Trip
		created []seats.Seat
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		route, err := s.repo.GetRouteByID(ctx, req.RouteID)
		if err != nil {
			return notFound(err, "route")
		}
		bus, err := s.repo.GetBusByID(ctx, req.BusID)
		if err != nil {
			return notFound(err, "bus")
		}

		trip = &Trip{
			RouteID:    route.ID,
			BusID:      bus.ID,
			Price:      req.Price,
			DepartTime: req.DepartTime,
			ArriveTime: req.ArriveTime,
			Status:     StatusScheduled,
		}
		if err := s.repo.CreateTrip(ctx, trip); err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}
		trip.Route = route
		trip.Bus = bus

		created, err = s.seats.CreateSeatsForTrip(ctx, trip.ID, bus.Capacity, bus.SeatsPerRow)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "trip created", "trip_id", trip.ID, "seats", len(created))
	resp := trip.ToResponse(int64(len(created)))
	return &resp, nil
}

func (s *service) GetTrip(ctx context.Context, id uint) (*TripResponse, error) {
	trip, err := s.loadTrip(ctx, id)
	if err != nil {
		return nil, err
	}

	available, err := s.seats.CountAvailable(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := trip.ToResponse(available)
	return &resp, nil
}

// loadTrip reads the trip with its route and bus through the detail cache.
// Seat counts are never cached here.
func (s *service) loadTrip(ctx context.Context, id uint) (*Trip, error) {
	key := constants.BuildTripDetailKey(id)
	if s.cache != nil {
		var cached Trip
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	trip, err := s.repo.GetTripByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "trip")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, trip, constants.TTL_TRIP_DETAIL); err != nil {
			s.log.WarnContext(ctx, "failed to cache trip detail", "trip_id", id, "error", err)
		}
	}
	return trip, nil
}

func (s *service) ListTrips(ctx context.Context, query TripListQuery) (*TripListResponse, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}

	list, total, err := s.repo.ListTrips(ctx, query, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	out := make([]TripResponse, 0, len(list))
	for i := range list {
		available, err := s.seats.CountAvailable(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, list[i].ToResponse(available))
	}

	return &TripListResponse{
		Trips:      out,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}, nil
}

// UpdateStatus is the operator correction path. Seats are untouched.
func (s *service) UpdateStatus(ctx context.Context, id uint, status Status) (*TripResponse, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown trip status %q", apperrors.ErrValidation, status)
	}

	n, err := s.repo.UpdateTripStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update trip status: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: trip %d", apperrors.ErrNotFound, id)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, constants.BuildTripDetailKey(id)); err != nil {
			s.log.WarnContext(ctx, "failed to invalidate trip detail", "trip_id", id, "error", err)
		}
	}
	return s.GetTrip(ctx, id)
}

func (s *service) CheckBookable(ctx context.Context, id uint) (*Trip, error) {
	trip, err := s.repo.GetTripByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "trip")
	}
	if trip.Route == nil || trip.Bus == nil {
		return nil, fmt.Errorf("%w: trip %d has no route or bus", apperrors.ErrDataIntegrity, id)
	}
	if trip.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: trip is %s", apperrors.ErrInvalidStatus, trip.Status)
	}
	if trip.HasDeparted(s.now()) {
		return nil, fmt.Errorf("%w: trip has already departed", apperrors.ErrInvalidStatus)
	}

	available, err := s.seats.CountAvailable(ctx, id)
	if err != nil {
		return nil, err
	}
	if available == 0 {
		return nil, fmt.Errorf("%w: trip is sold out", apperrors.ErrSeatUnavailable)
	}
	return trip, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
