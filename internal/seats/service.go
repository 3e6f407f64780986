package seats

import (
	"context"
	"fmt"
	"time"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/constants"
	"busline/internal/shared/transaction"
	"busline/pkg/cache"
	"busline/pkg/logger"
	"busline/pkg/metrics"

	"github.com/samber/lo"
)

type Service interface {
	// Availability
	FindAvailable(ctx context.Context, tripID uint) ([]Seat, error)
	CountAvailable(ctx context.Context, tripID uint) (int64, error)
	AvailableSeats(ctx context.Context, tripID uint) (*AvailableSeatsResponse, error)

	// Hold lifecycle
	Reserve(ctx context.Context, tripID uint, seatIDs []uint, holdToken string) ([]Seat, error)
	Confirm(ctx context.Context, req ConfirmRequest) ([]Seat, error)
	Release(ctx context.Context, seatIDs []uint) (int64, error)
	ReleaseForBooking(ctx context.Context, bookingID uint, holdToken string) ([]Seat, error)
	AssignAvailable(ctx context.Context, tripID, bookingID uint, holdToken string, count int) ([]Seat, error)
	ValidateHold(ctx context.Context, tripID uint, seatIDs []uint, holdToken string, bookingID uint) (bool, error)
	SeatsForBooking(ctx context.Context, bookingID uint, holdToken string) ([]Seat, error)

	// Expiry
	ExpiredHolds(ctx context.Context, holdCutoff time.Time) ([]Seat, error)
	ReleaseExpired(ctx context.Context, seatIDs []uint, holdCutoff time.Time) (int64, error)

	// Trip setup
	CreateSeatsForTrip(ctx context.Context, tripID uint, capacity, seatsPerRow int) ([]Seat, error)
}

// ConfirmRequest books the seats held under HoldToken for BookingID. With no
// SeatIDs every seat held by the token is confirmed. BypassTTL skips the hold
// freshness check (operator confirmation).
type ConfirmRequest struct {
	TripID    uint
	BookingID uint
	HoldToken string
	SeatIDs   []uint
	BypassTTL bool
}

const DefaultHoldTTL = 5 * time.Minute

type service struct {
	repo    Repository
	tx      transaction.Manager
	cache   cache.Service
	log     *logger.Logger
	now     func() time.Time
	holdTTL time.Duration
}

type Option func(*service)

// WithHoldTTL overrides the default hold lifetime.
func WithHoldTTL(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCache serves availability reads through redis.
func WithCache(c cache.Service) Option {
	return func(s *service) { s.cache = c }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(repo Repository, tx transaction.Manager, opts ...Option) Service {
	s := &service{
		repo:    repo,
		tx:      tx,
		log:     logger.GetDefault().WithComponent("seats"),
		now:     time.Now,
		holdTTL: DefaultHoldTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) holdCutoff() time.Time {
	return s.now().Add(-s.holdTTL)
}

//  AVAILABILITY

func (s *service) FindAvailable(ctx context.Context, tripID uint) ([]Seat, error) {
	seats, err := s.repo.FindAvailable(ctx, tripID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find available seats: %w", err)
	}
	return seats, nil
}

func (s *service) CountAvailable(ctx context.Context, tripID uint) (int64, error) {
	count, err := s.repo.CountAvailable(ctx, tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to count available seats: %w", err)
	}
	return count, nil
}

func (s *service) AvailableSeats(ctx context.Context, tripID uint) (*AvailableSeatsResponse, error) {
	fetch := func() (interface{}, error) {
		seats, err := s.FindAvailable(ctx, tripID)
		if err != nil {
			return nil, err
		}
		return &AvailableSeatsResponse{
			TripID:    tripID,
			Count:     len(seats),
			Seats:     ToResponses(seats),
			CheckedAt: s.now(),
		}, nil
	}

	if s.cache == nil {
		out, err := fetch()
		if err != nil {
			return nil, err
		}
		return out.(*AvailableSeatsResponse), nil
	}

	// The cached list is advisory and may briefly lag a reserve; Reserve
	// re-checks every seat in its UPDATE.
	var resp AvailableSeatsResponse
	key := constants.BuildSeatAvailabilityKey(tripID)
	if err := s.cache.GetOrSet(ctx, key, constants.TTL_SEATS_AVAILABLE, fetch, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

//  HOLD LIFECYCLE

func (s *service) Reserve(ctx context.Context, tripID uint, seatIDs []uint, holdToken string) ([]Seat, error) {
	ids := lo.Uniq(seatIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no seats specified", apperrors.ErrValidation)
	}
	if holdToken == "" {
		return nil, fmt.Errorf("%w: hold token is required", apperrors.ErrValidation)
	}

	var held []Seat
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		now := s.now()
		n, err := s.repo.ReserveSeats(ctx, tripID, ids, holdToken, now, now.Add(-s.holdTTL))
		if err != nil {
			return fmt.Errorf("failed to reserve seats: %w", err)
		}
		if int(n) < len(ids) {
			return fmt.Errorf("%w: %d of %d seats could be held", apperrors.ErrSeatUnavailable, n, len(ids))
		}

		held, err = s.repo.FindByIDs(ctx, tripID, ids)
		return err
	})
	if err != nil {
		metrics.SeatReservations.WithLabelValues(reserveOutcome(err)).Inc()
		return nil, err
	}

	metrics.SeatReservations.WithLabelValues("success").Inc()
	s.invalidate(ctx, tripID)
	return held, nil
}

func reserveOutcome(err error) string {
	if apperrors.Kind(err) == "SeatUnavailable" {
		return "unavailable"
	}
	return "error"
}

func (s *service) Confirm(ctx context.Context, req ConfirmRequest) ([]Seat, error) {
	ids := lo.Uniq(req.SeatIDs)

	var booked []Seat
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		if len(ids) == 0 {
			owned, err := s.repo.FindByOwner(ctx, req.BookingID, req.HoldToken)
			if err != nil {
				return fmt.Errorf("failed to load held seats: %w", err)
			}
			ids = lo.FilterMap(owned, func(seat Seat, _ int) (uint, bool) {
				return seat.ID, seat.TripID == req.TripID
			})
		}
		if len(ids) == 0 {
			return apperrors.ErrNoValidReservedSeats
		}

		current, err := s.repo.FindByIDs(ctx, req.TripID, ids)
		if err != nil {
			return fmt.Errorf("failed to load seats: %w", err)
		}
		if len(current) != len(ids) {
			return fmt.Errorf("%w: %d of %d seats belong to trip %d", apperrors.ErrSeatUnavailable, len(current), len(ids), req.TripID)
		}

		// Duplicate confirmation for seats this booking already owns
		if lo.EveryBy(current, func(seat Seat) bool { return seat.BookedBy(req.BookingID) }) {
			booked = current
			return nil
		}

		cutoff := s.holdCutoff()
		var cutoffPtr *time.Time
		if !req.BypassTTL {
			cutoffPtr = &cutoff
		}

		n, err := s.repo.ConfirmSeats(ctx, req.TripID, ids, req.BookingID, req.HoldToken, cutoffPtr)
		if err != nil {
			return fmt.Errorf("failed to confirm seats: %w", err)
		}

		reloaded, err := s.repo.FindByIDs(ctx, req.TripID, ids)
		if err != nil {
			return fmt.Errorf("failed to reload seats: %w", err)
		}
		if lo.EveryBy(reloaded, func(seat Seat) bool { return seat.BookedBy(req.BookingID) }) {
			booked = reloaded
			return nil
		}

		if !req.BypassTTL && lo.SomeBy(reloaded, func(seat Seat) bool { return seat.HoldIsStale(req.HoldToken, cutoff) }) {
			return apperrors.ErrHoldExpired
		}
		if n == 0 {
			return apperrors.ErrNoValidReservedSeats
		}
		return fmt.Errorf("%w: only %d of %d seats could be booked", apperrors.ErrSeatUnavailable, n, len(ids))
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.TripID)
	return booked, nil
}

func (s *service) Release(ctx context.Context, seatIDs []uint) (int64, error) {
	ids := lo.Uniq(seatIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	var (
		released int64
		trips    []uint
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		n, err := s.repo.ReleaseSeats(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to release seats: %w", err)
		}
		released = n

		seats, err := s.repo.FindByIDsAnyTrip(ctx, ids)
		if err != nil {
			return err
		}
		trips = lo.Uniq(lo.Map(seats, func(seat Seat, _ int) uint { return seat.TripID }))
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, trips...)
	return released, nil
}

// ReleaseForBooking frees every seat booked by bookingID or held under
// holdToken and returns those seats as they were before release.
func (s *service) ReleaseForBooking(ctx context.Context, bookingID uint, holdToken string) ([]Seat, error) {
	var owned []Seat
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		owned, err = s.repo.FindByOwner(ctx, bookingID, holdToken)
		if err != nil {
			return fmt.Errorf("failed to load booking seats: %w", err)
		}
		if len(owned) == 0 {
			return nil
		}

		ids := lo.Map(owned, func(seat Seat, _ int) uint { return seat.ID })
		if _, err := s.repo.ReleaseSeats(ctx, ids); err != nil {
			return fmt.Errorf("failed to release booking seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, lo.Uniq(lo.Map(owned, func(seat Seat, _ int) uint { return seat.TripID }))...)
	return owned, nil
}

// AssignAvailable books count seats from the trip's AVAILABLE pool straight
// onto the booking.
func (s *service) AssignAvailable(ctx context.Context, tripID, bookingID uint, holdToken string, count int) ([]Seat, error) {
	if count <= 0 {
		return nil, nil
	}

	var assigned []Seat
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		pool, err := s.repo.FindAvailable(ctx, tripID, count)
		if err != nil {
			return fmt.Errorf("failed to load seat pool: %w", err)
		}
		if len(pool) < count {
			return fmt.Errorf("%w: %d seats requested, %d available", apperrors.ErrSeatUnavailable, count, len(pool))
		}

		ids := lo.Map(pool, func(seat Seat, _ int) uint { return seat.ID })
		if _, err := s.Reserve(ctx, tripID, ids, holdToken); err != nil {
			return err
		}
		assigned, err = s.Confirm(ctx, ConfirmRequest{
			TripID:    tripID,
			BookingID: bookingID,
			HoldToken: holdToken,
			SeatIDs:   ids,
			BypassTTL: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

// ValidateHold reports whether every seat belongs to the trip and is either
// held live for holdToken or already booked by bookingID.
func (s *service) ValidateHold(ctx context.Context, tripID uint, seatIDs []uint, holdToken string, bookingID uint) (bool, error) {
	ids := lo.Uniq(seatIDs)
	if len(ids) == 0 {
		return false, nil
	}

	seats, err := s.repo.FindByIDs(ctx, tripID, ids)
	if err != nil {
		return false, fmt.Errorf("failed to load seats: %w", err)
	}
	if len(seats) != len(ids) {
		return false, nil
	}

	cutoff := s.holdCutoff()
	return lo.EveryBy(seats, func(seat Seat) bool {
		return seat.HoldIsLive(holdToken, cutoff) || seat.BookedBy(bookingID)
	}), nil
}

func (s *service) SeatsForBooking(ctx context.Context, bookingID uint, holdToken string) ([]Seat, error) {
	seats, err := s.repo.FindByOwner(ctx, bookingID, holdToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking seats: %w", err)
	}
	return seats, nil
}

//  EXPIRY

func (s *service) ExpiredHolds(ctx context.Context, holdCutoff time.Time) ([]Seat, error) {
	seats, err := s.repo.FindExpiredHolds(ctx, holdCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired holds: %w", err)
	}
	return seats, nil
}

// ReleaseExpired frees the listed seats that still carry a hold older than
// holdCutoff. Seats re-held or booked since they were read are left alone.
func (s *service) ReleaseExpired(ctx context.Context, seatIDs []uint, holdCutoff time.Time) (int64, error) {
	ids := lo.Uniq(seatIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	var trips []uint
	seats, err := s.repo.FindByIDsAnyTrip(ctx, ids)
	if err == nil {
		trips = lo.Uniq(lo.Map(seats, func(seat Seat, _ int) uint { return seat.TripID }))
	}

	n, err := s.repo.ReleaseExpiredSeats(ctx, ids, holdCutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired seats: %w", err)
	}

	s.invalidate(ctx, trips...)
	return n, nil
}

//  TRIP SETUP

func (s *service) CreateSeatsForTrip(ctx context.Context, tripID uint, capacity, seatsPerRow int) ([]Seat, error) {
	seats, err := BuildTripSeats(tripID, capacity, seatsPerRow)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.repo.CreateSeats(ctx, seats); err != nil {
		return nil, fmt.Errorf("failed to create seats: %w", err)
	}
	return seats, nil
}

func (s *service) invalidate(ctx context.Context, tripIDs ...uint) {
	if s.cache == nil || len(tripIDs) == 0 {
		return
	}
	keys := lo.Map(tripIDs, func(id uint, _ int) string { return constants.BuildSeatAvailabilityKey(id) })
	transaction.AfterCommit(ctx, func() {
		if err := s.cache.Delete(ctx, keys...); err != nil {
			s.log.WarnContext(ctx, "seat availability cache invalidation failed", "trips", tripIDs, "error", err)
		}
	})
}
