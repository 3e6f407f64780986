package bookings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"busline/internal/notifications"
	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/transaction"
	"busline/internal/trips"
	"busline/pkg/logger"
	"busline/pkg/metrics"

	"github.com/jinzhu/now"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type Service interface {
	CreateDraft(ctx context.Context, req CreateBookingRequest) (*Booking, error)
	Confirm(ctx context.Context, bookingID uint, seatIDs []uint) (*Booking, error)
	UpdateStatus(ctx context.Context, identifier string, newStatus Status, opts UpdateStatusOptions) (*Booking, error)
	Cancel(ctx context.Context, identifier string, actor string) (*Booking, error)

	Retrieve(ctx context.Context, token string) (*BookingDetail, error)
	GetByID(ctx context.Context, id uint) (*Booking, error)
	GetByToken(ctx context.Context, token string) (*Booking, error)
	List(ctx context.Context, query BookingListQuery) (*BookingListResponse, error)
	Logs(ctx context.Context, bookingID uint) ([]BookingLog, error)

	// ApplyPaymentTotals stores the reconciled amounts without touching status.
	ApplyPaymentTotals(ctx context.Context, bookingID uint, totals PaymentTotals) (*Booking, error)
}

// TripChecker is the slice of the trip service the booking flow needs.
type TripChecker interface {
	CheckBookable(ctx context.Context, id uint) (*trips.Trip, error)
}

const DefaultMaxSeatsPerBooking = 5

type service struct {
	repo      Repository
	seats     seats.Service
	trips     TripChecker
	tx        transaction.Manager
	publisher notifications.Publisher
	tokens    *TokenGenerator
	log       *logger.Logger
	now       func() time.Time
	maxSeats  int
}

type Option func(*service)

func WithPublisher(p notifications.Publisher) Option {
	return func(s *service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithTokenPrefix(prefix string) Option {
	return func(s *service) { s.tokens.prefix = prefix }
}

func WithMaxSeats(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.maxSeats = n
		}
	}
}

func NewService(repo Repository, seatService seats.Service, tripChecker TripChecker, tx transaction.Manager, opts ...Option) Service {
	s := &service{
		repo:      repo,
		seats:     seatService,
		trips:     tripChecker,
		tx:        tx,
		publisher: notifications.NoopPublisher{},
		log:       logger.GetDefault().WithComponent("bookings"),
		now:       time.Now,
		maxSeats:  DefaultMaxSeatsPerBooking,
	}
	s.tokens = NewTokenGenerator("CD", func() time.Time { return s.now() })
	for _, opt := range opts {
		opt(s)
	}
	return s
}

//  DRAFT CREATION

// CreateDraft checks the trip, mints a token, holds the seats under it and
// stores the PENDING booking. Any failure leaves no booking and no hold.
func (s *service) CreateDraft(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	seatIDs := lo.Uniq(req.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one seat is required", apperrors.ErrValidation)
	}
	if len(seatIDs) > s.maxSeats {
		return nil, fmt.Errorf("%w: at most %d seats per booking", apperrors.ErrValidation, s.maxSeats)
	}

	var (
		booking *Booking
		held    []seats.Seat
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		trip, err := s.trips.CheckBookable(ctx, req.TripID)
		if err != nil {
			return err
		}

		token, err := s.tokens.Generate(ctx, s.repo.TokenExists)
		if err != nil {
			return err
		}

		held, err = s.seats.Reserve(ctx, trip.ID, seatIDs, token)
		if err != nil {
			return err
		}

		booking = &Booking{
			BookingToken:  token,
			TripID:        trip.ID,
			PassengerName: strings.TrimSpace(req.PassengerName),
			Email:         strings.ToLower(strings.TrimSpace(req.Email)),
			Mobile:        strings.TrimSpace(req.Mobile),
			ContactHash:   ContactHash(req.Email, req.Mobile),
			Status:        StatusPending,
			SeatCount:     len(seatIDs),
			AmountDue:     trip.Price * int64(len(seatIDs)),
		}
		if err := s.repo.Create(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		return s.repo.CreateLog(ctx, newLog(booking.ID, ActionCreated, "", StatusPending, ActorSystem, map[string]interface{}{
			"seat_numbers": seatNumbers(held),
			"amount_due":   booking.AmountDue,
		}))
	})
	if err != nil {
		return nil, err
	}

	s.log.LogBookingCreated(ctx, booking.BookingToken, booking.TripID, booking.SeatCount)
	s.recordTransition(ctx, booking, "", notifications.EventBookingCreated, seatNumbers(held))
	return booking, nil
}

//  CONFIRMATION

// Confirm books the held seats and moves the booking to CONFIRMED in one
// transaction. A booking that is already CONFIRMED is returned unchanged.
func (s *service) Confirm(ctx context.Context, bookingID uint, seatIDs []uint) (*Booking, error) {
	var (
		booking   *Booking
		booked    []seats.Seat
		from      Status
		unchanged bool
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.findByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status == StatusConfirmed {
			unchanged = true
			return nil
		}
		from = booking.Status
		if !from.CanTransitionTo(StatusConfirmed) {
			return fmt.Errorf("%w: cannot confirm a %s booking", apperrors.ErrInvalidTransition, from)
		}

		booked, err = s.seats.Confirm(ctx, seats.ConfirmRequest{
			TripID:    booking.TripID,
			BookingID: booking.ID,
			HoldToken: booking.BookingToken,
			SeatIDs:   seatIDs,
		})
		if err != nil {
			return err
		}

		if err := s.moveStatus(ctx, booking, StatusConfirmed, nil); err != nil {
			return err
		}
		return s.repo.CreateLog(ctx, newLog(booking.ID, ActionConfirmed, from, StatusConfirmed, ActorSystem, map[string]interface{}{
			"seat_numbers": seatNumbers(booked),
		}))
	})
	if err != nil {
		return nil, err
	}
	if unchanged {
		return booking, nil
	}

	s.log.LogBookingConfirmed(ctx, booking.BookingToken, seatNumbers(booked))
	s.recordTransition(ctx, booking, from, notifications.EventBookingConfirmed, seatNumbers(booked))
	return booking, nil
}

//  OPERATOR STATUS CHANGES

// UpdateStatus reconciles seats with the requested status: confirming books
// held seats and tops up from the AVAILABLE pool, cancelling or downgrading
// releases every seat the booking owns.
func (s *service) UpdateStatus(ctx context.Context, identifier string, newStatus Status, opts UpdateStatusOptions) (*Booking, error) {
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown booking status %q", apperrors.ErrValidation, newStatus)
	}
	actor := lo.Ternary(opts.Actor == "", ActorOperator, opts.Actor)

	var (
		booking   *Booking
		from      Status
		touched   []seats.Seat
		unchanged bool
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.resolve(ctx, identifier)
		if err != nil {
			return err
		}
		from = booking.Status
		if from == newStatus {
			unchanged = true
			return nil
		}

		downgrade := from.IsDowngrade(newStatus)
		switch {
		case downgrade && !opts.AllowDowngrade:
			return fmt.Errorf("%w: %s to %s requires an explicit downgrade", apperrors.ErrInvalidTransition, from, newStatus)
		case !downgrade && !from.CanTransitionTo(newStatus):
			return fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidTransition, from, newStatus)
		}

		var (
			action Action
			fields map[string]interface{}
		)
		switch {
		case newStatus == StatusConfirmed:
			touched, err = s.assignSeats(ctx, booking, opts.SeatCount)
			if err != nil {
				return err
			}
			action = ActionConfirmedByAdmin
			fields = map[string]interface{}{"seat_count": len(touched)}
			booking.SeatCount = len(touched)

		case newStatus == StatusCancelled || downgrade:
			touched, err = s.seats.ReleaseForBooking(ctx, booking.ID, booking.BookingToken)
			if err != nil {
				return err
			}
			action = lo.Ternary(downgrade, ActionStatusDowngraded, ActionCancelledByAdmin)
			if newStatus == StatusCancelled {
				cancelledAt := s.now()
				fields = map[string]interface{}{"cancelled_at": cancelledAt}
				booking.CancelledAt = &cancelledAt
			}

		default:
			action = ActionStatusUpdated
		}

		if err := s.moveStatus(ctx, booking, newStatus, fields); err != nil {
			return err
		}

		meta := map[string]interface{}{"previous_status": from, "new_status": newStatus}
		if len(touched) > 0 {
			key := lo.Ternary(newStatus == StatusConfirmed, "assigned_seats", "released_seats")
			meta[key] = seatNumbers(touched)
		}
		return s.repo.CreateLog(ctx, newLog(booking.ID, action, from, newStatus, actor, meta))
	})
	if err != nil {
		return nil, err
	}
	if unchanged {
		return booking, nil
	}

	switch newStatus {
	case StatusConfirmed:
		s.log.LogBookingConfirmed(ctx, booking.BookingToken, seatNumbers(touched))
		s.recordTransition(ctx, booking, from, notifications.EventBookingConfirmed, seatNumbers(touched))
	case StatusCancelled:
		s.log.LogBookingCancelled(ctx, booking.BookingToken, len(touched))
		s.recordTransition(ctx, booking, from, notifications.EventBookingCancelled, seatNumbers(touched))
	default:
		s.recordTransition(ctx, booking, from, notifications.EventBookingUpdated, seatNumbers(touched))
	}
	return booking, nil
}

// assignSeats books every seat still held for the booking and then draws
// from the AVAILABLE pool until the booking owns required seats.
func (s *service) assignSeats(ctx context.Context, booking *Booking, required int) ([]seats.Seat, error) {
	owned, err := s.seats.SeatsForBooking(ctx, booking.ID, booking.BookingToken)
	if err != nil {
		return nil, err
	}
	if required <= 0 {
		required = lo.Max([]int{booking.SeatCount, len(owned), 1})
	}

	var result []seats.Seat
	held := lo.Filter(owned, func(seat seats.Seat, _ int) bool { return seat.Status == seats.StatusReserved })
	if len(held) > 0 {
		confirmed, err := s.seats.Confirm(ctx, seats.ConfirmRequest{
			TripID:    booking.TripID,
			BookingID: booking.ID,
			HoldToken: booking.BookingToken,
			SeatIDs:   lo.Map(held, func(seat seats.Seat, _ int) uint { return seat.ID }),
			BypassTTL: true,
		})
		if err != nil {
			return nil, err
		}
		result = append(result, confirmed...)
	}
	result = append(result, lo.Filter(owned, func(seat seats.Seat, _ int) bool { return seat.BookedBy(booking.ID) })...)

	if missing := required - len(result); missing > 0 {
		assigned, err := s.seats.AssignAvailable(ctx, booking.TripID, booking.ID, booking.BookingToken, missing)
		if err != nil {
			return nil, err
		}
		result = append(result, assigned...)
	}

	if len(result) == 0 {
		return nil, apperrors.ErrNoValidReservedSeats
	}
	return result, nil
}

func (s *service) Cancel(ctx context.Context, identifier string, actor string) (*Booking, error) {
	return s.UpdateStatus(ctx, identifier, StatusCancelled, UpdateStatusOptions{Actor: actor})
}

//  READS

// Retrieve is the passenger lookup by token. Bookings with no qualifying
// payment are hidden behind PaymentIncomplete.
func (s *service) Retrieve(ctx context.Context, token string) (*BookingDetail, error) {
	booking, err := s.repo.FindByTokenWithDetails(ctx, token)
	if err != nil {
		return nil, notFound(err, "booking")
	}
	if !booking.IsRetrievable() {
		return nil, apperrors.ErrPaymentIncomplete
	}
	if !booking.Status.IsActive() {
		return nil, fmt.Errorf("%w: booking is %s", apperrors.ErrInvalidStatus, booking.Status)
	}
	if booking.Trip == nil || booking.Trip.Route == nil {
		return nil, fmt.Errorf("%w: booking %s has no trip or route", apperrors.ErrDataIntegrity, booking.BookingToken)
	}

	owned, err := s.seats.SeatsForBooking(ctx, booking.ID, booking.BookingToken)
	if err != nil {
		return nil, err
	}

	trip := booking.Trip
	detail := &BookingDetail{
		BookingResponse: booking.ToResponse(),
		Trip: TripInfo{
			ID:          trip.ID,
			Origin:      trip.Route.Origin,
			Destination: trip.Route.Destination,
			DepartTime:  trip.DepartTime,
			ArriveTime:  trip.ArriveTime,
			Price:       trip.Price,
		},
		Seats:    seats.ToResponses(owned),
		Payments: lo.Map(booking.Payments, func(p Payment, _ int) PaymentInfo { return p.ToPaymentInfo() }),
	}
	if trip.Bus != nil {
		detail.Trip.PlateNo = trip.Bus.PlateNo
	}
	return detail, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*Booking, error) {
	return s.findByID(ctx, id)
}

func (s *service) GetByToken(ctx context.Context, token string) (*Booking, error) {
	booking, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, notFound(err, "booking")
	}
	return booking, nil
}

func (s *service) List(ctx context.Context, query BookingListQuery) (*BookingListResponse, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}

	filter := ListFilter{
		Status:       query.Status,
		TripID:       query.TripID,
		BookingToken: query.BookingToken,
		Offset:       (query.Page - 1) * query.Limit,
		Limit:        query.Limit,
	}
	if query.DateFrom != "" {
		from, err := now.Parse(query.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: date_from: %v", apperrors.ErrValidation, err)
		}
		from = now.With(from).BeginningOfDay()
		filter.From = &from
	}
	if query.DateTo != "" {
		to, err := now.Parse(query.DateTo)
		if err != nil {
			return nil, fmt.Errorf("%w: date_to: %v", apperrors.ErrValidation, err)
		}
		to = now.With(to).EndOfDay()
		filter.To = &to
	}

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return &BookingListResponse{
		Bookings:   lo.Map(list, func(b Booking, _ int) BookingResponse { return b.ToResponse() }),
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: CalculateTotalPages(total, query.Limit),
	}, nil
}

func (s *service) Logs(ctx context.Context, bookingID uint) ([]BookingLog, error) {
	logs, err := s.repo.FindLogs(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking logs: %w", err)
	}
	return logs, nil
}

func (s *service) ApplyPaymentTotals(ctx context.Context, bookingID uint, totals PaymentTotals) (*Booking, error) {
	if err := s.repo.UpdatePaymentTotals(ctx, bookingID, totals); err != nil {
		return nil, fmt.Errorf("failed to update payment totals: %w", err)
	}
	return s.findByID(ctx, bookingID)
}

//  HELPERS

func (s *service) findByID(ctx context.Context, id uint) (*Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "booking")
	}
	return booking, nil
}

// resolve accepts a numeric id or a booking token.
func (s *service) resolve(ctx context.Context, identifier string) (*Booking, error) {
	identifier = strings.TrimSpace(identifier)
	if id, err := strconv.ParseUint(identifier, 10, 64); err == nil {
		return s.findByID(ctx, uint(id))
	}
	return s.GetByToken(ctx, identifier)
}

// moveStatus applies the transition only if nobody changed the booking since
// it was read.
func (s *service) moveStatus(ctx context.Context, booking *Booking, to Status, fields map[string]interface{}) error {
	n, err := s.repo.UpdateStatus(ctx, booking.ID, booking.Status, to, fields)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: booking %s changed concurrently", apperrors.ErrInvalidTransition, booking.BookingToken)
	}
	booking.Status = to
	return nil
}

func (s *service) recordTransition(ctx context.Context, booking *Booking, from Status, eventType notifications.EventType, seatNumbers []string) {
	metrics.BookingTransitions.WithLabelValues(string(from), string(booking.Status)).Inc()

	event := notifications.BookingEvent{
		Type:         eventType,
		BookingID:    booking.ID,
		BookingToken: booking.BookingToken,
		TripID:       booking.TripID,
		Status:       string(booking.Status),
		Email:        booking.Email,
		AmountPaid:   booking.AmountPaid,
		AmountDue:    booking.AmountDue,
		SeatNumbers:  seatNumbers,
		OccurredAt:   s.now().UTC(),
	}
	transaction.AfterCommit(ctx, func() {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.WarnContext(ctx, "failed to publish booking event", "type", event.Type, "booking_token", event.BookingToken, "error", err)
		}
	})
}

func seatNumbers(list []seats.Seat) []string {
	return lo.Map(list, func(seat seats.Seat, _ int) string { return seat.SeatNumber })
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
