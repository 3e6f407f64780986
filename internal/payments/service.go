package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/constants"
	"busline/internal/shared/transaction"
	"busline/internal/trips"
	"busline/pkg/cache"
	"busline/pkg/logger"
	"busline/pkg/metrics"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

type Service interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentResponse, error)

	// Verify asks the gateway about reference and records a successful
	// charge on the payment. It does not touch the booking.
	Verify(ctx context.Context, reference string) (*bookings.Payment, error)

	// VerifyAndSettle is the client-polled path: Verify followed by the same
	// reconciliation a webhook triggers.
	VerifyAndSettle(ctx context.Context, reference string) (*SettlementResult, error)

	// ProcessWebhookEvent reconciles a verified gateway notification. It is
	// safe under repeated delivery. Unrecognized events return nil, nil.
	ProcessWebhookEvent(ctx context.Context, event WebhookEvent) (*SettlementResult, error)

	RecordAdminPayment(ctx context.Context, bookingID uint, req AdminPaymentRequest) (*SettlementResult, error)
	ListPayments(ctx context.Context, bookingID uint) ([]bookings.PaymentInfo, error)
}

// TripReader supplies the per-seat price used to compute a booking's total.
type TripReader interface {
	GetTrip(ctx context.Context, id uint) (*trips.TripResponse, error)
}

type service struct {
	repo      Repository
	bookings  bookings.Service
	seats     seats.Service
	trips     TripReader
	gateway   Gateway
	tx        transaction.Manager
	cache     cache.Service
	publisher notifications.Publisher
	log       *logger.Logger
	now       func() time.Time
	currency  string
	dedupeTTL time.Duration
}

type Option func(*service)

// WithCache enables the redis short-circuit for duplicate webhook deliveries.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(s *service) {
		s.cache = c
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

func WithPublisher(p notifications.Publisher) Option {
	return func(s *service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithCurrency(currency string) Option {
	return func(s *service) {
		if currency != "" {
			s.currency = currency
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

func NewService(
	repo Repository,
	bookingService bookings.Service,
	seatService seats.Service,
	tripReader TripReader,
	gateway Gateway,
	tx transaction.Manager,
	opts ...Option,
) Service {
	s := &service{
		repo:      repo,
		bookings:  bookingService,
		seats:     seatService,
		trips:     tripReader,
		gateway:   gateway,
		tx:        tx,
		publisher: notifications.NoopPublisher{},
		log:       logger.GetDefault().WithComponent("payments"),
		now:       time.Now,
		currency:  "NGN",
		dedupeTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

//  PAYMENT INTENT

func (s *service) CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentResponse, error) {
	ctx, span := tracer.Start(ctx, "payments.CreateIntent")
	defer span.End()

	booking, err := s.resolveBooking(ctx, req.BookingID, req.BookingToken)
	if err != nil {
		return nil, err
	}
	if !booking.Status.IsActive() {
		return nil, fmt.Errorf("%w: booking is %s", apperrors.ErrInvalidStatus, booking.Status)
	}
	span.SetAttributes(attribute.String("booking.token", booking.BookingToken))

	amount := req.Amount
	switch {
	case amount < 0:
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	case booking.AmountDue <= 0:
		return nil, apperrors.ErrAlreadyPaid
	case amount == 0:
		amount = booking.AmountDue
	case amount > booking.AmountDue:
		return nil, fmt.Errorf("%w: %d requested, %d due", apperrors.ErrAmountExceedsDue, amount, booking.AmountDue)
	}

	seatIDs := lo.Uniq(req.SeatIDs)
	if len(seatIDs) == 0 {
		owned, err := s.seats.SeatsForBooking(ctx, booking.ID, booking.BookingToken)
		if err != nil {
			return nil, err
		}
		seatIDs = lo.Map(owned, func(seat seats.Seat, _ int) uint { return seat.ID })
	}
	valid, err := s.seats.ValidateHold(ctx, booking.TripID, seatIDs, booking.BookingToken, booking.ID)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, apperrors.ErrSeatHoldExpired
	}

	existing, err := s.repo.FindPending(ctx, booking.ID, amount)
	switch {
	case err == nil:
		return intentResponse(existing, booking, true), nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to look up pending payment: %w", err)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = booking.Email
	}

	init, err := s.gateway.Initialize(ctx, InitializeRequest{
		Email:    email,
		Amount:   amount,
		Currency: s.currency,
		Metadata: map[string]interface{}{
			"booking_id":    booking.ID,
			"booking_token": booking.BookingToken,
			"seat_ids":      seatIDs,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway initialize failed")
		return nil, err
	}

	payment := &bookings.Payment{
		BookingID:        booking.ID,
		Reference:        init.Reference,
		Amount:           amount,
		Currency:         s.currency,
		Status:           bookings.PaymentPending,
		Channel:          req.Channel,
		Email:            email,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment intent: %w", err)
	}

	s.log.InfoContext(ctx, "payment intent created",
		"reference", payment.Reference, "booking_token", booking.BookingToken, "amount", amount)
	return intentResponse(payment, booking, false), nil
}

func intentResponse(p *bookings.Payment, b *bookings.Booking, reused bool) *IntentResponse {
	return &IntentResponse{
		Reference:        p.Reference,
		AuthorizationURL: p.AuthorizationURL,
		AccessCode:       p.AccessCode,
		Amount:           p.Amount,
		Currency:         p.Currency,
		BookingToken:     b.BookingToken,
		Reused:           reused,
	}
}

//  VERIFICATION

func (s *service) Verify(ctx context.Context, reference string) (*bookings.Payment, error) {
	payment, err := s.findPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.IsPaid() {
		return payment, nil
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !result.Verified {
		if result.Status == "failed" {
			if _, err := s.repo.MarkFailed(ctx, reference, result.GatewayResponse); err != nil {
				s.log.WarnContext(ctx, "failed to mark payment failed", "reference", reference, "error", err)
			}
		}
		return nil, fmt.Errorf("%w: gateway status %q", apperrors.ErrTransactionNotSuccessful, result.Status)
	}

	paidAt := s.now()
	if result.PaidAt != nil {
		paidAt = *result.PaidAt
	}
	if _, err := s.repo.MarkPaid(ctx, reference, Settlement{
		Amount:          result.Amount,
		Currency:        result.Currency,
		Channel:         result.Channel,
		PaidAt:          paidAt,
		Authorization:   result.Authorization,
		CustomerID:      result.CustomerID,
		GatewayResponse: result.GatewayResponse,
	}); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	return s.findPayment(ctx, reference)
}

func (s *service) VerifyAndSettle(ctx context.Context, reference string) (*SettlementResult, error) {
	existing, err := s.findPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if existing.IsPaid() {
		return s.currentState(ctx, reference)
	}

	payment, err := s.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, payment)
}

//  WEBHOOK RECONCILIATION

func (s *service) ProcessWebhookEvent(ctx context.Context, event WebhookEvent) (*SettlementResult, error) {
	charge, ok := event.(ChargeSuccessEvent)
	if !ok {
		metrics.WebhookEvents.WithLabelValues(event.EventName(), "ignored").Inc()
		s.log.InfoContext(ctx, "ignoring webhook event", "event", event.EventName())
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "payments.ProcessWebhookEvent")
	span.SetAttributes(attribute.String("payment.reference", charge.Reference))
	defer span.End()

	if s.cache != nil {
		key := constants.BuildWebhookDedupeKey(charge.EventName(), charge.Reference)
		first, err := s.cache.SetNX(ctx, key, s.now().Unix(), s.dedupeTTL)
		if err != nil {
			s.log.WarnContext(ctx, "webhook dedupe check failed, falling back to database", "reference", charge.Reference, "error", err)
		} else if !first {
			metrics.WebhookEvents.WithLabelValues(charge.EventName(), "duplicate").Inc()
			return s.currentState(ctx, charge.Reference)
		}
	}

	result, err := s.applyCharge(ctx, charge)
	if err != nil {
		if s.cache != nil {
			// let the gateway's retry through
			_ = s.cache.Delete(ctx, constants.BuildWebhookDedupeKey(charge.EventName(), charge.Reference))
		}
		metrics.WebhookEvents.WithLabelValues(charge.EventName(), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, apperrors.Kind(err))
		return nil, err
	}

	metrics.WebhookEvents.WithLabelValues(charge.EventName(), lo.Ternary(result.AlreadySettled, "duplicate", "processed")).Inc()
	return result, nil
}

func (s *service) applyCharge(ctx context.Context, charge ChargeSuccessEvent) (*SettlementResult, error) {
	var (
		payment *bookings.Payment
		already bool
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.findPayment(ctx, charge.Reference)
		if err != nil {
			return err
		}
		if payment.IsPaid() {
			already = true
			return nil
		}

		paidAt := s.now()
		if charge.PaidAt != nil {
			paidAt = *charge.PaidAt
		}
		n, err := s.repo.MarkPaid(ctx, charge.Reference, Settlement{
			Amount:        charge.Amount,
			Currency:      charge.Currency,
			Channel:       charge.Channel,
			PaidAt:        paidAt,
			Authorization: charge.Authorization,
			CustomerID:    charge.CustomerID,
		})
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		if n == 0 {
			already = true
			return nil
		}

		payment, err = s.findPayment(ctx, charge.Reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	if already {
		metrics.PaymentsSettled.WithLabelValues("duplicate").Inc()
		return s.currentState(ctx, charge.Reference)
	}
	return s.settle(ctx, payment)
}

//  OPERATOR PAYMENTS

func (s *service) RecordAdminPayment(ctx context.Context, bookingID uint, req AdminPaymentRequest) (*SettlementResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	var payment *bookings.Payment
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		booking, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.IsCancelled() {
			return fmt.Errorf("%w: booking is %s", apperrors.ErrInvalidStatus, booking.Status)
		}
		if booking.AmountDue <= 0 {
			return apperrors.ErrAlreadyPaid
		}
		if req.Amount > booking.AmountDue {
			return fmt.Errorf("%w: %d recorded, %d due", apperrors.ErrAmountExceedsDue, req.Amount, booking.AmountDue)
		}

		paidAt := s.now()
		payment = &bookings.Payment{
			BookingID:       booking.ID,
			Reference:       "ADM-" + uuid.NewString(),
			Amount:          req.Amount,
			Currency:        s.currency,
			Status:          bookings.PaymentPaid,
			Channel:         "admin",
			Email:           booking.Email,
			GatewayResponse: req.Note,
			PaidAt:          &paidAt,
		}
		return s.repo.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, payment)
}

func (s *service) ListPayments(ctx context.Context, bookingID uint) ([]bookings.PaymentInfo, error) {
	list, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return lo.Map(list, func(p bookings.Payment, _ int) bookings.PaymentInfo { return p.ToPaymentInfo() }), nil
}

//  SETTLEMENT

// settle recomputes the booking's payment position from its PAID payments
// and then confirms it. Any paid amount books the held seats; a partial
// amount leaves the booking split with an amount still due.
//
// Totals are committed before confirmation so that a failed confirmation
// (for example an expired hold) never loses the record of money received.
func (s *service) settle(ctx context.Context, payment *bookings.Payment) (*SettlementResult, error) {
	ctx, span := tracer.Start(ctx, "payments.settle")
	span.SetAttributes(attribute.String("payment.reference", payment.Reference))
	defer span.End()

	var (
		booking *bookings.Booking
		totals  bookings.PaymentTotals
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		current, err := s.bookings.GetByID(ctx, payment.BookingID)
		if err != nil {
			return err
		}
		trip, err := s.trips.GetTrip(ctx, current.TripID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: booking %s has no trip", apperrors.ErrDataIntegrity, current.BookingToken)
			}
			return err
		}

		paid, count, err := s.repo.SumPaid(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("failed to total payments: %w", err)
		}
		totals = computeTotals(trip.Price, current.SeatCount, paid, count)

		booking, err = s.bookings.ApplyPaymentTotals(ctx, current.ID, totals)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperrors.Kind(err))
		return nil, err
	}

	s.log.LogPaymentSettled(ctx, payment.Reference, totals.AmountPaid, totals.AmountDue, totals.Complete)
	metrics.PaymentsSettled.WithLabelValues(lo.Ternary(totals.Complete, "complete", "partial")).Inc()
	s.publishSettled(ctx, booking, payment)

	switch booking.Status {
	case bookings.StatusCancelled:
		s.log.WarnContext(ctx, "payment settled on a cancelled booking",
			"reference", payment.Reference, "booking_token", booking.BookingToken)
	default:
		booking, err = s.bookings.Confirm(ctx, booking.ID, nil)
		if err != nil {
			s.log.ErrorContext(ctx, "payment recorded but booking confirmation failed",
				"reference", payment.Reference, "booking_id", payment.BookingID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, apperrors.Kind(err))
			return nil, err
		}
	}

	return newSettlementResult(payment, booking, false), nil
}

// computeTotals derives the payment position. totalAmount is price times
// seat count; amountDue never goes negative.
func computeTotals(price int64, seatCount int, paid, paidCount int64) bookings.PaymentTotals {
	total := price * int64(seatCount)
	due := max(total-paid, 0)
	return bookings.PaymentTotals{
		AmountPaid: paid,
		AmountDue:  due,
		Complete:   due == 0,
		Split:      paidCount > 1 || (paid > 0 && due > 0),
	}
}

func (s *service) publishSettled(ctx context.Context, booking *bookings.Booking, payment *bookings.Payment) {
	event := notifications.BookingEvent{
		Type:         notifications.EventPaymentSettled,
		BookingID:    booking.ID,
		BookingToken: booking.BookingToken,
		TripID:       booking.TripID,
		Status:       string(booking.Status),
		Email:        booking.Email,
		AmountPaid:   booking.AmountPaid,
		AmountDue:    booking.AmountDue,
		OccurredAt:   s.now().UTC(),
	}
	transaction.AfterCommit(ctx, func() {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.WarnContext(ctx, "failed to publish payment event", "reference", payment.Reference, "error", err)
		}
	})
}

//  HELPERS

// currentState reports a payment that was already handled. A PAID payment
// on a booking that is still PENDING means the earlier confirmation failed
// after the money was recorded, so settlement runs again.
func (s *service) currentState(ctx context.Context, reference string) (*SettlementResult, error) {
	payment, err := s.findPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if payment.IsPaid() && booking.Status == bookings.StatusPending {
		s.log.InfoContext(ctx, "resuming settlement of a paid booking",
			"reference", reference, "booking_token", booking.BookingToken)
		result, err := s.settle(ctx, payment)
		if err != nil {
			return nil, err
		}
		result.AlreadySettled = true
		return result, nil
	}
	return newSettlementResult(payment, booking, true), nil
}

func (s *service) findPayment(ctx context.Context, reference string) (*bookings.Payment, error) {
	payment, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, reference)
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return payment, nil
}

func (s *service) resolveBooking(ctx context.Context, id uint, token string) (*bookings.Booking, error) {
	if id != 0 {
		return s.bookings.GetByID(ctx, id)
	}
	return s.bookings.GetByToken(ctx, strings.TrimSpace(token))
}
