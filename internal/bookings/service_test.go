package bookings_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/storetest"
	"busline/internal/trips"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event notifications.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []notifications.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *storetest.Store
	clock     *storetest.Clock
	publisher *recordingPublisher
	service   bookings.Service
	trip      trips.Trip
	seats     []seats.Seat
}

func setup(t *testing.T) *fixture {
	t.Helper()

	clock := storetest.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := storetest.New()
	store.Now = clock.Now
	publisher := &recordingPublisher{}

	seatService := seats.NewService(store.Seats(), store, seats.WithClock(clock.Now))
	tripService := trips.NewService(store.Trips(), seatService, store, trips.WithClock(clock.Now))
	service := bookings.NewService(store.Bookings(), seatService, tripService, store,
		bookings.WithClock(clock.Now), bookings.WithPublisher(publisher))

	trip, list := store.SeedTrip(5000, 6, clock.Now().Add(48*time.Hour))
	return &fixture{store: store, clock: clock, publisher: publisher, service: service, trip: trip, seats: list}
}

func (f *fixture) request(ids ...uint) bookings.CreateBookingRequest {
	return bookings.CreateBookingRequest{
		TripID:        f.trip.ID,
		SeatIDs:       ids,
		PassengerName: " Ada Obi ",
		Email:         "Ada@Example.com",
		Mobile:        "+2348012345678",
	}
}

func TestCreateDraftHoldsSeats(t *testing.T) {
	f := setup(t)

	b, err := f.service.CreateDraft(context.Background(), f.request(f.seats[0].ID, f.seats[1].ID, f.seats[1].ID))
	require.NoError(t, err)

	assert.Equal(t, bookings.StatusPending, b.Status)
	assert.Equal(t, 2, b.SeatCount)
	assert.Equal(t, int64(10000), b.AmountDue)
	assert.Equal(t, "Ada Obi", b.PassengerName)
	assert.Equal(t, "ada@example.com", b.Email)
	assert.NotEmpty(t, b.BookingToken)

	for _, seat := range f.seats[:2] {
		got := f.store.Seat(seat.ID)
		assert.Equal(t, seats.StatusReserved, got.Status)
		require.NotNil(t, got.HoldToken)
		assert.Equal(t, b.BookingToken, *got.HoldToken)
	}

	logs := f.store.Logs(b.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, bookings.ActionCreated, logs[0].Action)
	assert.Equal(t, []notifications.EventType{notifications.EventBookingCreated}, f.publisher.types())
}

func TestCreateDraftValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.service.CreateDraft(ctx, f.request())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	ids := make([]uint, 0, 6)
	for _, seat := range f.seats {
		ids = append(ids, seat.ID)
	}
	_, err = f.service.CreateDraft(ctx, f.request(ids...))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	req := f.request(f.seats[0].ID)
	req.TripID = 999
	_, err = f.service.CreateDraft(ctx, req)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 0, f.store.BookingCount())
}

func TestCreateDraftLeavesNothingOnContention(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.service.CreateDraft(ctx, f.request(f.seats[1].ID))
	require.NoError(t, err)

	_, err = f.service.CreateDraft(ctx, f.request(f.seats[0].ID, f.seats[1].ID))
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)

	assert.Equal(t, 1, f.store.BookingCount())
	assert.Equal(t, seats.StatusAvailable, f.store.Seat(f.seats[0].ID).Status)
}

func TestConcurrentDraftsNeverDoubleBook(t *testing.T) {
	f := setup(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.CreateDraft(context.Background(), f.request(f.seats[0].ID, f.seats[2].ID))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, apperrors.ErrSeatUnavailable), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.store.BookingCount())
}

func TestConfirmRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	b, err := f.service.CreateDraft(ctx, f.request(f.seats[0].ID, f.seats[1].ID))
	require.NoError(t, err)

	confirmed, err := f.service.Confirm(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusConfirmed, confirmed.Status)

	for _, seat := range f.seats[:2] {
		got := f.store.Seat(seat.ID)
		assert.Equal(t, seats.StatusBooked, got.Status)
		require.NotNil(t, got.BookingID)
		assert.Equal(t, b.ID, *got.BookingID)
		assert.Nil(t, got.HoldToken)
	}

	// A second confirmation is a no-op.
	again, err := f.service.Confirm(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusConfirmed, again.Status)

	logs := f.store.Logs(b.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, bookings.ActionConfirmed, logs[1].Action)
	assert.Equal(t, bookings.StatusPending, logs[1].FromStatus)
	assert.Equal(t, []notifications.EventType{
		notifications.EventBookingCreated,
		notifications.EventBookingConfirmed,
	}, f.publisher.types())
}

func TestConfirmAfterHoldExpiry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	b, err := f.service.CreateDraft(ctx, f.request(f.seats[0].ID))
	require.NoError(t, err)

	f.clock.Advance(seats.DefaultHoldTTL + time.Second)
	_, err = f.service.Confirm(ctx, b.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrHoldExpired)

	stored, _ := f.store.Booking(b.ID)
	assert.Equal(t, bookings.StatusPending, stored.Status)
	assert.Len(t, f.store.Logs(b.ID), 1)
}

func TestConfirmCancelledBooking(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	b, err := f.service.CreateDraft(ctx, f.request(f.seats[0].ID))
	require.NoError(t, err)
	_, err = f.service.Cancel(ctx, b.BookingToken, bookings.ActorOperator)
	require.NoError(t, err)

	_, err = f.service.Confirm(ctx, b.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestCancelReleasesSeats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	b, err := f.service.CreateDraft(ctx, f.request(f.seats[0].ID, f.seats[1].ID))
	require.NoError(t, err)
	_, err = f.service.Confirm(ctx, b.ID, nil)
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(ctx, strconv.FormatUint(uint64(b.ID), 10), bookings.ActorOperator)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	for _, seat := range f.seats[:2] {
		got := f.store.Seat(seat.ID)
		assert.Equal(t, seats.StatusAvailable, got.Status)
		assert.Nil(t, got.BookingID)
	}

	logs := f.store.Logs(b.ID)
	require.Len(t, logs, 3)
	assert.Equal(t, bookings.ActionCancelledByAdmin, logs[2].Action)
	assert.Contains(t, logs[2].Metadata, "released_seats")

	_, err = f.service.Cancel(ctx, b.BookingToken, bookings.ActorOperator)
	require.NoError(t, err)
	assert.Len(t, f.store.Logs(b.ID), 3)
}

func TestUpdateStatusAssignsSeats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	b, err := f.service.CreateDraft(ctx, f.request(f.seats[0].ID))
	require.NoError(t, err)

	// Operator confirmation ignores the hold lifetime and tops up to three seats.
	f.clock.Advance(seats.DefaultHoldTTL + time.Minute)
	updated, err := f.service.UpdateStatus(ctx, b.BookingToken, bookings.StatusConfirmed, bookings.UpdateStatusOptions{SeatCount: 3})
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusConfirmed, updated.Status)
	assert.Equal(t, 3, updated.SeatCount)

	booked := 0
	for _, seat := range f.seats {
		got := f.store.Seat(seat.ID)
		if got.Status == seats.StatusBooked && got.BookingID != nil && *got.BookingID == b.ID {
			booked++
		}
	}
	assert.Equal(t, 3, booked)
	assert.Equal(t, seats.StatusBooked, f.store.Seat(f.seats[0].ID).Status)

	logs := f.store.Logs(b.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, bookings.ActionConfirmedByAdmin, logs[1].Action)
	assert.Equal(t, bookings.ActorOperator, logs[1].Actor)
}

func TestUpdateStatusDowngrade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	b, err := f.service.CreateDraft(ctx, f.request(f.seats[0].ID))
	require.NoError(t, err)
	_, err = f.service.Confirm(ctx, b.ID, nil)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, b.BookingToken, bookings.StatusPending, bookings.UpdateStatusOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	downgraded, err := f.service.UpdateStatus(ctx, b.BookingToken, bookings.StatusPending, bookings.UpdateStatusOptions{AllowDowngrade: true})
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusPending, downgraded.Status)
	assert.Equal(t, seats.StatusAvailable, f.store.Seat(f.seats[0].ID).Status)

	logs := f.store.Logs(b.ID)
	assert.Equal(t, bookings.ActionStatusDowngraded, logs[len(logs)-1].Action)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := setup(t)
	_, err := f.service.UpdateStatus(context.Background(), "1", bookings.Status("LOST"), bookings.UpdateStatusOptions{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRetrieve(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.service.Retrieve(ctx, "BUS-MISSING")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	b, err := f.service.CreateDraft(ctx, f.request(f.seats[0].ID, f.seats[1].ID))
	require.NoError(t, err)

	_, err = f.service.Retrieve(ctx, b.BookingToken)
	assert.ErrorIs(t, err, apperrors.ErrPaymentIncomplete)

	_, err = f.service.ApplyPaymentTotals(ctx, b.ID, bookings.PaymentTotals{AmountPaid: 4000, AmountDue: 6000, Split: true})
	require.NoError(t, err)
	_, err = f.service.Confirm(ctx, b.ID, nil)
	require.NoError(t, err)

	detail, err := f.service.Retrieve(ctx, b.BookingToken)
	require.NoError(t, err)
	assert.Equal(t, "Lagos", detail.Trip.Origin)
	assert.Equal(t, "Abuja", detail.Trip.Destination)
	assert.Equal(t, int64(5000), detail.Trip.Price)
	assert.NotEmpty(t, detail.Trip.PlateNo)
	assert.Len(t, detail.Seats, 2)
	assert.Equal(t, int64(4000), detail.AmountPaid)

	_, err = f.service.Cancel(ctx, b.BookingToken, bookings.ActorOperator)
	require.NoError(t, err)
	_, err = f.service.Retrieve(ctx, b.BookingToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.CreateDraft(ctx, f.request(f.seats[i].ID))
		require.NoError(t, err)
	}

	list, err := f.service.List(ctx, bookings.BookingListQuery{Status: bookings.StatusPending, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.TotalCount)
	assert.Len(t, list.Bookings, 2)
	assert.Equal(t, 2, list.TotalPages)

	_, err = f.service.List(ctx, bookings.BookingListQuery{DateFrom: "not-a-date", Page: 1, Limit: 10})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
