package seats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/constants"
	"busline/internal/storetest"
	"busline/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSeats(t *testing.T, opts ...seats.Option) (seats.Service, *storetest.Store, *storetest.Clock, []seats.Seat) {
	t.Helper()
	clock := storetest.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := storetest.New()
	store.Now = clock.Now

	svc := seats.NewService(store.Seats(), store, append([]seats.Option{seats.WithClock(clock.Now)}, opts...)...)
	_, list := store.SeedTrip(5000, 4, clock.Now().Add(24*time.Hour))
	return svc, store, clock, list
}

func ids(list ...seats.Seat) []uint {
	out := make([]uint, 0, len(list))
	for _, seat := range list {
		out = append(out, seat.ID)
	}
	return out
}

func TestReserveIsAllOrNothing(t *testing.T) {
	svc, store, _, list := setupSeats(t)
	ctx := context.Background()
	tripID := list[0].TripID

	held, err := svc.Reserve(ctx, tripID, ids(list[1]), "tok-a")
	require.NoError(t, err)
	require.Len(t, held, 1)

	_, err = svc.Reserve(ctx, tripID, ids(list[0], list[1]), "tok-b")
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)

	assert.Equal(t, seats.StatusAvailable, store.Seat(list[0].ID).Status)
	assert.Equal(t, "tok-a", *store.Seat(list[1].ID).HoldToken)
}

func TestReserveTakesOverExpiredHold(t *testing.T) {
	svc, store, clock, list := setupSeats(t)
	ctx := context.Background()
	tripID := list[0].TripID

	_, err := svc.Reserve(ctx, tripID, ids(list[0]), "tok-a")
	require.NoError(t, err)

	clock.Advance(seats.DefaultHoldTTL + time.Second)
	_, err = svc.Reserve(ctx, tripID, ids(list[0]), "tok-b")
	require.NoError(t, err)
	assert.Equal(t, "tok-b", *store.Seat(list[0].ID).HoldToken)
}

func TestReserveValidation(t *testing.T) {
	svc, _, _, list := setupSeats(t)

	_, err := svc.Reserve(context.Background(), list[0].TripID, nil, "tok")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Reserve(context.Background(), list[0].TripID, ids(list[0]), "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Reserve(context.Background(), list[0].TripID+1, ids(list[0]), "tok")
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)
}

func TestConfirm(t *testing.T) {
	svc, store, _, list := setupSeats(t)
	ctx := context.Background()
	tripID := list[0].TripID

	_, err := svc.Reserve(ctx, tripID, ids(list[0], list[1]), "tok-a")
	require.NoError(t, err)

	booked, err := svc.Confirm(ctx, seats.ConfirmRequest{TripID: tripID, BookingID: 7, HoldToken: "tok-a"})
	require.NoError(t, err)
	assert.Len(t, booked, 2)
	for _, seat := range list[:2] {
		got := store.Seat(seat.ID)
		assert.Equal(t, seats.StatusBooked, got.Status)
		assert.Equal(t, uint(7), *got.BookingID)
		assert.Nil(t, got.HoldToken)
	}

	// Confirming again returns the same seats.
	again, err := svc.Confirm(ctx, seats.ConfirmRequest{TripID: tripID, BookingID: 7, HoldToken: "tok-a", SeatIDs: ids(list[0], list[1])})
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestConfirmErrors(t *testing.T) {
	svc, _, clock, list := setupSeats(t)
	ctx := context.Background()
	tripID := list[0].TripID

	_, err := svc.Confirm(ctx, seats.ConfirmRequest{TripID: tripID, BookingID: 1, HoldToken: "nothing-held"})
	assert.ErrorIs(t, err, apperrors.ErrNoValidReservedSeats)

	_, err = svc.Reserve(ctx, tripID, ids(list[0]), "tok-a")
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, seats.ConfirmRequest{TripID: tripID, BookingID: 1, HoldToken: "tok-b", SeatIDs: ids(list[0])})
	assert.True(t, errors.Is(err, apperrors.ErrNoValidReservedSeats) || errors.Is(err, apperrors.ErrSeatUnavailable))

	clock.Advance(seats.DefaultHoldTTL + time.Second)
	_, err = svc.Confirm(ctx, seats.ConfirmRequest{TripID: tripID, BookingID: 1, HoldToken: "tok-a"})
	assert.ErrorIs(t, err, apperrors.ErrHoldExpired)

	booked, err := svc.Confirm(ctx, seats.ConfirmRequest{TripID: tripID, BookingID: 1, HoldToken: "tok-a", BypassTTL: true})
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

func TestValidateHold(t *testing.T) {
	svc, _, clock, list := setupSeats(t)
	ctx := context.Background()
	tripID := list[0].TripID

	_, err := svc.Reserve(ctx, tripID, ids(list[0], list[1]), "tok-a")
	require.NoError(t, err)

	ok, err := svc.ValidateHold(ctx, tripID, ids(list[0], list[1]), "tok-a", 9)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ValidateHold(ctx, tripID, ids(list[0], list[2]), "tok-a", 9)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Confirm(ctx, seats.ConfirmRequest{TripID: tripID, BookingID: 9, HoldToken: "tok-a", SeatIDs: ids(list[0])})
	require.NoError(t, err)

	clock.Advance(seats.DefaultHoldTTL + time.Second)
	ok, err = svc.ValidateHold(ctx, tripID, ids(list[0]), "tok-a", 9)
	require.NoError(t, err)
	assert.True(t, ok, "booked seats stay valid past the hold lifetime")

	ok, err = svc.ValidateHold(ctx, tripID, ids(list[1]), "tok-a", 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseExpiredSkipsRenewedHolds(t *testing.T) {
	svc, store, clock, list := setupSeats(t)
	ctx := context.Background()
	tripID := list[0].TripID

	_, err := svc.Reserve(ctx, tripID, ids(list[0], list[1]), "tok-a")
	require.NoError(t, err)
	clock.Advance(seats.DefaultHoldTTL + time.Second)

	cutoff := clock.Now().Add(-seats.DefaultHoldTTL)
	expired, err := svc.ExpiredHolds(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 2)

	// Another passenger grabs one seat between the scan and the release.
	_, err = svc.Reserve(ctx, tripID, ids(list[1]), "tok-b")
	require.NoError(t, err)

	n, err := svc.ReleaseExpired(ctx, ids(expired...), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, seats.StatusAvailable, store.Seat(list[0].ID).Status)
	assert.Equal(t, seats.StatusReserved, store.Seat(list[1].ID).Status)
}

func TestAssignAvailable(t *testing.T) {
	svc, _, _, list := setupSeats(t)
	ctx := context.Background()
	tripID := list[0].TripID

	assigned, err := svc.AssignAvailable(ctx, tripID, 3, "tok-a", 2)
	require.NoError(t, err)
	assert.Len(t, assigned, 2)

	_, err = svc.AssignAvailable(ctx, tripID, 4, "tok-b", 3)
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)

	count, err := svc.CountAvailable(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestReleaseForBooking(t *testing.T) {
	svc, store, _, list := setupSeats(t)
	ctx := context.Background()
	tripID := list[0].TripID

	_, err := svc.Reserve(ctx, tripID, ids(list[0], list[1]), "tok-a")
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, seats.ConfirmRequest{TripID: tripID, BookingID: 5, HoldToken: "tok-a", SeatIDs: ids(list[0])})
	require.NoError(t, err)

	released, err := svc.ReleaseForBooking(ctx, 5, "tok-a")
	require.NoError(t, err)
	assert.Len(t, released, 2)
	for _, seat := range list[:2] {
		assert.Equal(t, seats.StatusAvailable, store.Seat(seat.ID).Status)
	}
}

func TestAvailableSeatsCacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, _, _, list := setupSeats(t, seats.WithCache(cache.NewService(client)))
	ctx := context.Background()
	tripID := list[0].TripID

	resp, err := svc.AvailableSeats(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Count)

	_, err = svc.Reserve(ctx, tripID, ids(list[0]), "tok-a")
	require.NoError(t, err)

	resp, err = svc.AvailableSeats(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Count)
}

func TestAvailableSeatsStaleEntryIsShortLived(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, store, _, list := setupSeats(t, seats.WithCache(cache.NewService(client)))
	ctx := context.Background()
	tripID := list[0].TripID
	key := constants.BuildSeatAvailabilityKey(tripID)

	_, err := svc.AvailableSeats(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, constants.TTL_SEATS_AVAILABLE, mr.TTL(key))
	assert.LessOrEqual(t, mr.TTL(key), 5*time.Second)
	stale, err := mr.Get(key)
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, tripID, ids(list[0]), "tok-a")
	require.NoError(t, err)

	// a fetch that started before the reserve lands after its invalidation
	require.NoError(t, mr.Set(key, stale))
	mr.SetTTL(key, constants.TTL_SEATS_AVAILABLE)

	resp, err := svc.AvailableSeats(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Count)

	_, err = svc.Reserve(ctx, tripID, ids(list[0]), "tok-b")
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)
	assert.Equal(t, "tok-a", *store.Seat(list[0].ID).HoldToken)

	mr.FastForward(constants.TTL_SEATS_AVAILABLE)
	resp, err = svc.AvailableSeats(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Count)
}
