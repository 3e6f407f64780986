package trips_test

import (
	"context"
	"testing"
	"time"

	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/storetest"
	"busline/internal/trips"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTrips(t *testing.T) (trips.Service, seats.Service, *storetest.Store, *storetest.Clock) {
	t.Helper()
	clock := storetest.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := storetest.New()
	store.Now = clock.Now

	seatService := seats.NewService(store.Seats(), store, seats.WithClock(clock.Now))
	return trips.NewService(store.Trips(), seatService, store, trips.WithClock(clock.Now)), seatService, store, clock
}

func TestCreateTripBuildsSeats(t *testing.T) {
	svc, seatService, _, clock := setupTrips(t)
	ctx := context.Background()

	route, err := svc.CreateRoute(ctx, trips.CreateRouteRequest{Origin: "Lagos", Destination: "Ibadan", DistanceKm: 130})
	require.NoError(t, err)
	bus, err := svc.CreateBus(ctx, trips.CreateBusRequest{PlateNo: "LAG-101", BusType: "coach", Capacity: 10, SeatsPerRow: 4})
	require.NoError(t, err)

	depart := clock.Now().Add(6 * time.Hour)
	trip, err := svc.CreateTrip(ctx, trips.CreateTripRequest{
		RouteID:    route.ID,
		BusID:      bus.ID,
		Price:      750000,
		DepartTime: depart,
		ArriveTime: depart.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, trips.StatusScheduled, trip.Status)
	assert.Equal(t, int64(10), trip.AvailableSeats)
	assert.Equal(t, "Lagos", trip.Origin)

	available, err := seatService.FindAvailable(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, available, 10)
}

func TestCreateTripValidation(t *testing.T) {
	svc, _, _, clock := setupTrips(t)
	ctx := context.Background()
	now := clock.Now()

	_, err := svc.CreateTrip(ctx, trips.CreateTripRequest{RouteID: 1, BusID: 1, Price: 1, DepartTime: now.Add(time.Hour), ArriveTime: now})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateTrip(ctx, trips.CreateTripRequest{RouteID: 1, BusID: 1, Price: 1, DepartTime: now.Add(-time.Hour), ArriveTime: now.Add(time.Hour)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateTrip(ctx, trips.CreateTripRequest{RouteID: 42, BusID: 1, Price: 1, DepartTime: now.Add(time.Hour), ArriveTime: now.Add(2 * time.Hour)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCheckBookable(t *testing.T) {
	svc, seatService, store, clock := setupTrips(t)
	ctx := context.Background()

	trip, list := store.SeedTrip(5000, 1, clock.Now().Add(time.Hour))

	got, err := svc.CheckBookable(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.ID)

	_, err = seatService.Reserve(ctx, trip.ID, []uint{list[0].ID}, "tok")
	require.NoError(t, err)
	_, err = svc.CheckBookable(ctx, trip.ID)
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)

	other, _ := store.SeedTrip(5000, 2, clock.Now().Add(time.Hour))
	clock.Advance(2 * time.Hour)
	_, err = svc.CheckBookable(ctx, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	_, err = svc.CheckBookable(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	svc, _, store, clock := setupTrips(t)
	ctx := context.Background()
	trip, _ := store.SeedTrip(5000, 2, clock.Now().Add(time.Hour))

	updated, err := svc.UpdateStatus(ctx, trip.ID, trips.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, trips.StatusCancelled, updated.Status)

	_, err = svc.CheckBookable(ctx, trip.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, trip.ID, trips.Status("LOST"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.UpdateStatus(ctx, 999, trips.StatusCompleted)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListTripsUpcoming(t *testing.T) {
	svc, _, store, clock := setupTrips(t)
	ctx := context.Background()

	store.SeedTrip(5000, 2, clock.Now().Add(-time.Hour))
	store.SeedTrip(5000, 2, clock.Now().Add(time.Hour))
	store.SeedTrip(5000, 2, clock.Now().Add(2*time.Hour))

	list, err := svc.ListTrips(ctx, trips.TripListQuery{Upcoming: true, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.TotalCount)
	require.Len(t, list.Trips, 2)
	assert.True(t, list.Trips[0].DepartTime.Before(list.Trips[1].DepartTime))
	assert.Equal(t, int64(2), list.Trips[0].AvailableSeats)
}
