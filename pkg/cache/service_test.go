package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"busline/internal/shared/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seatList struct {
	TripID uint     `json:"trip_id"`
	Seats  []string `json:"seats"`
}

func setupCache(t *testing.T) (Service, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client), mr
}

func TestGetSetDelete(t *testing.T) {
	svc, _ := setupCache(t)
	ctx := context.Background()

	var got seatList
	assert.ErrorIs(t, svc.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, svc.Set(ctx, "k", seatList{TripID: 1, Seats: []string{"S1"}}, time.Minute))
	require.NoError(t, svc.Get(ctx, "k", &got))
	assert.Equal(t, uint(1), got.TripID)
	assert.True(t, svc.Exists(ctx, "k"))

	require.NoError(t, svc.Delete(ctx, "k"))
	assert.False(t, svc.Exists(ctx, "k"))
}

func TestSetNX(t *testing.T) {
	svc, mr := setupCache(t)
	ctx := context.Background()

	ok, err := svc.SetNX(ctx, "dedupe", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.SetNX(ctx, "dedupe", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = svc.SetNX(ctx, "dedupe", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetOrSet(t *testing.T) {
	svc, _ := setupCache(t)
	ctx := context.Background()
	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return seatList{TripID: 3, Seats: []string{"S1", "S2"}}, nil
	}

	var first, second seatList
	require.NoError(t, svc.GetOrSet(ctx, "trip:3", time.Minute, fetch, &first))
	require.NoError(t, svc.GetOrSet(ctx, "trip:3", time.Minute, fetch, &second))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestGetOrSet_FetcherError(t *testing.T) {
	svc, _ := setupCache(t)

	var dest seatList
	err := svc.GetOrSet(context.Background(), "trip:9", time.Minute, func() (interface{}, error) {
		return nil, errors.New("db down")
	}, &dest)
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := NewClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Ping(context.Background()).Err())

	mr.Close()
	_, err = NewClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
