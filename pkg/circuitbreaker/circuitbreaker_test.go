package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransport = errors.New("connection refused")
	errDeclined  = errors.New("card declined")
)

func testSettings() Settings {
	return Settings{MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, FailureRatio: 0.5, MinRequests: 2}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := NewWithSettings("test", testSettings(), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := b.Do(ctx, func(context.Context) error { return errTransport })
		assert.ErrorIs(t, err, errTransport)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerIgnoresBusinessErrors(t *testing.T) {
	b := NewWithSettings("test", testSettings(), func(err error) bool {
		return errors.Is(err, errTransport)
	})

	for i := 0; i < 5; i++ {
		err := b.Do(context.Background(), func(context.Context) error { return errDeclined })
		assert.ErrorIs(t, err, errDeclined)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, "test", b.Name())
}
