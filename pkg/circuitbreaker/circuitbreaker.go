// Package circuitbreaker wraps sony/gobreaker for outbound HTTP dependencies.
//
// States:
//   - Closed: calls pass through
//   - Open: calls fail fast with ErrOpen until Timeout elapses
//   - Half-Open: MaxRequests trial calls decide whether to close again
//
// Usage:
//
//	cb := circuitbreaker.New("paystack")
//	err := cb.Do(ctx, func(ctx context.Context) error { ... })
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"busline/pkg/logger"

	"github.com/sony/gobreaker/v2"
)

// ErrOpen is returned without invoking the call while the breaker rejects traffic.
var ErrOpen = errors.New("circuit breaker open")

type Settings struct {
	MaxRequests  uint32        // trial calls allowed while half-open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // time spent open before going half-open
	FailureRatio float64       // failure share that trips the breaker
	MinRequests  uint32        // requests needed before the ratio is considered
}

func DefaultSettings() Settings {
	return Settings{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Breaker counts only failures that IsFailure accepts. Everything else, such
// as a declined payment, passes through as a success for breaker accounting.
type Breaker struct {
	cb        *gobreaker.CircuitBreaker[any]
	name      string
	isFailure func(error) bool
}

func New(name string) *Breaker {
	return NewWithSettings(name, DefaultSettings(), nil)
}

// NewWithSettings builds a breaker. A nil isFailure treats every error as a
// failure.
func NewWithSettings(name string, s Settings, isFailure func(error) bool) *Breaker {
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	log := logger.GetDefault().WithComponent("circuitbreaker")

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				log.Warn("circuit breaker opened", "breaker", name, "from", from.String())
			default:
				log.Info("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
	})

	return &Breaker{cb: cb, name: name, isFailure: isFailure}
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Do runs fn through the breaker and returns fn's own error, or ErrOpen when
// the call was rejected.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var callErr error
	_, cbErr := b.cb.Execute(func() (any, error) {
		callErr = fn(ctx)
		if callErr != nil && b.isFailure(callErr) {
			return nil, callErr
		}
		return nil, nil
	})

	if errors.Is(cbErr, gobreaker.ErrOpenState) || errors.Is(cbErr, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return callErr
}
