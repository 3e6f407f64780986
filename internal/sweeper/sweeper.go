// Package sweeper reclaims seats whose holds expired without payment.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"busline/internal/locks"
	"busline/internal/seats"
	"busline/internal/shared/transaction"
	"busline/pkg/logger"
	"busline/pkg/metrics"

	"github.com/samber/lo"
)

// BookingCleaner removes bookings abandoned before payment.
type BookingCleaner interface {
	DeleteUnpaidPending(ctx context.Context, tokens []string) (int64, error)
	DeleteStaleOrphans(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config contains configuration for the sweep job
type Config struct {
	Interval         time.Duration
	HoldTTL          time.Duration
	LockName         string
	LockStaleTimeout time.Duration
}

// DefaultConfig returns default sweep configuration
func DefaultConfig() Config {
	return Config{
		Interval:         5 * time.Minute, // Sweep every five minutes
		HoldTTL:          seats.DefaultHoldTTL,
		LockName:         "free_expired_seats",
		LockStaleTimeout: 5 * time.Minute, // A crashed holder is taken over after this
	}
}

// Result describes one sweep. Acquired is false when another instance held
// the lock and nothing was done.
type Result struct {
	Acquired        bool          `json:"acquired"`
	Freed           int64         `json:"freed"`
	DeletedBookings int64         `json:"deleted_bookings"`
	Duration        time.Duration `json:"duration"`
	Err             error         `json:"-"`
}

// Sweeper frees expired holds on a ticker. At most one instance in the
// cluster sweeps at a time.
type Sweeper struct {
	seats    seats.Service
	bookings BookingCleaner
	locks    locks.Service
	tx       transaction.Manager
	config   Config
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastRun *Result
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

func New(seatService seats.Service, cleaner BookingCleaner, lockService locks.Service, tx transaction.Manager, config Config, opts ...Option) *Sweeper {
	defaults := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.HoldTTL <= 0 {
		config.HoldTTL = defaults.HoldTTL
	}
	if config.LockName == "" {
		config.LockName = defaults.LockName
	}
	if config.LockStaleTimeout <= 0 {
		config.LockStaleTimeout = defaults.LockStaleTimeout
	}

	s := &Sweeper{
		seats:    seatService,
		bookings: cleaner,
		locks:    lockService,
		tx:       tx,
		config:   config,
		log:      logger.GetDefault().WithComponent("sweeper"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce performs a single sweep under the cluster lock.
func (s *Sweeper) RunOnce(ctx context.Context) Result {
	start := s.now()
	var result Result

	acquired, err := s.locks.WithLock(ctx, s.config.LockName, s.config.LockStaleTimeout, func(ctx context.Context) error {
		freed, deleted, err := s.sweep(ctx)
		result.Freed, result.DeletedBookings = freed, deleted
		return err
	})
	result.Acquired = acquired
	result.Err = err
	result.Duration = s.now().Sub(start)

	switch {
	case err != nil:
		metrics.SweepRuns.WithLabelValues("error").Inc()
		s.log.ErrorContext(ctx, "sweep failed", "error", err)
	case !acquired:
		metrics.SweepRuns.WithLabelValues("skipped").Inc()
	default:
		metrics.SweepRuns.WithLabelValues("success").Inc()
		metrics.SeatsFreed.Add(float64(result.Freed))
	}
	s.log.LogSweep(ctx, acquired, int(result.Freed), result.Duration)

	s.mu.Lock()
	s.lastRun = &result
	s.mu.Unlock()
	return result
}

// sweep deletes the unpaid bookings behind expired holds and frees the seats
// in one transaction.
func (s *Sweeper) sweep(ctx context.Context) (freed, deleted int64, err error) {
	cutoff := s.now().Add(-s.config.HoldTTL)

	expired, err := s.seats.ExpiredHolds(ctx, cutoff)
	if err != nil {
		return 0, 0, err
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if len(expired) > 0 {
			tokens := lo.Uniq(lo.FilterMap(expired, func(seat seats.Seat, _ int) (string, bool) {
				if seat.HoldToken == nil {
					return "", false
				}
				return *seat.HoldToken, true
			}))

			n, err := s.bookings.DeleteUnpaidPending(ctx, tokens)
			if err != nil {
				return fmt.Errorf("failed to delete unpaid bookings: %w", err)
			}
			deleted += n

			ids := lo.Map(expired, func(seat seats.Seat, _ int) uint { return seat.ID })
			freed, err = s.seats.ReleaseExpired(ctx, ids, cutoff)
			if err != nil {
				return err
			}
		}

		n, err := s.bookings.DeleteStaleOrphans(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete orphaned bookings: %w", err)
		}
		deleted += n
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return freed, deleted, nil
}

// Start launches the ticker loop. It returns immediately; Stop or cancelling
// ctx ends the loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	s.log.Info("expired hold sweeper started", "interval", s.config.Interval.String(), "hold_ttl", s.config.HoldTTL.String())
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("expired hold sweeper stopped")
}

// Status reports the schedule and the outcome of the last sweep.
func (s *Sweeper) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"interval":  s.config.Interval.String(),
		"hold_ttl":  s.config.HoldTTL.String(),
		"lock_name": s.config.LockName,
		"running":   s.done != nil,
	}
	if s.lastRun != nil {
		status["last_run"] = s.lastRun
	}
	return status
}
