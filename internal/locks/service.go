// Package locks provides named, time-bounded locks stored in the database so
// that one instance in a cluster runs a periodic job at a time.
package locks

import (
	"context"
	"fmt"
	"time"

	"busline/pkg/logger"
)

type Service interface {
	// TryAcquire reports whether the caller now holds name. A lock older
	// than staleTimeout is taken over.
	TryAcquire(ctx context.Context, name string, staleTimeout time.Duration) (bool, error)
	Release(ctx context.Context, name string) error

	// WithLock runs fn only when the lock is acquired and releases it
	// afterwards, even when fn fails. acquired is false when another holder
	// has it.
	WithLock(ctx context.Context, name string, staleTimeout time.Duration, fn func(ctx context.Context) error) (acquired bool, err error)
}

type service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, opts ...Option) Service {
	s := &service{
		repo: repo,
		log:  logger.GetDefault().WithComponent("locks"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) TryAcquire(ctx context.Context, name string, staleTimeout time.Duration) (bool, error) {
	_, ok, err := s.acquire(ctx, name, staleTimeout)
	return ok, err
}

// acquire returns the stamp written on success. Postgres keeps microseconds,
// so the stamp is truncated to match what a later equality check reads.
func (s *service) acquire(ctx context.Context, name string, staleTimeout time.Duration) (time.Time, bool, error) {
	if err := s.repo.Ensure(ctx, name); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to ensure lock %s: %w", name, err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	n, err := s.repo.Acquire(ctx, name, now, now.Add(-staleTimeout))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	return now, n == 1, nil
}

func (s *service) Release(ctx context.Context, name string) error {
	if err := s.repo.Release(ctx, name); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}

func (s *service) WithLock(ctx context.Context, name string, staleTimeout time.Duration, fn func(ctx context.Context) error) (bool, error) {
	stamp, ok, err := s.acquire(ctx, name, staleTimeout)
	if err != nil || !ok {
		return false, err
	}

	defer func() {
		// Release on a fresh context so a cancelled caller still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		n, rErr := s.repo.ReleaseHeld(releaseCtx, name, stamp)
		switch {
		case rErr != nil:
			s.log.WarnContext(ctx, "lock release failed, stale timeout will reclaim it", "lock", name, "error", rErr)
		case n == 0:
			s.log.WarnContext(ctx, "lock was taken over before release", "lock", name)
		}
	}()

	return true, fn(ctx)
}
