package locks

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Ensure creates the lock row if it does not exist yet.
	Ensure(ctx context.Context, name string) error
	// Acquire stamps lockedAt=now if the lock is free or older than
	// staleBefore and reports the number of rows changed.
	Acquire(ctx context.Context, name string, now, staleBefore time.Time) (int64, error)
	Release(ctx context.Context, name string) error
	// ReleaseHeld clears the lock only if it still carries lockedAt.
	ReleaseHeld(ctx context.Context, name string, lockedAt time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Ensure(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&JobLock{Name: name}).Error
}

func (r *repository) Acquire(ctx context.Context, name string, now, staleBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&JobLock{}).
		Where("name = ? AND (locked_at IS NULL OR locked_at < ?)", name, staleBefore).
		Update("locked_at", now)
	return result.RowsAffected, result.Error
}

func (r *repository) Release(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Model(&JobLock{}).
		Where("name = ?", name).
		Update("locked_at", nil).Error
}

func (r *repository) ReleaseHeld(ctx context.Context, name string, lockedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&JobLock{}).
		Where("name = ? AND locked_at = ?", name, lockedAt).
		Update("locked_at", nil)
	return result.RowsAffected, result.Error
}
