package seats

import (
	"context"
	"time"

	"busline/internal/shared/transaction"

	"gorm.io/gorm"
)

// Repository is the seat store. Every mutating method is a single conditional
// UPDATE whose WHERE clause re-checks the precondition, so concurrent callers
// never act on a stale read.
type Repository interface {
	CreateSeats(ctx context.Context, seats []Seat) error
	FindByIDs(ctx context.Context, tripID uint, seatIDs []uint) ([]Seat, error)
	FindByIDsAnyTrip(ctx context.Context, seatIDs []uint) ([]Seat, error)
	FindAvailable(ctx context.Context, tripID uint, limit int) ([]Seat, error)
	CountAvailable(ctx context.Context, tripID uint) (int64, error)
	FindByOwner(ctx context.Context, bookingID uint, holdToken string) ([]Seat, error)
	FindExpiredHolds(ctx context.Context, holdCutoff time.Time) ([]Seat, error)

	ReserveSeats(ctx context.Context, tripID uint, seatIDs []uint, holdToken string, now, holdCutoff time.Time) (int64, error)
	ConfirmSeats(ctx context.Context, tripID uint, seatIDs []uint, bookingID uint, holdToken string, holdCutoff *time.Time) (int64, error)
	ReleaseSeats(ctx context.Context, seatIDs []uint) (int64, error)
	ReleaseExpiredSeats(ctx context.Context, seatIDs []uint, holdCutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return transaction.DB(ctx, r.db)
}

func (r *repository) CreateSeats(ctx context.Context, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	return r.conn(ctx).CreateInBatches(&seats, 100).Error
}

func (r *repository) FindByIDs(ctx context.Context, tripID uint, seatIDs []uint) ([]Seat, error) {
	var seats []Seat
	err := r.conn(ctx).
		Where("trip_id = ? AND id IN ?", tripID, seatIDs).
		Order("position ASC").
		Find(&seats).Error
	return seats, err
}

func (r *repository) FindByIDsAnyTrip(ctx context.Context, seatIDs []uint) ([]Seat, error) {
	var seats []Seat
	err := r.conn(ctx).Where("id IN ?", seatIDs).Find(&seats).Error
	return seats, err
}

func (r *repository) FindAvailable(ctx context.Context, tripID uint, limit int) ([]Seat, error) {
	var seats []Seat
	q := r.conn(ctx).
		Where("trip_id = ? AND status = ?", tripID, StatusAvailable).
		Order("position ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&seats).Error
	return seats, err
}

func (r *repository) CountAvailable(ctx context.Context, tripID uint) (int64, error) {
	var count int64
	err := r.conn(ctx).
		Model(&Seat{}).
		Where("trip_id = ? AND status = ?", tripID, StatusAvailable).
		Count(&count).Error
	return count, err
}

func (r *repository) FindByOwner(ctx context.Context, bookingID uint, holdToken string) ([]Seat, error) {
	var seats []Seat
	err := r.conn(ctx).
		Where("booking_id = ? OR hold_token = ?", bookingID, holdToken).
		Order("position ASC").
		Find(&seats).Error
	return seats, err
}

func (r *repository) FindExpiredHolds(ctx context.Context, holdCutoff time.Time) ([]Seat, error) {
	var seats []Seat
	err := r.conn(ctx).
		Where("status = ? AND reserved_at < ?", StatusReserved, holdCutoff).
		Order("trip_id ASC, position ASC").
		Find(&seats).Error
	return seats, err
}

// ReserveSeats holds every listed seat of the trip that is AVAILABLE or whose
// hold is older than holdCutoff. BOOKED seats never match.
func (r *repository) ReserveSeats(ctx context.Context, tripID uint, seatIDs []uint, holdToken string, now, holdCutoff time.Time) (int64, error) {
	result := r.conn(ctx).
		Model(&Seat{}).
		Where("trip_id = ? AND id IN ?", tripID, seatIDs).
		Where("status = ? OR (status = ? AND reserved_at < ?)", StatusAvailable, StatusReserved, holdCutoff).
		Updates(map[string]interface{}{
			"status":      StatusReserved,
			"reserved_at": now,
			"hold_token":  holdToken,
			"booking_id":  nil,
		})
	return result.RowsAffected, result.Error
}

// ConfirmSeats books the listed seats still held for holdToken. A nil
// holdCutoff skips the freshness check.
func (r *repository) ConfirmSeats(ctx context.Context, tripID uint, seatIDs []uint, bookingID uint, holdToken string, holdCutoff *time.Time) (int64, error) {
	q := r.conn(ctx).
		Model(&Seat{}).
		Where("trip_id = ? AND id IN ?", tripID, seatIDs).
		Where("status = ? AND hold_token = ?", StatusReserved, holdToken)
	if holdCutoff != nil {
		q = q.Where("reserved_at >= ?", *holdCutoff)
	}
	result := q.Updates(map[string]interface{}{
		"status":      StatusBooked,
		"booking_id":  bookingID,
		"reserved_at": nil,
		"hold_token":  nil,
	})
	return result.RowsAffected, result.Error
}

func (r *repository) ReleaseSeats(ctx context.Context, seatIDs []uint) (int64, error) {
	result := r.conn(ctx).
		Model(&Seat{}).
		Where("id IN ? AND status <> ?", seatIDs, StatusAvailable).
		Updates(map[string]interface{}{
			"status":      StatusAvailable,
			"reserved_at": nil,
			"hold_token":  nil,
			"booking_id":  nil,
		})
	return result.RowsAffected, result.Error
}

// ReleaseExpiredSeats frees the listed seats only if they are still holding an
// expired reservation.
func (r *repository) ReleaseExpiredSeats(ctx context.Context, seatIDs []uint, holdCutoff time.Time) (int64, error) {
	result := r.conn(ctx).
		Model(&Seat{}).
		Where("id IN ? AND status = ? AND reserved_at < ?", seatIDs, StatusReserved, holdCutoff).
		Updates(map[string]interface{}{
			"status":      StatusAvailable,
			"reserved_at": nil,
			"hold_token":  nil,
			"booking_id":  nil,
		})
	return result.RowsAffected, result.Error
}
