package bookings

import (
	"context"
	"math"
	"time"

	"busline/internal/shared/transaction"

	"gorm.io/gorm"
)

type Repository interface {
	// Core booking operations
	Create(ctx context.Context, booking *Booking) error
	FindByID(ctx context.Context, id uint) (*Booking, error)
	FindByToken(ctx context.Context, token string) (*Booking, error)
	FindByTokenWithDetails(ctx context.Context, token string) (*Booking, error)
	TokenExists(ctx context.Context, token string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, int64, error)

	// UpdateStatus moves the booking from one status to another only if it
	// is still in from. It reports the number of rows changed.
	UpdateStatus(ctx context.Context, id uint, from, to Status, fields map[string]interface{}) (int64, error)
	UpdatePaymentTotals(ctx context.Context, id uint, totals PaymentTotals) error

	// Audit trail
	CreateLog(ctx context.Context, entry *BookingLog) error
	FindLogs(ctx context.Context, bookingID uint) ([]BookingLog, error)

	// Cleanup of abandoned drafts
	DeleteUnpaidPending(ctx context.Context, tokens []string) (int64, error)
	DeleteStaleOrphans(ctx context.Context, cutoff time.Time) (int64, error)
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

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	return r.conn(ctx).Omit("Trip", "Payments").Create(booking).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*Booking, error) {
	var booking Booking
	if err := r.conn(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByToken(ctx context.Context, token string) (*Booking, error) {
	var booking Booking
	if err := r.conn(ctx).Where("booking_token = ?", token).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByTokenWithDetails(ctx context.Context, token string) (*Booking, error) {
	var booking Booking
	err := r.conn(ctx).
		Preload("Trip").
		Preload("Trip.Route").
		Preload("Trip.Bus").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("booking_token = ?", token).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) TokenExists(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&Booking{}).Where("booking_token = ?", token).Count(&count).Error
	return count > 0, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Booking, int64, error) {
	var (
		bookings   []Booking
		totalCount int64
	)

	baseQuery := r.applyFilters(r.conn(ctx).Model(&Booking{}), filter)
	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := baseQuery.
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&bookings).Error
	return bookings, totalCount, err
}

// applyFilters applies list filters to the GORM query
func (r *repository) applyFilters(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TripID != 0 {
		query = query.Where("trip_id = ?", filter.TripID)
	}
	if filter.BookingToken != "" {
		query = query.Where("booking_token = ?", filter.BookingToken)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return query
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, from, to Status, fields map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.conn(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) UpdatePaymentTotals(ctx context.Context, id uint, totals PaymentTotals) error {
	return r.conn(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount_paid":         totals.AmountPaid,
			"amount_due":          totals.AmountDue,
			"is_payment_complete": totals.Complete,
			"is_split_payment":    totals.Split,
		}).Error
}

func (r *repository) CreateLog(ctx context.Context, entry *BookingLog) error {
	return r.conn(ctx).Create(entry).Error
}

func (r *repository) FindLogs(ctx context.Context, bookingID uint) ([]BookingLog, error) {
	var logs []BookingLog
	err := r.conn(ctx).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}

const noPaidPayment = "NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_id = bookings.id AND p.status = ?)"

// DeleteUnpaidPending removes PENDING bookings for the given hold tokens that
// never received a PAID payment, along with their payments and logs.
func (r *repository) DeleteUnpaidPending(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	var ids []uint
	err := r.conn(ctx).
		Model(&Booking{}).
		Where("booking_token IN ? AND status = ?", tokens, StatusPending).
		Where(noPaidPayment, PaymentPaid).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	return r.deleteBookings(ctx, ids)
}

// DeleteStaleOrphans removes PENDING bookings untouched since cutoff that own
// no seat and never received a PAID payment. These are left behind when an
// expired hold is taken over by another booking.
func (r *repository) DeleteStaleOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	var ids []uint
	err := r.conn(ctx).
		Model(&Booking{}).
		Where("status = ? AND created_at < ? AND updated_at < ?", StatusPending, cutoff, cutoff).
		Where(noPaidPayment, PaymentPaid).
		Where("NOT EXISTS (SELECT 1 FROM seats s WHERE s.booking_id = bookings.id OR s.hold_token = bookings.booking_token)").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	return r.deleteBookings(ctx, ids)
}

func (r *repository) deleteBookings(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	db := r.conn(ctx)
	if err := db.Where("booking_id IN ?", ids).Delete(&Payment{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("booking_id IN ?", ids).Delete(&BookingLog{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("id IN ? AND status = ?", ids, StatusPending).Delete(&Booking{})
	return result.RowsAffected, result.Error
}

// CalculateTotalPages returns the page count for a paginated listing
func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
