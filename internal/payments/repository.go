package payments

import (
	"context"
	"time"

	"busline/internal/bookings"
	"busline/internal/shared/transaction"

	"gorm.io/gorm"
)

// Settlement is the gateway-reported outcome written onto a PAID payment.
type Settlement struct {
	Amount          int64
	Currency        string
	Channel         string
	PaidAt          time.Time
	Authorization   string
	CustomerID      string
	GatewayResponse string
}

type Repository interface {
	Create(ctx context.Context, payment *bookings.Payment) error
	FindByReference(ctx context.Context, reference string) (*bookings.Payment, error)
	FindPending(ctx context.Context, bookingID uint, amount int64) (*bookings.Payment, error)
	ListByBooking(ctx context.Context, bookingID uint) ([]bookings.Payment, error)

	// MarkPaid moves a payment that is not yet PAID to PAID. Zero rows means
	// another delivery settled it first.
	MarkPaid(ctx context.Context, reference string, s Settlement) (int64, error)
	MarkFailed(ctx context.Context, reference, gatewayResponse string) (int64, error)

	// SumPaid totals the PAID payments of a booking.
	SumPaid(ctx context.Context, bookingID uint) (total int64, count int64, err error)
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

func (r *repository) Create(ctx context.Context, payment *bookings.Payment) error {
	return r.conn(ctx).Create(payment).Error
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*bookings.Payment, error) {
	var payment bookings.Payment
	if err := r.conn(ctx).Where("reference = ?", reference).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindPending(ctx context.Context, bookingID uint, amount int64) (*bookings.Payment, error) {
	var payment bookings.Payment
	err := r.conn(ctx).
		Where("booking_id = ? AND amount = ? AND status = ?", bookingID, amount, bookings.PaymentPending).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uint) ([]bookings.Payment, error) {
	var list []bookings.Payment
	err := r.conn(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repository) MarkPaid(ctx context.Context, reference string, s Settlement) (int64, error) {
	updates := map[string]interface{}{
		"status":  bookings.PaymentPaid,
		"paid_at": s.PaidAt,
	}
	if s.Amount > 0 {
		updates["amount"] = s.Amount
	}
	if s.Currency != "" {
		updates["currency"] = s.Currency
	}
	if s.Channel != "" {
		updates["channel"] = s.Channel
	}
	if s.Authorization != "" {
		updates["authorization"] = s.Authorization
	}
	if s.CustomerID != "" {
		updates["customer_id"] = s.CustomerID
	}
	if s.GatewayResponse != "" {
		updates["gateway_response"] = s.GatewayResponse
	}

	result := r.conn(ctx).
		Model(&bookings.Payment{}).
		Where("reference = ? AND status <> ?", reference, bookings.PaymentPaid).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) MarkFailed(ctx context.Context, reference, gatewayResponse string) (int64, error) {
	result := r.conn(ctx).
		Model(&bookings.Payment{}).
		Where("reference = ? AND status = ?", reference, bookings.PaymentPending).
		Updates(map[string]interface{}{
			"status":           bookings.PaymentFailed,
			"gateway_response": gatewayResponse,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) SumPaid(ctx context.Context, bookingID uint) (int64, int64, error) {
	var row struct {
		Total int64
		Count int64
	}
	err := r.conn(ctx).
		Model(&bookings.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("booking_id = ? AND status = ?", bookingID, bookings.PaymentPaid).
		Scan(&row).Error
	return row.Total, row.Count, err
}
