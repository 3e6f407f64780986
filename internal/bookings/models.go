package bookings

import (
	"encoding/json"
	"time"

	"busline/internal/trips"
)

// Booking is one purchase intent for seats on a trip. Amounts are minor
// currency units. The booking token is the only identifier shown to
// passengers and doubles as the seat hold token.
type Booking struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	BookingToken      string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_token"`
	TripID            uint       `gorm:"index;not null" json:"trip_id"`
	PassengerName     string     `gorm:"type:varchar(120);not null" json:"passenger_name"`
	Email             string     `gorm:"type:varchar(255);not null" json:"email"`
	Mobile            string     `gorm:"type:varchar(32)" json:"mobile"`
	ContactHash       string     `gorm:"type:char(64);index" json:"-"`
	Status            Status     `gorm:"type:varchar(20);not null;default:'PENDING';check:status IN ('DRAFT', 'PENDING', 'CONFIRMED', 'CANCELLED')" json:"status"`
	SeatCount         int        `gorm:"not null;default:0" json:"seat_count"`
	AmountPaid        int64      `gorm:"not null;default:0;check:amount_paid >= 0" json:"amount_paid"`
	AmountDue         int64      `gorm:"not null;default:0;check:amount_due >= 0" json:"amount_due"`
	IsPaymentComplete bool       `gorm:"not null;default:false" json:"is_payment_complete"`
	IsSplitPayment    bool       `gorm:"not null;default:false" json:"is_split_payment"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	// Relationships
	Trip     *trips.Trip `json:"trip,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:RESTRICT;"`
	Payments []Payment   `json:"payments,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment is one gateway charge against a booking. A booking may collect
// several PAID payments.
type Payment struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	BookingID        uint          `gorm:"index;not null" json:"booking_id"`
	Reference        string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	Amount           int64         `gorm:"not null;check:amount > 0" json:"amount"`
	Currency         string        `gorm:"type:varchar(3);default:'NGN'" json:"currency"`
	Status           PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING';check:status IN ('PENDING', 'PAID', 'FAILED')" json:"status"`
	Channel          string        `gorm:"type:varchar(50)" json:"channel"`
	Email            string        `gorm:"type:varchar(255)" json:"email"`
	AuthorizationURL string        `gorm:"type:varchar(500)" json:"authorization_url,omitempty"`
	AccessCode       string        `gorm:"type:varchar(100)" json:"-"`
	Authorization    string        `gorm:"type:text" json:"-"`
	CustomerID       string        `gorm:"type:varchar(100)" json:"-"`
	GatewayResponse  string        `gorm:"type:varchar(255)" json:"gateway_response,omitempty"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// BookingLog is an append-only audit record of one booking transition.
type BookingLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookingID  uint      `gorm:"index;not null" json:"booking_id"`
	Action     Action    `gorm:"type:varchar(50);not null" json:"action"`
	FromStatus Status    `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus   Status    `gorm:"type:varchar(20);not null" json:"to_status"`
	Actor      string    `gorm:"type:varchar(100)" json:"actor"`
	Metadata   string    `gorm:"type:text" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// TableName sets the table name for BookingLog
func (BookingLog) TableName() string {
	return "booking_logs"
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// IsRetrievable reports whether enough has been paid for the passenger to
// see the booking.
func (b *Booking) IsRetrievable() bool {
	return b.IsPaymentComplete || (b.IsSplitPayment && b.AmountPaid > 0)
}

func (p *Payment) IsPaid() bool {
	return p.Status == PaymentPaid
}

func (p *Payment) IsPending() bool {
	return p.Status == PaymentPending
}

func newLog(bookingID uint, action Action, from, to Status, actor string, meta map[string]interface{}) *BookingLog {
	entry := &BookingLog{
		BookingID:  bookingID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
	}
	if len(meta) > 0 {
		if data, err := json.Marshal(meta); err == nil {
			entry.Metadata = string(data)
		}
	}
	return entry
}
