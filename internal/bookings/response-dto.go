package bookings

import (
	"time"

	"busline/internal/seats"
)

type BookingResponse struct {
	ID                uint      `json:"id"`
	BookingToken      string    `json:"booking_token"`
	TripID            uint      `json:"trip_id"`
	PassengerName     string    `json:"passenger_name"`
	Email             string    `json:"email"`
	Status            Status    `json:"status"`
	SeatCount         int       `json:"seat_count"`
	AmountPaid        int64     `json:"amount_paid"`
	AmountDue         int64     `json:"amount_due"`
	IsPaymentComplete bool      `json:"is_payment_complete"`
	IsSplitPayment    bool      `json:"is_split_payment"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type TripInfo struct {
	ID          uint      `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DepartTime  time.Time `json:"depart_time"`
	ArriveTime  time.Time `json:"arrive_time"`
	Price       int64     `json:"price"`
	PlateNo     string    `json:"plate_no"`
}

type PaymentInfo struct {
	Reference string        `json:"reference"`
	Amount    int64         `json:"amount"`
	Currency  string        `json:"currency"`
	Status    PaymentStatus `json:"status"`
	Channel   string        `json:"channel"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
}

// BookingDetail is what a passenger sees when retrieving a booking.
type BookingDetail struct {
	BookingResponse
	Trip     TripInfo             `json:"trip"`
	Seats    []seats.SeatResponse `json:"seats"`
	Payments []PaymentInfo        `json:"payments"`
}

type BookingListResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:                b.ID,
		BookingToken:      b.BookingToken,
		TripID:            b.TripID,
		PassengerName:     b.PassengerName,
		Email:             b.Email,
		Status:            b.Status,
		SeatCount:         b.SeatCount,
		AmountPaid:        b.AmountPaid,
		AmountDue:         b.AmountDue,
		IsPaymentComplete: b.IsPaymentComplete,
		IsSplitPayment:    b.IsSplitPayment,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func (p *Payment) ToPaymentInfo() PaymentInfo {
	return PaymentInfo{
		Reference: p.Reference,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    p.Status,
		Channel:   p.Channel,
		PaidAt:    p.PaidAt,
	}
}
