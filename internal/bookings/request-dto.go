package bookings

import "time"

type CreateBookingRequest struct {
	TripID        uint   `json:"trip_id" binding:"required,gt=0"`
	SeatIDs       []uint `json:"seat_ids" binding:"required,min=1,max=5,unique,dive,gt=0"`
	PassengerName string `json:"passenger_name" binding:"required,min=2,max=120"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Mobile        string `json:"mobile" binding:"required,mobile"`
}

type ConfirmBookingRequest struct {
	SeatIDs []uint `json:"seat_ids" binding:"omitempty,unique,dive,gt=0"`
}

type UpdateStatusRequest struct {
	Status         Status `json:"status" binding:"required,oneof=DRAFT PENDING CONFIRMED CANCELLED"`
	SeatCount      int    `json:"seat_count" binding:"min=0,max=60"`
	AllowDowngrade bool   `json:"allow_downgrade"`
}

// UpdateStatusOptions steer operator status changes. SeatCount is the number
// of seats a confirmation must end up owning; zero means the booking's own
// seat count.
type UpdateStatusOptions struct {
	SeatCount      int
	AllowDowngrade bool
	Actor          string
}

type BookingListQuery struct {
	Status       Status `form:"status" binding:"omitempty,oneof=DRAFT PENDING CONFIRMED CANCELLED"`
	TripID       uint   `form:"trip_id"`
	BookingToken string `form:"booking_token"`
	DateFrom     string `form:"date_from"`
	DateTo       string `form:"date_to"`
	Page         int    `form:"page,default=1" binding:"min=1"`
	Limit        int    `form:"limit,default=20" binding:"min=1,max=100"`
}

// ListFilter is the resolved form of BookingListQuery handed to the store.
type ListFilter struct {
	Status       Status
	TripID       uint
	BookingToken string
	From         *time.Time
	To           *time.Time
	Offset       int
	Limit        int
}

// PaymentTotals is the reconciled payment position of a booking.
type PaymentTotals struct {
	AmountPaid int64
	AmountDue  int64
	Complete   bool
	Split      bool
}
