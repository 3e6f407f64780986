package payments

import (
	"busline/internal/bookings"
)

type IntentResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	BookingToken     string `json:"booking_token"`
	Reused           bool   `json:"reused"`
}

// SettlementResult is the booking state after a payment was reconciled.
// AlreadySettled marks a repeat delivery that changed nothing.
type SettlementResult struct {
	Payment        bookings.PaymentInfo     `json:"payment"`
	Booking        bookings.BookingResponse `json:"booking"`
	AlreadySettled bool                     `json:"already_settled"`
}

func newSettlementResult(payment *bookings.Payment, booking *bookings.Booking, already bool) *SettlementResult {
	return &SettlementResult{
		Payment:        payment.ToPaymentInfo(),
		Booking:        booking.ToResponse(),
		AlreadySettled: already,
	}
}
