package notifications

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingUpdated   EventType = "booking.status_updated"
	EventPaymentSettled   EventType = "payment.settled"
)

// BookingEvent is the message published on every booking status change and
// payment settlement. Amounts are minor currency units.
type BookingEvent struct {
	Type         EventType `json:"type"`
	BookingID    uint      `json:"booking_id"`
	BookingToken string    `json:"booking_token"`
	TripID       uint      `json:"trip_id"`
	Status       string    `json:"status"`
	Email        string    `json:"email"`
	AmountPaid   int64     `json:"amount_paid"`
	AmountDue    int64     `json:"amount_due"`
	SeatNumbers  []string  `json:"seat_numbers,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func BookingEventFromJSON(data []byte) (*BookingEvent, error) {
	var e BookingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// PartitionKey keeps every event of one booking on one partition.
func (e *BookingEvent) PartitionKey() string {
	return e.BookingToken
}
