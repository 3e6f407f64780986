package seats

import (
	"time"
)

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusBooked    Status = "BOOKED"
)

func (s Status) String() string {
	return string(s)
}

// Seat is one physical seat on one trip. Status, ReservedAt, HoldToken and
// BookingID always change together:
//
//	AVAILABLE: no reservation, no hold token, no booking
//	RESERVED:  reserved_at and hold_token set, no booking
//	BOOKED:    booking set, no reservation or hold token
type Seat struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TripID     uint       `gorm:"not null;uniqueIndex:idx_trip_seat_number;index:idx_seats_trip_status" json:"trip_id"`
	SeatNumber string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_trip_seat_number" json:"seat_number"`
	Position   int        `gorm:"not null" json:"position"`
	Status     Status     `gorm:"type:varchar(20);not null;default:'AVAILABLE';check:status IN ('AVAILABLE', 'RESERVED', 'BOOKED');index:idx_seats_trip_status" json:"status"`
	ReservedAt *time.Time `gorm:"index" json:"reserved_at,omitempty"`
	HoldToken  *string    `gorm:"type:varchar(32);index" json:"-"`
	BookingID  *uint      `gorm:"index" json:"booking_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// HoldIsLive reports whether the seat is RESERVED for holdToken and the hold
// was placed at or after cutoff.
func (s *Seat) HoldIsLive(holdToken string, cutoff time.Time) bool {
	return s.Status == StatusReserved &&
		s.HoldToken != nil && *s.HoldToken == holdToken &&
		s.ReservedAt != nil && !s.ReservedAt.Before(cutoff)
}

// HoldIsStale reports whether the seat is RESERVED for holdToken but the hold
// was placed before cutoff.
func (s *Seat) HoldIsStale(holdToken string, cutoff time.Time) bool {
	return s.Status == StatusReserved &&
		s.HoldToken != nil && *s.HoldToken == holdToken &&
		s.ReservedAt != nil && s.ReservedAt.Before(cutoff)
}

// BookedBy reports whether the seat is BOOKED by bookingID.
func (s *Seat) BookedBy(bookingID uint) bool {
	return s.Status == StatusBooked && s.BookingID != nil && *s.BookingID == bookingID
}

// ToResponse converts a Seat for API output
func (s *Seat) ToResponse() SeatResponse {
	return SeatResponse{
		ID:         s.ID,
		SeatNumber: s.SeatNumber,
		Position:   s.Position,
		Status:     s.Status.String(),
	}
}
