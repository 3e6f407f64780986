package seats

import "time"

type SeatResponse struct {
	ID         uint   `json:"id"`
	SeatNumber string `json:"seat_number"`
	Position   int    `json:"position"`
	Status     string `json:"status"`
}

// Availability models
type AvailableSeatsResponse struct {
	TripID    uint           `json:"trip_id"`
	Count     int            `json:"count"`
	Seats     []SeatResponse `json:"seats"`
	CheckedAt time.Time      `json:"checked_at"`
}

// ToResponses converts a seat list for API output
func ToResponses(seats []Seat) []SeatResponse {
	out := make([]SeatResponse, 0, len(seats))
	for i := range seats {
		out = append(out, seats[i].ToResponse())
	}
	return out
}
