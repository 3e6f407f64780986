package trips

import "time"

type TripResponse struct {
	ID             uint      `json:"id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	BusType        string    `json:"bus_type"`
	PlateNo        string    `json:"plate_no"`
	Capacity       int       `json:"capacity"`
	Price          int64     `json:"price"`
	DepartTime     time.Time `json:"depart_time"`
	ArriveTime     time.Time `json:"arrive_time"`
	Status         Status    `json:"status"`
	AvailableSeats int64     `json:"available_seats"`
}

type TripListResponse struct {
	Trips      []TripResponse `json:"trips"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}
