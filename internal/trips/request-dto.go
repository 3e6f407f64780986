package trips

import "time"

type CreateRouteRequest struct {
	Origin      string `json:"origin" binding:"required,min=2,max=120"`
	Destination string `json:"destination" binding:"required,min=2,max=120,nefield=Origin"`
	DistanceKm  int    `json:"distance_km" binding:"min=0"`
}

type CreateBusRequest struct {
	PlateNo     string `json:"plate_no" binding:"required,min=3,max=20"`
	BusType     string `json:"bus_type" binding:"max=50"`
	Capacity    int    `json:"capacity" binding:"required,min=1,max=120"`
	SeatsPerRow int    `json:"seats_per_row" binding:"min=0,max=10"`
}

type CreateTripRequest struct {
	RouteID    uint      `json:"route_id" binding:"required,gt=0"`
	BusID      uint      `json:"bus_id" binding:"required,gt=0"`
	Price      int64     `json:"price" binding:"required,gt=0"`
	DepartTime time.Time `json:"depart_time" binding:"required"`
	ArriveTime time.Time `json:"arrive_time" binding:"required,gtfield=DepartTime"`
}

type UpdateTripStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=SCHEDULED COMPLETED CANCELLED"`
}

type TripListQuery struct {
	RouteID  uint   `form:"route_id"`
	Status   Status `form:"status" binding:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
	Upcoming bool   `form:"upcoming"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
}
