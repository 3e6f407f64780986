package trips

import (
	"time"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

type Route struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Origin      string    `json:"origin" gorm:"not null;size:120;uniqueIndex:idx_route_pair"`
	Destination string    `json:"destination" gorm:"not null;size:120;uniqueIndex:idx_route_pair"`
	DistanceKm  int       `json:"distance_km" gorm:"check:distance_km >= 0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type Bus struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PlateNo     string    `json:"plate_no" gorm:"not null;size:20;uniqueIndex"`
	BusType     string    `json:"bus_type" gorm:"size:50"`
	Capacity    int       `json:"capacity" gorm:"not null;check:capacity > 0"`
	SeatsPerRow int       `json:"seats_per_row" gorm:"default:0;check:seats_per_row >= 0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Trip is one scheduled departure. Price is per seat in minor currency units.
type Trip struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RouteID    uint      `json:"route_id" gorm:"not null;index"`
	BusID      uint      `json:"bus_id" gorm:"not null;index"`
	Price      int64     `json:"price" gorm:"not null;check:price >= 0"`
	DepartTime time.Time `json:"depart_time" gorm:"not null;index"`
	ArriveTime time.Time `json:"arrive_time" gorm:"not null"`
	Status     Status    `json:"status" gorm:"type:varchar(20);not null;default:'SCHEDULED';check:status IN ('SCHEDULED', 'COMPLETED', 'CANCELLED')"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Route *Route `json:"route,omitempty" gorm:"foreignKey:RouteID;constraint:OnDelete:RESTRICT;"`
	Bus   *Bus   `json:"bus,omitempty" gorm:"foreignKey:BusID;constraint:OnDelete:RESTRICT;"`
}

func (Route) TableName() string { return "routes" }
func (Bus) TableName() string   { return "buses" }
func (Trip) TableName() string  { return "trips" }

// HasDeparted reports whether the trip leaves at or before now.
func (t *Trip) HasDeparted(now time.Time) bool {
	return !t.DepartTime.After(now)
}

func (t *Trip) ToResponse(availableSeats int64) TripResponse {
	resp := TripResponse{
		ID:             t.ID,
		Price:          t.Price,
		DepartTime:     t.DepartTime,
		ArriveTime:     t.ArriveTime,
		Status:         t.Status,
		AvailableSeats: availableSeats,
	}
	if t.Route != nil {
		resp.Origin = t.Route.Origin
		resp.Destination = t.Route.Destination
	}
	if t.Bus != nil {
		resp.BusType = t.Bus.BusType
		resp.PlateNo = t.Bus.PlateNo
		resp.Capacity = t.Bus.Capacity
	}
	return resp
}
