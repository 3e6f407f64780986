package trips

import (
	"context"
	"time"

	"busline/internal/shared/transaction"

	"gorm.io/gorm"
)

type Repository interface {
	CreateRoute(ctx context.Context, route *Route) error
	CreateBus(ctx context.Context, bus *Bus) error
	GetRouteByID(ctx context.Context, id uint) (*Route, error)
	GetBusByID(ctx context.Context, id uint) (*Bus, error)

	CreateTrip(ctx context.Context, trip *Trip) error
	GetTripByID(ctx context.Context, id uint) (*Trip, error)
	ListTrips(ctx context.Context, query TripListQuery, now time.Time) ([]Trip, int64, error)
	UpdateTripStatus(ctx context.Context, id uint, status Status) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return transaction.DB(ctx, r.db)
}

func (r *repository) CreateRoute(ctx context.Context, route *Route) error {
	return r.conn(ctx).Create(route).Error
}

func (r *repository) CreateBus(ctx context.Context, bus *Bus) error {
	return r.conn(ctx).Create(bus).Error
}

func (r *repository) GetRouteByID(ctx context.Context, id uint) (*Route, error) {
	var route Route
	if err := r.conn(ctx).First(&route, id).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *repository) GetBusByID(ctx context.Context, id uint) (*Bus, error) {
	var bus Bus
	if err := r.conn(ctx).First(&bus, id).Error; err != nil {
		return nil, err
	}
	return &bus, nil
}

func (r *repository) CreateTrip(ctx context.Context, trip *Trip) error {
	return r.conn(ctx).Omit("Route", "Bus").Create(trip).Error
}

func (r *repository) GetTripByID(ctx context.Context, id uint) (*Trip, error) {
	var trip Trip
	err := r.conn(ctx).
		Preload("Route").
		Preload("Bus").
		First(&trip, id).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *repository) ListTrips(ctx context.Context, query TripListQuery, now time.Time) ([]Trip, int64, error) {
	var (
		trips      []Trip
		totalCount int64
	)

	base := r.conn(ctx).Model(&Trip{})
	if query.RouteID != 0 {
		base = base.Where("route_id = ?", query.RouteID)
	}
	if query.Status != "" {
		base = base.Where("status = ?", query.Status)
	}
	if query.Upcoming {
		base = base.Where("depart_time > ?", now)
	}

	if err := base.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := base.
		Preload("Route").
		Preload("Bus").
		Order("depart_time ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&trips).Error
	return trips, totalCount, err
}

func (r *repository) UpdateTripStatus(ctx context.Context, id uint, status Status) (int64, error) {
	result := r.conn(ctx).
		Model(&Trip{}).
		Where("id = ?", id).
		Update("status", status)
	return result.RowsAffected, result.Error
}
