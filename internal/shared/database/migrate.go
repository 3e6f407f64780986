package database

import (
	"busline/internal/bookings"
	"busline/internal/locks"
	"busline/internal/seats"
	"busline/internal/trips"

	"gorm.io/gorm"
)

// Migrate creates or updates every table. Order follows foreign keys.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&trips.Route{},
		&trips.Bus{},
		&trips.Trip{},
		&bookings.Booking{},
		&seats.Seat{},
		&bookings.Payment{},
		&bookings.BookingLog{},
		&locks.JobLock{},
	); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
