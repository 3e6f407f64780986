package database

import (
	"gorm.io/gorm"
)

// constraints are applied after AutoMigrate. Each statement is idempotent.
var constraints = []string{
	// A seat's hold columns must agree with its status
	`DO $$ BEGIN
		ALTER TABLE seats ADD CONSTRAINT chk_seat_state CHECK (
			(status = 'AVAILABLE' AND reserved_at IS NULL AND hold_token IS NULL AND booking_id IS NULL) OR
			(status = 'RESERVED' AND reserved_at IS NOT NULL AND hold_token IS NOT NULL AND booking_id IS NULL) OR
			(status = 'BOOKED' AND booking_id IS NOT NULL AND reserved_at IS NULL AND hold_token IS NULL)
		);
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$;`,

	// Intent reuse looks up PENDING payments by booking and amount
	`CREATE INDEX IF NOT EXISTS idx_payments_pending
		ON payments (booking_id, amount) WHERE status = 'PENDING';`,

	// Sweeper scans RESERVED seats by age
	`CREATE INDEX IF NOT EXISTS idx_seats_reserved_hold
		ON seats (reserved_at) WHERE status = 'RESERVED';`,

	`CREATE INDEX IF NOT EXISTS idx_bookings_status_created
		ON bookings (status, created_at);`,
}

// MigrateConstraints adds the integrity rules gorm tags cannot express
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
