package routes

import (
	"busline/internal/bookings"
	"busline/internal/locks"
	"busline/internal/notifications"
	"busline/internal/payments"
	"busline/internal/seats"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/internal/shared/transaction"
	"busline/internal/sweeper"
	"busline/internal/trips"
	"busline/pkg/cache"
)

// Services is the application's dependency graph. Every service shares one
// transaction manager so work across packages commits together.
type Services struct {
	Tx       transaction.Manager
	Seats    seats.Service
	Trips    trips.Service
	Bookings bookings.Service
	Payments payments.Service
	Locks    locks.Service
	Sweeper  *sweeper.Sweeper
}

// NewServices wires repositories and services over db. publisher receives
// booking lifecycle events.
func NewServices(cfg *config.Config, db *database.DB, publisher notifications.Publisher) *Services {
	pg := db.PostgreSQL
	tx := transaction.NewManager(pg)

	var cacheService cache.Service
	if db.Redis != nil {
		cacheService = cache.NewService(db.Redis)
	}

	seatService := seats.NewService(seats.NewRepository(pg), tx,
		seats.WithHoldTTL(cfg.Booking.HoldTTL),
		seats.WithCache(cacheService),
	)
	tripService := trips.NewService(trips.NewRepository(pg), seatService, tx,
		trips.WithCache(cacheService),
	)

	bookingRepo := bookings.NewRepository(pg)
	bookingService := bookings.NewService(bookingRepo, seatService, tripService, tx,
		bookings.WithPublisher(publisher),
		bookings.WithTokenPrefix(cfg.Booking.TokenPrefix),
		bookings.WithMaxSeats(cfg.Booking.MaxSeatsPerBooking),
	)

	paymentService := payments.NewService(
		payments.NewRepository(pg),
		bookingService,
		seatService,
		tripService,
		payments.NewPaystackClient(cfg.Paystack),
		tx,
		payments.WithCache(cacheService, cfg.Redis.WebhookDedupTTL),
		payments.WithPublisher(publisher),
		payments.WithCurrency(cfg.Paystack.Currency),
	)

	lockService := locks.NewService(locks.NewRepository(pg))

	sweepConfig := sweeper.DefaultConfig()
	sweepConfig.Interval = cfg.Sweeper.Interval
	sweepConfig.HoldTTL = cfg.Booking.HoldTTL
	sweepConfig.LockName = cfg.Sweeper.LockName
	sweepConfig.LockStaleTimeout = cfg.Sweeper.LockStaleTimeout

	return &Services{
		Tx:       tx,
		Seats:    seatService,
		Trips:    tripService,
		Bookings: bookingService,
		Payments: paymentService,
		Locks:    lockService,
		Sweeper:  sweeper.New(seatService, bookingRepo, lockService, tx, sweepConfig),
	}
}
