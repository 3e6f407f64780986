package bookings

import (
	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller Controller, adminAuth gin.HandlerFunc) {
	// Passenger routes
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", controller.CreateBooking)         // POST /api/v1/bookings
		bookings.GET("/:token", controller.RetrieveBooking) // GET /api/v1/bookings/:token
	}

	// Operator routes
	admin := rg.Group("/admin/bookings")
	admin.Use(adminAuth)
	{
		admin.GET("", controller.ListBookings)                     // GET /api/v1/admin/bookings
		admin.POST("/:id/confirm", controller.ConfirmBooking)      // POST /api/v1/admin/bookings/:id/confirm
		admin.PATCH("/:id/status", controller.UpdateBookingStatus) // PATCH /api/v1/admin/bookings/:id/status
		admin.POST("/:id/cancel", controller.CancelBooking)        // POST /api/v1/admin/bookings/:id/cancel
		admin.GET("/:id/logs", controller.GetBookingLogs)          // GET /api/v1/admin/bookings/:id/logs
	}
}

// Route definitions for reference:
//
// BOOKING CREATION
// POST   /api/v1/bookings                              - Hold seats and open a PENDING booking
// Request body: { "trip_id": 1, "seat_ids": [3, 4], "passenger_name": "...", "email": "...", "mobile": "..." }
//
// BOOKING RETRIEVAL
// GET    /api/v1/bookings/:token                       - Paid booking with trip, seats and payments
//
// OPERATOR
// PATCH  /api/v1/admin/bookings/:id/status             - :id is a numeric id or booking token
// Request body: { "status": "CONFIRMED", "seat_count": 2, "allow_downgrade": false }
//
// Key Flow:
// 1. Passenger creates a booking, seats are RESERVED under the booking token
// 2. Passenger pays through POST /payments/initialize
// 3. Gateway webhook or verify settles the payment and confirms the booking
// 4. Seats are BOOKED, ticket event is published for dispatch
