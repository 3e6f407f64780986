package trips

import (
	"github.com/gin-gonic/gin"
)

func SetupTripRoutes(router *gin.RouterGroup, controller Controller, adminAuth gin.HandlerFunc) {
	// Public routes
	publicTrips := router.Group("/trips")
	{
		publicTrips.GET("", controller.ListTrips)                             // GET /api/v1/trips
		publicTrips.GET("/:id", controller.GetTrip)                           // GET /api/v1/trips/:id
		publicTrips.GET("/:id/seats/available", controller.GetAvailableSeats) // GET /api/v1/trips/:id/seats/available
	}

	// Operator routes
	admin := router.Group("/admin")
	admin.Use(adminAuth)
	{
		admin.POST("/routes", controller.CreateRoute)                 // POST /api/v1/admin/routes
		admin.POST("/buses", controller.CreateBus)                    // POST /api/v1/admin/buses
		admin.POST("/trips", controller.CreateTrip)                   // POST /api/v1/admin/trips
		admin.PATCH("/trips/:id/status", controller.UpdateTripStatus) // PATCH /api/v1/admin/trips/:id/status
	}
}
