package seats

import (
	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller, adminAuth gin.HandlerFunc) {
	adminSeats := rg.Group("/admin/seats")
	adminSeats.Use(adminAuth)
	{
		adminSeats.POST("/release", controller.ReleaseSeats) // POST /api/v1/admin/seats/release
	}
}
