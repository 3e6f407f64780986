package sweeper

import (
	"net/http"

	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	sweeper *Sweeper
}

func NewController(sweeper *Sweeper) *Controller {
	return &Controller{sweeper: sweeper}
}

// TriggerSweep runs one sweep immediately.
func (ctrl *Controller) TriggerSweep(c *gin.Context) {
	result := ctrl.sweeper.RunOnce(c.Request.Context())
	if result.Err != nil {
		response.RespondError(c, "Sweep failed", result.Err)
		return
	}

	message := "Sweep completed"
	if !result.Acquired {
		message = "Sweep already running on another instance"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, result, nil)
}

func (ctrl *Controller) GetStatus(c *gin.Context) {
	response.RespondJSON(c, "success", http.StatusOK, "Sweeper status", ctrl.sweeper.Status(), nil)
}

func SetupSweeperRoutes(rg *gin.RouterGroup, controller *Controller, adminAuth gin.HandlerFunc) {
	holds := rg.Group("/admin/holds")
	holds.Use(adminAuth)
	{
		holds.POST("/sweep", controller.TriggerSweep) // POST /api/v1/admin/holds/sweep
		holds.GET("/sweep", controller.GetStatus)     // GET /api/v1/admin/holds/sweep
	}
}
