package seats

import (
	"net/http"

	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ReleaseSeats is the operator override that returns seats to AVAILABLE
// whatever their current hold or booking.
func (c *Controller) ReleaseSeats(ctx *gin.Context) {
	var req ReleaseSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	released, err := c.service.Release(ctx.Request.Context(), req.SeatIDs)
	if err != nil {
		response.RespondError(ctx, "Failed to release seats", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats released successfully", gin.H{"released": released}, nil)
}
