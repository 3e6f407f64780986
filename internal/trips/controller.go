package trips

import (
	"net/http"

	"busline/internal/seats"
	"busline/internal/shared/utils/params"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	CreateRoute(c *gin.Context)
	CreateBus(c *gin.Context)
	CreateTrip(c *gin.Context)
	GetTrip(c *gin.Context)
	ListTrips(c *gin.Context)
	UpdateTripStatus(c *gin.Context)
	GetAvailableSeats(c *gin.Context)
}

type controller struct {
	service Service
	seats   seats.Service
}

func NewController(service Service, seatService seats.Service) Controller {
	return &controller{service: service, seats: seatService}
}

func (ctrl *controller) CreateRoute(c *gin.Context) {
	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	route, err := ctrl.service.CreateRoute(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, "Failed to create route", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Route created successfully", route, nil)
}

func (ctrl *controller) CreateBus(c *gin.Context) {
	var req CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	bus, err := ctrl.service.CreateBus(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, "Failed to create bus", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Bus created successfully", bus, nil)
}

func (ctrl *controller) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	trip, err := ctrl.service.CreateTrip(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, "Failed to create trip", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Trip created successfully", trip, nil)
}

func (ctrl *controller) GetTrip(c *gin.Context) {
	id, err := params.UintParam(c, "id")
	if err != nil {
		response.RespondError(c, "Invalid trip ID", err)
		return
	}

	trip, err := ctrl.service.GetTrip(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to get trip", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Trip retrieved successfully", trip, nil)
}

func (ctrl *controller) ListTrips(c *gin.Context) {
	var query TripListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := ctrl.service.ListTrips(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, "Failed to list trips", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Trips retrieved successfully", list, nil)
}

func (ctrl *controller) UpdateTripStatus(c *gin.Context) {
	id, err := params.UintParam(c, "id")
	if err != nil {
		response.RespondError(c, "Invalid trip ID", err)
		return
	}

	var req UpdateTripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	trip, err := ctrl.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondError(c, "Failed to update trip status", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Trip status updated successfully", trip, nil)
}

func (ctrl *controller) GetAvailableSeats(c *gin.Context) {
	id, err := params.UintParam(c, "id")
	if err != nil {
		response.RespondError(c, "Invalid trip ID", err)
		return
	}

	available, err := ctrl.seats.AvailableSeats(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to get available seats", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Available seats retrieved successfully", available, nil)
}
