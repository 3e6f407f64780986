package bookings

import (
	"net/http"

	"busline/internal/shared/utils/params"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	CreateBooking(c *gin.Context)
	RetrieveBooking(c *gin.Context)

	ListBookings(c *gin.Context)
	ConfirmBooking(c *gin.Context)
	UpdateBookingStatus(c *gin.Context)
	CancelBooking(c *gin.Context)
	GetBookingLogs(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CreateBooking holds the requested seats and opens a PENDING booking.
func (ctrl *controller) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.CreateDraft(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, "Failed to create booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Booking created, seats held pending payment", booking.ToResponse(), nil)
}

func (ctrl *controller) RetrieveBooking(c *gin.Context) {
	detail, err := ctrl.service.Retrieve(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.RespondError(c, "Failed to retrieve booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", detail, nil)
}

func (ctrl *controller) ListBookings(c *gin.Context) {
	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := ctrl.service.List(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, "Failed to list bookings", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", list, nil)
}

func (ctrl *controller) ConfirmBooking(c *gin.Context) {
	id, err := params.UintParam(c, "id")
	if err != nil {
		response.RespondError(c, "Invalid booking ID", err)
		return
	}

	var req ConfirmBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
			return
		}
	}

	booking, err := ctrl.service.Confirm(c.Request.Context(), id, req.SeatIDs)
	if err != nil {
		response.RespondError(c, "Failed to confirm booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking confirmed successfully", booking.ToResponse(), nil)
}

// UpdateBookingStatus accepts a numeric id or a booking token in :id.
func (ctrl *controller) UpdateBookingStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, UpdateStatusOptions{
		SeatCount:      req.SeatCount,
		AllowDowngrade: req.AllowDowngrade,
		Actor:          ActorOperator,
	})
	if err != nil {
		response.RespondError(c, "Failed to update booking status", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking status updated successfully", booking.ToResponse(), nil)
}

func (ctrl *controller) CancelBooking(c *gin.Context) {
	booking, err := ctrl.service.Cancel(c.Request.Context(), c.Param("id"), ActorOperator)
	if err != nil {
		response.RespondError(c, "Failed to cancel booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", booking.ToResponse(), nil)
}

func (ctrl *controller) GetBookingLogs(c *gin.Context) {
	id, err := params.UintParam(c, "id")
	if err != nil {
		response.RespondError(c, "Invalid booking ID", err)
		return
	}

	logs, err := ctrl.service.Logs(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to load booking logs", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking logs retrieved successfully", logs, nil)
}
