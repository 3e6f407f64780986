package payments

import (
	"context"
	"io"
	"net/http"
	"time"

	"busline/internal/shared/utils/params"
	"busline/internal/shared/utils/response"
	"busline/pkg/logger"
	"busline/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const (
	maxWebhookBody        = 1 << 20
	webhookProcessTimeout = 30 * time.Second
)

type Controller interface {
	InitializePayment(c *gin.Context)
	VerifyPayment(c *gin.Context)
	PaystackWebhook(c *gin.Context)

	RecordAdminPayment(c *gin.Context)
	ListBookingPayments(c *gin.Context)
}

type controller struct {
	service       Service
	webhookSecret string
	log           *logger.Logger
	// dispatch runs webhook reconciliation after the response is written.
	dispatch func(func())
}

func NewController(service Service, webhookSecret string) Controller {
	return &controller{
		service:       service,
		webhookSecret: webhookSecret,
		log:           logger.GetDefault().WithComponent("payments"),
		dispatch:      func(fn func()) { go fn() },
	}
}

func (ctrl *controller) InitializePayment(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	intent, err := ctrl.service.CreateIntent(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, "Failed to initialize payment", err)
		return
	}
	status := http.StatusCreated
	if intent.Reused {
		status = http.StatusOK
	}
	response.RespondJSON(c, "success", status, "Payment initialized", intent, nil)
}

func (ctrl *controller) VerifyPayment(c *gin.Context) {
	result, err := ctrl.service.VerifyAndSettle(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.RespondError(c, "Failed to verify payment", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Payment verified", result, nil)
}

// PaystackWebhook authenticates the raw body before anything else. Once the
// signature is valid the provider always gets 200; reconciliation runs
// afterwards on a context detached from the request.
func (ctrl *controller) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "Unreadable body")
		return
	}

	if !VerifySignature(ctrl.webhookSecret, body, c.GetHeader(SignatureHeader)) {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		ctrl.log.LogSecurityEvent(c.Request.Context(), "webhook_signature_invalid", c.ClientIP(), map[string]interface{}{
			"path":       c.FullPath(),
			"body_bytes": len(body),
		})
		c.String(http.StatusBadRequest, "Invalid signature")
		return
	}

	event, err := ParseWebhookEvent(body)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		ctrl.log.WarnContext(c.Request.Context(), "malformed webhook body", "error", err)
		c.String(http.StatusOK, "Webhook received")
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	ctrl.dispatch(func() {
		ctx, cancel := context.WithTimeout(ctx, webhookProcessTimeout)
		defer cancel()
		if _, err := ctrl.service.ProcessWebhookEvent(ctx, event); err != nil {
			ctrl.log.ErrorContext(ctx, "webhook reconciliation failed", "event", event.EventName(), "error", err)
		}
	})

	c.String(http.StatusOK, "Webhook received")
}

func (ctrl *controller) RecordAdminPayment(c *gin.Context) {
	bookingID, err := params.UintParam(c, "id")
	if err != nil {
		response.RespondError(c, "Invalid booking ID", err)
		return
	}

	var req AdminPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.RecordAdminPayment(c.Request.Context(), bookingID, req)
	if err != nil {
		response.RespondError(c, "Failed to record payment", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Payment recorded", result, nil)
}

func (ctrl *controller) ListBookingPayments(c *gin.Context) {
	bookingID, err := params.UintParam(c, "id")
	if err != nil {
		response.RespondError(c, "Invalid booking ID", err)
		return
	}

	list, err := ctrl.service.ListPayments(c.Request.Context(), bookingID)
	if err != nil {
		response.RespondError(c, "Failed to list payments", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Payments retrieved successfully", list, nil)
}
