package payments

import (
	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes registers the passenger payment flow, the gateway
// webhook and the operator payment routes. paymentLimit throttles intent
// creation and verification.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller Controller, adminAuth, paymentLimit gin.HandlerFunc) {
	payments := rg.Group("/payments")
	payments.Use(paymentLimit)
	{
		payments.POST("/initialize", controller.InitializePayment)   // POST /api/v1/payments/initialize
		payments.GET("/verify/:reference", controller.VerifyPayment) // GET /api/v1/payments/verify/:reference
	}

	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/paystack", controller.PaystackWebhook) // POST /api/v1/webhooks/paystack
	}

	admin := rg.Group("/admin/bookings")
	admin.Use(adminAuth)
	{
		admin.POST("/:id/payments", controller.RecordAdminPayment) // POST /api/v1/admin/bookings/:id/payments
		admin.GET("/:id/payments", controller.ListBookingPayments) // GET /api/v1/admin/bookings/:id/payments
	}
}
