// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"busline/docs"
	"busline/internal/bookings"
	"busline/internal/payments"
	"busline/internal/seats"
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"
	"busline/internal/sweeper"
	"busline/internal/trips"
	"busline/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// HealthChecker reports whether backing stores are reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Router holds all route dependencies
type Router struct {
	config      *config.Config
	health      HealthChecker
	services    *Services
	rateLimiter *ratelimit.RateLimiter
}

// NewRouter creates a new router instance. rateLimiter may be nil.
func NewRouter(cfg *config.Config, health HealthChecker, services *Services, rateLimiter *ratelimit.RateLimiter) *Router {
	return &Router{
		config:      cfg,
		health:      health,
		services:    services,
		rateLimiter: rateLimiter,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	if !r.config.IsProduction() {
		docs.SwaggerInfo.BasePath = r.config.GetAPIBasePath()
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	adminAuth := middleware.AdminAuth(r.config.JWT.Secret)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		trips.SetupTripRoutes(api, trips.NewController(r.services.Trips, r.services.Seats), adminAuth)
		seats.SetupSeatRoutes(api, seats.NewController(r.services.Seats), adminAuth)
		bookings.SetupBookingRoutes(api, bookings.NewController(r.services.Bookings), adminAuth)
		payments.SetupPaymentRoutes(api,
			payments.NewController(r.services.Payments, r.config.Paystack.SecretKey),
			adminAuth,
			r.paymentLimit(),
		)
		sweeper.SetupSweeperRoutes(api, sweeper.NewController(r.services.Sweeper), adminAuth)
	}
}

// paymentLimit throttles intent creation on top of the global limiter.
func (r *Router) paymentLimit() gin.HandlerFunc {
	if r.rateLimiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return ratelimit.Limit(r.rateLimiter, ratelimit.RateLimitTypePayment)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.health.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "busline-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "busline-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"sweeper":     r.services.Sweeper.Status(),
			"timestamp":   time.Now(),
		})
	})
}
