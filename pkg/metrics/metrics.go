// Package metrics exposes prometheus collectors for the booking core and a
// gin middleware for request latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "busline_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// SeatReservations counts reserve attempts by outcome (success, unavailable, error).
	SeatReservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busline_seat_reservations_total",
			Help: "Seat reserve attempts by outcome",
		},
		[]string{"outcome"},
	)

	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busline_booking_transitions_total",
			Help: "Booking status transitions",
		},
		[]string{"from", "to"},
	)

	// PaymentsSettled counts reconciliations by outcome (complete, partial, duplicate).
	PaymentsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busline_payments_settled_total",
			Help: "Payment reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busline_webhook_events_total",
			Help: "Inbound gateway webhook events by type and result",
		},
		[]string{"event", "result"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "busline_gateway_request_duration_seconds",
			Help:    "Payment gateway call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "result"},
	)

	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busline_sweep_runs_total",
			Help: "Expired hold sweeps by result (freed, noop, skipped, error)",
		},
		[]string{"result"},
	)

	SeatsFreed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "busline_sweep_seats_freed_total",
			Help: "Seats returned to AVAILABLE by the sweeper",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request latency keyed by the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// ObserveGateway records one gateway call.
func ObserveGateway(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	GatewayRequestDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}
