package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"busline/internal/shared/utils/response"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits every request by the type its route maps to.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, rateLimiter, getRateLimitType(c.FullPath()))
	}
}

// Limit applies one fixed limit type, for route groups that need a tighter
// budget than the global middleware gives them.
func Limit(rateLimiter *RateLimiter, limitType RateLimitType) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, rateLimiter, limitType)
	}
}

func enforce(c *gin.Context, rateLimiter *RateLimiter, limitType RateLimitType) {
	clientIP := getClientIP(c)

	result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
	if err != nil {
		// Redis trouble must not take the booking flow down with it.
		logger.GetDefault().WarnContext(c.Request.Context(), "rate limit check failed, allowing request",
			"ip", clientIP, "type", limitType, "error", err)
		c.Next()
		return
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

	if !result.Allowed {
		logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
		response.RespondJSON(c, "error", http.StatusTooManyRequests,
			"Rate limit exceeded", nil, map[string]interface{}{
				"limit":      result.Limit,
				"reset_time": result.ResetTime,
			})
		c.Abort()
		return
	}

	c.Next()
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/metrics"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin

	// Gateway callbacks are authenticated by signature, not throttled per IP
	case strings.Contains(path, "/webhooks/"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/payments"):
		return RateLimitTypePayment

	case strings.Contains(path, "/bookings"),
		strings.Contains(path, "/seats"):
		return RateLimitTypeBooking

	case strings.Contains(path, "/trips"):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	if xForwardedFor := c.GetHeader("X-Forwarded-For"); xForwardedFor != "" {
		ip := strings.TrimSpace(strings.Split(xForwardedFor, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := c.GetHeader("X-Real-IP"); xRealIP != "" && net.ParseIP(xRealIP) != nil {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
