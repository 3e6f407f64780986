package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// Pattern: busline:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

// Static Data (Long TTL: rarely changes)
const (
	TTL_STATIC_LONG  = 24 * time.Hour
	TTL_STATIC_SHORT = 6 * time.Hour
)

// Highly Dynamic (Micro TTL: real-time sensitive)
const (
	TTL_REALTIME_MEDIUM  = 1 * time.Minute
	TTL_REALTIME_SHORT   = 30 * time.Second
	TTL_REALTIME_INSTANT = 5 * time.Second
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "busline"
)

// ================== TRIPS MODULE ==================

const (
	CACHE_KEY_TRIP_DETAIL = CACHE_PREFIX + ":trips:detail:id:" // + trip-id
)

const (
	TTL_TRIP_DETAIL = TTL_REALTIME_MEDIUM
)

// ================== SEATS MODULE ==================

const (
	CACHE_KEY_SEATS_AVAILABLE = CACHE_PREFIX + ":seats:available:trip:" // + trip-id
)

// A read racing a reserve can write the pre-reserve list back after the
// commit-time invalidation; the entry lives at most this long.
const (
	TTL_SEATS_AVAILABLE = TTL_REALTIME_INSTANT
)

// ================== PAYMENTS MODULE ==================

const (
	KEY_WEBHOOK_DEDUPE = CACHE_PREFIX + ":payments:webhook:" // + event:reference
)

// ================== RATE LIMITING ==================

const (
	KEY_RATE_LIMIT = CACHE_PREFIX + ":ratelimit:" // + ip:type
)

// ================== KEY BUILDERS ==================

func BuildTripDetailKey(tripID uint) string {
	return fmt.Sprintf("%s%d", CACHE_KEY_TRIP_DETAIL, tripID)
}

func BuildSeatAvailabilityKey(tripID uint) string {
	return fmt.Sprintf("%s%d", CACHE_KEY_SEATS_AVAILABLE, tripID)
}

func BuildWebhookDedupeKey(event, reference string) string {
	return KEY_WEBHOOK_DEDUPE + event + ":" + reference
}

func BuildRateLimitKey(ip, limitType string) string {
	return KEY_RATE_LIMIT + ip + ":" + limitType
}
