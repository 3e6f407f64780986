package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, 5*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, 5*time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, "free_expired_seats", cfg.Sweeper.LockName)
	assert.Equal(t, "CD", cfg.Booking.TokenPrefix)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Contains(t, cfg.Database.DSN, "dbname=busline_db")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HOLD_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("GIN_MODE", "release")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Booking.HoldTTL)
	assert.Len(t, cfg.Kafka.Brokers, 2)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.DSN)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
