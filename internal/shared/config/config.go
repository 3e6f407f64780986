package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string        `env:"PORT" envDefault:"8080"`
	GinMode        string        `env:"GIN_MODE" envDefault:"debug"`
	APIVersion     string        `env:"API_VERSION" envDefault:"v1"`
	APIPrefix      string        `env:"API_PREFIX" envDefault:"/api"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Booking   BookingConfig
	Sweeper   SweeperConfig
	Paystack  PaystackConfig
	Kafka     KafkaConfig
	Metrics   MetricsConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	Name            string        `env:"DB_NAME" envDefault:"busline_db"`
	User            string        `env:"DB_USER" envDefault:"busline_user"`
	Password        string        `env:"DB_PASSWORD" envDefault:"busline_password"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	DSN             string        `env:"DATABASE_URL"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Addr     string

	// TTL values for different operations
	AvailabilityTTL time.Duration `env:"REDIS_AVAILABILITY_TTL" envDefault:"30s"`
	WebhookDedupTTL time.Duration `env:"REDIS_WEBHOOK_DEDUP_TTL" envDefault:"10m"`
}

// JWTConfig holds the operator token configuration
type JWTConfig struct {
	Secret string `env:"JWT_SECRET" envDefault:"your-super-secret-jwt-key"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	WindowDuration  time.Duration `env:"RATE_LIMIT_WINDOW_DURATION" envDefault:"60s"`
	DefaultRequests int           `env:"RATE_LIMIT_DEFAULT_REQUESTS" envDefault:"60"`
	PublicRequests  int           `env:"RATE_LIMIT_PUBLIC_REQUESTS" envDefault:"100"`
	BookingRequests int           `env:"RATE_LIMIT_BOOKING_REQUESTS" envDefault:"20"`
	PaymentRequests int           `env:"RATE_LIMIT_PAYMENT_REQUESTS" envDefault:"30"`
	AdminRequests   int           `env:"RATE_LIMIT_ADMIN_REQUESTS" envDefault:"200"`
	HealthRequests  int           `env:"RATE_LIMIT_HEALTH_REQUESTS" envDefault:"300"`
	WhitelistedIPs  []string      `env:"RATE_LIMIT_WHITELISTED_IPS" envSeparator:","`
}

// BookingConfig holds seat hold and booking token settings
type BookingConfig struct {
	HoldTTL            time.Duration `env:"HOLD_TTL" envDefault:"5m"`
	TokenPrefix        string        `env:"BOOKING_TOKEN_PREFIX" envDefault:"CD"`
	MaxSeatsPerBooking int           `env:"MAX_SEATS_PER_BOOKING" envDefault:"5"`
}

// SweeperConfig holds the expired hold sweeper settings
type SweeperConfig struct {
	Enabled          bool          `env:"SWEEPER_ENABLED" envDefault:"true"`
	Interval         time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	LockName         string        `env:"SWEEP_LOCK_NAME" envDefault:"free_expired_seats"`
	LockStaleTimeout time.Duration `env:"SWEEP_LOCK_STALE_TIMEOUT" envDefault:"5m"`
}

// PaystackConfig holds payment gateway settings
type PaystackConfig struct {
	BaseURL        string        `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"`
	SecretKey      string        `env:"PAYSTACK_SECRET_KEY"`
	CallbackURL    string        `env:"PAYSTACK_CALLBACK_URL"`
	Currency       string        `env:"PAYSTACK_CURRENCY" envDefault:"NGN"`
	RequestTimeout time.Duration `env:"PAYSTACK_REQUEST_TIMEOUT" envDefault:"10s"`
}

// KafkaConfig holds booking event stream settings
type KafkaConfig struct {
	Enabled       bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	Topic         string   `env:"KAFKA_BOOKING_TOPIC" envDefault:"booking-events"`
	ConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"ticket-dispatcher"`
}

// MetricsConfig toggles the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Build composite values
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	}
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg, nil
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
