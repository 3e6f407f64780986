package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"busline/api/routes"
	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/internal/shared/middleware"
	"busline/pkg/logger"
	"busline/pkg/metrics"
	"busline/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		logger.GetDefault().Error("server terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	appLogger = logger.New()
	logger.SetDefault(appLogger)
	appLogger.Info("starting busline",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("commit", GitCommit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("failed to close databases", slog.Any("error", err))
		}
	}()

	if err := bookings.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	// Booking events and ticket dispatch
	publisher, dispatcher, err := notifications.Setup(cfg.Kafka, notifications.NewLogTicketSender())
	if err != nil {
		appLogger.Error("Failed to initialize notifications, continuing without them", slog.Any("error", err))
		publisher = notifications.NoopPublisher{}
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Error closing booking event publisher", slog.Any("error", err))
		}
	}()
	if dispatcher != nil {
		dispatcher.Start(ctx)
		defer func() {
			if err := dispatcher.Stop(); err != nil {
				appLogger.Error("Error stopping ticket dispatcher", slog.Any("error", err))
			}
		}()
	}

	services := routes.NewServices(cfg, db, publisher)

	if cfg.Sweeper.Enabled {
		services.Sweeper.Start(ctx)
		defer services.Sweeper.Stop()
	} else {
		appLogger.Info("Expired hold sweeper disabled")
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, ratelimit.FromConfig(cfg.RateLimit))
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        setupRouter(cfg, db, services, rateLimiter),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_status", fmt.Sprintf("http://localhost:%s/status", cfg.Port)),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("kafka", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
	return nil
}

func setupRouter(cfg *config.Config, db *database.DB, services *routes.Services, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(appLogger),
		gin.Recovery(),
		middleware.CORS(),
	)

	if cfg.Metrics.Enabled {
		engine.Use(metrics.Middleware())
		engine.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	routes.NewRouter(cfg, db, services, rateLimiter).SetupRoutes(engine)
	return engine
}
