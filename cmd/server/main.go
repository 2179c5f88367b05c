// ============================================================================
// MAIN.GO - APPLICATION ENTRY POINT
// ============================================================================
// Startup flow:
//   config -> logger -> tracing -> PostgreSQL -> Redis (optional)
//   -> repositories -> services -> live update hub -> handlers -> router
//   -> HTTP server with graceful shutdown
// ============================================================================

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkpro-analytics/internal/config"
	httpHandler "linkpro-analytics/internal/handler/http"
	"linkpro-analytics/internal/ratelimit"
	"linkpro-analytics/internal/realtime"
	"linkpro-analytics/internal/repository/postgres"
	"linkpro-analytics/internal/service"
	"linkpro-analytics/internal/tracing"
	"linkpro-analytics/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "linkpro-analytics"
	version     = "1.0.0"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional YAML config file")
	flag.Parse()

	// ========================================================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================================================
	// Environment variables win over .env, which wins over the YAML file
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// ========================================================================
	// STEP 2: INITIALIZE STRUCTURED LOGGER
	// ========================================================================
	appLogger := logger.NewWithOptions(logger.Options{
		Level: cfg.App.LogLevel,
		File:  cfg.App.LogFile,
	})
	defer appLogger.Close()

	appLogger.Info("Starting LinkPro Analytics API",
		"environment", cfg.App.Environment,
		"port", cfg.Server.Port,
		"version", version,
	)

	ctx := context.Background()

	// ========================================================================
	// STEP 3: TRACING
	// ========================================================================
	tracer, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  serviceName,
		Version:      version,
		Environment:  cfg.App.Environment,
		Exporter:     cfg.Tracing.Exporter,
		Endpoint:     cfg.Tracing.Endpoint,
		Insecure:     cfg.Tracing.Insecure,
		SamplingRate: cfg.Tracing.SamplingRate,
	}, appLogger.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// ========================================================================
	// STEP 4: DATABASE CONNECTION POOL AND SCHEMA
	// ========================================================================
	db, err := postgres.InitDB(
		ctx,
		cfg.Database.DatabaseDSN(),
		cfg.Database.MaxConns,
		cfg.Database.MinConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		appLogger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()
	appLogger.Info("Database connection established")

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	// ========================================================================
	// STEP 5: REDIS (rate limiting only)
	// ========================================================================
	var (
		rateLimiter httpHandler.RateLimiter
		probeRedis  httpHandler.RedisProbe
	)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// The limiter fails open, so a missing Redis degrades rather than blocks startup
			appLogger.Warn("Redis is not reachable, rate limiting will fail open", "error", err, "addr", cfg.Redis.RedisAddr())
		} else {
			appLogger.Info("Redis connection established", "addr", cfg.Redis.RedisAddr())
		}

		probeRedis = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		if cfg.App.RateLimitEnabled {
			rateLimiter = ratelimit.NewLimiter(redisClient, cfg.App.RateLimitPerMinute, time.Minute)
			appLogger.Info("Rate limiting enabled", "per_minute", cfg.App.RateLimitPerMinute)
		}
	} else if cfg.App.RateLimitEnabled {
		appLogger.Warn("Rate limiting requested but Redis is disabled; ingestion is not rate limited")
	}

	// ========================================================================
	// STEP 6: DEPENDENCY INJECTION - BUILD THE DEPENDENCY GRAPH
	// ========================================================================
	// Database Pool -> Repositories -> Services -> Handlers
	profileRepo := postgres.NewProfileRepository(db)
	linkRepo := postgres.NewLinkRepository(db)
	clickRepo := postgres.NewClickRepository(db)
	viewRepo := postgres.NewViewRepository(db)

	hub := realtime.NewHub(cfg.App.RealtimeBuffer, appLogger.Logger)

	analyticsService := service.NewAnalyticsService(profileRepo, linkRepo, clickRepo, viewRepo)
	trackingService := service.NewTrackingService(profileRepo, linkRepo, clickRepo, viewRepo, hub)

	handler := httpHandler.NewHandler(analyticsService, trackingService, appLogger.Logger)
	systemHandler := httpHandler.NewSystemHandler(version, cfg.App.Environment,
		func(ctx context.Context) (string, error) {
			return postgres.ServerVersion(ctx, db)
		},
		probeRedis,
		appLogger.Logger,
	)
	realtimeHandler := httpHandler.NewRealtimeHandler(hub, profileRepo, cfg.App.CORSAllowedOrigin, appLogger.Logger)

	// ========================================================================
	// STEP 7: ROUTES AND MIDDLEWARE CHAIN
	// ========================================================================
	// EXECUTION ORDER (outside-in):
	// Request -> Recovery -> RequestID -> Logging -> CORS -> Router
	// RequestID runs before Logging so every log line carries the id
	router := httpHandler.NewRouter(httpHandler.RouterConfig{
		Handler:        handler,
		System:         systemHandler,
		Realtime:       realtimeHandler,
		RateLimiter:    rateLimiter,
		TrustProxy:     cfg.App.TrustProxy,
		EnableMetrics:  cfg.App.EnableMetrics,
		EnableTracing:  tracer.Enabled(),
		ServiceName:    serviceName,
		RequestTimeout: cfg.Server.WriteTimeout,
	})

	finalHandler := httpHandler.Chain(
		httpHandler.RecoveryMiddleware(appLogger.Logger),
		httpHandler.RequestIDMiddleware,
		httpHandler.LoggingMiddleware(appLogger),
		httpHandler.CORSMiddleware(cfg.App.CORSAllowedOrigin),
	)(router)

	// ========================================================================
	// STEP 8: CREATE AND START THE HTTP SERVER
	// ========================================================================
	// WriteTimeout is left unset: it would cut live WebSocket connections.
	// Regular API requests are bounded by RequestTimeoutMiddleware instead
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           finalHandler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server failed", "error", err)
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// ========================================================================
	// STEP 9: GRACEFUL SHUTDOWN
	// ========================================================================
	// Stop accepting requests, drain in-flight ones, flush spans, then let the
	// deferred closers release Redis, the pool and the log file
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Failed to flush traces", "error", err)
	}

	appLogger.Info("Server exited gracefully")
}
