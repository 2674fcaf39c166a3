package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/api"
	"github.com/emojiblog/emojiblog/internal/cache"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/ratelimit"
	"github.com/emojiblog/emojiblog/pkg/config"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting emojiblog API server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	var store ratelimit.Store
	if scripter := redisCache.Scripter(); scripter != nil {
		store = ratelimit.NewRedisStore(scripter)
	} else {
		logger.Warn("Redis disabled, rate limits are enforced per instance")
		store = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(store, cfg.RateLimit, nil)

	provider, err := identity.NewClient(&cfg.Identity)
	if err != nil {
		logger.Fatal("Failed to create identity client", zap.Error(err))
	}

	var verifier *identity.Verifier
	if cfg.Identity.JWTPublicKey != "" {
		verifier, err = identity.NewVerifier(cfg.Identity.JWTPublicKey)
		if err != nil {
			logger.Fatal("Failed to load session verification key", zap.Error(err))
		}
	} else {
		logger.Warn("No session verification key configured, all callers are anonymous")
	}

	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	router := api.NewRouter(api.Deps{
		DB:       database,
		Cache:    redisCache,
		Provider: provider,
		Verifier: verifier,
		Limiter:  limiter,
	})
	router.SetupRoutes(engine, &cfg.Server)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
