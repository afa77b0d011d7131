package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/door-production-api/config"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/middleware"
	"github.com/kendall-kelly/door-production-api/routes"
	"github.com/kendall-kelly/door-production-api/services"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Door Production API server...",
		zap.String("env", cfg.GoEnv),
		zap.String("env_file", cfg.EnvSource),
	)

	db, err := config.ConnectDatabase(cfg, logger)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database migration completed successfully")

	bus := events.NewBus(logger)
	hub := events.NewHub(logger)
	bus.Subscribe(events.Wildcard, hub.Listener())

	if cfg.RedisURL != "" {
		redisClient, err := events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		bus.Subscribe(events.Wildcard, events.RedisListener(redisClient, cfg.EventsChannel))
		logger.Info("Publishing events to Redis", zap.String("channel", cfg.EventsChannel))
	}

	store, err := fileStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	deps := routes.NewDeps(db, bus, store, services.NewAuth0Service(cfg.Auth0Domain), hub, logger)
	deps.CORSOrigins = cfg.CORSOrigins

	router := newRouter(cfg, logger)
	routes.Setup(router, deps, middleware.EnsureValidToken(cfg, logger))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	// Let in-flight listeners finish relaying committed events.
	bus.Wait()
	return nil
}

// newRouter creates the engine with recovery, request logging and CORS.
func newRouter(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	return router
}

// corsConfig allows the configured origins. "*" or an empty list allows
// every origin without credentials.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}

// fileStore returns the S3 store. Outside production a missing bucket falls
// back to an in-memory store so the API can run locally.
func fileStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.FileStore, error) {
	if cfg.AWSS3Bucket == "" && !cfg.IsProduction() {
		logger.Warn("AWS_S3_BUCKET not set, keeping uploads in memory")
		return services.NewMockFileStore(), nil
	}
	return services.NewS3Service(ctx, cfg)
}
