package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jejak/backend/internal/api"
	"jejak/backend/internal/catalog"
	"jejak/backend/internal/config"
	"jejak/backend/internal/logging"
	"jejak/backend/internal/seeder"
	"jejak/backend/internal/service"
	"jejak/backend/internal/store"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting workout server...", zap.String("driver", cfg.Database.Driver))

	// --- Database Connection ---
	st, err := store.Open(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("Closing workout store...")
		if err := st.Close(); err != nil {
			logger.Error("failed to close workout store", zap.Error(err))
		}
	}()

	// The in-memory store starts empty; give local runs the built-in catalog.
	if cfg.Database.Driver == config.DriverMemory {
		c, err := catalog.Default()
		if err != nil {
			return err
		}
		seeder.New(st.Workouts, logger).Run(context.Background(), c.Build())
	}

	// --- Initialize Services ---
	workoutService := service.NewWorkoutService(st.Workouts)

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// --- Setup Routes ---
	api.SetupRoutes(router, workoutService, st.Workouts, logger)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      api.WithCORS(router, cfg.Server.Origins()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("Shutting down server...", zap.String("signal", sig.String()))
	}

	// In-flight requests get 5 seconds to finish.
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		return err
	}

	logger.Info("Server exiting.")
	return nil
}
