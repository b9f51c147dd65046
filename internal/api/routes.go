package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jejak/backend/internal/metrics"
	"jejak/backend/internal/service"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func SetupRoutes(
	router *gin.Engine,
	workoutService service.WorkoutService,
	store Pinger,
	log *zap.Logger,
) {
	workoutHandler := NewWorkoutHandler(workoutService, log)

	router.Use(RequestLogger(log), Metrics())

	health := healthHandler(store, log)
	router.GET("/health", health)
	router.HEAD("/health", health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// --- Workout Routes ---
	// HEAD is served by the same handlers; net/http drops the body.
	workoutGroup := router.Group("/api/workouts")
	{
		// GET /api/workouts - all workouts in display order
		workoutGroup.GET("", workoutHandler.ListWorkouts)
		workoutGroup.HEAD("", workoutHandler.ListWorkouts)
		// GET /api/workouts/{id}
		workoutGroup.GET("/:id", workoutHandler.GetWorkout)
		workoutGroup.HEAD("/:id", workoutHandler.GetWorkout)
	}
}

func healthHandler(store Pinger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
