package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/service"
)

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
	log            *zap.Logger
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService, log *zap.Logger) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, log: log}
}

// --- DTOs for API (Data Transfer Objects) ---

// PhaseResponse is one timed segment of a workout.
type PhaseResponse struct {
	Name            string `json:"name"`
	DurationSeconds int    `json:"durationSeconds"`
	BPM             int    `json:"bpm"`
}

// WorkoutResponse is the DTO for returning workout details.
type WorkoutResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	TotalDurationMinutes int             `json:"totalDurationMinutes"`
	Description          string          `json:"description"`
	Order                int             `json:"order"`
	Phases               []PhaseResponse `json:"phases"`
}

// MapWorkoutToResponse converts a domain.Workout to WorkoutResponse DTO.
// Phases are always an array, never null.
func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{Phases: []PhaseResponse{}}
	}
	phases := make([]PhaseResponse, len(w.Phases))
	for i, p := range w.Phases {
		phases[i] = PhaseResponse{Name: p.Name, DurationSeconds: p.DurationSeconds, BPM: p.BPM}
	}
	return WorkoutResponse{
		ID:                   w.ID,
		Name:                 w.Name,
		TotalDurationMinutes: w.TotalDurationMinutes,
		Description:          w.Description,
		Order:                w.Order,
		Phases:               phases,
	}
}

// MapWorkoutsToResponse converts a slice of domain.Workout, keeping order.
func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		responses[i] = MapWorkoutToResponse(&workouts[i])
	}
	return responses
}

// --- Handlers ---

// ListWorkouts handles GET /api/workouts.
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	workouts, err := h.workoutService.ListWorkouts(c.Request.Context())
	if err != nil {
		h.log.Error("list workouts failed", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workouts")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// GetWorkout handles GET /api/workouts/:id.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	id := c.Param("id")

	workout, err := h.workoutService.GetWorkout(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrWorkoutNotFound) {
			abortWithError(c, http.StatusNotFound, "Workout not found")
			return
		}
		h.log.Error("get workout failed", zap.String("id", id), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workout")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}
