package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/repository"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound = errors.New("workout not found")
)

// --- Service Interface ---
type WorkoutService interface {
	ListWorkouts(ctx context.Context) ([]domain.Workout, error)
	GetWorkout(ctx context.Context, id string) (*domain.Workout, error)
}

// --- Service Implementation ---

// workoutService implements the WorkoutService interface.
type workoutService struct {
	workoutRepo repository.WorkoutRepository
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository) WorkoutService {
	return &workoutService{
		workoutRepo: workoutRepo,
	}
}

// ListWorkouts returns every workout ordered by display order. An empty
// store yields an empty, non-nil slice.
func (s *workoutService) ListWorkouts(ctx context.Context) ([]domain.Workout, error) {
	workouts, err := s.workoutRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	return workouts, nil
}

// GetWorkout retrieves a single workout. Ids that are not UUIDs cannot exist
// in the store and are reported as not found without a lookup. Stores only
// ever see the canonical lower-case hyphenated form.
func (s *workoutService) GetWorkout(ctx context.Context, id string) (*domain.Workout, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrWorkoutNotFound
	}

	workout, err := s.workoutRepo.FindByID(ctx, parsed.String())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}
