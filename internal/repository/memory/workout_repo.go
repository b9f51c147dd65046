// Package memory is an in-process WorkoutRepository for local development and
// tests. It keeps the same ordering and not-found contract as the real stores.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/repository"
)

type WorkoutRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.Workout
	now  func() time.Time
}

func NewWorkoutRepository() *WorkoutRepository {
	return &WorkoutRepository{
		rows: make(map[string]domain.Workout),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *WorkoutRepository) FindAll(ctx context.Context) ([]domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Workout, 0, len(r.rows))
	for _, w := range r.rows {
		out = append(out, clone(w))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *WorkoutRepository) FindByID(ctx context.Context, id string) (*domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clone(w)
	return &c, nil
}

func (r *WorkoutRepository) Upsert(ctx context.Context, workout *domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	row := clone(*workout)
	row.CreatedAt = now
	if existing, ok := r.rows[row.ID]; ok {
		row.CreatedAt = existing.CreatedAt
	}
	row.UpdatedAt = now
	r.rows[row.ID] = row

	workout.UpdatedAt = now
	return nil
}

func (r *WorkoutRepository) Ping(ctx context.Context) error {
	return nil
}

// Len reports how many rows are stored.
func (r *WorkoutRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func clone(w domain.Workout) domain.Workout {
	phases := make([]domain.Phase, len(w.Phases))
	copy(phases, w.Phases)
	w.Phases = phases
	return w
}
