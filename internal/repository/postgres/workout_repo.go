// internal/repository/postgres/workout_repo.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/repository"
)

const selectWorkouts = `SELECT id, name, total_duration_minutes, description, phases, "order", created_at, updated_at FROM workouts`

const upsertWorkout = `
INSERT INTO workouts (id, name, total_duration_minutes, description, phases, "order", created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    total_duration_minutes = EXCLUDED.total_duration_minutes,
    description = EXCLUDED.description,
    phases = EXCLUDED.phases,
    "order" = EXCLUDED."order",
    updated_at = EXCLUDED.updated_at`

// workoutRow mirrors the workouts table. Phases stay raw until decoded by
// the repository's policy.
type workoutRow struct {
	ID                   string    `db:"id"`
	Name                 string    `db:"name"`
	TotalDurationMinutes int       `db:"total_duration_minutes"`
	Description          string    `db:"description"`
	Phases               []byte    `db:"phases"`
	Order                int       `db:"order"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// postgresWorkoutRepository implements repository.WorkoutRepository
type postgresWorkoutRepository struct {
	db     *sqlx.DB
	policy repository.PhaseDecodePolicy
	now    func() time.Time
}

// NewPostgresWorkoutRepository creates a new Workout repository backed by the
// workouts table.
func NewPostgresWorkoutRepository(db *sqlx.DB, policy repository.PhaseDecodePolicy) repository.WorkoutRepository {
	return &postgresWorkoutRepository{
		db:     db,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FindAll returns every workout in display order.
func (r *postgresWorkoutRepository) FindAll(ctx context.Context) ([]domain.Workout, error) {
	var rows []workoutRow
	if err := r.db.SelectContext(ctx, &rows, selectWorkouts+` ORDER BY "order" ASC, id ASC`); err != nil {
		return nil, err
	}

	workouts := make([]domain.Workout, 0, len(rows))
	for _, row := range rows {
		w, err := r.toDomain(row)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *w)
	}
	return workouts, nil
}

// FindByID retrieves a single workout. Ids that are not UUIDs cannot exist
// in the table and are reported as not found without a query. Other UUID
// spellings (urn:uuid:, braces, upper case) are queried in canonical form.
func (r *postgresWorkoutRepository) FindByID(ctx context.Context, id string) (*domain.Workout, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var row workoutRow
	err = r.db.GetContext(ctx, &row, selectWorkouts+` WHERE id = $1`, parsed.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return r.toDomain(row)
}

// Upsert writes the workout and its phase document in a single statement.
func (r *postgresWorkoutRepository) Upsert(ctx context.Context, workout *domain.Workout) error {
	phases, err := repository.EncodePhases(workout.Phases)
	if err != nil {
		return err
	}

	now := r.now()
	_, err = r.db.ExecContext(ctx, upsertWorkout,
		workout.ID,
		workout.Name,
		workout.TotalDurationMinutes,
		workout.Description,
		string(phases),
		workout.Order,
		now,
	)
	if err != nil {
		return err
	}
	workout.UpdatedAt = now
	return nil
}

func (r *postgresWorkoutRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *postgresWorkoutRepository) toDomain(row workoutRow) (*domain.Workout, error) {
	phases, err := r.policy.DecodePhases(row.Phases)
	if err != nil {
		return nil, fmt.Errorf("workout %s: %w", row.ID, err)
	}
	return &domain.Workout{
		ID:                   row.ID,
		Order:                row.Order,
		Name:                 row.Name,
		Description:          row.Description,
		TotalDurationMinutes: row.TotalDurationMinutes,
		Phases:               phases,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}, nil
}
