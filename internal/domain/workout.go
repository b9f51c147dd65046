// internal/domain/workout.go
package domain

import (
	"time"
)

// Phase is a single timed segment of a workout. It has no identity of its own;
// its position inside the parent Workout's Phases is what identifies it.
type Phase struct {
	Name            string `bson:"name" json:"name" mapstructure:"name"`
	DurationSeconds int    `bson:"durationSeconds" json:"durationSeconds" mapstructure:"duration_seconds"`
	BPM             int    `bson:"bpm" json:"bpm" mapstructure:"bpm"`
}

// Workout is a pre-authored interval plan. Phases are owned by value and are
// always stored and loaded together with the workout.
type Workout struct {
	ID                   string    `bson:"_id" db:"id"`
	Order                int       `bson:"order" db:"order"`
	Name                 string    `bson:"name" db:"name"`
	Description          string    `bson:"description" db:"description"`
	TotalDurationMinutes int       `bson:"totalDurationMinutes" db:"total_duration_minutes"`
	Phases               []Phase   `bson:"phases" db:"-"`
	CreatedAt            time.Time `bson:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `bson:"updatedAt" db:"updated_at"`
}

// PhaseSeconds sums the duration of every phase.
func (w *Workout) PhaseSeconds() int {
	total := 0
	for _, p := range w.Phases {
		total += p.DurationSeconds
	}
	return total
}
