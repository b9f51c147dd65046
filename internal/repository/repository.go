package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"jejak/backend/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound        = RepositoryError("not found")
	ErrMalformedPhases = RepositoryError("malformed phase document")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// WorkoutRepository reads and writes workouts. Implementations must return
// FindAll results ascending by Order and must report a missing id from
// FindByID as ErrNotFound, never as a storage error.
type WorkoutRepository interface {
	FindAll(ctx context.Context) ([]domain.Workout, error)
	FindByID(ctx context.Context, id string) (*domain.Workout, error)
	// Upsert inserts the workout or overwrites every mutable field of the
	// row with the same ID, stamping UpdatedAt.
	Upsert(ctx context.Context, workout *domain.Workout) error
	Ping(ctx context.Context) error
}

// PhaseDecodePolicy decides what a reader does with a stored phase document
// it cannot decode.
type PhaseDecodePolicy int

const (
	// Lenient turns a missing or malformed document into an empty sequence.
	Lenient PhaseDecodePolicy = iota
	// Strict reports a malformed document as ErrMalformedPhases.
	Strict
)

// DecodePhases decodes a JSON phase array according to the policy. An absent
// document (nil, empty or JSON null) is always an empty sequence.
func (p PhaseDecodePolicy) DecodePhases(raw []byte) ([]domain.Phase, error) {
	phases := []domain.Phase{}
	if len(raw) == 0 || string(raw) == "null" {
		return phases, nil
	}
	if err := json.Unmarshal(raw, &phases); err != nil {
		if p == Strict {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPhases, err)
		}
		return []domain.Phase{}, nil
	}
	return phases, nil
}

// EncodePhases serializes phases as the stored JSON document. A nil slice is
// written as an empty array.
func EncodePhases(phases []domain.Phase) ([]byte, error) {
	if phases == nil {
		phases = []domain.Phase{}
	}
	return json.Marshal(phases)
}
