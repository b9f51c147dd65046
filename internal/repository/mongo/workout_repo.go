// internal/repository/mongo/workout_repo.go
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/repository"
)

const workoutCollectionName = "workouts"

// workoutDocument is the stored shape. Phases are kept raw so a malformed
// array can be handled by the decode policy instead of failing the cursor.
type workoutDocument struct {
	ID                   string        `bson:"_id"`
	Order                int           `bson:"order"`
	Name                 string        `bson:"name"`
	Description          string        `bson:"description"`
	TotalDurationMinutes int           `bson:"totalDurationMinutes"`
	Phases               bson.RawValue `bson:"phases"`
	CreatedAt            time.Time     `bson:"createdAt"`
	UpdatedAt            time.Time     `bson:"updatedAt"`
}

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
	policy     repository.PhaseDecodePolicy
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database, policy repository.PhaseDecodePolicy) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
		policy:     policy,
	}
}

// FindAll retrieves every workout sorted by display order.
func (r *mongoWorkoutRepository) FindAll(ctx context.Context) ([]domain.Workout, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	for cursor.Next(ctx) {
		var doc workoutDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		w, err := r.toDomain(doc)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *w)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

// FindByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) FindByID(ctx context.Context, id string) (*domain.Workout, error) {
	var doc workoutDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return r.toDomain(doc)
}

// Upsert overwrites every mutable field of the document with the workout's
// ID, creating it when absent. CreatedAt is only written on insert.
func (r *mongoWorkoutRepository) Upsert(ctx context.Context, workout *domain.Workout) error {
	phases := workout.Phases
	if phases == nil {
		phases = []domain.Phase{}
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": workout.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":                 workout.Name,
			"description":          workout.Description,
			"totalDurationMinutes": workout.TotalDurationMinutes,
			"phases":               phases,
			"order":                workout.Order,
			"updatedAt":            now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, updateDoc, options.Update().SetUpsert(true)); err != nil {
		return err
	}
	workout.UpdatedAt = now
	return nil
}

func (r *mongoWorkoutRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *mongoWorkoutRepository) toDomain(doc workoutDocument) (*domain.Workout, error) {
	phases, err := r.decodePhases(doc.Phases)
	if err != nil {
		return nil, fmt.Errorf("workout %s: %w", doc.ID, err)
	}
	return &domain.Workout{
		ID:                   doc.ID,
		Order:                doc.Order,
		Name:                 doc.Name,
		Description:          doc.Description,
		TotalDurationMinutes: doc.TotalDurationMinutes,
		Phases:               phases,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}, nil
}

func (r *mongoWorkoutRepository) decodePhases(raw bson.RawValue) ([]domain.Phase, error) {
	phases := []domain.Phase{}
	if raw.Type == 0 || raw.Type == bson.TypeNull {
		return phases, nil
	}
	if err := raw.Unmarshal(&phases); err != nil {
		if r.policy == repository.Strict {
			return nil, fmt.Errorf("%w: %v", repository.ErrMalformedPhases, err)
		}
		return []domain.Phase{}, nil
	}
	return phases, nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Drives the FindAll sort
			Keys: bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// WorkoutCollection returns the collection the repository reads from.
func WorkoutCollection(db *mongo.Database) *mongo.Collection {
	return db.Collection(workoutCollectionName)
}
