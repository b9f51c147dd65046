package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/repository"
)

const (
	recoveryID = "01932c1e-4b6a-7c10-8a3e-5f0d2b9c4e01"
	stridesID  = "01932c1e-4b6a-7c17-b9c6-2e7a9b4d1f08"
)

func workoutDoc(id string, order int, name string, phases interface{}) bson.D {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "order", Value: order},
		{Key: "name", Value: name},
		{Key: "description", Value: "desc"},
		{Key: "totalDurationMinutes", Value: 30},
		{Key: "phases", Value: phases},
		{Key: "createdAt", Value: ts},
		{Key: "updatedAt", Value: ts},
	}
}

func phaseDoc(name string, seconds, bpm int) bson.D {
	return bson.D{{Key: "name", Value: name}, {Key: "durationSeconds", Value: seconds}, {Key: "bpm", Value: bpm}}
}

func TestMongoWorkoutRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "db." + workoutCollectionName

	mt.Run("find all decodes in cursor order", func(mt *mtest.T) {
		repo := NewMongoWorkoutRepository(mt.DB, repository.Lenient)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			workoutDoc(recoveryID, 1, "Recovery", bson.A{phaseDoc("Warmup", 300, 160), phaseDoc("Easy", 600, 168)}),
			workoutDoc(stridesID, 8, "Strides", bson.A{phaseDoc("Fast (1/8)", 20, 190)}),
		))

		got, err := repo.FindAll(context.Background())
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, 1, got[0].Order)
		assert.Equal(mt, []domain.Phase{
			{Name: "Warmup", DurationSeconds: 300, BPM: 160},
			{Name: "Easy", DurationSeconds: 600, BPM: 168},
		}, got[0].Phases)
		assert.Equal(mt, "Strides", got[1].Name)
	})

	mt.Run("find all sends order sort", func(mt *mtest.T) {
		repo := NewMongoWorkoutRepository(mt.DB, repository.Lenient)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.FindAll(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		sort := evt.Command.Lookup("sort").Document()
		assert.Equal(mt, int32(1), sort.Lookup("order").Int32())
	})

	mt.Run("malformed phases lenient", func(mt *mtest.T) {
		repo := NewMongoWorkoutRepository(mt.DB, repository.Lenient)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			workoutDoc(recoveryID, 1, "Recovery", "not an array"),
		))

		got, err := repo.FindAll(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []domain.Phase{}, got[0].Phases)
	})

	mt.Run("malformed phases strict", func(mt *mtest.T) {
		repo := NewMongoWorkoutRepository(mt.DB, repository.Strict)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			workoutDoc(recoveryID, 1, "Recovery", "not an array"),
		))

		_, err := repo.FindAll(context.Background())
		assert.ErrorIs(mt, err, repository.ErrMalformedPhases)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewMongoWorkoutRepository(mt.DB, repository.Lenient)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			workoutDoc(stridesID, 8, "Strides", nil),
		))

		got, err := repo.FindByID(context.Background(), stridesID)
		require.NoError(mt, err)
		assert.Equal(mt, stridesID, got.ID)
		assert.Equal(mt, []domain.Phase{}, got.Phases)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewMongoWorkoutRepository(mt.DB, repository.Lenient)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.FindByID(context.Background(), "missing")
		assert.Nil(mt, got)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("upsert sends upsert with set and setOnInsert", func(mt *mtest.T) {
		repo := NewMongoWorkoutRepository(mt.DB, repository.Lenient)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		w := &domain.Workout{ID: recoveryID, Order: 1, Name: "Recovery", TotalDurationMinutes: 20}
		require.NoError(mt, repo.Upsert(context.Background(), w))
		assert.False(mt, w.UpdatedAt.IsZero())

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		stmt := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.True(mt, stmt.Lookup("upsert").Boolean())
		assert.Equal(mt, recoveryID, stmt.Lookup("q", "_id").StringValue())
		assert.Equal(mt, "Recovery", stmt.Lookup("u", "$set", "name").StringValue())
		_, err := stmt.LookupErr("u", "$setOnInsert", "createdAt")
		assert.NoError(mt, err)
		_, err = stmt.LookupErr("u", "$set", "createdAt")
		assert.Error(mt, err)
	})

	mt.Run("upsert surfaces write errors", func(mt *mtest.T) {
		repo := NewMongoWorkoutRepository(mt.DB, repository.Lenient)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "E11000 duplicate key error collection: db.workouts index: order_1",
		}))

		err := repo.Upsert(context.Background(), &domain.Workout{ID: recoveryID, Order: 1})
		assert.Error(mt, err)
	})
}
