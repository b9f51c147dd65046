package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jejak/backend/internal/catalog"
	"jejak/backend/internal/domain"
	"jejak/backend/internal/repository/memory"
	"jejak/backend/internal/service"
)

const intervalsID = "01932c1e-4b6a-7c15-97a4-0c5e7f2b9d06"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	err error
}

func (s stubService) ListWorkouts(context.Context) ([]domain.Workout, error) { return nil, s.err }

func (s stubService) GetWorkout(context.Context, string) (*domain.Workout, error) {
	return nil, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newRouter(svc service.WorkoutService, store Pinger) *gin.Engine {
	router := gin.New()
	SetupRoutes(router, svc, store, zap.NewNop())
	return router
}

func seededRouter(t *testing.T) *gin.Engine {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)

	repo := memory.NewWorkoutRepository()
	for _, w := range c.Build() {
		require.NoError(t, repo.Upsert(context.Background(), &w))
	}
	return newRouter(service.NewWorkoutService(repo), repo)
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestListWorkouts(t *testing.T) {
	rec := get(seededRouter(t), "/api/workouts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []WorkoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 8)
	for i, w := range body {
		assert.Equal(t, i+1, w.Order)
	}
	assert.Equal(t, "Recovery", body[0].Name)
	assert.Equal(t, "Strides", body[7].Name)
}

func TestListWorkouts_EmptyIsArray(t *testing.T) {
	repo := memory.NewWorkoutRepository()
	rec := get(newRouter(service.NewWorkoutService(repo), repo), "/api/workouts")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListWorkouts_StorageError(t *testing.T) {
	rec := get(newRouter(stubService{err: errors.New("connection refused")}, stubPinger{}), "/api/workouts")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to retrieve workouts"}`, rec.Body.String())
}

func TestGetWorkout(t *testing.T) {
	rec := get(seededRouter(t), "/api/workouts/"+intervalsID)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"id", "name", "totalDurationMinutes", "description", "order", "phases"} {
		assert.Contains(t, raw, key)
	}

	var body WorkoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, intervalsID, body.ID)
	assert.Equal(t, "1:00 Intervals", body.Name)
	assert.Equal(t, 38, body.TotalDurationMinutes)
	require.Len(t, body.Phases, 22)
	assert.Equal(t, PhaseResponse{Name: "Warmup", DurationSeconds: 720, BPM: 162}, body.Phases[0])
	assert.Equal(t, PhaseResponse{Name: "Hard (1/10)", DurationSeconds: 60, BPM: 186}, body.Phases[1])
	assert.Equal(t, PhaseResponse{Name: "Easy (10/10)", DurationSeconds: 60, BPM: 168}, body.Phases[20])
	assert.Equal(t, PhaseResponse{Name: "Cooldown", DurationSeconds: 360, BPM: 156}, body.Phases[21])
}

func TestGetWorkout_NotFound(t *testing.T) {
	router := seededRouter(t)

	for _, id := range []string{"00000000-0000-0000-0000-000000000000", "not-a-uuid"} {
		rec := get(router, "/api/workouts/"+id)
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.JSONEq(t, `{"error":"Workout not found"}`, rec.Body.String(), id)
	}
}

func TestGetWorkout_AlternateUUIDSpellings(t *testing.T) {
	router := seededRouter(t)

	for _, id := range []string{
		"urn:uuid:" + intervalsID,
		"01932C1E-4B6A-7C15-97A4-0C5E7F2B9D06",
		"%7B" + intervalsID + "%7D",
	} {
		rec := get(router, "/api/workouts/"+id)
		require.Equal(t, http.StatusOK, rec.Code, id)

		var body WorkoutResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, intervalsID, body.ID, id)
	}
}

func TestGetWorkout_StorageError(t *testing.T) {
	rec := get(newRouter(stubService{err: errors.New("connection refused")}, stubPinger{}), "/api/workouts/"+intervalsID)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to retrieve workout"}`, rec.Body.String())
}

func TestMapWorkoutToResponse_NilPhases(t *testing.T) {
	resp := MapWorkoutToResponse(&domain.Workout{ID: intervalsID, Name: "Bare"})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"phases":[]`)
}
