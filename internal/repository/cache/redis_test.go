package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/repository"
	"jejak/backend/internal/repository/memory"
)

type fakeRedis struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	readErr error
	scanErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.readErr != nil {
		return redis.NewStringResult("", f.readErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if f.scanErr != nil {
		return redis.NewScanCmdResult(nil, 0, f.scanErr)
	}
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

// countingRepo counts reads that reach the backing store.
type countingRepo struct {
	repository.WorkoutRepository
	findAll  int
	findByID int
}

func (c *countingRepo) FindAll(ctx context.Context) ([]domain.Workout, error) {
	c.findAll++
	return c.WorkoutRepository.FindAll(ctx)
}

func (c *countingRepo) FindByID(ctx context.Context, id string) (*domain.Workout, error) {
	c.findByID++
	return c.WorkoutRepository.FindByID(ctx, id)
}

func setup(t *testing.T) (*Repository, *countingRepo, *fakeRedis) {
	t.Helper()
	backing := &countingRepo{WorkoutRepository: memory.NewWorkoutRepository()}
	ctx := context.Background()
	require.NoError(t, backing.Upsert(ctx, &domain.Workout{
		ID: "w1", Order: 1, Name: "Recovery",
		Phases: []domain.Phase{{Name: "Warmup", DurationSeconds: 300, BPM: 160}},
	}))
	require.NoError(t, backing.Upsert(ctx, &domain.Workout{ID: "w2", Order: 2, Name: "Easy Run (short)"}))

	rdb := newFakeRedis()
	return New(backing, rdb, time.Minute, zap.NewNop()), backing, rdb
}

func TestFindAll_ReadThrough(t *testing.T) {
	repo, backing, rdb := setup(t)
	ctx := context.Background()

	first, err := repo.FindAll(ctx)
	require.NoError(t, err)
	second, err := repo.FindAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, backing.findAll)
	assert.Equal(t, first[0].Phases, second[0].Phases)
	assert.Equal(t, []string{"Recovery", "Easy Run (short)"}, []string{second[0].Name, second[1].Name})
	assert.Equal(t, time.Minute, rdb.ttls[allKey])
}

func TestFindByID_ReadThrough(t *testing.T) {
	repo, backing, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := repo.FindByID(ctx, "w1")
		require.NoError(t, err)
		assert.Equal(t, "Recovery", got.Name)
	}
	assert.Equal(t, 1, backing.findByID)
}

func TestFindByID_NotFoundIsNotCached(t *testing.T) {
	repo, backing, rdb := setup(t)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, 2, backing.findByID)
	assert.NotContains(t, rdb.data, idKey+"missing")
}

func TestRedisFailureFallsBack(t *testing.T) {
	repo, backing, rdb := setup(t)
	rdb.readErr = errors.New("connection reset")

	got, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, backing.findAll)
}

func TestUpsert_Invalidates(t *testing.T) {
	repo, backing, rdb := setup(t)
	ctx := context.Background()

	_, err := repo.FindAll(ctx)
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, rdb.data, 2)

	require.NoError(t, repo.Upsert(ctx, &domain.Workout{ID: "w1", Order: 1, Name: "Recovery v2"}))
	assert.Empty(t, rdb.data)

	got, err := repo.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "Recovery v2", got.Name)
	assert.Equal(t, 2, backing.findByID)
}

func TestNew_DefaultTTL(t *testing.T) {
	repo := New(memory.NewWorkoutRepository(), newFakeRedis(), 0, zap.NewNop())
	assert.Equal(t, DefaultTTL, repo.ttl)
}

func TestUpsert_InvalidationFailureIsNotAWriteFailure(t *testing.T) {
	backing := memory.NewWorkoutRepository()
	rdb := newFakeRedis()
	rdb.scanErr = errors.New("connection reset")
	core, logs := observer.New(zapcore.WarnLevel)
	repo := New(backing, rdb, time.Minute, zap.New(core))

	err := repo.Upsert(context.Background(), &domain.Workout{ID: "w1", Order: 1, Name: "Recovery"})
	require.NoError(t, err)

	got, err := backing.FindByID(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "Recovery", got.Name)
	assert.Equal(t, 1, logs.FilterMessage("cache invalidation after upsert failed").Len())
}
