// Package cache wraps a WorkoutRepository with a Redis read-through cache.
// Reads fall back to the wrapped repository whenever Redis misses or fails;
// a broken cache never turns into a failed read.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/repository"
)

const (
	keyPrefix  = "jejak:workouts:"
	allKey     = keyPrefix + "all"
	idKey      = keyPrefix + "id:"
	scanBatch  = 100
	DefaultTTL = 5 * time.Minute
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Repository is a caching repository.WorkoutRepository.
type Repository struct {
	next   repository.WorkoutRepository
	client Client
	ttl    time.Duration
	log    *zap.Logger
}

// New wraps next. A non-positive ttl falls back to DefaultTTL.
func New(next repository.WorkoutRepository, client Client, ttl time.Duration, log *zap.Logger) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{next: next, client: client, ttl: ttl, log: log.Named("cache")}
}

// NewRedisClient connects to addr and checks it with a PING.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Workout, error) {
	var cached []domain.Workout
	if r.get(ctx, allKey, &cached) {
		return cached, nil
	}

	workouts, err := r.next.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, allKey, workouts)
	return workouts, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Workout, error) {
	var cached domain.Workout
	if r.get(ctx, idKey+id, &cached) {
		return &cached, nil
	}

	workout, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.set(ctx, idKey+id, workout)
	return workout, nil
}

// Upsert writes through to the wrapped repository and drops every cached
// workout on success. A failed invalidation is logged, not returned: the row
// is already written, and entries expire after the TTL.
func (r *Repository) Upsert(ctx context.Context, workout *domain.Workout) error {
	if err := r.next.Upsert(ctx, workout); err != nil {
		return err
	}
	if err := r.Invalidate(ctx); err != nil {
		r.log.Warn("cache invalidation after upsert failed", zap.String("id", workout.ID), zap.Error(err))
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// Invalidate deletes every key the cache owns.
func (r *Repository) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyPrefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *Repository) get(ctx context.Context, key string, dst interface{}) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.log.Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *Repository) set(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
