// Package store opens the configured workout repository for both binaries:
// it connects the backend, prepares its schema, and adds the Redis cache
// when one is configured.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jejak/backend/internal/config"
	"jejak/backend/internal/repository"
	"jejak/backend/internal/repository/cache"
	"jejak/backend/internal/repository/memory"
	"jejak/backend/internal/repository/mongo"
	"jejak/backend/internal/repository/postgres"
)

const setupTimeout = time.Minute

// Store is an opened repository plus the resources behind it.
type Store struct {
	Workouts repository.WorkoutRepository
	// Cache is nil unless a reachable Redis address is configured.
	Cache *cache.Repository

	closers []func() error
}

// Open connects to cfg.Database.Driver. Migrations (postgres) or indexes
// (mongo) run before it returns. An unreachable Redis disables caching with a
// warning instead of failing.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Store, error) {
	s := &Store{}
	policy := cfg.Store.Policy()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.ConnectDB(cfg.Database.URL, cfg.Database.MaxConnections)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		if cfg.Database.Migrate {
			if err := postgres.Migrate(db.DB); err != nil {
				_ = s.Close()
				return nil, err
			}
			log.Info("database migrations applied")
		}
		s.Workouts = postgres.NewPostgresWorkoutRepository(db, policy)

	case config.DriverMongo:
		client, err := mongo.ConnectDB(cfg.Database.URL, uint64(cfg.Database.MaxConnections))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		s.closers = append(s.closers, func() error { return mongo.DisconnectDB(client) })
		db := client.Database(cfg.Database.Name)

		idxCtx, cancel := context.WithTimeout(ctx, setupTimeout)
		defer cancel()
		if err := mongo.EnsureWorkoutIndexes(idxCtx, mongo.WorkoutCollection(db)); err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Workouts = mongo.NewMongoWorkoutRepository(db, policy)

	case config.DriverMemory:
		s.Workouts = memory.NewWorkoutRepository()

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	log.Info("workout store ready", zap.String("driver", cfg.Database.Driver))

	if cfg.Cache.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, serving without cache",
				zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
			return s, nil
		}
		s.closers = append(s.closers, client.Close)
		s.Cache = cache.New(s.Workouts, client, cfg.Cache.TTL, log)
		s.Workouts = s.Cache
		log.Info("workout cache enabled", zap.String("addr", cfg.Cache.RedisAddr), zap.Duration("ttl", cfg.Cache.TTL))
	}

	return s, nil
}

// Close releases every connection in reverse order of opening.
func (s *Store) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
