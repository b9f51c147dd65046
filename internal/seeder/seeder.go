// Package seeder writes the workout catalog into a repository. Every entry is
// upserted by id, so running it again converges to the same rows.
package seeder

import (
	"context"

	"go.uber.org/zap"

	"jejak/backend/internal/domain"
	"jejak/backend/internal/metrics"
	"jejak/backend/internal/repository"
)

// Invalidator drops cached reads after the store changed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Report lists the workouts written and the ones that failed, by name.
type Report struct {
	Seeded []string
	Failed []string
}

// OK reports whether every entry was written.
func (r Report) OK() bool { return len(r.Failed) == 0 }

type Seeder struct {
	repo        repository.WorkoutRepository
	log         *zap.Logger
	invalidator Invalidator
	dryRun      bool
}

type Option func(*Seeder)

// WithInvalidator clears inv once the run has finished.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Seeder) { s.invalidator = inv }
}

// WithDryRun logs what would be written without touching the store.
func WithDryRun(dryRun bool) Option {
	return func(s *Seeder) { s.dryRun = dryRun }
}

func New(repo repository.WorkoutRepository, log *zap.Logger, opts ...Option) *Seeder {
	s := &Seeder{repo: repo, log: log.Named("seeder")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run upserts workouts one at a time. A failed entry is logged and recorded
// in the report; the remaining entries are still attempted.
func (s *Seeder) Run(ctx context.Context, workouts []domain.Workout) Report {
	var report Report
	for _, w := range workouts {
		log := s.log.With(zap.String("workout", w.Name), zap.String("id", w.ID))

		if got, want := w.PhaseSeconds(), w.TotalDurationMinutes*60; got != want {
			log.Warn("phase durations do not add up to the stated total",
				zap.Int("phase_seconds", got), zap.Int("total_seconds", want))
		}

		if s.dryRun {
			log.Info("Would seed workout", zap.Int("order", w.Order), zap.Int("phases", len(w.Phases)))
			report.Seeded = append(report.Seeded, w.Name)
			continue
		}

		if err := s.repo.Upsert(ctx, &w); err != nil {
			log.Error("Failed to seed workout", zap.Error(err))
			metrics.RecordSeed(false)
			report.Failed = append(report.Failed, w.Name)
			continue
		}

		log.Info("Seeded workout")
		metrics.RecordSeed(true)
		report.Seeded = append(report.Seeded, w.Name)
	}

	if s.invalidator != nil && !s.dryRun {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.log.Warn("cache invalidation failed", zap.Error(err))
		}
	}

	s.log.Info("Seeding completed!",
		zap.Int("seeded", len(report.Seeded)), zap.Int("failed", len(report.Failed)))
	return report
}
