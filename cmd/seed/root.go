package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jejak/backend/internal/catalog"
	"jejak/backend/internal/config"
	"jejak/backend/internal/domain"
	"jejak/backend/internal/logging"
	"jejak/backend/internal/repository"
	"jejak/backend/internal/repository/memory"
	"jejak/backend/internal/seeder"
	"jejak/backend/internal/storage"
	"jejak/backend/internal/store"
)

var (
	catalogPath string
	configDir   string
	dryRun      bool
	migrate     bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the workout catalog into the database",
	Long: `Seed upserts every workout in the catalog by id. Running it again
updates existing rows in place, so it is safe to repeat after editing the
catalog.

The catalog is read from --catalog (a local file or s3://bucket/key), then
catalog.path from config, and falls back to the catalog built into the binary.

  seed                                  # built-in catalog, DATABASE_URL from env
  seed --catalog ./catalog.yaml         # local catalog
  seed --catalog s3://plans/catalog.yaml
  seed --dry-run                        # validate and list, write nothing

Exits non-zero when any workout fails to seed.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configDir)
		if err != nil && !dryRun {
			return err
		}
		if cmd.Flags().Changed("catalog") {
			cfg.Catalog.Path = catalogPath
		}
		if cmd.Flags().Changed("migrate") {
			cfg.Database.Migrate = migrate
		}

		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runSeed(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file path or s3://bucket/key")
	rootCmd.Flags().StringVar(&configDir, "config-dir", ".", "directory holding config.yaml and .env")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the catalog and list it without writing")
	rootCmd.Flags().BoolVar(&migrate, "migrate", true, "apply database migrations before seeding")
}

func runSeed(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	workouts, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Dry runs never touch the configured database.
	var repo repository.WorkoutRepository = memory.NewWorkoutRepository()
	opts := []seeder.Option{seeder.WithDryRun(dryRun)}
	if !dryRun {
		st, err := store.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Error("failed to close workout store", zap.Error(err))
			}
		}()
		repo = st.Workouts
		if st.Cache != nil {
			opts = append(opts, seeder.WithInvalidator(st.Cache))
		}
	}

	report := seeder.New(repo, logger, opts...).Run(ctx, workouts)
	if !report.OK() {
		return fmt.Errorf("%d of %d workouts failed to seed: %v",
			len(report.Failed), len(workouts), report.Failed)
	}
	return nil
}

func loadCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]domain.Workout, error) {
	if cfg.Catalog.Path == "" {
		logger.Info("loading built-in catalog")
		c, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		return c.Build(), nil
	}

	src, err := storage.OpenSource(ctx, cfg.Catalog.Path, cfg.S3)
	if err != nil {
		return nil, err
	}
	logger.Info("loading catalog", zap.String("location", src.Location()))

	c, err := catalog.FromSource(ctx, src)
	if err != nil {
		return nil, err
	}
	return c.Build(), nil
}
