package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"timed-quiz-service/internal/config"
	pgstore "timed-quiz-service/internal/infra/postgres"
	pgmigrations "timed-quiz-service/internal/infra/postgres/migrations"
	"timed-quiz-service/internal/logger"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
			return runMigrationsWithConfig(cmd.Context(), cfg, log, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert the sample title catalog")
	return cmd
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, log zerolog.Logger, seed bool) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info().Msg("no new migrations")
	} else {
		log.Info().Str("group", group.String()).Msg("migrations applied")
	}

	if seed {
		n, err := pgstore.SeedCatalog(ctx, db, sampleTitles())
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Info().Int64("inserted", n).Msg("catalog seeded")
	}
	return nil
}
