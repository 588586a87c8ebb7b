package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	appMigrations "github.com/yigit/admissions/internal/app/migrations"
	appRepos "github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/bootstrap"
	"github.com/yigit/admissions/internal/config"
	"github.com/yigit/admissions/internal/db"
	"github.com/yigit/admissions/internal/pkg/logger"
	"github.com/yigit/admissions/internal/seed"
)

func migrateCmd() *cobra.Command {
	var withSeed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured postgres database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("migrate needs the postgres driver, configured %q", cfg.Database.Driver)
			}

			lgr := logger.Configure(logger.Config{Level: logger.ParseLevel(cfg.Logging.Level), Pretty: true})
			ctx := cmd.Context()

			database, err := db.NewPostgresDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			source, err := bootstrap.MigrationSource(cfg)
			if err != nil {
				return err
			}

			applied, err := appMigrations.NewMigrator(database, lgr).Migrate(ctx, source)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)

			if withSeed {
				return seed.CreateDefaultData(ctx, appRepos.NewCourseRepository(database.Pool), lgr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withSeed, "seed", false, "also load the default course catalog")
	return cmd
}
