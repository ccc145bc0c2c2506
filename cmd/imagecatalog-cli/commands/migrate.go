package commands

import (
	"log/slog"

	"github.com/l3montree-dev/imagecatalog/database"
	"github.com/spf13/cobra"
)

func NewMigrateCommand() *cobra.Command {
	migrate := cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Applies all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, pool, err := database.NewFromEnv()
			if err != nil {
				return err
			}
			defer pool.Close()
			return database.RunMigrationsWithDB(db)
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Rolls back the given number of migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			db, pool, err := database.NewFromEnv()
			if err != nil {
				return err
			}
			defer pool.Close()
			return database.RollbackMigrationsWithDB(db, steps)
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")
	migrate.AddCommand(down)

	migrate.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Prints the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, pool, err := database.NewFromEnv()
			if err != nil {
				return err
			}
			defer pool.Close()
			version, dirty, err := database.GetMigrationVersionWithDB(db)
			if err != nil {
				return err
			}
			slog.Info("migration state", "version", version, "dirty", dirty)
			return nil
		},
	})

	return &migrate
}
