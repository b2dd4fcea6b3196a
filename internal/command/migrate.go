package command

import (
	"github.com/spf13/cobra"

	"movie-favorites/internal/app"
	"movie-favorites/internal/config"
	"movie-favorites/internal/db"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd.Context(), config.Config.ValidateDatabase)
			if err != nil {
				return err
			}

			database, err := app.OpenDatabase(cmd.Context(), rt.cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.RunMigrations(cmd.Context(), database); err != nil {
				rt.logger.Error("migrations_failed", "error", err.Error())
				return err
			}

			rt.logger.Info("migrations_applied")
			return nil
		},
	}
}
