package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/coursegate/coursegate/directory/postgres"
)

func NewMigrateCmd(log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [flags]",
		Short: "Apply the postgres directory schema migrations",
	}

	var (
		databaseURL string
	)

	flags := cmd.Flags()
	flags.StringVar(&databaseURL, "database-url", "", "postgres connection string to migrate")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			return errors.New("--database-url is required")
		}

		if err := postgres.RunMigrations(databaseURL); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	}

	return cmd
}
