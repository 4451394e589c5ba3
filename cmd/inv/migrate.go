package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/config"
	"github.com/alfredjeanlab/invtrack/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Apply pending database migrations",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store != config.StorePostgres {
			return errors.New("migrate needs the postgres store (set INVTRACK_DATABASE_URL)")
		}
		v, err := postgres.Migrate(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info("database migrated", "version", v)
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", v)
		return nil
	},
}
