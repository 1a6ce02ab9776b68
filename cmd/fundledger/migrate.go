package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/fundledger/internal/config"
	"github.com/josh-kwaku/fundledger/internal/logging"
	"github.com/josh-kwaku/fundledger/internal/repository"
	"github.com/josh-kwaku/fundledger/migrations"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Init(serviceName, cfg.LogLevel, cfg.AppEnv)

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := repository.Migrate(cmd.Context(), db, migrations.FS)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied", "files", applied)
			return nil
		},
	}
}
