package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/recipebox-server/internal/config"
	"github.com/dtroode/recipebox-server/internal/database"
	"github.com/dtroode/recipebox-server/internal/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			ctx := cmd.Context()

			conn, err := openConnection(ctx, *cfg)
			if err != nil {
				return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
			}
			if conn == nil {
				log.Info("memory store has no schema, nothing to migrate")
				return nil
			}
			defer conn.Close()

			if err := database.Migrate(ctx, conn.DB, conn.Dialect, log); err != nil {
				return err
			}
			version, err := database.Version(ctx, conn.DB, conn.Dialect)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
			return nil
		},
	}
}
