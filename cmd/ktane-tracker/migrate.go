package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ktane-tracker/tracker/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
			if err := storage.MigrateFromDSN(ctx, cfg.Database.DSN, storage.MigrationsFS(cfg.Database.MigrationsDir)); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			slog.Info("migrations complete")
			return nil
		},
	}
}
