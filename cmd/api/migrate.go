package main

import (
	"github.com/spf13/cobra"

	"github.com/flicky/marketplace-api/internal/config"
	"github.com/flicky/marketplace-api/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg.Log)
		ctx := cmd.Context()

		pool, err := openPool(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := repository.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "versions", applied, "count", len(applied))
		return nil
	},
}
