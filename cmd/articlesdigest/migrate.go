package main

import (
	"github.com/spf13/cobra"

	"ArticlesDigest/internal/infrastructure/storage"
)

func migrateCMD(cfgPath *string) *cobra.Command {
	var direction string
	var steps int

	migrate := newCommand("migrate", "Run database migrations", func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig(*cfgPath)
		if err != nil {
			return err
		}
		if err := storage.Migrate(cfg.Database.DSN, direction, steps); err != nil {
			logger.Error("migration failed", "direction", direction, "error", err)
			return err
		}
		logger.Info("migrations applied", "direction", direction, "steps", steps)
		return nil
	})
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
