package main

import (
	"context"
	"fmt"

	"nfpharmacy/internal/db"
	"nfpharmacy/internal/seed"
	"nfpharmacy/internal/store"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo resident profiles",
	Action: func(cCtx *cli.Context) error {
		cfg, err := loadConfig(cCtx)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := newLogger(cfg)
		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logger.Info("connected to database")

		if err := seed.SeedProfiles(ctx, logger, store.NewProfileRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed profiles: %w", err)
		}

		return nil
	},
}
