package main

import (
	"nfpharmacy/internal/db"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply pending database migrations",
	Action: func(cCtx *cli.Context) error {
		config, err := loadConfig(cCtx)
		if err != nil {
			return err
		}

		return db.Migrate(config.DatabaseURL, newLogger(config))
	},
}
