package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "nfpharmacy",
		Usage: "Resident statement intake and delivery for North Falmouth Pharmacy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-prefix",
				Aliases: []string{"p"},
				Usage:   "Environment variable prefix",
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedCommand,
			extractCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
