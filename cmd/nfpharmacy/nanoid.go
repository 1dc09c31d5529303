package main

import (
	"fmt"

	"nfpharmacy/internal/utils"

	"github.com/urfave/cli/v2"
)

var nanoidCommand = &cli.Command{
	Name:  "nanoid",
	Usage: "Generate NanoIDs, e.g. for X-Request-ID headers in test fixtures",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of IDs to generate",
			Value:   1,
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "Length of each ID",
			Value: utils.RequestIDSize,
		},
	},
	Action: func(cCtx *cli.Context) error {
		for range cCtx.Int("count") {
			id, err := utils.NewID(cCtx.Int("size"))
			if err != nil {
				return fmt.Errorf("failed to generate id: %w", err)
			}
			fmt.Println(id)
		}
		return nil
	},
}
