package main

import (
	"fmt"
	"os"
	"path/filepath"

	"nfpharmacy/internal/ocr"
	"nfpharmacy/internal/statements"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

type extractedFields struct {
	FileName      string
	AccountNumber *string
	FirstName     *string
	DOBRaw        *string
	DOB           *string
	Confidence    *float64
}

var extractCommand = &cli.Command{
	Name:      "extract",
	Usage:     "Read statement fields from local PDFs using the text layer",
	ArgsUsage: "<file.pdf> [file.pdf...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "Also print the extracted first-page text",
		},
	},
	Action: func(cCtx *cli.Context) error {
		if cCtx.NArg() == 0 {
			return cli.Exit("at least one PDF path is required", 1)
		}

		extractor := ocr.NewTextLayer()

		for _, path := range cCtx.Args().Slice() {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			fields, err := extractor.Extract(cCtx.Context, filepath.Base(path), content)
			if err != nil {
				return fmt.Errorf("failed to extract %s: %w", path, err)
			}

			pp.Println(extractedFields{
				FileName:      filepath.Base(path),
				AccountNumber: fields.AccountNumber,
				FirstName:     fields.FirstName,
				DOBRaw:        fields.DOBRaw,
				DOB:           statements.NormalizeDOB(fields.DOBRaw),
				Confidence:    fields.Confidence,
			})

			if cCtx.Bool("raw") {
				fmt.Println(fields.Raw)
			}
		}

		return nil
	},
}
