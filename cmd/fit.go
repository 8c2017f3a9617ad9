package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/prophecy-cli/internal/dataset"
	"github.com/KaramelBytes/prophecy-cli/internal/logger"
	"github.com/KaramelBytes/prophecy-cli/internal/regression"
	"github.com/KaramelBytes/prophecy-cli/internal/report"
)

var (
	fitSize      float64
	fitSheet     string
	fitDelimiter string
	fitDecimal   string
	fitThousands string
	fitMaxRows   int
	fitCurrency  string
	fitJSON      bool
	fitOutput    string
	fitFormat    string
)

var fitCmd = &cobra.Command{
	Use:   "fit <file>",
	Short: "Fit a price-vs-size line to comparables in a CSV, TSV, JSON or XLSX file",
	Long: `Fit reads comparable sales from a local file, fits an ordinary least-squares
line of price against size and evaluates it at --size. No AI call is made.

The file needs a size column (size, sqft, area) and a price column (price,
value). Rows with a missing or non-positive size or price are skipped and
reported as warnings.`,
	Example: `  prophecy fit comps.csv --size 1200
  prophecy fit sales.xlsx --sheet "Q3" --size 1850 --currency USD
  prophecy fit comps.csv --size 1200 --decimal , --thousands . --output fit.md`,
	Args: cobra.ExactArgs(1),
	RunE: runFit,
}

func init() {
	rootCmd.AddCommand(fitCmd)
	f := fitCmd.Flags()
	f.Float64Var(&fitSize, "size", 0, "size in square feet to predict a price for (required)")
	f.StringVar(&fitSheet, "sheet", "", "XLSX worksheet name (default first sheet)")
	f.StringVar(&fitDelimiter, "delimiter", "", "CSV delimiter (default auto-detect)")
	f.StringVar(&fitDecimal, "decimal", "", "decimal separator for numbers: '.' or ',' (default auto)")
	f.StringVar(&fitThousands, "thousands", "", "thousands separator for numbers: ',', '.', or ' ' (optional)")
	f.IntVar(&fitMaxRows, "max-rows", 0, "maximum data rows to read (0 = all)")
	f.StringVar(&fitCurrency, "currency", "", "currency code used to format prices (defaults to config)")
	f.BoolVar(&fitJSON, "json", false, "print the fit as JSON (same as --format json)")
	f.StringVarP(&fitOutput, "output", "o", "", "also write the report to this file")
	f.StringVar(&fitFormat, "format", "", "report format: text, markdown or json")
	_ = fitCmd.MarkFlagRequired("size")
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func runFit(cmd *cobra.Command, args []string) error {
	path := args[0]
	stdoutFmt, fileFmt, err := outputFormats(fitFormat, fitJSON, fitOutput)
	if err != nil {
		return err
	}
	res, err := dataset.LoadFile(path, dataset.Options{
		Delimiter:          firstRune(fitDelimiter),
		DecimalSeparator:   firstRune(fitDecimal),
		ThousandsSeparator: firstRune(fitThousands),
		Sheet:              fitSheet,
		MaxRows:            fitMaxRows,
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	logger.L().Debug().
		Str("file", path).
		Str("size_column", res.SizeColumn).
		Str("price_column", res.PriceColumn).
		Int("rows", res.Rows).
		Int("skipped", res.Skipped()).
		Msg("dataset loaded")

	m, err := regression.Fit(res.Observations, fitSize)
	if err != nil {
		if errors.Is(err, regression.ErrInvalidInput) || errors.Is(err, regression.ErrDegenerateInput) {
			return &userError{msg: regression.UserMessage(err), err: err}
		}
		return err
	}

	currency := fitCurrency
	if currency == "" && cfg != nil {
		currency = cfg.Currency
	}
	r := report.NewFitResult(path, currency, fitSize, res.Rows, res.Observations, m, res.Warnings)

	content, err := report.RenderFit(r, stdoutFmt)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), content)

	if fitOutput != "" {
		if fileFmt != stdoutFmt {
			if content, err = report.RenderFit(r, fileFmt); err != nil {
				return err
			}
		}
		if err := report.Write(fitOutput, []byte(content)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved report to %s\n", fitOutput)
	}
	return nil
}
