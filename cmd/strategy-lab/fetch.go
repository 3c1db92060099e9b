package main

import (
	"fmt"

	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/pkg/data"
	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download Bybit klines into the CSV data tree",
		Long: `Download the most recent --limit klines for --bybit-symbol and save them as
<data.root>/bybit/<category>/<SYMBOL>/<minutes>/candles.csv, where later
commands find them with --symbol and --interval.`,
		Example: `  strategy-lab fetch --bybit-symbol BTCUSDT --bybit-interval 1h --limit 5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.data.bybitSymbol == "" {
				return engineerrors.NewValidationError("cli", "fetch", "--bybit-symbol is required")
			}
			bars, err := a.loadBars(cmd.Context())
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = data.DataFilePath(a.cfg.Data.Root, "bybit", a.cfg.Data.Bybit.Category, a.data.bybitSymbol, a.data.bybitInterval)
			}
			if err := data.SaveCSV(path, bars); err != nil {
				return engineerrors.NewDataError("cli", "save csv", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d bars to %s\n", len(bars), path)
			return nil
		},
	}
	addDataFlags(cmd, &a.data)
	cmd.Flags().StringVar(&output, "output", "", "CSV path (default: the data tree location)")
	return cmd
}
