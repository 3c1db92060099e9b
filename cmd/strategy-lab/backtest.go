package main

import (
	"fmt"
	"path/filepath"

	"github.com/ducminhle1904/strategy-lab/internal/backtest"
	"github.com/ducminhle1904/strategy-lab/internal/strategy"
	"github.com/ducminhle1904/strategy-lab/pkg/reporting"
	"github.com/spf13/cobra"
)

func newBacktestCmd(a *app) *cobra.Command {
	var (
		strategyName string
		capital      float64
		xlsxPath     string
		jsonPath     string
		asJSON       bool
		save         bool
		trades       int
	)
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Backtest one strategy over the loaded bars",
		Example: `  strategy-lab backtest --data data/bybit/linear/BTCUSDT/60/candles.csv --strategy maCross
  strategy-lab backtest --bybit-symbol BTCUSDT --bybit-interval 4h --strategy supertrend --xlsx out/bt.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strategy.ParseKey(strategyName)
			if err != nil {
				return err
			}
			bars, err := a.loadBars(cmd.Context())
			if err != nil {
				return err
			}
			if capital <= 0 {
				capital = a.cfg.Data.Capital
			}

			sim := backtest.NewSimulator(backtest.WithLogger(a.log.Logger))
			res := sim.Run(key, bars, capital, a.cfg.Backtest, a.cfg.Strategy)

			out := cmd.OutOrStdout()
			if asJSON {
				if err := reporting.WriteJSON(out, res); err != nil {
					return err
				}
			} else {
				console := reporting.NewConsoleReporter(out)
				console.Backtest(res)
				if res.OK && trades != 0 {
					console.Trades(res, trades)
				}
			}

			if save {
				dir := reporting.DefaultOutputDir(a.data.symbolName(), a.data.timeframe())
				if xlsxPath == "" {
					xlsxPath = filepath.Join(dir, string(key)+".xlsx")
				}
				if jsonPath == "" {
					jsonPath = filepath.Join(dir, string(key)+".json")
				}
			}
			if xlsxPath != "" {
				if err := reporting.NewExcelReporter().WriteBacktest(res, xlsxPath); err != nil {
					return err
				}
				a.log.Info().Str("path", xlsxPath).Msg("workbook written")
			}
			if jsonPath != "" {
				if err := reporting.WriteJSONFile(jsonPath, res); err != nil {
					return err
				}
				a.log.Info().Str("path", jsonPath).Msg("result written")
			}
			if !res.OK {
				return fmt.Errorf("backtest failed: %s", res.Error)
			}
			return nil
		},
	}
	addDataFlags(cmd, &a.data)
	cmd.Flags().StringVar(&strategyName, "strategy", "", "strategy key, e.g. maCross, supertrend, turtle")
	cmd.Flags().Float64Var(&capital, "capital", 0, "initial capital (default: data.capital)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write a Summary/Trades/Equity/Monthly workbook")
	cmd.Flags().StringVar(&jsonPath, "out", "", "write the full result as JSON to this file")
	cmd.Flags().BoolVar(&save, "save", false, "write the workbook and JSON under results/<SYMBOL>_<interval>/")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON instead of tables")
	cmd.Flags().IntVar(&trades, "trades", 20, "print the last N trades (0 = none, -1 = all)")
	_ = cmd.MarkFlagRequired("strategy")
	return cmd
}

func newSignalsCmd(a *app) *cobra.Command {
	var (
		strategyName string
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "List the BUY/SELL signals a strategy produces",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strategy.ParseKey(strategyName)
			if err != nil {
				return err
			}
			bars, err := a.loadBars(cmd.Context())
			if err != nil {
				return err
			}

			signals := strategy.Signals(key, bars, a.cfg.Strategy)
			a.log.Debug().Str("strategy", key.String()).Int("signals", len(signals)).Msg("signals generated")
			if asJSON {
				return reporting.WriteJSON(cmd.OutOrStdout(), signals)
			}
			reporting.NewConsoleReporter(cmd.OutOrStdout()).Signals(signals, bars)
			return nil
		},
	}
	addDataFlags(cmd, &a.data)
	cmd.Flags().StringVar(&strategyName, "strategy", "", "strategy key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print signals as JSON")
	_ = cmd.MarkFlagRequired("strategy")
	return cmd
}
