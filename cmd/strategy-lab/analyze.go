package main

import (
	"github.com/ducminhle1904/strategy-lab/internal/backtest"
	"github.com/ducminhle1904/strategy-lab/internal/recommend"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/pkg/reporting"
	"github.com/spf13/cobra"
)

func newRecommendCmd(a *app) *cobra.Command {
	var (
		top    int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank every strategy for the current market",
		RunE: func(cmd *cobra.Command, args []string) error {
			bars, err := a.loadBars(cmd.Context())
			if err != nil {
				return err
			}

			sim := backtest.NewSimulator(backtest.WithLogger(a.log.Logger))
			rec := recommend.NewRecommender(a.cfg.Recommender,
				recommend.WithSimulator(sim),
				recommend.WithLogger(a.log.Logger),
			)
			recs, err := rec.Recommend(cmd.Context(), bars)
			if err != nil {
				return err
			}
			if top > 0 && len(recs) > top {
				recs = recs[:top]
			}

			if asJSON {
				return reporting.WriteJSON(cmd.OutOrStdout(), recs)
			}
			reporting.NewConsoleReporter(cmd.OutOrStdout()).Recommendations(recs)
			return nil
		},
	}
	addDataFlags(cmd, &a.data)
	cmd.Flags().IntVar(&top, "top", 0, "show only the best N strategies (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print recommendations as JSON")
	return cmd
}

// regimeReport is the JSON shape of the regime command.
type regimeReport struct {
	Market   regime.MarketInfo `json:"market"`
	Decision regime.Info       `json:"decision"`
	Steps    int               `json:"steps"`
	Switches int               `json:"switches"`
}

func newRegimeCmd(a *app) *cobra.Command {
	var (
		walk   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "regime",
		Short: "Classify the market regime and the decision regime",
		Long: `Classify the last bar with the price-only market detector and the
TREND/RANGE/PANIC decision detector. With --walk N the decision detector is run
over each of the last N bars so the hysteresis settles as it would live.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bars, err := a.loadBars(cmd.Context())
			if err != nil {
				return err
			}

			report := regimeReport{Market: regime.DetectMarket(bars)}
			detector := regime.NewDetector(a.cfg.Decision.Regime).WithLogger(a.log.Logger)
			h := regime.NewHysteresis("")
			start := max(len(bars)-max(walk, 1), 0)
			for i := start; i < len(bars); i++ {
				info := detector.Classify(regime.Input{
					Bars:      bars[:i+1],
					Timeframe: a.data.timeframe(),
					Now:       bars[i].Timestamp,
				}, h)
				if info.Switched {
					report.Switches++
				}
				report.Decision = info
				report.Steps++
			}

			a.log.Info().
				Str("market", report.Market.Regime.String()).
				Str("regime", report.Decision.Regime.String()).
				Int("switches", report.Switches).
				Msg("regime classified")
			if asJSON {
				return reporting.WriteJSON(cmd.OutOrStdout(), report)
			}
			reporting.NewConsoleReporter(cmd.OutOrStdout()).Regime(report.Market, report.Decision)
			return nil
		},
	}
	addDataFlags(cmd, &a.data)
	cmd.Flags().IntVar(&walk, "walk", 1, "classify each of the last N bars in order")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the classification as JSON")
	return cmd
}
