package main

import (
	"github.com/ducminhle1904/strategy-lab/pkg/optimization"
	"github.com/ducminhle1904/strategy-lab/pkg/reporting"
	"github.com/spf13/cobra"
)

func newAutotuneCmd(a *app) *cobra.Command {
	var (
		trials   int
		seed     int64
		workers  int
		jsonPath string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "autotune",
		Short: "Random-search the decision parameters on the loaded bars",
		Long: `Score the default decision parameters and a seeded set of random
samples with a simplified position-cap backtest, then keep the best. The
result is saved to the snapshot store. The same seed reproduces the same
result regardless of --workers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bars, err := a.loadBars(ctx)
			if err != nil {
				return err
			}

			cfg := a.cfg.Autotune
			flags := cmd.Flags()
			if flags.Changed("trials") {
				cfg.Trials = trials
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}

			tuner, err := optimization.NewAutotuner(cfg, a.cfg.Decision, optimization.WithLogger(a.log.Logger))
			if err != nil {
				return err
			}
			res, runErr := tuner.Run(ctx, bars)
			if runErr != nil && res.Trials == 0 {
				return runErr
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := reporting.WriteJSON(out, res); err != nil {
					return err
				}
			} else {
				reporting.NewConsoleReporter(out).Autotune(res)
			}
			if jsonPath != "" {
				if err := reporting.WriteJSONFile(jsonPath, res); err != nil {
					return err
				}
			}
			if runErr != nil {
				return runErr
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			snap, err := res.Snapshot(a.data.symbolName(), a.data.timeframe())
			if err != nil {
				return err
			}
			saved, err := st.SaveAutoTune(ctx, snap)
			if err != nil {
				return err
			}
			a.log.Info().Str("id", saved.ID).Float64("score", saved.Score).Msg("autotune snapshot saved")
			return nil
		},
	}
	addDataFlags(cmd, &a.data)
	fs := cmd.Flags()
	fs.IntVar(&trials, "trials", 0, "random trials, clamped to 20..200 (default: autotune.trials)")
	fs.Int64Var(&seed, "seed", 0, "random seed (default: autotune.seed)")
	fs.IntVar(&workers, "workers", 0, "parallel trial workers, 0 = GOMAXPROCS")
	fs.StringVar(&jsonPath, "out", "", "write the result as JSON to this file")
	fs.BoolVar(&asJSON, "json", false, "print the result as JSON instead of tables")
	return cmd
}
