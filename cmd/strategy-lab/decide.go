package main

import (
	"context"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/decision"
	"github.com/ducminhle1904/strategy-lab/internal/providers"
	"github.com/ducminhle1904/strategy-lab/pkg/reporting"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/spf13/cobra"
)

// signalFlags hold the optional external readings passed on the command line.
type signalFlags struct {
	newsScore      float64
	newsConfidence float64
	volumeSurprise float64
	amountSurprise float64
}

func newDecideCmd(a *app) *cobra.Command {
	var (
		userID    string
		timeframe string
		position  float64
		replay    int
		asJSON    bool
		sig       signalFlags
	)
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Make a guarded BUY/SELL/HOLD decision for the latest bar",
		Long: `Classify the regime, dispatch the regime's strategy and apply the
liquidity, cooldown, low-volume and panic guards. Decisions are written to the
configured snapshot store. With --replay N the engine decides on each of the
last N bars in order, carrying the position it took.`,
		Example: `  strategy-lab decide --data candles.csv --symbol BTCUSDT --timeframe 1h
  strategy-lab decide --bybit-symbol ETHUSDT --bybit-interval 5m --news-score -0.6 --news-confidence 0.9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bars, err := a.loadBars(ctx)
			if err != nil {
				return err
			}
			if timeframe == "" {
				timeframe = a.data.timeframe()
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			flags := cmd.Flags()
			withNews := flags.Changed("news-score")
			withRealtime := flags.Changed("volume-surprise") || flags.Changed("amount-surprise")
			opts := []decision.Option{
				decision.WithSnapshotStore(st),
				decision.WithLogger(a.log.Logger),
			}
			opts = append(opts, a.signalProviders(sig, withNews, withRealtime)...)
			engine, err := decision.NewEngine(a.cfg.Decision, opts...)
			if err != nil {
				return err
			}

			req := decision.Request{
				UserID:    userID,
				Symbol:    a.data.symbolName(),
				Timeframe: timeframe,
				Position:  position,
			}

			out := cmd.OutOrStdout()
			if replay <= 1 {
				req.Bars = bars
				d, err := engine.Decide(ctx, req)
				if err != nil {
					return err
				}
				if asJSON {
					return reporting.WriteJSON(out, d)
				}
				reporting.NewConsoleReporter(out).Decision(d)
				return nil
			}

			ds, err := replayDecisions(ctx, engine, req, bars, replay, sig, withNews, withRealtime)
			if err != nil {
				return err
			}
			if asJSON {
				return reporting.WriteJSON(out, ds)
			}
			console := reporting.NewConsoleReporter(out)
			console.Decisions(ds)
			console.Decision(ds[len(ds)-1])
			return nil
		},
	}
	addDataFlags(cmd, &a.data)
	fs := cmd.Flags()
	fs.StringVar(&userID, "user", "cli", "user the decision state and snapshots belong to")
	fs.StringVar(&timeframe, "timeframe", "", "decision timeframe (default: the bar interval)")
	fs.Float64Var(&position, "position", 0, "current position as a fraction of the cap, 0 = flat")
	fs.IntVar(&replay, "replay", 1, "decide on each of the last N bars in order")
	fs.BoolVar(&asJSON, "json", false, "print decisions as JSON")
	fs.Float64Var(&sig.newsScore, "news-score", 0, "news sentiment in [-1, 1]")
	fs.Float64Var(&sig.newsConfidence, "news-confidence", 1, "news confidence in [0, 1]")
	fs.Float64Var(&sig.volumeSurprise, "volume-surprise", 0, "realtime volume surprise ratio")
	fs.Float64Var(&sig.amountSurprise, "amount-surprise", 0, "realtime amount surprise ratio")
	return cmd
}

// signalProviders wraps the flag readings as providers behind a circuit
// breaker and a fallback chain, as a live feed would be.
func (a *app) signalProviders(sig signalFlags, withNews, withRealtime bool) []decision.Option {
	var opts []decision.Option
	settings := a.cfg.Providers.Breaker
	if withNews {
		static := providers.StaticNews{Source: "cli", Signal: sig.news(time.Now())}
		breaker := providers.NewBreaker("news", settings, a.log.Logger)
		chain := providers.NewNewsChain(breaker.WrapNews(static)).WithLogger(a.log.Logger)
		opts = append(opts, decision.WithNewsProvider(chain))
	}
	if withRealtime {
		static := providers.StaticRealtime{Source: "cli", Signal: sig.realtime(time.Now())}
		breaker := providers.NewBreaker("realtime", settings, a.log.Logger)
		chain := providers.NewRealtimeChain(breaker.WrapRealtime(static)).WithLogger(a.log.Logger)
		opts = append(opts, decision.WithRealtimeProvider(chain))
	}
	return opts
}

func (s signalFlags) news(at time.Time) *types.NewsSignal {
	return &types.NewsSignal{Score: s.newsScore, Confidence: s.newsConfidence, Timestamp: at, Source: "cli"}
}

func (s signalFlags) realtime(at time.Time) *types.RealtimeSignal {
	return &types.RealtimeSignal{VolumeSurprise: s.volumeSurprise, AmountSurprise: s.amountSurprise, Timestamp: at, Source: "cli"}
}

// replayDecisions decides on each of the last n bars at the bar's close
// time. Flag signals are restamped per step so they stay fresh.
func replayDecisions(ctx context.Context, engine *decision.Engine, req decision.Request, bars []types.Bar, n int, sig signalFlags, withNews, withRealtime bool) ([]decision.Decision, error) {
	start := max(len(bars)-n, 0)
	ds := make([]decision.Decision, 0, len(bars)-start)
	for i := start; i < len(bars); i++ {
		step := req
		step.Bars = bars[:i+1]
		step.Now = closeTime(bars, i)
		if withNews {
			step.News = sig.news(step.Now)
		}
		if withRealtime {
			step.Realtime = sig.realtime(step.Now)
		}

		d, err := engine.Decide(ctx, step)
		if err != nil {
			return ds, err
		}
		switch d.Action {
		case decision.ActionBuy:
			req.Position = d.PositionCap
		case decision.ActionSell:
			req.Position = 0
		}
		ds = append(ds, d)
	}
	return ds, nil
}

// closeTime is the bar's open plus the spacing to the previous bar.
func closeTime(bars []types.Bar, i int) time.Time {
	if i > 0 {
		return bars[i].Timestamp.Add(bars[i].Timestamp.Sub(bars[i-1].Timestamp))
	}
	return bars[i].Timestamp
}
