// Package recommend ranks strategies by backtesting each over several
// lookback windows and adjusting for the current market regime.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ducminhle1904/strategy-lab/internal/backtest"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/internal/strategy"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/rs/zerolog"
)

// WindowScore is one strategy's backtest over one lookback window.
type WindowScore struct {
	Bars           int            `json:"bars"`
	Weight         float64        `json:"weight"`
	Score          float64        `json:"score"`
	OK             bool           `json:"ok"`
	Error          string         `json:"error,omitempty"`
	NetProfitPct   float64        `json:"net_profit_pct"`
	MaxDrawdownPct float64        `json:"max_drawdown_pct"`
	ProfitFactor   types.OptFloat `json:"profit_factor"`
	TradeCount     int            `json:"trade_count"`
	WinRate        float64        `json:"win_rate"`
}

// Recommendation is one ranked strategy.
type Recommendation struct {
	Rank             int                 `json:"rank"`
	Strategy         strategy.Key        `json:"strategy"`
	Family           string              `json:"family"`
	Score            float64             `json:"score"`
	WeightedScore    float64             `json:"weighted_score"`
	Affinity         float64             `json:"affinity"`
	StabilityPenalty float64             `json:"stability_penalty"`
	MarketRegime     regime.MarketRegime `json:"market_regime"`
	Windows          []WindowScore       `json:"windows"`
	Reason           string              `json:"reason"`
}

// Recommender ranks strategies.
type Recommender struct {
	cfg    Config
	sim    *backtest.Simulator
	logger zerolog.Logger
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) {
		r.logger = l.With().Str("component", "recommend").Logger()
	}
}

// WithSimulator sets the simulator window backtests run on.
func WithSimulator(sim *backtest.Simulator) Option {
	return func(r *Recommender) {
		r.sim = sim
	}
}

// NewRecommender creates a recommender. A nil Affinity falls back to
// DefaultAffinity.
func NewRecommender(cfg Config, opts ...Option) *Recommender {
	if cfg.Affinity == nil {
		cfg.Affinity = DefaultAffinity()
	}
	r := &Recommender{cfg: cfg, sim: backtest.NewSimulator(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the recommender settings.
func (r *Recommender) Config() Config {
	return r.cfg
}

// windowSizes returns the bar count of each configured window over a sample
// of n usable bars.
func (r *Recommender) windowSizes(n int) []int {
	sizes := make([]int, len(r.cfg.Windows))
	for i, w := range r.cfg.Windows {
		size := int(math.Round(float64(n) * w.Fraction))
		size = max(size, r.cfg.MinWindowBars)
		sizes[i] = min(size, n)
	}
	return sizes
}

// Recommend ranks every strategy over bars, best first. It fails only when
// ctx is cancelled or the config is invalid.
func (r *Recommender) Recommend(ctx context.Context, bars []types.Bar) ([]Recommendation, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommender config: %w", err)
	}

	clean, _ := types.CleanBars(bars)
	if len(clean) > r.cfg.MaxBars {
		clean = clean[len(clean)-r.cfg.MaxBars:]
	}
	market := regime.DetectMarket(clean)

	btCfg := r.cfg.Backtest
	btCfg.EntryMode = backtest.EntryAllIn
	btCfg.Risk.Enabled = true

	keys := strategy.AllKeys()
	sizes := r.windowSizes(len(clean))
	jobs := make([]backtest.Job, 0, len(keys)*len(sizes))
	for _, key := range keys {
		for w, size := range sizes {
			jobs = append(jobs, backtest.Job{
				ID:      fmt.Sprintf("%s/w%d", key, w),
				Key:     key,
				Bars:    clean[len(clean)-size:],
				Capital: r.cfg.Capital,
				Config:  btCfg,
				Params:  r.cfg.Params,
			})
		}
	}

	progress := backtest.NewProgressTracker(len(jobs))
	results, err := backtest.RunBatch(ctx, r.sim, r.cfg.Workers, jobs, progress)
	if err != nil {
		return nil, fmt.Errorf("window backtests: %w", err)
	}
	p := progress.Progress()
	r.logger.Debug().Int("jobs", p.Done).Int("total", p.Total).Dur("elapsed", p.Elapsed).Msg("window backtests finished")

	recs := make([]Recommendation, len(keys))
	for k, key := range keys {
		windows := make([]WindowScore, len(sizes))
		for w := range sizes {
			windows[w] = r.scoreWindow(results[k*len(sizes)+w].Result, r.cfg.Windows[w].Weight, sizes[w])
		}
		recs[k] = r.combine(key, market.Regime, windows)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	for i := range recs {
		recs[i].Rank = i + 1
		recs[i].Reason = reason(recs[i])
	}

	if len(recs) > 0 {
		r.logger.Info().
			Str("regime", string(market.Regime)).
			Int("bars", len(clean)).
			Str("strategy", string(recs[0].Strategy)).
			Float64("score", recs[0].Score).
			Msg("strategies ranked")
	}
	return recs, nil
}

// scoreWindow applies the per-window score: capped profit factor, net
// return and drawdown, with trade count penalties.
func (r *Recommender) scoreWindow(res *backtest.Result, weight float64, bars int) WindowScore {
	ws := WindowScore{Bars: bars, Weight: weight}
	if res == nil {
		ws.Error = "not run"
		return ws
	}
	m := res.Metrics
	ws.OK = res.OK
	ws.Error = res.Error
	ws.NetProfitPct = m.NetProfitPct
	ws.MaxDrawdownPct = m.MaxDrawdownPct
	ws.ProfitFactor = m.ProfitFactor
	ws.TradeCount = m.TradeCount
	ws.WinRate = m.WinRate

	pf := 0.0
	if m.ProfitFactor.Valid {
		pf = math.Min(m.ProfitFactor.Value, profitFactorCap)
	}
	ws.Score = pf*25 + m.NetProfitPct*1.5 - m.MaxDrawdownPct*2.5
	if m.TradeCount < r.cfg.FewTrades {
		ws.Score -= r.cfg.FewTradesPenalty
	}
	if m.TradeCount > r.cfg.ManyTrades {
		ws.Score -= r.cfg.ManyTradesPenalty
	}
	return ws
}

// combine weights the window scores, adds the regime affinity and subtracts
// the stability penalty.
func (r *Recommender) combine(key strategy.Key, market regime.MarketRegime, windows []WindowScore) Recommendation {
	rec := Recommendation{
		Strategy:     key,
		Family:       key.Family().String(),
		MarketRegime: market,
		Windows:      windows,
	}

	nets := make([]float64, len(windows))
	for i, w := range windows {
		rec.WeightedScore += w.Weight * w.Score
		nets[i] = w.NetProfitPct
	}
	rec.Affinity = r.cfg.Affinity.Bonus(market, key)
	rec.StabilityPenalty = math.Min(r.cfg.StabilityCap, stdev(nets)*r.cfg.StabilityMult)
	rec.Score = rec.WeightedScore + rec.Affinity - rec.StabilityPenalty
	return rec
}

// stdev is the population standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	v := 0.0
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return math.Sqrt(v / float64(len(xs)))
}

func reason(rec Recommendation) string {
	full := rec.Windows[0]
	s := fmt.Sprintf("#%d %s (%s) in a %s market: %.2f%% net, %.2f%% max drawdown over %d trades on the latest %d bars",
		rec.Rank, rec.Strategy, rec.Family, rec.MarketRegime,
		full.NetProfitPct, full.MaxDrawdownPct, full.TradeCount, full.Bars)
	if rec.Affinity != 0 {
		s += fmt.Sprintf("; regime affinity %+.0f", rec.Affinity)
	}
	if rec.StabilityPenalty >= 5 {
		s += fmt.Sprintf("; returns vary across windows (-%.1f)", rec.StabilityPenalty)
	}
	return s
}
