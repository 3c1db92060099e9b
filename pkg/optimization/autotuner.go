// Package optimization tunes decision engine parameters by uniform random
// search, scoring each trial with a simplified regime-driven backtest.
package optimization

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/backtest"
	"github.com/ducminhle1904/strategy-lab/internal/decision"
	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/internal/monitoring"
	"github.com/ducminhle1904/strategy-lab/internal/store"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/rs/zerolog"
)

// AutoTuneResult is the best parameter set found.
type AutoTuneResult struct {
	BestParams     decision.Params `json:"best_params"`
	Metrics        Metrics         `json:"metrics"`
	Score          float64         `json:"score"`
	BestTrial      int             `json:"best_trial"` // 0 = default params
	DefaultMetrics Metrics         `json:"default_metrics"`
	DefaultScore   float64         `json:"default_score"`
	Trials         int             `json:"trials"` // random trials evaluated
	Seed           int64           `json:"seed"`
	Duration       time.Duration   `json:"duration"`
}

// Snapshot returns the result as a record for the snapshot store.
func (r AutoTuneResult) Snapshot(symbol, timeframe string) (store.AutoTuneSnapshot, error) {
	params, err := json.Marshal(r.BestParams)
	if err != nil {
		return store.AutoTuneSnapshot{}, fmt.Errorf("marshal params: %w", err)
	}
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return store.AutoTuneSnapshot{}, fmt.Errorf("marshal metrics: %w", err)
	}
	return store.AutoTuneSnapshot{
		Symbol:     symbol,
		Timeframe:  timeframe,
		BestParams: params,
		Metrics:    metrics,
		Score:      r.Score,
		Trials:     r.Trials,
	}, nil
}

// Autotuner searches decision parameters around a base set.
type Autotuner struct {
	cfg    Config
	base   decision.Params
	logger zerolog.Logger
}

// Option configures an Autotuner.
type Option func(*Autotuner)

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Autotuner) {
		a.logger = l.With().Str("component", "autotune").Logger()
	}
}

// NewAutotuner creates an autotuner. base is both the default trial and the
// template random samples are drawn on.
func NewAutotuner(cfg Config, base decision.Params, opts ...Option) (*Autotuner, error) {
	if cfg.Ranges == nil {
		cfg.Ranges = DefaultRanges()
	}
	if err := cfg.Validate(); err != nil {
		return nil, engineerrors.NewConfigurationError("autotune", "new autotuner", err.Error())
	}
	if err := base.Validate(); err != nil {
		return nil, engineerrors.NewConfigurationError("autotune", "new autotuner", "base params: "+err.Error())
	}
	a := &Autotuner{cfg: cfg, base: base, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run evaluates the base parameters, then the random trials in parallel, and
// returns the best. Trials are drawn up front from the seeded RNG so the
// outcome does not depend on worker scheduling. When ctx is cancelled no
// further trials are started; the best of those evaluated is returned along
// with the context error.
func (a *Autotuner) Run(ctx context.Context, bars []types.Bar) (AutoTuneResult, error) {
	start := time.Now()
	bars, dropped := types.CleanBars(bars)
	if len(bars) <= a.cfg.StartBar+1 {
		return AutoTuneResult{}, engineerrors.NewDataError("autotune", "run",
			fmt.Errorf("insufficient data: %d bars, need more than %d", len(bars), a.cfg.StartBar+1))
	}
	if dropped > 0 {
		a.logger.Warn().Int("dropped", dropped).Msg("invalid bars dropped")
	}

	n := a.cfg.trials()
	rng := rand.New(rand.NewSource(a.cfg.Seed))
	samples := make([]decision.Params, n)
	for i := range samples {
		samples[i] = a.cfg.Ranges.sample(a.base, rng)
	}

	def := evaluate(0, bars, a.base, a.cfg)
	trials, done := backtest.ParallelMap(ctx, a.cfg.Workers, samples, func(i int, p decision.Params) Trial {
		return evaluate(i+1, bars, p, a.cfg)
	})

	best := def
	for _, t := range trials {
		if t.better(best) {
			best = t
		}
	}

	res := AutoTuneResult{
		BestParams:     best.Params,
		Metrics:        best.Metrics,
		Score:          best.Score,
		BestTrial:      best.Index,
		DefaultMetrics: def.Metrics,
		DefaultScore:   def.Score,
		Trials:         done,
		Seed:           a.cfg.Seed,
		Duration:       time.Since(start),
	}
	monitoring.SetAutotuneBestScore(res.Score)
	a.logger.Info().
		Int("trials", done).
		Int("best_trial", res.BestTrial).
		Float64("score", res.Score).
		Float64("default_score", res.DefaultScore).
		Dur("took", res.Duration).
		Msg("autotune finished")

	if err := ctx.Err(); err != nil && done < n {
		return res, fmt.Errorf("autotune stopped after %d of %d trials: %w", done, n, err)
	}
	return res, nil
}
