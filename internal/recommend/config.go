package recommend

import (
	"fmt"

	"github.com/ducminhle1904/strategy-lab/internal/backtest"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/internal/strategy"
)

// profitFactorCap bounds the profit factor used in window scores so a
// handful of losing-free trades cannot dominate the ranking.
const profitFactorCap = 10.0

// Window is one lookback slice: Fraction of the capped sample, combined with
// Weight.
type Window struct {
	Fraction float64 `json:"fraction" yaml:"fraction"`
	Weight   float64 `json:"weight" yaml:"weight"`
}

// Config holds the recommender settings.
type Config struct {
	MaxBars           int             `json:"max_bars" yaml:"max_bars"`                       // default: 1000
	MinWindowBars     int             `json:"min_window_bars" yaml:"min_window_bars"`         // default: 80
	Windows           []Window        `json:"windows" yaml:"windows"`                         // default: 1.0/0.5, 0.6/0.3, 0.3/0.2
	Capital           float64         `json:"capital" yaml:"capital"`                         // default: 100000
	FewTrades         int             `json:"few_trades" yaml:"few_trades"`                   // default: 3
	FewTradesPenalty  float64         `json:"few_trades_penalty" yaml:"few_trades_penalty"`   // default: 30
	ManyTrades        int             `json:"many_trades" yaml:"many_trades"`                 // default: 60
	ManyTradesPenalty float64         `json:"many_trades_penalty" yaml:"many_trades_penalty"` // default: 5
	StabilityMult     float64         `json:"stability_mult" yaml:"stability_mult"`           // default: 0.8
	StabilityCap      float64         `json:"stability_cap" yaml:"stability_cap"`             // default: 20
	Workers           int             `json:"workers" yaml:"workers"`                         // default: 0 = NumCPU
	Affinity          AffinityTable   `json:"affinity,omitempty" yaml:"affinity,omitempty"`   // default: DefaultAffinity()
	Backtest          backtest.Config `json:"backtest" yaml:"backtest"`
	Params            strategy.Params `json:"params" yaml:"params"`
}

// DefaultConfig returns the default recommender settings. Backtests always
// run ALL_IN with the risk overlay on, whatever Backtest says.
func DefaultConfig() Config {
	bt := backtest.DefaultConfig()
	bt.EntryMode = backtest.EntryAllIn
	bt.Risk.Enabled = true

	return Config{
		MaxBars:       1000,
		MinWindowBars: 80,
		Windows: []Window{
			{Fraction: 1.0, Weight: 0.5},
			{Fraction: 0.6, Weight: 0.3},
			{Fraction: 0.3, Weight: 0.2},
		},
		Capital:           100000,
		FewTrades:         3,
		FewTradesPenalty:  30,
		ManyTrades:        60,
		ManyTradesPenalty: 5,
		StabilityMult:     0.8,
		StabilityCap:      20,
		Affinity:          DefaultAffinity(),
		Backtest:          bt,
		Params:            strategy.DefaultParams(),
	}
}

// Validate checks the recommender settings.
func (c Config) Validate() error {
	if c.MaxBars <= 0 || c.MinWindowBars <= 0 {
		return fmt.Errorf("max_bars and min_window_bars must be positive")
	}
	if len(c.Windows) == 0 {
		return fmt.Errorf("at least one window is required")
	}
	for i, w := range c.Windows {
		if w.Fraction <= 0 || w.Fraction > 1 {
			return fmt.Errorf("window %d fraction must be within (0,1], got %g", i, w.Fraction)
		}
		if w.Weight < 0 {
			return fmt.Errorf("window %d weight must be non-negative, got %g", i, w.Weight)
		}
	}
	if c.Capital <= 0 {
		return fmt.Errorf("capital must be positive, got %g", c.Capital)
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	return c.Backtest.Validate()
}

// AffinityTable adjusts a strategy's score for the current market regime.
// Inner keys are strategy keys or family names; a key entry wins over its
// family.
type AffinityTable map[regime.MarketRegime]map[string]float64

// DefaultAffinity favours trend followers in trends, reversion in ranges and
// breakouts in volatile markets. Long-only strategies are marked down in a
// downtrend.
func DefaultAffinity() AffinityTable {
	return AffinityTable{
		regime.MarketTrendUp: {
			strategy.FamilyTrend.String():      20,
			strategy.FamilyBreakout.String():   10,
			strategy.FamilyReversion.String():  -15,
			strategy.FamilyOscillator.String(): -10,
		},
		regime.MarketTrendDown: {
			strategy.FamilyTrend.String():      -10,
			strategy.FamilyBreakout.String():   -15,
			strategy.FamilyReversion.String():  10,
			strategy.FamilyOscillator.String(): 10,
		},
		regime.MarketRange: {
			strategy.FamilyTrend.String():      -10,
			strategy.FamilyBreakout.String():   -15,
			strategy.FamilyReversion.String():  20,
			strategy.FamilyOscillator.String(): 15,
		},
		regime.MarketHighVol: {
			strategy.FamilyBreakout.String():  10,
			strategy.FamilyReversion.String(): -15,
			strategy.KeySuperTrend.String():   10,
			strategy.KeyTurtle.String():       15,
		},
	}
}

// Bonus returns the affinity adjustment of key in market m.
func (t AffinityTable) Bonus(m regime.MarketRegime, key strategy.Key) float64 {
	row, ok := t[m]
	if !ok {
		return 0
	}
	if v, ok := row[key.String()]; ok {
		return v
	}
	return row[key.Family().String()]
}
