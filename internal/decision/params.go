package decision

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/regime"
)

// Action is what a decision tells the caller to do.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

func (a Action) String() string { return string(a) }

// Params configures the decision engine: the regime detector, the leaf
// strategies, position caps and guards.
type Params struct {
	Regime regime.Params `json:"regime" yaml:"regime"`

	TSMOMLookback  int     `json:"tsmom_lookback" yaml:"tsmom_lookback"`   // bars (default: 20)
	TSMOMThreshold float64 `json:"tsmom_threshold" yaml:"tsmom_threshold"` // |return| % to act (default: 1.0)
	MeanRevPeriod  int     `json:"meanrev_period" yaml:"meanrev_period"`   // Bollinger period (default: 20)
	MeanRevStdDev  float64 `json:"meanrev_stddev" yaml:"meanrev_stddev"`   // band width (default: 2.0)

	TrendPositionCap float64 `json:"trend_position_cap" yaml:"trend_position_cap"` // default: 1.0
	RangePositionCap float64 `json:"range_position_cap" yaml:"range_position_cap"` // default: 0.5
	PanicPositionCap float64 `json:"panic_position_cap" yaml:"panic_position_cap"` // default: 0

	LiquidityPeriod   int           `json:"liquidity_period" yaml:"liquidity_period"`       // bars in the amount average (default: 20)
	LiquidityMinRatio float64       `json:"liquidity_min_ratio" yaml:"liquidity_min_ratio"` // last / average (default: 0.3)
	LowVolumeFloor    float64       `json:"low_volume_floor" yaml:"low_volume_floor"`       // regime volume ratio (default: 0.5)
	Cooldown          time.Duration `json:"cooldown" yaml:"cooldown"`                       // between non-HOLD actions (default: 30s)

	SnapshotInterval time.Duration `json:"snapshot_interval" yaml:"snapshot_interval"` // per user/symbol/timeframe (default: 60s)
	SnapshotMaxAge   time.Duration `json:"snapshot_max_age" yaml:"snapshot_max_age"`   // older snapshots do not seed (default: 24h)
}

// DefaultParams returns the default engine configuration.
func DefaultParams() Params {
	return Params{
		Regime:            regime.DefaultParams(),
		TSMOMLookback:     20,
		TSMOMThreshold:    1.0,
		MeanRevPeriod:     20,
		MeanRevStdDev:     2.0,
		TrendPositionCap:  1.0,
		RangePositionCap:  0.5,
		PanicPositionCap:  0,
		LiquidityPeriod:   20,
		LiquidityMinRatio: 0.3,
		LowVolumeFloor:    0.5,
		Cooldown:          30 * time.Second,
		SnapshotInterval:  60 * time.Second,
		SnapshotMaxAge:    24 * time.Hour,
	}
}

// Validate checks the engine configuration.
func (p Params) Validate() error {
	if err := p.Regime.Validate(); err != nil {
		return fmt.Errorf("regime: %w", err)
	}
	if p.TSMOMLookback <= 0 || p.MeanRevPeriod <= 0 || p.LiquidityPeriod <= 0 {
		return fmt.Errorf("lookback periods must be positive")
	}
	if p.MeanRevStdDev <= 0 {
		return fmt.Errorf("meanrev_stddev must be positive, got %g", p.MeanRevStdDev)
	}
	for _, c := range []float64{p.TrendPositionCap, p.RangePositionCap, p.PanicPositionCap} {
		if c < 0 || c > 1 {
			return fmt.Errorf("position caps must be within [0,1], got %g", c)
		}
	}
	if p.Cooldown < 0 || p.SnapshotInterval < 0 {
		return fmt.Errorf("cooldown and snapshot_interval must not be negative")
	}
	return nil
}

// PositionCap returns the exposure cap for a regime.
func (p Params) PositionCap(r regime.Regime) float64 {
	switch r {
	case regime.RegimeTrend:
		return p.TrendPositionCap
	case regime.RegimePanic:
		return p.PanicPositionCap
	default:
		return p.RangePositionCap
	}
}
