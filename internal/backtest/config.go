package backtest

import "fmt"

// EntryMode selects how a BUY is sized.
type EntryMode string

const (
	EntryFixedLots EntryMode = "FIXED_LOTS"
	EntryAllIn     EntryMode = "ALL_IN"
	EntryATRRisk   EntryMode = "ATR_RISK"
)

// allInFraction of cash is committed in ALL_IN mode, leaving room for fees
// and slippage.
const allInFraction = 0.99

// Config holds execution settings for one backtest. The simulator never
// mutates it; results echo it back unchanged.
type Config struct {
	FeeRate         float64    `json:"fee_rate" yaml:"fee_rate"`                   // fraction of notional (default: 0.0003)
	MinFee          float64    `json:"min_fee" yaml:"min_fee"`                     // per fill (default: 0)
	Slippage        float64    `json:"slippage" yaml:"slippage"`                   // fraction of open (default: 0.0005)
	LotSize         float64    `json:"lot_size" yaml:"lot_size"`                   // shares per lot (default: 100)
	EntryMode       EntryMode  `json:"entry_mode" yaml:"entry_mode"`               // default: ALL_IN
	FixedLots       float64    `json:"fixed_lots" yaml:"fixed_lots"`               // FIXED_LOTS size (default: 10)
	MaxExposurePct  float64    `json:"max_exposure_pct" yaml:"max_exposure_pct"`   // position value cap vs equity (default: 100)
	ForceCloseAtEnd bool       `json:"force_close_at_end" yaml:"force_close_at_end"` // default: true
	Risk            RiskConfig `json:"risk" yaml:"risk"`
}

// RiskConfig is the risk overlay. Nothing in it applies unless Enabled,
// except the ATR_RISK sizing inputs.
type RiskConfig struct {
	Enabled   bool `json:"enabled" yaml:"enabled"`
	ATRPeriod int  `json:"atr_period" yaml:"atr_period"` // default: 14

	StopATRMult   float64 `json:"stop_atr_mult" yaml:"stop_atr_mult"`     // stop = entry - mult*ATR (default: 2.0, 0 = off)
	StopPct       float64 `json:"stop_pct" yaml:"stop_pct"`               // fixed % stop (default: 0 = off)
	TrailATRMult  float64 `json:"trail_atr_mult" yaml:"trail_atr_mult"`   // trail = best close - mult*ATR (default: 3.0)
	TakeProfitPct float64 `json:"take_profit_pct" yaml:"take_profit_pct"` // full exit above avg cost (default: 0 = off)
	MaxHoldBars   int     `json:"max_hold_bars" yaml:"max_hold_bars"`     // time exit (default: 0 = off)

	ScaleOutEnabled bool    `json:"scale_out_enabled" yaml:"scale_out_enabled"`
	ScaleOut1Pct    float64 `json:"scale_out1_pct" yaml:"scale_out1_pct"`   // gain % for first scale-out (default: 5)
	ScaleOut1Frac   float64 `json:"scale_out1_frac" yaml:"scale_out1_frac"` // fraction of shares sold (default: 0.5)
	ScaleOut2Pct    float64 `json:"scale_out2_pct" yaml:"scale_out2_pct"`   // default: 10
	ScaleOut2Frac   float64 `json:"scale_out2_frac" yaml:"scale_out2_frac"` // default: 0.5
	ProtectPct      float64 `json:"protect_pct" yaml:"protect_pct"`         // stop above cost after second scale-out (default: 2)

	Pyramiding  bool    `json:"pyramiding" yaml:"pyramiding"`
	AutoAdd     bool    `json:"auto_add" yaml:"auto_add"`           // add on favourable ATR move
	AddATRMult  float64 `json:"add_atr_mult" yaml:"add_atr_mult"`   // default: 1.0
	AddOnRepeat bool    `json:"add_on_repeat" yaml:"add_on_repeat"` // add on repeated BUY signal
	MaxEntries  int     `json:"max_entries" yaml:"max_entries"`     // fills per position (default: 3)
	MinAddGap   int     `json:"min_add_gap" yaml:"min_add_gap"`     // bars between fills (default: 3)

	RiskPct float64 `json:"risk_pct" yaml:"risk_pct"` // ATR_RISK equity % at risk (default: 1.0)
	MinLots float64 `json:"min_lots" yaml:"min_lots"` // default: 1
	MaxLots float64 `json:"max_lots" yaml:"max_lots"` // default: 1000

	DDPausePct      float64 `json:"dd_pause_pct" yaml:"dd_pause_pct"`             // default: 15
	DDPauseBars     int     `json:"dd_pause_bars" yaml:"dd_pause_bars"`           // default: 10
	DDStopPct       float64 `json:"dd_stop_pct" yaml:"dd_stop_pct"`               // default: 25
	DDStopPauseBars int     `json:"dd_stop_pause_bars" yaml:"dd_stop_pause_bars"` // default: 30
	CooldownBars    int     `json:"cooldown_bars" yaml:"cooldown_bars"`           // after Stop/Trail/DdStop (default: 3)
}

// DefaultConfig returns the default execution settings with the risk overlay
// disabled.
func DefaultConfig() Config {
	return Config{
		FeeRate:         0.0003,
		MinFee:          0,
		Slippage:        0.0005,
		LotSize:         100,
		EntryMode:       EntryAllIn,
		FixedLots:       10,
		MaxExposurePct:  100,
		ForceCloseAtEnd: true,
		Risk:            DefaultRiskConfig(),
	}
}

// DefaultRiskConfig returns the default risk overlay, disabled.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		ATRPeriod:       14,
		StopATRMult:     2.0,
		TrailATRMult:    3.0,
		ScaleOut1Pct:    5,
		ScaleOut1Frac:   0.5,
		ScaleOut2Pct:    10,
		ScaleOut2Frac:   0.5,
		ProtectPct:      2,
		AddATRMult:      1.0,
		MaxEntries:      3,
		MinAddGap:       3,
		RiskPct:         1.0,
		MinLots:         1,
		MaxLots:         1000,
		DDPausePct:      15,
		DDPauseBars:     10,
		DDStopPct:       25,
		DDStopPauseBars: 30,
		CooldownBars:    3,
	}
}

// Validate checks the settings the simulator divides by or sizes with.
func (c Config) Validate() error {
	switch c.EntryMode {
	case EntryFixedLots, EntryAllIn, EntryATRRisk:
	default:
		return fmt.Errorf("unknown entry mode %q", c.EntryMode)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot_size must be positive, got %g", c.LotSize)
	}
	if c.FeeRate < 0 || c.MinFee < 0 || c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("fees and slippage must be non-negative and slippage below 1")
	}
	if c.EntryMode == EntryFixedLots && c.FixedLots <= 0 {
		return fmt.Errorf("fixed_lots must be positive, got %g", c.FixedLots)
	}
	if c.MaxExposurePct <= 0 {
		return fmt.Errorf("max_exposure_pct must be positive, got %g", c.MaxExposurePct)
	}
	return c.Risk.Validate()
}

// Validate checks the risk overlay.
func (r RiskConfig) Validate() error {
	if r.ATRPeriod <= 0 {
		return fmt.Errorf("risk atr_period must be positive, got %d", r.ATRPeriod)
	}
	if r.ScaleOut1Frac < 0 || r.ScaleOut1Frac > 1 || r.ScaleOut2Frac < 0 || r.ScaleOut2Frac > 1 {
		return fmt.Errorf("scale-out fractions must be within [0,1]")
	}
	if r.MinLots > r.MaxLots {
		return fmt.Errorf("min_lots (%g) above max_lots (%g)", r.MinLots, r.MaxLots)
	}
	if r.Pyramiding && r.MaxEntries < 1 {
		return fmt.Errorf("max_entries must be at least 1 with pyramiding")
	}
	return nil
}
