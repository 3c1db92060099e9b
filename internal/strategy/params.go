package strategy

import "fmt"

// Params holds the indicator settings for every strategy. Only the fields of
// the selected strategy are read; the rest are carried unchanged.
type Params struct {
	MAFast int `json:"ma_fast" yaml:"ma_fast"` // SMA fast period (default: 10)
	MASlow int `json:"ma_slow" yaml:"ma_slow"` // SMA slow period (default: 30)

	EMAFast int `json:"ema_fast" yaml:"ema_fast"` // default: 12
	EMASlow int `json:"ema_slow" yaml:"ema_slow"` // default: 26

	MACDFast   int `json:"macd_fast" yaml:"macd_fast"`     // default: 12
	MACDSlow   int `json:"macd_slow" yaml:"macd_slow"`     // default: 26
	MACDSignal int `json:"macd_signal" yaml:"macd_signal"` // default: 9

	RSIPeriod        int     `json:"rsi_period" yaml:"rsi_period"`                 // default: 14
	RSIOversold      float64 `json:"rsi_oversold" yaml:"rsi_oversold"`             // reversion entry level (default: 30)
	RSIOverbought    float64 `json:"rsi_overbought" yaml:"rsi_overbought"`         // reversion exit level (default: 70)
	RSIMomentumEntry float64 `json:"rsi_momentum_entry" yaml:"rsi_momentum_entry"` // default: 55
	RSIMomentumExit  float64 `json:"rsi_momentum_exit" yaml:"rsi_momentum_exit"`   // default: 45

	BollPeriod int     `json:"boll_period" yaml:"boll_period"` // default: 20
	BollMult   float64 `json:"boll_mult" yaml:"boll_mult"`     // default: 2.0

	ChannelPeriod int `json:"channel_period" yaml:"channel_period"` // close channel (default: 20)

	SuperTrendPeriod int     `json:"supertrend_period" yaml:"supertrend_period"` // default: 10
	SuperTrendMult   float64 `json:"supertrend_mult" yaml:"supertrend_mult"`     // default: 3.0

	ATRPeriod       int     `json:"atr_period" yaml:"atr_period"`               // default: 14
	ATRBreakoutBase int     `json:"atr_breakout_base" yaml:"atr_breakout_base"` // EMA period of the band centre (default: 20)
	ATRBreakoutMult float64 `json:"atr_breakout_mult" yaml:"atr_breakout_mult"` // default: 1.5

	DonchianPeriod int `json:"donchian_period" yaml:"donchian_period"` // default: 20

	TurtleEntry int `json:"turtle_entry" yaml:"turtle_entry"` // default: 20
	TurtleExit  int `json:"turtle_exit" yaml:"turtle_exit"`   // default: 10

	IchimokuConversion int `json:"ichimoku_conversion" yaml:"ichimoku_conversion"` // default: 9
	IchimokuBase       int `json:"ichimoku_base" yaml:"ichimoku_base"`             // default: 26
	IchimokuSpanB      int `json:"ichimoku_span_b" yaml:"ichimoku_span_b"`         // default: 52

	KDJPeriod int `json:"kdj_period" yaml:"kdj_period"` // default: 9
	KDJSmooth int `json:"kdj_smooth" yaml:"kdj_smooth"` // default: 3

	Filter FilterParams `json:"filter" yaml:"filter"`
}

// FilterParams configures the BUY entry gate. Every sub-filter is off unless
// its Enabled flag is set.
type FilterParams struct {
	TrendEnabled bool `json:"trend_enabled" yaml:"trend_enabled"` // close above trend EMA
	TrendEMA     int  `json:"trend_ema" yaml:"trend_ema"`         // default: 200

	SlopeEnabled  bool `json:"slope_enabled" yaml:"slope_enabled"`   // trend EMA rising
	SlopeLookback int  `json:"slope_lookback" yaml:"slope_lookback"` // default: 5

	VolumeEnabled  bool    `json:"volume_enabled" yaml:"volume_enabled"`
	VolumePeriod   int     `json:"volume_period" yaml:"volume_period"`       // default: 20
	VolumeFloorPct float64 `json:"volume_floor_pct" yaml:"volume_floor_pct"` // % of volume SMA (default: 80)

	BurstEnabled bool    `json:"burst_enabled" yaml:"burst_enabled"`
	BurstMult    float64 `json:"burst_mult" yaml:"burst_mult"` // multiple of volume SMA (default: 1.5)

	ADXEnabled bool    `json:"adx_enabled" yaml:"adx_enabled"`
	ADXPeriod  int     `json:"adx_period" yaml:"adx_period"` // default: 14
	ADXMin     float64 `json:"adx_min" yaml:"adx_min"`       // default: 20

	ATREnabled bool    `json:"atr_enabled" yaml:"atr_enabled"`
	ATRPeriod  int     `json:"atr_period" yaml:"atr_period"`   // default: 14
	ATRPctMin  float64 `json:"atr_pct_min" yaml:"atr_pct_min"` // default: 0.3
	ATRPctMax  float64 `json:"atr_pct_max" yaml:"atr_pct_max"` // default: 8

	GapEnabled bool `json:"gap_enabled" yaml:"gap_enabled"`
	MinBarGap  int  `json:"min_bar_gap" yaml:"min_bar_gap"` // bars since last accepted BUY (default: 5)
}

// DefaultParams returns the documented defaults with all filters disabled.
func DefaultParams() Params {
	return Params{
		MAFast:             10,
		MASlow:             30,
		EMAFast:            12,
		EMASlow:            26,
		MACDFast:           12,
		MACDSlow:           26,
		MACDSignal:         9,
		RSIPeriod:          14,
		RSIOversold:        30,
		RSIOverbought:      70,
		RSIMomentumEntry:   55,
		RSIMomentumExit:    45,
		BollPeriod:         20,
		BollMult:           2.0,
		ChannelPeriod:      20,
		SuperTrendPeriod:   10,
		SuperTrendMult:     3.0,
		ATRPeriod:          14,
		ATRBreakoutBase:    20,
		ATRBreakoutMult:    1.5,
		DonchianPeriod:     20,
		TurtleEntry:        20,
		TurtleExit:         10,
		IchimokuConversion: 9,
		IchimokuBase:       26,
		IchimokuSpanB:      52,
		KDJPeriod:          9,
		KDJSmooth:          3,
		Filter:             DefaultFilterParams(),
	}
}

// DefaultFilterParams returns filter thresholds with every sub-filter off.
func DefaultFilterParams() FilterParams {
	return FilterParams{
		TrendEMA:       200,
		SlopeLookback:  5,
		VolumePeriod:   20,
		VolumeFloorPct: 80,
		BurstMult:      1.5,
		ADXPeriod:      14,
		ADXMin:         20,
		ATRPeriod:      14,
		ATRPctMin:      0.3,
		ATRPctMax:      8,
		MinBarGap:      5,
	}
}

// Validate checks that every period is positive and the levels are ordered.
func (p Params) Validate() error {
	periods := []struct {
		name string
		v    int
	}{
		{"ma_fast", p.MAFast},
		{"ma_slow", p.MASlow},
		{"ema_fast", p.EMAFast},
		{"ema_slow", p.EMASlow},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
		{"rsi_period", p.RSIPeriod},
		{"boll_period", p.BollPeriod},
		{"channel_period", p.ChannelPeriod},
		{"supertrend_period", p.SuperTrendPeriod},
		{"atr_period", p.ATRPeriod},
		{"atr_breakout_base", p.ATRBreakoutBase},
		{"donchian_period", p.DonchianPeriod},
		{"turtle_entry", p.TurtleEntry},
		{"turtle_exit", p.TurtleExit},
		{"ichimoku_conversion", p.IchimokuConversion},
		{"ichimoku_base", p.IchimokuBase},
		{"ichimoku_span_b", p.IchimokuSpanB},
		{"kdj_period", p.KDJPeriod},
		{"kdj_smooth", p.KDJSmooth},
	}
	for _, pr := range periods {
		if pr.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", pr.name, pr.v)
		}
	}
	if p.MAFast >= p.MASlow {
		return fmt.Errorf("ma_fast (%d) must be below ma_slow (%d)", p.MAFast, p.MASlow)
	}
	if p.EMAFast >= p.EMASlow {
		return fmt.Errorf("ema_fast (%d) must be below ema_slow (%d)", p.EMAFast, p.EMASlow)
	}
	if p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%.1f) must be below rsi_overbought (%.1f)", p.RSIOversold, p.RSIOverbought)
	}
	if p.BollMult <= 0 || p.SuperTrendMult <= 0 || p.ATRBreakoutMult <= 0 {
		return fmt.Errorf("band multipliers must be positive")
	}
	return p.Filter.Validate()
}

// Validate checks the enabled sub-filters.
func (f FilterParams) Validate() error {
	if (f.TrendEnabled || f.SlopeEnabled) && f.TrendEMA <= 0 {
		return fmt.Errorf("trend_ema must be positive, got %d", f.TrendEMA)
	}
	if f.SlopeEnabled && f.SlopeLookback <= 0 {
		return fmt.Errorf("slope_lookback must be positive, got %d", f.SlopeLookback)
	}
	if (f.VolumeEnabled || f.BurstEnabled) && f.VolumePeriod <= 0 {
		return fmt.Errorf("volume_period must be positive, got %d", f.VolumePeriod)
	}
	if f.ADXEnabled && f.ADXPeriod <= 0 {
		return fmt.Errorf("adx_period must be positive, got %d", f.ADXPeriod)
	}
	if f.ATREnabled && (f.ATRPeriod <= 0 || f.ATRPctMin > f.ATRPctMax) {
		return fmt.Errorf("atr filter needs a positive period and atr_pct_min <= atr_pct_max")
	}
	if f.GapEnabled && f.MinBarGap < 0 {
		return fmt.Errorf("min_bar_gap must not be negative, got %d", f.MinBarGap)
	}
	return nil
}

// AnyEnabled reports whether at least one sub-filter is active.
func (f FilterParams) AnyEnabled() bool {
	return f.TrendEnabled || f.SlopeEnabled || f.VolumeEnabled || f.BurstEnabled ||
		f.ADXEnabled || f.ATREnabled || f.GapEnabled
}
