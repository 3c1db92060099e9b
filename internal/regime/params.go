package regime

import (
	"fmt"
	"time"
)

// Params configures the decision regime detector. Threshold/scale pairs map
// a raw feature x to clamp((x-threshold)/scale, 0, 1).
type Params struct {
	TrendSlopeThreshold float64 `json:"trend_slope_threshold" yaml:"trend_slope_threshold"` // |SMA20 slope| % over 10 bars (default: 0.5)
	TrendSlopeScale     float64 `json:"trend_slope_scale" yaml:"trend_slope_scale"`         // default: 2.0

	PanicATRThreshold float64 `json:"panic_atr_threshold" yaml:"panic_atr_threshold"` // ATR% (default: 3.0)
	PanicATRScale     float64 `json:"panic_atr_scale" yaml:"panic_atr_scale"`         // default: 3.0
	PanicDDThreshold  float64 `json:"panic_dd_threshold" yaml:"panic_dd_threshold"`   // % below 60-bar high (default: 8)
	PanicDDScale      float64 `json:"panic_dd_scale" yaml:"panic_dd_scale"`           // default: 12
	PanicVolThreshold float64 `json:"panic_vol_threshold" yaml:"panic_vol_threshold"` // volume / SMA20 (default: 1.5)
	PanicVolScale     float64 `json:"panic_vol_scale" yaml:"panic_vol_scale"`         // default: 1.5

	NewsTrendThreshold float64 `json:"news_trend_threshold" yaml:"news_trend_threshold"` // |score| (default: 0.3)
	NewsPanicThreshold float64 `json:"news_panic_threshold" yaml:"news_panic_threshold"` // -score (default: 0.6)

	RealtimeThreshold float64 `json:"realtime_threshold" yaml:"realtime_threshold"` // surprise ratio (default: 2.0)
	RealtimeScale     float64 `json:"realtime_scale" yaml:"realtime_scale"`         // default: 3.0

	WTrend    float64 `json:"w_trend" yaml:"w_trend"`       // default: 1.0
	WRange    float64 `json:"w_range" yaml:"w_range"`       // default: 0.8
	WPanic    float64 `json:"w_panic" yaml:"w_panic"`       // default: 1.2
	WNews     float64 `json:"w_news" yaml:"w_news"`         // default: 0.3
	WRealtime float64 `json:"w_realtime" yaml:"w_realtime"` // default: 0.3

	NewsMaxAge       time.Duration `json:"news_max_age" yaml:"news_max_age"`               // default: 4h
	Realtime1mMaxAge time.Duration `json:"realtime_1m_max_age" yaml:"realtime_1m_max_age"` // default: 3m
	RealtimeMaxAge   time.Duration `json:"realtime_max_age" yaml:"realtime_max_age"`       // other timeframes (default: 6m)
	MarketOpen       string        `json:"market_open" yaml:"market_open"`                 // HH:MM local (default: 09:30)
	MarketUTCOffset  int           `json:"market_utc_offset" yaml:"market_utc_offset"`     // hours (default: 8)
	OpeningExclusion time.Duration `json:"opening_exclusion" yaml:"opening_exclusion"`     // default: 30m
}

// DefaultParams returns the default detector configuration.
func DefaultParams() Params {
	return Params{
		TrendSlopeThreshold: 0.5,
		TrendSlopeScale:     2.0,
		PanicATRThreshold:   3.0,
		PanicATRScale:       3.0,
		PanicDDThreshold:    8,
		PanicDDScale:        12,
		PanicVolThreshold:   1.5,
		PanicVolScale:       1.5,
		NewsTrendThreshold:  0.3,
		NewsPanicThreshold:  0.6,
		RealtimeThreshold:   2.0,
		RealtimeScale:       3.0,
		WTrend:              1.0,
		WRange:              0.8,
		WPanic:              1.2,
		WNews:               0.3,
		WRealtime:           0.3,
		NewsMaxAge:          4 * time.Hour,
		Realtime1mMaxAge:    3 * time.Minute,
		RealtimeMaxAge:      6 * time.Minute,
		MarketOpen:          "09:30",
		MarketUTCOffset:     8,
		OpeningExclusion:    30 * time.Minute,
	}
}

// Validate checks scales and weights.
func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"trend_slope_scale", p.TrendSlopeScale},
		{"panic_atr_scale", p.PanicATRScale},
		{"panic_dd_scale", p.PanicDDScale},
		{"panic_vol_scale", p.PanicVolScale},
		{"realtime_scale", p.RealtimeScale},
	}
	for _, s := range positive {
		if s.v <= 0 {
			return fmt.Errorf("%s must be positive, got %g", s.name, s.v)
		}
	}
	if p.WTrend < 0 || p.WRange < 0 || p.WPanic < 0 || p.WNews < 0 || p.WRealtime < 0 {
		return fmt.Errorf("regime weights must not be negative")
	}
	if _, _, err := p.marketOpen(); err != nil {
		return err
	}
	return nil
}

func (p Params) marketOpen() (hour, minute int, err error) {
	if _, err := fmt.Sscanf(p.MarketOpen, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("market_open %q: expected HH:MM", p.MarketOpen)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("market_open %q out of range", p.MarketOpen)
	}
	return hour, minute, nil
}

// realtimeMaxAge is the staleness limit for a timeframe.
func (p Params) realtimeMaxAge(timeframe string) time.Duration {
	if timeframe == "1m" {
		return p.Realtime1mMaxAge
	}
	return p.RealtimeMaxAge
}

// inOpeningWindow reports whether now falls within OpeningExclusion after the
// market open, in the market's local time.
func (p Params) inOpeningWindow(now time.Time) bool {
	hour, minute, err := p.marketOpen()
	if err != nil || p.OpeningExclusion <= 0 {
		return false
	}
	local := now.In(time.FixedZone("market", p.MarketUTCOffset*3600))
	open := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, local.Location())
	return !local.Before(open) && local.Before(open.Add(p.OpeningExclusion))
}
