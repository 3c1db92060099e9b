package types

import (
	"math"
	"time"
)

// Bar is one OHLCV observation for a fixed timeframe. Amount is the traded
// turnover; zero means the feed did not supply it.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Amount    float64   `json:"amount,omitempty"`
}

// Valid reports whether the bar can be used by the engine: all prices finite
// and a positive open and close.
func (b Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Open > 0 && b.Close > 0
}

// HasAmount reports whether a usable turnover value is present.
func (b Bar) HasAmount() bool {
	return b.Amount > 0 && !math.IsInf(b.Amount, 0)
}

// CleanBars drops invalid bars and returns the kept bars together with the
// number of bars dropped. The input slice is never modified.
func CleanBars(bars []Bar) ([]Bar, int) {
	clean := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if b.Valid() {
			clean = append(clean, b)
		}
	}
	return clean, len(bars) - len(clean)
}
