package indicators

import (
	"math"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// TrueRange returns the per-bar true range. The first bar uses high-low.
func TrueRange(bars []types.Bar) []float64 {
	out := nanSlice(len(bars))
	for i, b := range bars {
		if i == 0 {
			out[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		out[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return out
}

// ATR is the Average True Range with Wilder smoothing. The first value, at
// index period, is the simple mean of the true ranges of bars 1..period.
func ATR(bars []types.Bar, period int) []float64 {
	out := nanSlice(len(bars))
	if period <= 0 || len(bars) <= period {
		return out
	}
	tr := TrueRange(bars)

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	if !IsFinite(atr) {
		return out
	}
	out[period] = atr

	n := float64(period)
	for i := period + 1; i < len(bars); i++ {
		if !IsFinite(tr[i]) {
			out[i] = atr
			continue
		}
		atr = (atr*(n-1) + tr[i]) / n
		out[i] = atr
	}
	return out
}

// ATRPercent is ATR expressed as a percentage of close.
func ATRPercent(bars []types.Bar, period int) []float64 {
	atr := ATR(bars, period)
	out := nanSlice(len(bars))
	for i := range bars {
		if IsFinite(atr[i]) && bars[i].Close > 0 {
			out[i] = atr[i] / bars[i].Close * 100
		}
	}
	return out
}
