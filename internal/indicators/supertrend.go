package indicators

import "github.com/ducminhle1904/strategy-lab/pkg/types"

const (
	// DefaultSuperTrendPeriod is the default ATR period.
	DefaultSuperTrendPeriod = 10

	// DefaultSuperTrendMultiplier is the default ATR multiplier for the bands.
	DefaultSuperTrendMultiplier = 3.0
)

// SuperTrendResult holds the SuperTrend line and its direction (+1 up,
// -1 down, NaN before the first ATR value).
type SuperTrendResult struct {
	Line      []float64
	Direction []float64
}

// SuperTrend computes the ATR-band trailing trend line. Final bands only
// tighten while price stays on their side; a close through the active band
// flips the direction.
func SuperTrend(bars []types.Bar, period int, multiplier float64) SuperTrendResult {
	n := len(bars)
	res := SuperTrendResult{Line: nanSlice(n), Direction: nanSlice(n)}
	atr := ATR(bars, period)

	var finalUpper, finalLower float64
	dir := 0.0
	started := false
	for i := 0; i < n; i++ {
		if !IsFinite(atr[i]) {
			continue
		}
		hl2 := (bars[i].High + bars[i].Low) / 2
		basicUpper := hl2 + multiplier*atr[i]
		basicLower := hl2 - multiplier*atr[i]

		if !started {
			finalUpper, finalLower = basicUpper, basicLower
			dir = 1
			if bars[i].Close < hl2 {
				dir = -1
			}
			started = true
		} else {
			prevClose := bars[i-1].Close
			if basicUpper < finalUpper || prevClose > finalUpper {
				finalUpper = basicUpper
			}
			if basicLower > finalLower || prevClose < finalLower {
				finalLower = basicLower
			}
			switch {
			case dir < 0 && bars[i].Close > finalUpper:
				dir = 1
			case dir > 0 && bars[i].Close < finalLower:
				dir = -1
			}
		}

		if dir > 0 {
			res.Line[i] = finalLower
		} else {
			res.Line[i] = finalUpper
		}
		res.Direction[i] = dir
	}
	return res
}
