package indicators

import "github.com/ducminhle1904/strategy-lab/pkg/types"

// DonchianChannel holds the highest high and lowest low of the previous
// period bars, excluding the current bar, so a close above Upper is a
// breakout.
type DonchianChannel struct {
	Upper []float64
	Lower []float64
}

// Donchian computes the channel over the period bars before each index.
func Donchian(bars []types.Bar, period int) DonchianChannel {
	return DonchianChannel{
		Upper: Shift(RollingMax(Highs(bars), period), 1),
		Lower: Shift(RollingMin(Lows(bars), period), 1),
	}
}
