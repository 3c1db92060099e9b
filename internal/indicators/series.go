// Package indicators holds pure technical-analysis functions over price
// series. Every function returns a slice with the same length as its input,
// with NaN in positions where not enough history exists yet.
package indicators

import (
	"math"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllFinite reports whether every value is finite.
func AllFinite(values ...float64) bool {
	for _, v := range values {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Closes extracts close prices.
func Closes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Opens extracts open prices.
func Opens(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Open
	}
	return out
}

// Highs extracts high prices.
func Highs(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts low prices.
func Lows(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts traded volume.
func Volumes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Liquidity returns the amount series when every bar carries one, otherwise
// the volume series.
func Liquidity(bars []types.Bar) []float64 {
	for _, b := range bars {
		if !b.HasAmount() {
			return Volumes(bars)
		}
	}
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Amount
	}
	return out
}

// Last returns the final element of values, or NaN for an empty slice.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// RollingMax is the highest value over the trailing window ending at i.
func RollingMax(values []float64, period int) []float64 {
	return rolling(values, period, math.Max)
}

// RollingMin is the lowest value over the trailing window ending at i.
func RollingMin(values []float64, period int) []float64 {
	return rolling(values, period, math.Min)
}

func rolling(values []float64, period int, pick func(a, b float64) float64) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		acc := values[i-period+1]
		ok := IsFinite(acc)
		for j := i - period + 2; j <= i && ok; j++ {
			if !IsFinite(values[j]) {
				ok = false
				break
			}
			acc = pick(acc, values[j])
		}
		if ok {
			out[i] = acc
		}
	}
	return out
}

// StdDev is the rolling population standard deviation.
func StdDev(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	mean := SMA(values, period)
	for i := period - 1; i < len(values); i++ {
		if !IsFinite(mean[i]) {
			continue
		}
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean[i]
			sum += d * d
		}
		out[i] = math.Sqrt(sum / float64(period))
	}
	return out
}

// Shift moves the series forward by n bars, padding the head with NaN.
// A negative n yields all NaN.
func Shift(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	if n < 0 {
		return out
	}
	for i := n; i < len(values); i++ {
		out[i] = values[i-n]
	}
	return out
}
