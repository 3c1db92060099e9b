package indicators

import "math"

// EMA is the exponential moving average with alpha = 2/(period+1). It is
// seeded with the first finite value, so there is no warm-up beyond leading
// non-finite inputs. A non-finite value mid-series holds the previous EMA.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)

	prev := math.NaN()
	for i, v := range values {
		switch {
		case !IsFinite(v):
			out[i] = prev
		case !IsFinite(prev):
			prev = v
			out[i] = v
		default:
			prev = alpha*v + (1-alpha)*prev
			out[i] = prev
		}
	}
	return out
}

// Slope returns the percentage change of values over lookback bars.
func Slope(values []float64, lookback int) []float64 {
	out := nanSlice(len(values))
	if lookback <= 0 {
		return out
	}
	for i := lookback; i < len(values); i++ {
		prev, cur := values[i-lookback], values[i]
		if AllFinite(prev, cur) && prev != 0 {
			out[i] = (cur - prev) / prev * 100
		}
	}
	return out
}
