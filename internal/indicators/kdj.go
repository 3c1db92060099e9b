package indicators

import "github.com/ducminhle1904/strategy-lab/pkg/types"

// KDJResult holds the stochastic K, D and J lines.
type KDJResult struct {
	K []float64
	D []float64
	J []float64
}

// KDJ computes the stochastic oscillator in its KDJ form. RSV is the close
// position inside the period high/low range; K and D are smoothed with
// weight 1/smooth starting from 50, and J = 3K - 2D.
func KDJ(bars []types.Bar, period, smooth int) KDJResult {
	n := len(bars)
	res := KDJResult{K: nanSlice(n), D: nanSlice(n), J: nanSlice(n)}
	if period <= 0 || smooth <= 0 {
		return res
	}
	hh := RollingMax(Highs(bars), period)
	ll := RollingMin(Lows(bars), period)

	w := 1.0 / float64(smooth)
	k, d := 50.0, 50.0
	for i := period - 1; i < n; i++ {
		if !AllFinite(hh[i], ll[i]) {
			continue
		}
		rsv := 50.0
		if span := hh[i] - ll[i]; span > 0 {
			rsv = (bars[i].Close - ll[i]) / span * 100
		}
		k = (1-w)*k + w*rsv
		d = (1-w)*d + w*k
		res.K[i] = k
		res.D[i] = d
		res.J[i] = 3*k - 2*d
	}
	return res
}
