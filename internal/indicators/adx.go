package indicators

import (
	"math"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// ADXResult carries the Average Directional Index with its directional
// indicators. Values above ~25 indicate a trending market.
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes Wilder's ADX. TR, +DM and -DM are smoothed with Wilder's
// recurrence after an initial simple mean over the first period bars; the
// first ADX value is the mean of the first period DX values.
func ADX(bars []types.Bar, period int) ADXResult {
	n := len(bars)
	res := ADXResult{ADX: nanSlice(n), PlusDI: nanSlice(n), MinusDI: nanSlice(n)}
	if period <= 0 || n <= period {
		return res
	}

	tr := TrueRange(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	p := float64(period)
	sTR, sPlus, sMinus := 0.0, 0.0, 0.0
	for i := 1; i <= period; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}
	sTR /= p
	sPlus /= p
	sMinus /= p

	dx := nanSlice(n)
	for i := period; i < n; i++ {
		if i > period {
			sTR = (sTR*(p-1) + tr[i]) / p
			sPlus = (sPlus*(p-1) + plusDM[i]) / p
			sMinus = (sMinus*(p-1) + minusDM[i]) / p
		}
		if !IsFinite(sTR) || sTR <= 0 {
			continue
		}
		pdi := sPlus / sTR * 100
		mdi := sMinus / sTR * 100
		res.PlusDI[i] = pdi
		res.MinusDI[i] = mdi
		if sum := pdi + mdi; sum > 0 {
			dx[i] = math.Abs(pdi-mdi) / sum * 100
		} else {
			dx[i] = 0
		}
	}

	first := 2*period - 1
	if first >= n {
		return res
	}
	sum := 0.0
	for i := period; i <= first; i++ {
		if !IsFinite(dx[i]) {
			return res
		}
		sum += dx[i]
	}
	adx := sum / p
	res.ADX[first] = adx
	for i := first + 1; i < n; i++ {
		if IsFinite(dx[i]) {
			adx = (adx*(p-1) + dx[i]) / p
		}
		res.ADX[i] = adx
	}
	return res
}
