package indicators

import "github.com/ducminhle1904/strategy-lab/pkg/types"

// IchimokuResult holds the conversion/base lines and the cloud spans, already
// displaced forward so index i holds the cloud that applies to bar i.
type IchimokuResult struct {
	Tenkan []float64
	Kijun  []float64
	SpanA  []float64
	SpanB  []float64
}

// CloudTop is max(SpanA, SpanB) at each index.
func (r IchimokuResult) CloudTop() []float64 {
	out := nanSlice(len(r.SpanA))
	for i := range out {
		if AllFinite(r.SpanA[i], r.SpanB[i]) {
			out[i] = max(r.SpanA[i], r.SpanB[i])
		}
	}
	return out
}

// CloudBottom is min(SpanA, SpanB) at each index.
func (r IchimokuResult) CloudBottom() []float64 {
	out := nanSlice(len(r.SpanA))
	for i := range out {
		if AllFinite(r.SpanA[i], r.SpanB[i]) {
			out[i] = min(r.SpanA[i], r.SpanB[i])
		}
	}
	return out
}

// Ichimoku computes the cloud with the classic 9/26/52 style periods given
// as arguments; the spans are displaced by the base period.
func Ichimoku(bars []types.Bar, conversion, base, spanB int) IchimokuResult {
	highs, lows := Highs(bars), Lows(bars)
	mid := func(period int) []float64 {
		hh := RollingMax(highs, period)
		ll := RollingMin(lows, period)
		out := nanSlice(len(bars))
		for i := range out {
			if AllFinite(hh[i], ll[i]) {
				out[i] = (hh[i] + ll[i]) / 2
			}
		}
		return out
	}

	tenkan := mid(conversion)
	kijun := mid(base)
	a := nanSlice(len(bars))
	for i := range a {
		if AllFinite(tenkan[i], kijun[i]) {
			a[i] = (tenkan[i] + kijun[i]) / 2
		}
	}
	return IchimokuResult{
		Tenkan: tenkan,
		Kijun:  kijun,
		SpanA:  Shift(a, base),
		SpanB:  Shift(mid(spanB), base),
	}
}
