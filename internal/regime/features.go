package regime

import (
	"math"

	"github.com/ducminhle1904/strategy-lab/internal/indicators"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

const (
	featureSMAPeriod    = 20
	featureSlopeBars    = 10
	featureATRPeriod    = 14
	featureVolPeriod    = 20
	featureHighLookback = 60
)

// Features are the raw price features at the last bar. A feature without
// enough history is NaN and contributes nothing.
type Features struct {
	SlopePct    float64 `json:"slope_pct"`
	ATRPct      float64 `json:"atr_pct"`
	VolumeRatio float64 `json:"volume_ratio"`
	DrawdownPct float64 `json:"drawdown_pct"`
}

// ComputeFeatures derives the regime features from bars.
func ComputeFeatures(bars []types.Bar) Features {
	closes := indicators.Closes(bars)
	f := Features{
		SlopePct: indicators.Last(indicators.Slope(indicators.SMA(closes, featureSMAPeriod), featureSlopeBars)),
		ATRPct:   indicators.Last(indicators.ATRPercent(bars, featureATRPeriod)),
	}

	vols := indicators.Volumes(bars)
	f.VolumeRatio = ratioToAverage(vols, featureVolPeriod)

	f.DrawdownPct = math.NaN()
	if n := len(closes); n > 0 {
		lookback := min(featureHighLookback, n)
		high := indicators.Last(indicators.RollingMax(closes, lookback))
		if indicators.IsFinite(high) && high > 0 {
			f.DrawdownPct = (high - closes[n-1]) / high * 100
		}
	}
	return f
}

// ratioToAverage is the last value divided by its period SMA, NaN when
// unavailable or when the average is not positive.
func ratioToAverage(values []float64, period int) float64 {
	avg := indicators.Last(indicators.SMA(values, period))
	last := indicators.Last(values)
	if !indicators.AllFinite(avg, last) || avg <= 0 {
		return math.NaN()
	}
	return last / avg
}

// clamp01 maps (x-threshold)/scale into [0,1]; NaN maps to 0.
func clamp01(x, threshold, scale float64) float64 {
	if !indicators.IsFinite(x) || scale <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, (x-threshold)/scale))
}
