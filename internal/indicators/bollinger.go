package indicators

// BollingerBands holds the middle band (SMA) and the bands at
// mid ± multiplier·stdev.
type BollingerBands struct {
	Mid   []float64
	Upper []float64
	Lower []float64
}

// Bollinger computes Bollinger Bands over values.
func Bollinger(values []float64, period int, multiplier float64) BollingerBands {
	mid := SMA(values, period)
	sd := StdDev(values, period)
	bb := BollingerBands{Mid: mid, Upper: nanSlice(len(values)), Lower: nanSlice(len(values))}
	for i := range values {
		if AllFinite(mid[i], sd[i]) {
			bb.Upper[i] = mid[i] + multiplier*sd[i]
			bb.Lower[i] = mid[i] - multiplier*sd[i]
		}
	}
	return bb
}
