package indicators

// SMA is the simple moving average. A window containing a non-finite value
// yields NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	bad := 0
	for i, v := range values {
		if IsFinite(v) {
			sum += v
		} else {
			bad++
		}
		if i >= period {
			old := values[i-period]
			if IsFinite(old) {
				sum -= old
			} else {
				bad--
			}
		}
		if i >= period-1 && bad == 0 {
			out[i] = sum / float64(period)
		}
	}
	return out
}
