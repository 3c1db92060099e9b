package indicators

// MACDResult holds the MACD line, its signal line and the histogram.
type MACDResult struct {
	Line   []float64
	Signal []float64
	Hist   []float64
}

// MACD computes EMA(fast) - EMA(slow) with an EMA(signal) of that line.
func MACD(values []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	line := nanSlice(len(values))
	for i := range values {
		if AllFinite(fastEMA[i], slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}
	sig := EMA(line, signal)
	hist := nanSlice(len(values))
	for i := range values {
		if AllFinite(line[i], sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return MACDResult{Line: line, Signal: sig, Hist: hist}
}
