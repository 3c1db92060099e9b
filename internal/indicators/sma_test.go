package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA_WarmupIsNaN(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-12)
	assert.InDelta(t, 3.0, out[3], 1e-12)
	assert.InDelta(t, 4.0, out[4], 1e-12)
}

func TestSMA_InsufficientData(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSMA_NonFiniteWindow(t *testing.T) {
	out := SMA([]float64{1, math.NaN(), 3, 4, 5}, 2)

	assert.True(t, math.IsNaN(out[1]))
	assert.True(t, math.IsNaN(out[2]))
	assert.InDelta(t, 3.5, out[3], 1e-12)
}

func TestSMA_InvalidPeriod(t *testing.T) {
	assert.NotPanics(t, func() {
		out := SMA([]float64{1, 2, 3}, 0)
		assert.True(t, math.IsNaN(out[2]))
	})
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	out := EMA([]float64{10, 20}, 3)

	assert.Equal(t, 10.0, out[0])
	assert.InDelta(t, 15.0, out[1], 1e-12) // alpha = 0.5
}

func TestEMA_FastAboveSlowInUptrend(t *testing.T) {
	closes := Closes(generateRisingBars(50))
	fast := EMA(closes, 5)
	slow := EMA(closes, 20)

	assert.Equal(t, fast[0], slow[0])
	for i := 1; i < len(closes); i++ {
		assert.Greater(t, fast[i], slow[i])
	}
}

func TestRollingMaxMin(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2}
	hi := RollingMax(values, 3)
	lo := RollingMin(values, 3)

	assert.True(t, math.IsNaN(hi[1]))
	assert.Equal(t, 4.0, hi[2])
	assert.Equal(t, 9.0, hi[6])
	assert.Equal(t, 1.0, lo[3])
	assert.Equal(t, 2.0, lo[6])
}

func TestSlope(t *testing.T) {
	out := Slope([]float64{100, 105, 110}, 2)

	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 10.0, out[2], 1e-12)
}

func TestShift(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	out := Shift(values, 2)
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 1.0, out[2])
	assert.Equal(t, 2.0, out[3])

	assert.Equal(t, values, Shift(values, 0))
	for _, v := range Shift(values, -5) {
		assert.True(t, math.IsNaN(v))
	}
	for _, v := range Shift(values, 10) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestIchimoku_NegativeBase(t *testing.T) {
	r := Ichimoku(generateTestBars(120), 9, -5, 52)
	for _, v := range r.SpanA {
		assert.True(t, math.IsNaN(v))
	}
}

func BenchmarkSMA(b *testing.B) {
	closes := Closes(generateTestBars(1000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SMA(closes, 20)
	}
}
