package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBollinger_Bands(t *testing.T) {
	bb := Bollinger([]float64{1, 2, 3, 4, 5}, 5, 2)

	assert.InDelta(t, 3.0, bb.Mid[4], 1e-12)
	sd := math.Sqrt(2)
	assert.InDelta(t, 3+2*sd, bb.Upper[4], 1e-12)
	assert.InDelta(t, 3-2*sd, bb.Lower[4], 1e-12)
	assert.True(t, math.IsNaN(bb.Upper[3]))
}

func TestBollinger_FlatDataCollapses(t *testing.T) {
	bb := Bollinger(Closes(generateFlatBars(30)), 20, 2)

	assert.Equal(t, bb.Mid[29], bb.Upper[29])
	assert.Equal(t, bb.Mid[29], bb.Lower[29])
}

func TestDonchian_ExcludesCurrentBar(t *testing.T) {
	bars := generateRisingBars(10)
	ch := Donchian(bars, 3)

	assert.True(t, math.IsNaN(ch.Upper[2]))
	assert.Equal(t, bars[5].High, ch.Upper[6])
	assert.Greater(t, bars[6].Close, ch.Upper[6])
}

func TestKDJ_Range(t *testing.T) {
	res := KDJ(generateTestBars(100), 9, 3)
	for i := 8; i < 100; i++ {
		assert.GreaterOrEqual(t, res.K[i], 0.0)
		assert.LessOrEqual(t, res.K[i], 100.0)
	}
}

func TestIchimoku_Displacement(t *testing.T) {
	res := Ichimoku(generateRisingBars(120), 9, 26, 52)

	assert.True(t, math.IsNaN(res.SpanB[76]))
	assert.False(t, math.IsNaN(res.SpanB[77]))
	top := res.CloudTop()
	assert.GreaterOrEqual(t, top[100], res.CloudBottom()[100])
}
