package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSI_AllGainsIs100(t *testing.T) {
	out := RSI(Closes(generateRisingBars(30)), 14)

	assert.True(t, math.IsNaN(out[13]))
	assert.Equal(t, 100.0, out[14])
	assert.Equal(t, 100.0, out[29])
}

func TestRSI_FlatIs50(t *testing.T) {
	out := RSI(Closes(generateFlatBars(30)), 14)
	assert.Equal(t, 50.0, out[20])
}

func TestRSI_Bounded(t *testing.T) {
	out := RSI(Closes(generateTestBars(200)), 14)
	for _, v := range out[14:] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRSI_WilderRecurrence(t *testing.T) {
	values := []float64{1, 2, 1, 2, 1}
	out := RSI(values, 2)

	// first average over changes +1, -1: gain 0.5, loss 0.5
	assert.InDelta(t, 50.0, out[2], 1e-9)
	// next change +1: gain (0.5+1)/2 = 0.75, loss 0.25
	assert.InDelta(t, 75.0, out[3], 1e-9)
}
