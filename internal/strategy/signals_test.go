package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateWaveBars(count int) []types.Bar {
	bars := make([]types.Bar, count)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/8) + float64(i)*0.05
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c - 0.3,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000 + float64(i%10)*50,
		}
	}
	return bars
}

func generateLineBars(count int, slope float64) []types.Bar {
	bars := make([]types.Bar, count)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + slope*float64(i)
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func TestSignals_NoneIsEmpty(t *testing.T) {
	out := Signals(KeyNone, generateWaveBars(200), DefaultParams())
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSignals_FlatLineMACrossHasNoSignals(t *testing.T) {
	out := Signals(KeyMACross, generateLineBars(300, 0), DefaultParams())
	assert.Empty(t, out)
}

func TestSignals_EMATrendBuysInUptrend(t *testing.T) {
	out := Signals(KeyEMATrend, generateLineBars(1000, 1), DefaultParams())

	require.NotEmpty(t, out)
	assert.Equal(t, types.SideBuy, out[0].Side)
	assert.Equal(t, 1, out[0].BarIndex)
	for _, s := range out {
		assert.NotEqual(t, types.SideSell, s.Side)
	}
}

func TestSignals_AllStrategiesOrdered(t *testing.T) {
	bars := generateWaveBars(400)
	params := DefaultParams()

	for _, key := range AllKeys() {
		t.Run(key.String(), func(t *testing.T) {
			var out []types.StrategySignal
			require.NotPanics(t, func() { out = Signals(key, bars, params) })
			assert.NotEmpty(t, out, "wave data should trigger %s", key)

			prev := 0
			for _, s := range out {
				assert.GreaterOrEqual(t, s.BarIndex, prev)
				assert.Greater(t, s.BarIndex, 0)
				assert.Less(t, s.BarIndex, len(bars))
				assert.NotEmpty(t, s.Reason)
				prev = s.BarIndex
			}
		})
	}
}

func TestSignals_ShortInput(t *testing.T) {
	for _, key := range AllKeys() {
		assert.Empty(t, Signals(key, generateWaveBars(1), DefaultParams()))
		assert.NotPanics(t, func() { Signals(key, generateWaveBars(4), DefaultParams()) })
	}
}

func TestSignals_SellsAreNeverFiltered(t *testing.T) {
	bars := generateWaveBars(400)
	open := DefaultParams()

	strict := DefaultParams()
	strict.Filter.ADXEnabled = true
	strict.Filter.ADXMin = 1000

	unfiltered := Signals(KeyMACross, bars, open)
	filtered := Signals(KeyMACross, bars, strict)

	var sells []types.StrategySignal
	for _, s := range unfiltered {
		if s.Side == types.SideSell {
			sells = append(sells, s)
		}
	}
	require.NotEmpty(t, sells)
	assert.Equal(t, sells, filtered)
}

func TestSignals_NonFilterableIgnoresGate(t *testing.T) {
	bars := generateWaveBars(400)
	strict := DefaultParams()
	strict.Filter.ADXEnabled = true
	strict.Filter.ADXMin = 1000

	assert.Equal(t, Signals(KeyKDJCross, bars, DefaultParams()), Signals(KeyKDJCross, bars, strict))
}

func TestSignals_Deterministic(t *testing.T) {
	bars := generateWaveBars(300)
	for _, key := range AllKeys() {
		assert.Equal(t, Signals(key, bars, DefaultParams()), Signals(key, bars, DefaultParams()))
	}
}

func TestCrossing_RequiresFiniteValues(t *testing.T) {
	a := []float64{math.NaN(), 2}
	b := []float64{1, 1}
	assert.False(t, crossedUp(a, b, 1))

	a = []float64{1, 2}
	assert.True(t, crossedUp(a, b, 1))
	assert.False(t, crossedDown(a, b, 1))

	equal := []float64{1, 1}
	assert.False(t, crossedUp(equal, b, 1))
	assert.False(t, crossedDown(equal, b, 1))
}

func BenchmarkSignals_MACross(b *testing.B) {
	bars := generateWaveBars(1000)
	params := DefaultParams()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Signals(KeyMACross, bars, params)
	}
}
