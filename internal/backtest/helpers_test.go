package backtest

import (
	"math"
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

const testCapital = 100000.0

var testStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// generateLineBars returns daily bars on a straight line with open equal to
// close, so fills never gap against the mark.
func generateLineBars(count int, slope float64) []types.Bar {
	bars := make([]types.Bar, count)
	for i := range bars {
		c := 100 + slope*float64(i)
		bars[i] = types.Bar{
			Timestamp: testStart.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

// generateWaveBars returns daily bars oscillating around a slow drift.
func generateWaveBars(count int) []types.Bar {
	bars := make([]types.Bar, count)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/8) + float64(i)*0.05
		bars[i] = types.Bar{
			Timestamp: testStart.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c - 0.3,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000 + float64(i%10)*50,
		}
	}
	return bars
}

// generateRangeBars returns flat bars at price with a one point range.
func generateRangeBars(count int, price float64) []types.Bar {
	bars := make([]types.Bar, count)
	for i := range bars {
		bars[i] = types.Bar{
			Timestamp: testStart.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	return bars
}

// frictionless returns the default config without fees or slippage.
func frictionless() Config {
	cfg := DefaultConfig()
	cfg.FeeRate = 0
	cfg.MinFee = 0
	cfg.Slippage = 0
	return cfg
}
