package decision

import (
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// 08:00 at UTC+8, outside the opening window
var testNow = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

// generateBars builds hourly bars ending one hour before testNow from a
// close-price function.
func generateBars(count int, closeAt func(i int) float64) []types.Bar {
	bars := make([]types.Bar, count)
	start := testNow.Add(-time.Duration(count) * time.Hour)
	for i := range bars {
		c := closeAt(i)
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func trendingBars(count int) []types.Bar {
	return generateBars(count, func(i int) float64 { return 100 * (1 + 0.01*float64(i)) })
}

func flatBars(count int) []types.Bar {
	return generateBars(count, func(int) float64 { return 100 })
}

// crashBars trade flat and then drop hard on heavy volume.
func crashBars(count int) []types.Bar {
	bars := generateBars(count, func(int) float64 { return 100 })
	for i := count - 15; i < count; i++ {
		c := bars[i-1].Close * 0.96
		bars[i].Open = bars[i-1].Close
		bars[i].Close = c
		bars[i].High = bars[i-1].Close + 1
		bars[i].Low = c - 3
		bars[i].Volume = 4000
	}
	return bars
}
