package regime

import (
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// generateBars builds bars from a close-price function with a fixed
// high/low spread around the close.
func generateBars(count int, spread float64, closeAt func(i int) float64) []types.Bar {
	bars := make([]types.Bar, count)
	for i := range bars {
		c := closeAt(i)
		bars[i] = types.Bar{
			Timestamp: testStart.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + spread,
			Low:       c - spread,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func trendingBars(count int) []types.Bar {
	return generateBars(count, 0.5, func(i int) float64 { return 100 * (1 + 0.01*float64(i)) })
}

func flatBars(count int) []types.Bar {
	return generateBars(count, 0.2, func(i int) float64 { return 100 })
}

// crashBars trade flat and then drop hard with widening ranges and heavy
// volume.
func crashBars(count int) []types.Bar {
	bars := generateBars(count, 0.3, func(i int) float64 { return 100 })
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
