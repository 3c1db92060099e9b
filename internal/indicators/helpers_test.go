package indicators

import (
	"math"
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

func generateTestBars(count int) []types.Bar {
	bars := make([]types.Bar, count)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range bars {
		price += math.Sin(float64(i)/5) * 2
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price - 0.5,
			High:      price + 1.5,
			Low:       price - 1.5,
			Close:     price,
			Volume:    1000 + float64(i%7)*100,
		}
	}
	return bars
}

func generateRisingBars(count int) []types.Bar {
	bars := make([]types.Bar, count)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c - 0.5,
			High:      c + 0.5,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func generateFlatBars(count int) []types.Bar {
	bars := make([]types.Bar, count)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      100,
			High:      100,
			Low:       100,
			Close:     100,
			Volume:    1000,
		}
	}
	return bars
}
