package data

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// FilterByPeriod keeps the bars within period of the last bar.
func FilterByPeriod(bars []types.Bar, period time.Duration) []types.Bar {
	if period <= 0 || len(bars) == 0 {
		return bars
	}
	cutoff := bars[len(bars)-1].Timestamp.Add(-period)
	start := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Timestamp.Before(cutoff)
	})
	return bars[start:]
}

// SortByTimestamp returns a copy of bars in ascending time order.
func SortByTimestamp(bars []types.Bar) []types.Bar {
	sorted := make([]types.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// RemoveDuplicates drops bars repeating the previous bar's timestamp,
// keeping the first. bars must be sorted.
func RemoveDuplicates(bars []types.Bar) []types.Bar {
	if len(bars) <= 1 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if !b.Timestamp.Equal(out[len(out)-1].Timestamp) {
			out = append(out, b)
		}
	}
	return out
}

// TakeLast returns at most the last n bars.
func TakeLast(bars []types.Bar, n int) []types.Bar {
	if n <= 0 || len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

// ParseTrailingPeriod parses periods like "7d", "30days" or any
// time.ParseDuration string.
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasSuffix(s, "days") {
		s = strings.TrimSuffix(s, "days") + "d"
	}
	if n, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(n)
		if err != nil || days <= 0 {
			return 0, false
		}
		return time.Duration(days) * 24 * time.Hour, true
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	return 0, false
}
