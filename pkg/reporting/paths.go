package reporting

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultOutputDir returns results/<SYMBOL>_<interval>.
func DefaultOutputDir(symbol, interval string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	i := strings.ToLower(strings.TrimSpace(interval))
	if s == "" {
		s = "UNKNOWN"
	}
	if i == "" {
		i = "unknown"
	}
	return filepath.Join("results", fmt.Sprintf("%s_%s", s, i))
}

// IntervalFromPath finds an interval directory such as "5m" or "4h" in a
// data file path, e.g. "data/bybit/linear/BTCUSDT/5m/candles.csv".
func IntervalFromPath(dataPath string) string {
	parts := strings.Split(filepath.ToSlash(dataPath), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if len(part) < 2 {
			continue
		}
		switch part[len(part)-1] {
		case 'm', 'h', 'd':
			if _, err := strconv.Atoi(part[:len(part)-1]); err == nil {
				return part
			}
		}
	}
	return ""
}

// SymbolFromPath finds an upper-case symbol directory (e.g. "BTCUSDT") in a
// data file path.
func SymbolFromPath(dataPath string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(dataPath)), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		if len(p) >= 5 && p == strings.ToUpper(p) && strings.IndexFunc(p, func(r rune) bool {
			return (r < 'A' || r > 'Z') && (r < '0' || r > '9')
		}) < 0 {
			return p
		}
	}
	return ""
}
