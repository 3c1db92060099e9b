package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IntervalToMinutes converts intervals like "5m", "1h", "4h" or "1d" to a
// minute count string. Unknown formats are returned unchanged.
func IntervalToMinutes(interval string) string {
	if _, err := strconv.Atoi(interval); err == nil {
		return interval
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return interval
	}
	num, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil {
		return interval
	}
	switch interval[len(interval)-1] {
	case 'm':
		return strconv.Itoa(num)
	case 'h':
		return strconv.Itoa(num * 60)
	case 'd':
		return strconv.Itoa(num * 24 * 60)
	case 'w':
		return strconv.Itoa(num * 7 * 24 * 60)
	default:
		return interval
	}
}

// FindDataFile looks for <root>/<exchange>/<category>/<SYMBOL>/<minutes>/candles.csv
// across the exchange's market categories.
func FindDataFile(root, exchange, symbol, interval string) (string, error) {
	var categories []string
	switch strings.ToLower(exchange) {
	case "bybit":
		categories = []string{"spot", "linear", "inverse"}
	case "binance":
		categories = []string{"spot", "futures"}
	default:
		categories = []string{"spot", "futures", "linear", "inverse"}
	}

	tried := make([]string, 0, len(categories))
	for _, category := range categories {
		path := DataFilePath(root, exchange, category, symbol, interval)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		tried = append(tried, path)
	}
	return "", fmt.Errorf("no data file for %s %s %s, tried %s", exchange, symbol, interval, strings.Join(tried, ", "))
}

// DataFilePath is <root>/<exchange>/<category>/<SYMBOL>/<minutes>/candles.csv.
func DataFilePath(root, exchange, category, symbol, interval string) string {
	return filepath.Join(root, exchange, category, strings.ToUpper(symbol), IntervalToMinutes(interval), "candles.csv")
}
