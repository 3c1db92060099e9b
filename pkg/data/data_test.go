package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadBars_NamedHeaderWithAmount tests header mapping and the amount column
func TestLoadBars_NamedHeaderWithAmount(t *testing.T) {
	path := writeCSV(t, `date,open,high,low,close,volume,turnover
2024-01-02,10,11,9.5,10.5,1000,10400
2024-01-03,10.5,12,10,11.5,1200,13200
`)
	bars, err := NewCSVProvider().LoadBars(path)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 10400.0, bars[0].Amount)
	assert.True(t, bars[1].HasAmount())
}

// TestLoadBars_ReorderedHeader tests that columns are found by name
func TestLoadBars_ReorderedHeader(t *testing.T) {
	path := writeCSV(t, `close,volume,open,high,low,timestamp
101,5,100,102,99,1704067200000
`)
	bars, err := NewCSVProvider().LoadBars(path)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.UnixMilli(1704067200000).UTC(), bars[0].Timestamp)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.False(t, bars[0].HasAmount())
}

// TestLoadBars_Positional tests headerless files in the default layout
func TestLoadBars_Positional(t *testing.T) {
	path := writeCSV(t, `2024-01-02 00:00:00,10,11,9,10.5,1000
2024-01-02 01:00:00,10.5,11,10,10.8,900
`)
	bars, err := NewCSVProvider().LoadBars(path)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Zero(t, bars[0].Amount)
}

// TestLoadBars_SkipsBadRowsAndSorts tests row validation, ordering and dedupe
func TestLoadBars_SkipsBadRowsAndSorts(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2024-01-03,10,11,9,10,100
2024-01-02,10,11,9,10,100
2024-01-02,99,99,99,99,1
not-a-date,10,11,9,10,100
2024-01-04,abc,11,9,10,100
2024-01-05,10,9,11,10,100
2024-01-06,0,1,0,1,100
2024-01-07,10,11
`)
	bars, err := NewCSVProvider().LoadBars(path)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 2, bars[0].Timestamp.Day())
	assert.Equal(t, 10.0, bars[0].Open)
	assert.Equal(t, 3, bars[1].Timestamp.Day())
}

// TestLoadBars_Errors tests missing and empty files
func TestLoadBars_Errors(t *testing.T) {
	_, err := NewCSVProvider().LoadBars(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, engineerrors.IsCategory(err, engineerrors.ErrorCategoryData))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewCSVProvider().LoadBars(writeCSV(t, ""))
	assert.Error(t, err)

	_, err = NewCSVProvider().LoadBars(writeCSV(t, "timestamp,open,high,low,close,volume\n"))
	assert.Error(t, err)
}

// TestReadBars tests parsing from a reader
func TestReadBars(t *testing.T) {
	bars, err := NewCSVProvider().ReadBars(strings.NewReader("time,open,high,low,close,vol\n2024-03-01T00:00:00Z,1,2,0.5,1.5,10\n"))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.5, bars[0].Close)
}

type countingProvider struct {
	calls int
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) LoadBars(string) ([]types.Bar, error) {
	c.calls++
	return []types.Bar{{Open: 1, High: 1, Low: 1, Close: 1}}, nil
}

// TestCachedProvider tests that repeated loads hit the cache
func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner)

	a, err := p.LoadBars("x.csv")
	require.NoError(t, err)
	a[0].Close = 42

	b, err := p.LoadBars("x.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1.0, b[0].Close)
	assert.Equal(t, 1, p.Cache().Size())
	assert.Equal(t, "cached-counting", p.Name())

	p.Cache().Clear()
	_, _ = p.LoadBars("x.csv")
	assert.Equal(t, 2, inner.calls)
}

// TestFilterByPeriod tests trailing period selection
func TestFilterByPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, 10)
	for i := range bars {
		bars[i].Timestamp = start.Add(time.Duration(i) * 24 * time.Hour)
	}

	assert.Len(t, FilterByPeriod(bars, 3*24*time.Hour), 4)
	assert.Len(t, FilterByPeriod(bars, 0), 10)
	assert.Len(t, FilterByPeriod(bars, 100*24*time.Hour), 10)
	assert.Len(t, TakeLast(bars, 3), 3)
	assert.Len(t, TakeLast(bars, 0), 10)
}

// TestParseTrailingPeriod tests the period formats
func TestParseTrailingPeriod(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"7d", 7 * 24 * time.Hour, true},
		{"30days", 30 * 24 * time.Hour, true},
		{"168h", 168 * time.Hour, true},
		{"0d", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTrailingPeriod(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// TestFindDataFile tests the data directory layout
func TestFindDataFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "bybit", "linear", "BTCUSDT", "60")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "candles.csv"), []byte("x"), 0o644))

	path, err := FindDataFile(root, "bybit", "btcusdt", "1h")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "candles.csv"), path)

	_, err = FindDataFile(root, "bybit", "ETHUSDT", "1h")
	assert.Error(t, err)

	assert.Equal(t, "240", IntervalToMinutes("4h"))
	assert.Equal(t, "1440", IntervalToMinutes("1d"))
	assert.Equal(t, "15", IntervalToMinutes("15"))
	assert.Equal(t, "x", IntervalToMinutes("x"))
}

// TestSaveCSV tests that saved bars load back through the CSV provider
func TestSaveCSV(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.Bar{
		{Timestamp: start, Open: 100, High: 101.5, Low: 99.25, Close: 101, Volume: 12.5, Amount: 1262.5},
		{Timestamp: start.Add(time.Hour), Open: 101, High: 102, Low: 100, Close: 100.5, Volume: 8},
	}
	path := DataFilePath(t.TempDir(), "bybit", "linear", "btcusdt", "1h")
	assert.True(t, strings.HasSuffix(filepath.ToSlash(path), "bybit/linear/BTCUSDT/60/candles.csv"))
	require.NoError(t, SaveCSV(path, bars))

	got, err := NewCSVProvider().LoadBars(path)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}
