package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/rs/zerolog"
)

// fallback timestamp layouts tried after the mapping's DateFormat
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// header names recognised per column
var headerAliases = map[string][]string{
	"timestamp": {"timestamp", "time", "date", "datetime", "open_time", "start_time"},
	"open":      {"open"},
	"high":      {"high"},
	"low":       {"low"},
	"close":     {"close"},
	"volume":    {"volume", "vol"},
	"amount":    {"amount", "turnover", "quote_volume", "value"},
}

// CSVProvider loads bars from CSV files. A header row naming the columns
// overrides the positional format; the amount column is optional.
type CSVProvider struct {
	format CSVColumnMapping
	logger zerolog.Logger
}

// NewCSVProvider creates a CSV provider with the default format.
func NewCSVProvider() *CSVProvider {
	return NewCSVProviderWithFormat(DefaultCSVFormat)
}

// NewCSVProviderWithFormat creates a CSV provider with a custom format.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for skipped rows.
func (p *CSVProvider) WithLogger(l zerolog.Logger) *CSVProvider {
	p.logger = l.With().Str("component", "csv").Logger()
	return p
}

// Name returns the provider name.
func (p *CSVProvider) Name() string {
	return "csv"
}

// LoadBars reads the file at path. Rows that cannot be parsed are skipped
// and logged; bars are returned sorted by time without duplicates.
func (p *CSVProvider) LoadBars(path string) ([]types.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, engineerrors.WrapError(err, engineerrors.ErrorCategoryData, "csv", "open "+path)
	}
	defer file.Close()

	bars, err := p.ReadBars(file)
	if err != nil {
		return nil, engineerrors.WrapError(err, engineerrors.ErrorCategoryData, "csv", "read "+path)
	}
	return bars, nil
}

// ReadBars parses CSV rows from r.
func (p *CSVProvider) ReadBars(r io.Reader) ([]types.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, err
	}

	format := p.format
	var pending [][]string
	if mapped, ok := mappingFromHeader(first, format); ok {
		format = mapped
	} else if _, tsErr := parseTimestamp(first[min(format.TimestampCol, len(first)-1)], format.DateFormat); tsErr == nil {
		pending = append(pending, first)
	}

	var bars []types.Bar
	skipped := 0
	lineNum := 1
	for {
		var record []string
		if len(pending) > 0 {
			record, pending = pending[0], pending[1:]
		} else {
			record, err = reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum+1, err)
			}
			lineNum++
		}

		bar, err := parseRecord(record, format)
		if err != nil {
			skipped++
			p.logger.Debug().Int("line", lineNum).Err(err).Msg("row skipped")
			continue
		}
		bars = append(bars, bar)
	}
	if skipped > 0 {
		p.logger.Warn().Int("skipped", skipped).Int("loaded", len(bars)).Msg("csv rows skipped")
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no valid rows")
	}
	return RemoveDuplicates(SortByTimestamp(bars)), nil
}

// mappingFromHeader builds a mapping from a named header row.
func mappingFromHeader(header []string, base CSVColumnMapping) (CSVColumnMapping, bool) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	find := func(col string) int {
		for _, alias := range headerAliases[col] {
			if i, ok := index[alias]; ok {
				return i
			}
		}
		return -1
	}

	m := base
	m.TimestampCol = find("timestamp")
	m.OpenCol = find("open")
	m.HighCol = find("high")
	m.LowCol = find("low")
	m.CloseCol = find("close")
	m.VolumeCol = find("volume")
	m.AmountCol = find("amount")
	for _, c := range []int{m.TimestampCol, m.OpenCol, m.HighCol, m.LowCol, m.CloseCol, m.VolumeCol} {
		if c < 0 {
			return base, false
		}
	}
	m.MinColumns = max(m.TimestampCol, m.OpenCol, m.HighCol, m.LowCol, m.CloseCol, m.VolumeCol) + 1
	return m, true
}

func parseRecord(record []string, f CSVColumnMapping) (types.Bar, error) {
	if len(record) < f.MinColumns {
		return types.Bar{}, fmt.Errorf("expected %d columns, got %d", f.MinColumns, len(record))
	}
	ts, err := parseTimestamp(record[f.TimestampCol], f.DateFormat)
	if err != nil {
		return types.Bar{}, err
	}

	var vals [5]float64
	for i, col := range []int{f.OpenCol, f.HighCol, f.LowCol, f.CloseCol, f.VolumeCol} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return types.Bar{}, fmt.Errorf("column %d: %w", col, err)
		}
		vals[i] = v
	}
	bar := types.Bar{Timestamp: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}

	if f.AmountCol >= 0 && f.AmountCol < len(record) {
		if s := strings.TrimSpace(record[f.AmountCol]); s != "" {
			amount, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return types.Bar{}, fmt.Errorf("amount: %w", err)
			}
			bar.Amount = amount
		}
	}

	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		return types.Bar{}, fmt.Errorf("non-positive price")
	}
	if bar.High < bar.Low || bar.High < max(bar.Open, bar.Close) || bar.Low > min(bar.Open, bar.Close) {
		return types.Bar{}, fmt.Errorf("high/low out of range")
	}
	return bar, nil
}

// parseTimestamp accepts the configured layout, common date layouts and
// Unix seconds or milliseconds.
func parseTimestamp(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	layouts := timestampLayouts
	if layout != "" {
		layouts = append([]string{layout}, timestampLayouts...)
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
