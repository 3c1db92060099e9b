package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// WriteCSV writes bars in the layout CSVProvider reads, with the amount
// column as turnover.
func WriteCSV(w io.Writer, bars []types.Bar) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"timestamp", "open", "high", "low", "close", "volume", "turnover"}); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, b := range bars {
		record := []string{
			b.Timestamp.UTC().Format(DefaultCSVFormat.DateFormat),
			format(b.Open),
			format(b.High),
			format(b.Low),
			format(b.Close),
			format(b.Volume),
			format(b.Amount),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes bars to path, creating the parent directory.
func SaveCSV(path string, bars []types.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, bars); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
