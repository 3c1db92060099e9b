// Package data loads historical bars from CSV files.
package data

import (
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// BarProvider loads bars from a source such as a file path.
type BarProvider interface {
	Name() string
	LoadBars(source string) ([]types.Bar, error)
}

// BarCache caches loaded bars by source.
type BarCache interface {
	Get(key string) ([]types.Bar, bool)
	Set(key string, bars []types.Bar)
	Clear()
	Size() int
}

// CSVColumnMapping defines column positions for a headerless or
// positional CSV. AmountCol < 0 means the file has no amount column.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	AmountCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat is timestamp,open,high,low,close,volume[,amount].
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	AmountCol:    6,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}
