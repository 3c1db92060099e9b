package backtest

import (
	"fmt"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// assessReliability grades the sample: low on a very short history or too
// few trades, medium when any caveat applies, otherwise high.
func assessReliability(bars []types.Bar, invalid, trades int, forced bool) Reliability {
	r := Reliability{
		Notes:       []string{},
		BarCount:    len(bars),
		InvalidBars: invalid,
		SampleDays:  sampleDays(bars),
		TradeCount:  trades,
		ForcedClose: forced,
	}

	if r.BarCount < 200 {
		r.Notes = append(r.Notes, fmt.Sprintf("only %d bars (fewer than 200)", r.BarCount))
	}
	if invalid > 0 {
		r.Notes = append(r.Notes, fmt.Sprintf("%d invalid bars dropped", invalid))
	}
	if r.SampleDays < 60 {
		r.Notes = append(r.Notes, fmt.Sprintf("sample spans %d days (fewer than 60)", r.SampleDays))
	}
	switch {
	case trades == 0:
		r.Notes = append(r.Notes, "no trades")
	case trades < 20:
		r.Notes = append(r.Notes, fmt.Sprintf("only %d trades (fewer than 20)", trades))
	}
	if forced {
		r.Notes = append(r.Notes, "open position force-closed at last close")
	}

	switch {
	case r.BarCount < 120 || r.SampleDays < 30 || trades < 5:
		r.Level = ReliabilityLow
	case len(r.Notes) > 0:
		r.Level = ReliabilityMedium
	default:
		r.Level = ReliabilityHigh
	}
	return r
}
