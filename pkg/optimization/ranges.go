package optimization

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ducminhle1904/strategy-lab/internal/decision"
)

// Range is a closed sampling interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Ranges maps a parameter name to its sampling interval. Names not present
// keep the base value.
type Ranges map[string]Range

// paramSetters are the tunable decision parameters by name.
var paramSetters = map[string]func(p *decision.Params, v float64){
	"w_trend":               func(p *decision.Params, v float64) { p.Regime.WTrend = v },
	"w_range":               func(p *decision.Params, v float64) { p.Regime.WRange = v },
	"w_panic":               func(p *decision.Params, v float64) { p.Regime.WPanic = v },
	"w_news":                func(p *decision.Params, v float64) { p.Regime.WNews = v },
	"w_realtime":            func(p *decision.Params, v float64) { p.Regime.WRealtime = v },
	"trend_slope_threshold": func(p *decision.Params, v float64) { p.Regime.TrendSlopeThreshold = v },
	"panic_atr_threshold":   func(p *decision.Params, v float64) { p.Regime.PanicATRThreshold = v },
	"panic_dd_threshold":    func(p *decision.Params, v float64) { p.Regime.PanicDDThreshold = v },
	"panic_vol_threshold":   func(p *decision.Params, v float64) { p.Regime.PanicVolThreshold = v },
	"tsmom_lookback":        func(p *decision.Params, v float64) { p.TSMOMLookback = int(math.Round(v)) },
	"tsmom_threshold":       func(p *decision.Params, v float64) { p.TSMOMThreshold = v },
	"meanrev_stddev":        func(p *decision.Params, v float64) { p.MeanRevStdDev = v },
	"trend_position_cap":    func(p *decision.Params, v float64) { p.TrendPositionCap = v },
	"range_position_cap":    func(p *decision.Params, v float64) { p.RangePositionCap = v },
}

// DefaultRanges returns the default search space over weights, thresholds
// and position caps.
func DefaultRanges() Ranges {
	return Ranges{
		"w_trend":               {Min: 0.6, Max: 1.4},
		"w_range":               {Min: 0.5, Max: 1.1},
		"w_panic":               {Min: 0.8, Max: 1.6},
		"trend_slope_threshold": {Min: 0.2, Max: 1.0},
		"panic_atr_threshold":   {Min: 2.0, Max: 5.0},
		"panic_dd_threshold":    {Min: 5, Max: 12},
		"tsmom_lookback":        {Min: 10, Max: 40},
		"tsmom_threshold":       {Min: 0.5, Max: 3.0},
		"meanrev_stddev":        {Min: 1.5, Max: 2.5},
		"trend_position_cap":    {Min: 0.5, Max: 1.0},
		"range_position_cap":    {Min: 0.2, Max: 0.8},
	}
}

// Validate rejects unknown names and inverted intervals.
func (r Ranges) Validate() error {
	for _, name := range r.names() {
		rg := r[name]
		if _, ok := paramSetters[name]; !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		if math.IsNaN(rg.Min) || math.IsNaN(rg.Max) || rg.Min > rg.Max {
			return fmt.Errorf("parameter %q: invalid range [%g, %g]", name, rg.Min, rg.Max)
		}
	}
	return nil
}

// names returns the range names sorted, so sampling order is stable.
func (r Ranges) names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sample draws one uniform value per range on top of base.
func (r Ranges) sample(base decision.Params, rng *rand.Rand) decision.Params {
	p := base
	for _, name := range r.names() {
		rg := r[name]
		paramSetters[name](&p, rg.Min+rng.Float64()*(rg.Max-rg.Min))
	}
	return p
}
