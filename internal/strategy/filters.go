package strategy

import (
	"github.com/ducminhle1904/strategy-lab/internal/indicators"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// filterGate evaluates the BUY entry filters at a given bar. Series are
// computed once per Signals call.
type filterGate struct {
	cfg     FilterParams
	closes  []float64
	volumes []float64
	trend   []float64
	volSMA  []float64
	adx     []float64
	atrPct  []float64
	lastBuy int
}

func newFilterGate(bars []types.Bar, cfg FilterParams) *filterGate {
	g := &filterGate{
		cfg:     cfg,
		closes:  indicators.Closes(bars),
		volumes: indicators.Volumes(bars),
		lastBuy: -1,
	}
	if cfg.TrendEnabled || cfg.SlopeEnabled {
		g.trend = indicators.EMA(g.closes, cfg.TrendEMA)
	}
	if cfg.VolumeEnabled || cfg.BurstEnabled {
		g.volSMA = indicators.SMA(g.volumes, cfg.VolumePeriod)
	}
	if cfg.ADXEnabled {
		g.adx = indicators.ADX(bars, cfg.ADXPeriod).ADX
	}
	if cfg.ATREnabled {
		g.atrPct = indicators.ATRPercent(bars, cfg.ATRPeriod)
	}
	return g
}

// allow reports whether a BUY at bar i passes every enabled filter and, if
// so, records it as the last accepted BUY.
func (g *filterGate) allow(i int) bool {
	if !g.check(i) {
		return false
	}
	g.lastBuy = i
	return true
}

func (g *filterGate) check(i int) bool {
	cfg := g.cfg

	if cfg.TrendEnabled {
		if !indicators.AllFinite(g.trend[i]) || g.closes[i] <= g.trend[i] {
			return false
		}
	}
	if cfg.SlopeEnabled {
		j := i - cfg.SlopeLookback
		if j < 0 || !indicators.AllFinite(g.trend[i], g.trend[j]) || g.trend[i] <= g.trend[j] {
			return false
		}
	}
	if cfg.VolumeEnabled || cfg.BurstEnabled {
		avg := g.volSMA[i]
		if !indicators.AllFinite(avg, g.volumes[i]) || avg <= 0 {
			return false
		}
		if cfg.VolumeEnabled && g.volumes[i] < avg*cfg.VolumeFloorPct/100 {
			return false
		}
		if cfg.BurstEnabled && g.volumes[i] < avg*cfg.BurstMult {
			return false
		}
	}
	if cfg.ADXEnabled {
		if !indicators.AllFinite(g.adx[i]) || g.adx[i] < cfg.ADXMin {
			return false
		}
	}
	if cfg.ATREnabled {
		v := g.atrPct[i]
		if !indicators.AllFinite(v) || v < cfg.ATRPctMin || v > cfg.ATRPctMax {
			return false
		}
	}
	if cfg.GapEnabled && g.lastBuy >= 0 && i-g.lastBuy < cfg.MinBarGap {
		return false
	}
	return true
}
