// Package strategy turns bars and parameters into BUY/SELL crossing signals
// for the built-in strategy set.
package strategy

import (
	"fmt"

	"github.com/ducminhle1904/strategy-lab/internal/indicators"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// crossLines holds the two series compared for each side. BUY fires when
// buyA crosses above buyB, SELL when sellA crosses below sellB.
type crossLines struct {
	buyA, buyB   []float64
	sellA, sellB []float64
	buyWhy       string
	sellWhy      string
}

// Signals returns the ordered signal list for key over bars. A signal at
// BarIndex i means the crossing was observed at the close of bar i; the
// simulator fills it at the open of bar i+1. Within one bar SELL precedes BUY.
func Signals(key Key, bars []types.Bar, p Params) []types.StrategySignal {
	out := []types.StrategySignal{}
	if key == KeyNone || len(bars) < 2 {
		return out
	}
	lines, ok := deriveLines(key, bars, p)
	if !ok {
		return out
	}

	var gate *filterGate
	if key.Filterable() && p.Filter.AnyEnabled() {
		gate = newFilterGate(bars, p.Filter)
	}

	for i := 1; i < len(bars); i++ {
		if crossedDown(lines.sellA, lines.sellB, i) {
			out = append(out, types.StrategySignal{BarIndex: i, Side: types.SideSell, Reason: lines.sellWhy})
		}
		if crossedUp(lines.buyA, lines.buyB, i) {
			if gate != nil && !gate.allow(i) {
				continue
			}
			out = append(out, types.StrategySignal{BarIndex: i, Side: types.SideBuy, Reason: lines.buyWhy})
		}
	}
	return out
}

// crossedUp: prevA <= prevB and curA > curB, all four finite.
func crossedUp(a, b []float64, i int) bool {
	if !indicators.AllFinite(a[i-1], b[i-1], a[i], b[i]) {
		return false
	}
	return a[i-1] <= b[i-1] && a[i] > b[i]
}

// crossedDown: prevA >= prevB and curA < curB, all four finite.
func crossedDown(a, b []float64, i int) bool {
	if !indicators.AllFinite(a[i-1], b[i-1], a[i], b[i]) {
		return false
	}
	return a[i-1] >= b[i-1] && a[i] < b[i]
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func offsetBand(base, width []float64, mult float64) []float64 {
	out := make([]float64, len(base))
	for i := range base {
		out[i] = base[i] + mult*width[i]
	}
	return out
}

func deriveLines(key Key, bars []types.Bar, p Params) (crossLines, bool) {
	n := len(bars)
	closes := indicators.Closes(bars)

	switch key {
	case KeyMACross:
		fast := indicators.SMA(closes, p.MAFast)
		slow := indicators.SMA(closes, p.MASlow)
		return crossLines{
			buyA: fast, buyB: slow, sellA: fast, sellB: slow,
			buyWhy:  fmt.Sprintf("SMA%d crossed above SMA%d", p.MAFast, p.MASlow),
			sellWhy: fmt.Sprintf("SMA%d crossed below SMA%d", p.MAFast, p.MASlow),
		}, true

	case KeyEMATrend:
		fast := indicators.EMA(closes, p.EMAFast)
		slow := indicators.EMA(closes, p.EMASlow)
		return crossLines{
			buyA: fast, buyB: slow, sellA: fast, sellB: slow,
			buyWhy:  fmt.Sprintf("EMA%d crossed above EMA%d", p.EMAFast, p.EMASlow),
			sellWhy: fmt.Sprintf("EMA%d crossed below EMA%d", p.EMAFast, p.EMASlow),
		}, true

	case KeyMACDCross:
		m := indicators.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
		return crossLines{
			buyA: m.Line, buyB: m.Signal, sellA: m.Line, sellB: m.Signal,
			buyWhy:  "MACD crossed above signal",
			sellWhy: "MACD crossed below signal",
		}, true

	case KeyRSIReversion:
		rsi := indicators.RSI(closes, p.RSIPeriod)
		return crossLines{
			buyA: rsi, buyB: constant(n, p.RSIOversold),
			sellA: rsi, sellB: constant(n, p.RSIOverbought),
			buyWhy:  fmt.Sprintf("RSI recovered above %.0f", p.RSIOversold),
			sellWhy: fmt.Sprintf("RSI fell back below %.0f", p.RSIOverbought),
		}, true

	case KeyRSIMomentum:
		rsi := indicators.RSI(closes, p.RSIPeriod)
		return crossLines{
			buyA: rsi, buyB: constant(n, p.RSIMomentumEntry),
			sellA: rsi, sellB: constant(n, p.RSIMomentumExit),
			buyWhy:  fmt.Sprintf("RSI momentum above %.0f", p.RSIMomentumEntry),
			sellWhy: fmt.Sprintf("RSI momentum below %.0f", p.RSIMomentumExit),
		}, true

	case KeyBollBreakout:
		bb := indicators.Bollinger(closes, p.BollPeriod, p.BollMult)
		return crossLines{
			buyA: closes, buyB: bb.Upper, sellA: closes, sellB: bb.Mid,
			buyWhy:  "close broke above upper band",
			sellWhy: "close fell below middle band",
		}, true

	case KeyBollReversion:
		bb := indicators.Bollinger(closes, p.BollPeriod, p.BollMult)
		return crossLines{
			buyA: closes, buyB: bb.Lower, sellA: closes, sellB: bb.Upper,
			buyWhy:  "close re-entered above lower band",
			sellWhy: "close re-entered below upper band",
		}, true

	case KeyChannelBreakout:
		upper := indicators.Shift(indicators.RollingMax(closes, p.ChannelPeriod), 1)
		lower := indicators.Shift(indicators.RollingMin(closes, p.ChannelPeriod), 1)
		return crossLines{
			buyA: closes, buyB: upper, sellA: closes, sellB: lower,
			buyWhy:  fmt.Sprintf("close above %d-bar closing high", p.ChannelPeriod),
			sellWhy: fmt.Sprintf("close below %d-bar closing low", p.ChannelPeriod),
		}, true

	case KeySuperTrend:
		st := indicators.SuperTrend(bars, p.SuperTrendPeriod, p.SuperTrendMult)
		zero := constant(n, 0)
		return crossLines{
			buyA: st.Direction, buyB: zero, sellA: st.Direction, sellB: zero,
			buyWhy:  "SuperTrend flipped up",
			sellWhy: "SuperTrend flipped down",
		}, true

	case KeyATRBreakout:
		base := indicators.EMA(closes, p.ATRBreakoutBase)
		atr := indicators.ATR(bars, p.ATRPeriod)
		return crossLines{
			buyA: closes, buyB: offsetBand(base, atr, p.ATRBreakoutMult),
			sellA: closes, sellB: offsetBand(base, atr, -p.ATRBreakoutMult),
			buyWhy:  fmt.Sprintf("close above EMA%d + %.1f ATR", p.ATRBreakoutBase, p.ATRBreakoutMult),
			sellWhy: fmt.Sprintf("close below EMA%d - %.1f ATR", p.ATRBreakoutBase, p.ATRBreakoutMult),
		}, true

	case KeyDonchian:
		ch := indicators.Donchian(bars, p.DonchianPeriod)
		return crossLines{
			buyA: closes, buyB: ch.Upper, sellA: closes, sellB: ch.Lower,
			buyWhy:  fmt.Sprintf("close above %d-bar Donchian high", p.DonchianPeriod),
			sellWhy: fmt.Sprintf("close below %d-bar Donchian low", p.DonchianPeriod),
		}, true

	case KeyTurtle:
		entry := indicators.Donchian(bars, p.TurtleEntry)
		exit := indicators.Donchian(bars, p.TurtleExit)
		return crossLines{
			buyA: closes, buyB: entry.Upper, sellA: closes, sellB: exit.Lower,
			buyWhy:  fmt.Sprintf("turtle entry: %d-bar high", p.TurtleEntry),
			sellWhy: fmt.Sprintf("turtle exit: %d-bar low", p.TurtleExit),
		}, true

	case KeyIchimoku:
		ich := indicators.Ichimoku(bars, p.IchimokuConversion, p.IchimokuBase, p.IchimokuSpanB)
		return crossLines{
			buyA: closes, buyB: ich.CloudTop(), sellA: closes, sellB: ich.CloudBottom(),
			buyWhy:  "close broke above cloud",
			sellWhy: "close broke below cloud",
		}, true

	case KeyKDJCross:
		kdj := indicators.KDJ(bars, p.KDJPeriod, p.KDJSmooth)
		return crossLines{
			buyA: kdj.K, buyB: kdj.D, sellA: kdj.K, sellB: kdj.D,
			buyWhy:  "K crossed above D",
			sellWhy: "K crossed below D",
		}, true

	case KeyNone:
		return crossLines{}, false
	}
	return crossLines{}, false
}
