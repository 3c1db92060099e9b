package regime

import (
	"fmt"

	"github.com/ducminhle1904/strategy-lab/internal/indicators"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

const (
	// MinMarketBars is the history DetectMarket needs before it classifies.
	MinMarketBars = 60

	marketADXPeriod     = 14
	marketATRPeriod     = 14
	marketADXTrend      = 25.0
	marketHighVolATRPct = 3.5
)

// MarketInfo is the result of DetectMarket.
type MarketInfo struct {
	Regime MarketRegime `json:"regime"`
	ADX    float64      `json:"adx"`
	ATRPct float64      `json:"atr_pct"`
	EMA20  float64      `json:"ema20"`
	EMA50  float64      `json:"ema50"`
	Close  float64      `json:"close"`
	Reason string       `json:"reason"`
}

// DetectMarket classifies the last bar from price alone: high ATR% first,
// then ADX-confirmed trend direction from the EMA20/EMA50 stack, otherwise
// range.
func DetectMarket(bars []types.Bar) MarketInfo {
	if len(bars) < MinMarketBars {
		return MarketInfo{
			Regime: MarketUncertain,
			Reason: fmt.Sprintf("need %d bars, have %d", MinMarketBars, len(bars)),
		}
	}

	closes := indicators.Closes(bars)
	info := MarketInfo{
		ADX:    indicators.Last(indicators.ADX(bars, marketADXPeriod).ADX),
		ATRPct: indicators.Last(indicators.ATRPercent(bars, marketATRPeriod)),
		EMA20:  indicators.Last(indicators.EMA(closes, 20)),
		EMA50:  indicators.Last(indicators.EMA(closes, 50)),
		Close:  indicators.Last(closes),
	}
	if !indicators.AllFinite(info.ADX, info.ATRPct, info.EMA20, info.EMA50, info.Close) {
		info.Regime = MarketUncertain
		info.Reason = "indicators unavailable"
		return info
	}

	switch {
	case info.ATRPct > marketHighVolATRPct:
		info.Regime = MarketHighVol
		info.Reason = fmt.Sprintf("ATR%% %.2f above %.1f", info.ATRPct, marketHighVolATRPct)
	case info.ADX > marketADXTrend && info.EMA20 > info.EMA50 && info.Close > info.EMA20:
		info.Regime = MarketTrendUp
		info.Reason = fmt.Sprintf("ADX %.1f with EMA20 > EMA50 and close above EMA20", info.ADX)
	case info.ADX > marketADXTrend && info.EMA20 < info.EMA50 && info.Close < info.EMA20:
		info.Regime = MarketTrendDown
		info.Reason = fmt.Sprintf("ADX %.1f with EMA20 < EMA50 and close below EMA20", info.ADX)
	case info.ADX > marketADXTrend:
		info.Regime = MarketHighVol
		info.Reason = fmt.Sprintf("ADX %.1f but moving averages disagree with price", info.ADX)
	default:
		info.Regime = MarketRange
		info.Reason = fmt.Sprintf("ADX %.1f at or below %.0f", info.ADX, marketADXTrend)
	}
	return info
}
