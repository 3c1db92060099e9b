package optimization

import (
	"github.com/ducminhle1904/strategy-lab/internal/decision"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// Objective constants.
const (
	ddWeight        = 0.7
	tradeCost       = 0.001
	maxAllowedDD    = 0.25
	ddFailScore     = -999
	tradeCountScore = 0.2
	minTrades       = 3
	maxTrades       = 500
)

// Metrics are the simplified backtest totals. Returns and drawdown are
// fractions of starting equity.
type Metrics struct {
	NetReturn   float64 `json:"net_return"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Trades      int     `json:"trades"`
	Bars        int     `json:"bars"`
}

// Objective scores metrics: net return less drawdown and trade costs.
func Objective(m Metrics) float64 {
	if m.MaxDrawdown > maxAllowedDD {
		return ddFailScore
	}
	score := m.NetReturn - ddWeight*m.MaxDrawdown - tradeCost*float64(m.Trades)
	if m.Trades < minTrades || m.Trades > maxTrades {
		score -= tradeCountScore
	}
	return score
}

// Simulate replays the decision regime and leaf strategies over bars from
// startBar on. Each step classifies the trailing window, moves the position
// to the signal's target and compounds equity by the position held over the
// next bar. The position never exceeds the current regime's cap.
func Simulate(bars []types.Bar, p decision.Params, startBar, window int) Metrics {
	var m Metrics
	if startBar < 1 || len(bars) <= startBar {
		return m
	}

	detector := regime.NewDetector(p.Regime)
	h := regime.NewHysteresis("")
	equity, peak, position := 1.0, 1.0, 0.0

	for i := startBar; i < len(bars); i++ {
		if i > startBar && position > 0 {
			ret := bars[i].Close/bars[i-1].Close - 1
			equity *= 1 + position*ret
			if equity > peak {
				peak = equity
			}
			if dd := (peak - equity) / peak; dd > m.MaxDrawdown {
				m.MaxDrawdown = dd
			}
		}
		m.Bars++

		win := bars[max(0, i+1-window) : i+1]
		info := detector.Classify(regime.Input{Bars: win, Now: bars[i].Timestamp}, h)
		limit := p.PositionCap(info.Regime)
		sig := decision.Dispatch(info.Regime, win, position, p)

		target := min(position, limit)
		switch sig.Action {
		case decision.ActionBuy:
			target = limit
		case decision.ActionSell:
			target = 0
		}
		if target != position {
			m.Trades++
			position = target
		}
	}
	m.NetReturn = equity - 1
	return m
}
