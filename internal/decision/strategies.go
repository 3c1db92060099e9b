package decision

import (
	"fmt"

	"github.com/ducminhle1904/strategy-lab/internal/indicators"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// Strategy names reported on decisions.
const (
	StrategyTSMOM         = "TSMOM"
	StrategyRiskOff       = "RiskOff"
	StrategyMeanReversion = "MeanReversion"
)

// Signal is a leaf strategy's output before guards.
type Signal struct {
	Strategy    string  `json:"strategy"`
	Action      Action  `json:"action"`
	PositionCap float64 `json:"position_cap"`
	Reason      string  `json:"reason"`
}

// Dispatch runs the leaf strategy for r over bars. position is the caller's
// current exposure as a fraction of a full allocation.
func Dispatch(r regime.Regime, bars []types.Bar, position float64, p Params) Signal {
	switch r {
	case regime.RegimeTrend:
		return TSMOM(bars, p)
	case regime.RegimePanic:
		return RiskOff(position, p)
	case regime.RegimeRange:
		return MeanReversion(bars, p)
	default:
		return Signal{Strategy: StrategyRiskOff, Action: ActionHold, Reason: fmt.Sprintf("no strategy for regime %q", r)}
	}
}

// TSMOM follows the sign of the lookback return.
func TSMOM(bars []types.Bar, p Params) Signal {
	s := Signal{Strategy: StrategyTSMOM, Action: ActionHold, PositionCap: p.TrendPositionCap}
	n := len(bars)
	if n <= p.TSMOMLookback {
		s.Reason = fmt.Sprintf("tsmom needs %d bars, have %d", p.TSMOMLookback+1, n)
		return s
	}
	from := bars[n-1-p.TSMOMLookback].Close
	ret := (bars[n-1].Close/from - 1) * 100
	switch {
	case ret > p.TSMOMThreshold:
		s.Action = ActionBuy
	case ret < -p.TSMOMThreshold:
		s.Action = ActionSell
	}
	s.Reason = fmt.Sprintf("%d-bar return %.2f%% (threshold %.2f%%)", p.TSMOMLookback, ret, p.TSMOMThreshold)
	return s
}

// RiskOff sells down to the panic cap.
func RiskOff(position float64, p Params) Signal {
	s := Signal{Strategy: StrategyRiskOff, Action: ActionHold, PositionCap: p.PanicPositionCap}
	if position > p.PanicPositionCap {
		s.Action = ActionSell
		s.Reason = fmt.Sprintf("cut exposure %.2f to cap %.2f", position, p.PanicPositionCap)
		return s
	}
	s.Reason = "exposure already within panic cap"
	return s
}

// MeanReversion buys below the lower Bollinger band and sells above the
// upper one.
func MeanReversion(bars []types.Bar, p Params) Signal {
	s := Signal{Strategy: StrategyMeanReversion, Action: ActionHold, PositionCap: p.RangePositionCap}
	bb := indicators.Bollinger(indicators.Closes(bars), p.MeanRevPeriod, p.MeanRevStdDev)
	last := len(bars) - 1
	if last < 0 || !indicators.AllFinite(bb.Upper[last], bb.Lower[last]) {
		s.Reason = fmt.Sprintf("bollinger needs %d bars, have %d", p.MeanRevPeriod, len(bars))
		return s
	}
	c, upper, lower := bars[last].Close, bb.Upper[last], bb.Lower[last]
	switch {
	case c < lower:
		s.Action = ActionBuy
		s.Reason = fmt.Sprintf("close %.4g below lower band %.4g", c, lower)
	case c > upper:
		s.Action = ActionSell
		s.Reason = fmt.Sprintf("close %.4g above upper band %.4g", c, upper)
	default:
		s.Reason = fmt.Sprintf("close %.4g inside bands", c)
	}
	return s
}
