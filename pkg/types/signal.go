package types

// Side is the direction of a strategy signal.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// StrategySignal is a BUY or SELL observed at the close of BarIndex.
type StrategySignal struct {
	BarIndex int    `json:"bar_index"`
	Side     Side   `json:"side"`
	Reason   string `json:"reason"`
}
