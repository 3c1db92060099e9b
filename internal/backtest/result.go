package backtest

import (
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/strategy"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// ExitReason says why a closing fill happened.
type ExitReason string

const (
	ExitSignal ExitReason = "Signal"
	ExitStop   ExitReason = "Stop"
	ExitTrail  ExitReason = "Trail"
	ExitTake   ExitReason = "Take"
	ExitTime   ExitReason = "Time"
	ExitDDStop ExitReason = "DdStop"
	ExitForce  ExitReason = "Force"
)

// Trade is one closing fill, or the still-open position at the end of the
// sample when Open is set.
type Trade struct {
	EntryIndex int        `json:"entry_index"`
	ExitIndex  int        `json:"exit_index"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"` // average fill price
	ExitPrice  float64    `json:"exit_price"`
	PnL        float64    `json:"pnl"`
	PnLPct     float64    `json:"pnl_pct"`
	BarsHeld   int        `json:"bars_held"`
	Open       bool       `json:"open"`
	ExitReason ExitReason `json:"exit_reason,omitempty"`
	EntryFills int        `json:"entry_fills"`
	Lots       float64    `json:"lots"`
	Shares     float64    `json:"shares"`
	AvgCost    float64    `json:"avg_cost"` // per share, fees included
}

// EquityPoint is the marked-to-close equity after a bar.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// MonthlyReturn is the equity change over one calendar month.
type MonthlyReturn struct {
	Month     string  `json:"month"` // YYYY-MM
	ReturnPct float64 `json:"return_pct"`
}

// Metrics are the post-run statistics. Ratios that are undefined for the
// sample are null rather than zero.
type Metrics struct {
	NetProfit      float64 `json:"net_profit"`
	NetProfitPct   float64 `json:"net_profit_pct"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	TotalFees      float64 `json:"total_fees"`

	TradeCount      int            `json:"trade_count"`
	OpenTradeCount  int            `json:"open_trade_count"`
	WinCount        int            `json:"win_count"`
	LossCount       int            `json:"loss_count"`
	WinRate         float64        `json:"win_rate"`
	ProfitFactor    types.OptFloat `json:"profit_factor"`
	AvgTradePct     float64        `json:"avg_trade_pct"`
	AvgWinPct       float64        `json:"avg_win_pct"`
	AvgLossPct      float64        `json:"avg_loss_pct"`
	ExpectancyPct   float64        `json:"expectancy_pct"`
	AvgBarsHeld     float64        `json:"avg_bars_held"`
	MaxBarsHeld     int            `json:"max_bars_held"`
	MaxConsecWins   int            `json:"max_consec_wins"`
	MaxConsecLosses int            `json:"max_consec_losses"`
	ScaleOuts       int            `json:"scale_outs"`
	Adds            int            `json:"adds"`

	BuyHoldReturnPct   float64 `json:"buy_hold_return_pct"`
	BuyHoldFinalEquity float64 `json:"buy_hold_final_equity"`
	ExcessReturnPct    float64 `json:"excess_return_pct"`
	ExposurePct        float64 `json:"exposure_pct"`

	CAGR           types.OptFloat `json:"cagr"`
	Volatility     types.OptFloat `json:"volatility"`
	Sharpe         types.OptFloat `json:"sharpe"`
	Sortino        types.OptFloat `json:"sortino"`
	Calmar         types.OptFloat `json:"calmar"`
	UlcerIndex     float64        `json:"ulcer_index"`
	RecoveryFactor types.OptFloat `json:"recovery_factor"`

	MaxDDDurationDays int        `json:"max_dd_duration_days"`
	MaxDDStart        *time.Time `json:"max_dd_start,omitempty"`
	MaxDDEnd          *time.Time `json:"max_dd_end,omitempty"`

	MonthlyReturns []MonthlyReturn `json:"monthly_returns"`
}

// Reliability level values.
const (
	ReliabilityLow    = "low"
	ReliabilityMedium = "medium"
	ReliabilityHigh   = "high"
)

// Reliability describes how far the sample can be trusted.
type Reliability struct {
	Level       string   `json:"level"`
	Notes       []string `json:"notes"`
	BarCount    int      `json:"bar_count"`
	InvalidBars int      `json:"invalid_bars"`
	SampleDays  int      `json:"sample_days"`
	TradeCount  int      `json:"trade_count"`
	ForcedClose bool     `json:"forced_close"`
}

// Result is the full backtest output. It is always fully shaped: error paths
// carry empty slices and zero metrics, never nil.
type Result struct {
	OK               bool            `json:"ok"`
	Error            string          `json:"error,omitempty"`
	Strategy         strategy.Key    `json:"strategy"`
	InitialCapital   float64         `json:"initial_capital"`
	FinalEquity      float64         `json:"final_equity"`
	SignalCount      int             `json:"signal_count"`
	Trades           []Trade         `json:"trades"`
	EquityCurve      []EquityPoint   `json:"equity_curve"`
	DrawdownPctCurve []float64       `json:"drawdown_pct_curve"`
	Metrics          Metrics         `json:"metrics"`
	Reliability      Reliability     `json:"reliability"`
	Config           Config          `json:"config"`
	Params           strategy.Params `json:"params"`
}

// newResult builds a zeroed, fully shaped result.
func newResult(key strategy.Key, capital float64, cfg Config, params strategy.Params) *Result {
	return &Result{
		Strategy:         key,
		InitialCapital:   capital,
		Trades:           []Trade{},
		EquityCurve:      []EquityPoint{},
		DrawdownPctCurve: []float64{},
		Metrics: Metrics{
			MonthlyReturns: []MonthlyReturn{},
		},
		Reliability: Reliability{
			Level: ReliabilityLow,
			Notes: []string{},
		},
		Config: cfg,
		Params: params,
	}
}

// failed returns a zeroed result carrying msg.
func failed(key strategy.Key, capital float64, cfg Config, params strategy.Params, msg string) *Result {
	r := newResult(key, capital, cfg, params)
	r.Error = msg
	r.Reliability.Notes = append(r.Reliability.Notes, msg)
	return r
}

// ClosedTrades returns the trades that are not the open end-of-sample position.
func (r *Result) ClosedTrades() []Trade {
	out := make([]Trade, 0, len(r.Trades))
	for _, t := range r.Trades {
		if !t.Open {
			out = append(out, t)
		}
	}
	return out
}
