// Package backtest simulates a strategy's signals against bars with
// next-open execution, fees, slippage, position sizing and a risk overlay.
package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/indicators"
	"github.com/ducminhle1904/strategy-lab/internal/monitoring"
	"github.com/ducminhle1904/strategy-lab/internal/strategy"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/rs/zerolog"
)

// MinBars is the shortest sample the simulator accepts.
const MinBars = 5

// Simulator runs backtests. The zero value is not usable; use NewSimulator.
type Simulator struct {
	logger zerolog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger attaches a logger for fills and run summaries.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Simulator) {
		s.logger = l.With().Str("component", "backtest").Logger()
	}
}

// NewSimulator creates a simulator.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSimulator = NewSimulator()

// Run backtests key over bars with the default simulator.
func Run(key strategy.Key, bars []types.Bar, capital float64, cfg Config, params strategy.Params) *Result {
	return defaultSimulator.Run(key, bars, capital, cfg, params)
}

// Run backtests key over bars. It never panics or returns nil; invalid input
// yields a result with OK false and Error set.
func (s *Simulator) Run(key strategy.Key, bars []types.Bar, capital float64, cfg Config, params strategy.Params) *Result {
	start := time.Now()
	res := s.run(key, bars, capital, cfg, params)
	monitoring.ObserveBacktest(string(key), res.OK, time.Since(start))

	if !res.OK {
		s.logger.Debug().Str("strategy", string(key)).Str("reason", res.Error).Msg("backtest rejected")
		return res
	}
	s.logger.Debug().
		Str("strategy", string(key)).
		Int("bars", len(res.EquityCurve)).
		Int("trades", res.Metrics.TradeCount).
		Float64("net_profit_pct", res.Metrics.NetProfitPct).
		Msg("backtest complete")
	return res
}

func (s *Simulator) run(key strategy.Key, bars []types.Bar, capital float64, cfg Config, params strategy.Params) *Result {
	if !indicators.IsFinite(capital) || capital <= 0 {
		return failed(key, 0, cfg, params, "invalid initial capital")
	}
	if len(bars) == 0 || key == strategy.KeyNone {
		return failed(key, capital, cfg, params, "no strategy")
	}
	if !key.Valid() {
		return failed(key, capital, cfg, params, fmt.Sprintf("no strategy: unknown key %q", key))
	}
	clean, dropped := types.CleanBars(bars)
	if len(clean) < MinBars {
		r := failed(key, capital, cfg, params, "insufficient data")
		r.Reliability.BarCount = len(clean)
		r.Reliability.InvalidBars = dropped
		return r
	}
	if err := cfg.Validate(); err != nil {
		return failed(key, capital, cfg, params, "invalid config: "+err.Error())
	}
	if err := params.Validate(); err != nil {
		return failed(key, capital, cfg, params, "invalid params: "+err.Error())
	}

	signals := strategy.Signals(key, clean, params)
	st := newState(clean, capital, cfg, s.logger)
	st.simulate(signals)

	res := newResult(key, capital, cfg, params)
	res.OK = true
	res.SignalCount = len(signals)
	res.Trades = st.trades
	res.FinalEquity = st.equity[len(st.equity)-1]
	res.EquityCurve = make([]EquityPoint, len(clean))
	for i, b := range clean {
		res.EquityCurve[i] = EquityPoint{Timestamp: b.Timestamp, Equity: st.equity[i]}
	}
	res.DrawdownPctCurve = st.ddPct
	res.Metrics = computeMetrics(st, capital)
	res.Reliability = assessReliability(clean, dropped, res.Metrics.TradeCount, st.forcedClose)
	return res
}

// position is the open long position.
type position struct {
	shares     float64
	cost       float64 // cash paid including fees
	notional   float64 // sum of fill price * shares
	entryIndex int
	entryTime  time.Time
	fills      int

	stop      float64
	trail     float64
	bestClose float64
	scaled1   bool
	scaled2   bool

	lastAddPrice float64
	lastAddIndex int
}

func (p *position) avgCost() float64  { return p.cost / p.shares }
func (p *position) avgPrice() float64 { return p.notional / p.shares }

// state is the mutable simulation state for one run.
type state struct {
	cfg    Config
	risk   RiskConfig
	bars   []types.Bar
	atr    []float64
	logger zerolog.Logger

	cash   float64
	pos    *position
	trades []Trade

	equity []float64
	ddPct  []float64
	peak   float64

	cooldownUntil int
	pauseUntil    int
	ddLatched     bool
	hardLatched   bool

	fees        float64
	heldBars    int
	scaleOuts   int
	adds        int
	forcedClose bool
}

func newState(bars []types.Bar, capital float64, cfg Config, logger zerolog.Logger) *state {
	return &state{
		cfg:    cfg,
		risk:   cfg.Risk,
		bars:   bars,
		atr:    indicators.ATR(bars, cfg.Risk.ATRPeriod),
		logger: logger,
		cash:   capital,
		equity: make([]float64, len(bars)),
		ddPct:  make([]float64, len(bars)),
		peak:   capital,
		trades: []Trade{},
	}
}

func (st *state) simulate(signals []types.StrategySignal) {
	byBar := make(map[int][]types.StrategySignal, len(signals))
	for _, sig := range signals {
		byBar[sig.BarIndex] = append(byBar[sig.BarIndex], sig)
	}

	st.mark(0)
	for i := 1; i < len(st.bars); i++ {
		if st.risk.Enabled {
			st.drawdownBreakers(i)
			st.riskExits(i)
			st.autoAdd(i)
		}
		st.applySignals(i, byBar[i-1])
		st.mark(i)
	}
	st.finish()
}

// mark records equity and drawdown at the close of bar i.
func (st *state) mark(i int) {
	eq := st.cash
	if st.pos != nil {
		eq += st.pos.shares * st.bars[i].Close
		st.heldBars++
	}
	st.equity[i] = eq
	if eq > st.peak {
		st.peak = eq
	}
	if st.peak > 0 {
		st.ddPct[i] = math.Max(0, (st.peak-eq)/st.peak*100)
	}
}

func (st *state) canEnter(i int) bool {
	return i >= st.cooldownUntil && i >= st.pauseUntil
}

// drawdownBreakers reacts to the previous bar's drawdown: a soft pause on new
// entries, and a hard stop that also flattens the position. Each latches
// until the drawdown falls back under its threshold.
func (st *state) drawdownBreakers(i int) {
	prev := st.ddPct[i-1]
	r := st.risk

	if r.DDPausePct > 0 {
		if prev > r.DDPausePct && !st.ddLatched {
			st.ddLatched = true
			st.pauseUntil = max(st.pauseUntil, i+r.DDPauseBars)
		} else if prev <= r.DDPausePct {
			st.ddLatched = false
		}
	}

	if r.DDStopPct > 0 {
		if prev > r.DDStopPct && !st.hardLatched {
			st.hardLatched = true
			st.pauseUntil = max(st.pauseUntil, i+r.DDStopPauseBars)
			if st.pos != nil {
				st.closeAll(i, st.sellPrice(i), ExitDDStop)
			}
		} else if prev <= r.DDStopPct {
			st.hardLatched = false
		}
	}
}

// riskExits checks stop, trail, take-profit and time limits against the
// previous bar's range, filling at this bar's open.
func (st *state) riskExits(i int) {
	p := st.pos
	if p == nil {
		return
	}
	r := st.risk
	prev := st.bars[i-1]
	px := st.sellPrice(i)

	switch {
	case indicators.IsFinite(p.stop) && prev.Low <= p.stop:
		st.closeAll(i, px, ExitStop)
		return
	case indicators.IsFinite(p.trail) && prev.Low <= p.trail:
		st.closeAll(i, px, ExitTrail)
		return
	case r.TakeProfitPct > 0 && prev.High >= p.avgCost()*(1+r.TakeProfitPct/100):
		st.closeAll(i, px, ExitTake)
		return
	case r.MaxHoldBars > 0 && i-p.entryIndex >= r.MaxHoldBars:
		st.closeAll(i, px, ExitTime)
		return
	}

	if r.ScaleOutEnabled {
		if !p.scaled1 && r.ScaleOut1Pct > 0 && prev.High >= p.avgCost()*(1+r.ScaleOut1Pct/100) {
			p.scaled1 = true
			breakeven := p.avgCost()
			if !st.scaleOut(i, px, r.ScaleOut1Frac) {
				return
			}
			p.stop = maxFinite(p.stop, breakeven)
		}
		if p.scaled1 && !p.scaled2 && r.ScaleOut2Pct > 0 && prev.High >= p.avgCost()*(1+r.ScaleOut2Pct/100) {
			p.scaled2 = true
			protect := p.avgCost() * (1 + r.ProtectPct/100)
			if !st.scaleOut(i, px, r.ScaleOut2Frac) {
				return
			}
			p.stop = maxFinite(p.stop, protect)
		}
	}

	// ratchet the trail with the bar just completed
	p.bestClose = math.Max(p.bestClose, prev.Close)
	if r.TrailATRMult > 0 && indicators.IsFinite(st.atr[i-1]) {
		p.trail = maxFinite(p.trail, p.bestClose-r.TrailATRMult*st.atr[i-1])
	}
}

// scaleOut sells frac of the position. It reports whether a position remains.
func (st *state) scaleOut(i int, px, frac float64) bool {
	p := st.pos
	q := st.floorLots(p.shares * frac)
	if q <= 0 {
		return true
	}
	if p.shares-q < st.cfg.LotSize {
		st.closeAll(i, px, ExitTake)
		return false
	}
	st.scaleOuts++
	st.closeShares(i, q, px, ExitTake)
	return true
}

// autoAdd pyramids into a winning position once price has moved AddATRMult
// ATRs beyond the last fill.
func (st *state) autoAdd(i int) {
	p := st.pos
	r := st.risk
	if p == nil || !r.Pyramiding || !r.AutoAdd || p.fills >= r.MaxEntries {
		return
	}
	if i-p.lastAddIndex < r.MinAddGap || !st.canEnter(i) {
		return
	}
	atr := st.atr[i-1]
	if !indicators.IsFinite(atr) || st.bars[i-1].Close < p.lastAddPrice+r.AddATRMult*atr {
		return
	}
	st.buy(i, "auto-add")
}

// applySignals fills the previous bar's signals at this bar's open, SELL
// before BUY.
func (st *state) applySignals(i int, signals []types.StrategySignal) {
	for _, sig := range signals {
		if sig.Side == types.SideSell && st.pos != nil {
			st.closeAll(i, st.sellPrice(i), ExitSignal)
		}
	}
	for _, sig := range signals {
		if sig.Side != types.SideBuy || !st.canEnter(i) {
			continue
		}
		switch {
		case st.pos == nil:
			st.buy(i, sig.Reason)
		case st.risk.Enabled && st.risk.Pyramiding && st.risk.AddOnRepeat &&
			st.pos.fills < st.risk.MaxEntries && i-st.pos.lastAddIndex >= st.risk.MinAddGap:
			st.buy(i, "repeat: "+sig.Reason)
		}
	}
}

func (st *state) buyPrice(i int) float64  { return st.bars[i].Open * (1 + st.cfg.Slippage) }
func (st *state) sellPrice(i int) float64 { return st.bars[i].Open * (1 - st.cfg.Slippage) }

func (st *state) fee(notional float64) float64 {
	if notional <= 0 {
		return 0
	}
	return math.Max(st.cfg.MinFee, notional*st.cfg.FeeRate)
}

// floorLots rounds shares down to whole lots.
func (st *state) floorLots(shares float64) float64 {
	if !indicators.IsFinite(shares) || shares <= 0 {
		return 0
	}
	lots := math.Floor(shares/st.cfg.LotSize + 1e-9)
	return lots * st.cfg.LotSize
}

// buy opens or adds to the position at bar i's open.
func (st *state) buy(i int, reason string) {
	px := st.buyPrice(i)
	q := st.size(i, px)
	if q <= 0 {
		return
	}
	notional := q * px
	fee := st.fee(notional)
	st.cash -= notional + fee
	st.fees += fee

	if st.pos == nil {
		st.pos = &position{
			entryIndex: i,
			entryTime:  st.bars[i].Timestamp,
			stop:       math.NaN(),
			trail:      math.NaN(),
			bestClose:  px,
		}
	} else {
		st.adds++
	}
	p := st.pos
	p.shares += q
	p.cost += notional + fee
	p.notional += notional
	p.fills++
	p.lastAddPrice = px
	p.lastAddIndex = i
	if p.fills == 1 && st.risk.Enabled {
		st.setInitialStop(i, px)
	}

	st.logger.Debug().Int("bar", i).Float64("price", px).Float64("shares", q).Int("fill", p.fills).Str("reason", reason).Msg("buy")
}

func (st *state) setInitialStop(i int, px float64) {
	r := st.risk
	p := st.pos
	if r.StopATRMult > 0 && indicators.IsFinite(st.atr[i-1]) {
		p.stop = px - r.StopATRMult*st.atr[i-1]
	}
	if r.StopPct > 0 {
		p.stop = maxFinite(p.stop, px*(1-r.StopPct/100))
	}
}

// size returns the shares to buy at px on bar i, floored to lots and capped
// by cash and exposure. Zero means no fill.
func (st *state) size(i int, px float64) float64 {
	cfg := st.cfg
	equity := st.equity[i-1]

	var q float64
	switch cfg.EntryMode {
	case EntryAllIn:
		q = st.floorLots(st.cash * allInFraction / px)
	case EntryFixedLots:
		q = cfg.FixedLots * cfg.LotSize
	case EntryATRRisk:
		atr := st.atr[i-1]
		perShare := st.risk.StopATRMult * atr
		if !indicators.IsFinite(perShare) || perShare <= 0 {
			q = cfg.FixedLots * cfg.LotSize
			break
		}
		lots := equity * st.risk.RiskPct / 100 / perShare / cfg.LotSize
		lots = math.Max(st.risk.MinLots, math.Min(st.risk.MaxLots, lots))
		q = st.floorLots(lots * cfg.LotSize)
	}

	held := 0.0
	if st.pos != nil {
		held = st.pos.shares
	}
	exposureCap := st.floorLots(equity*cfg.MaxExposurePct/100/px - held)
	q = math.Min(q, exposureCap)

	affordable := st.floorLots((st.cash - cfg.MinFee) / (px * (1 + cfg.FeeRate)))
	q = math.Min(q, affordable)
	for q > 0 && q*px+st.fee(q*px) > st.cash {
		q -= cfg.LotSize
	}
	return math.Max(0, q)
}

// closeShares sells q shares at px and records the closing fill.
func (st *state) closeShares(i int, q, px float64, reason ExitReason) {
	p := st.pos
	frac := q / p.shares
	costPart := p.cost * frac
	notionalPart := p.notional * frac

	proceeds := q * px
	fee := st.fee(proceeds)
	st.cash += proceeds - fee
	st.fees += fee

	pnl := proceeds - fee - costPart
	st.trades = append(st.trades, Trade{
		EntryIndex: p.entryIndex,
		ExitIndex:  i,
		EntryTime:  p.entryTime,
		ExitTime:   st.bars[i].Timestamp,
		EntryPrice: notionalPart / q,
		ExitPrice:  px,
		PnL:        pnl,
		PnLPct:     pnl / costPart * 100,
		BarsHeld:   i - p.entryIndex,
		ExitReason: reason,
		EntryFills: p.fills,
		Lots:       q / st.cfg.LotSize,
		Shares:     q,
		AvgCost:    costPart / q,
	})

	p.shares -= q
	p.cost -= costPart
	p.notional -= notionalPart

	st.logger.Debug().Int("bar", i).Float64("price", px).Float64("shares", q).Str("reason", string(reason)).Float64("pnl", pnl).Msg("sell")
}

func (st *state) closeAll(i int, px float64, reason ExitReason) {
	st.closeShares(i, st.pos.shares, px, reason)
	st.pos = nil
	switch reason {
	case ExitStop, ExitTrail, ExitDDStop:
		st.cooldownUntil = max(st.cooldownUntil, i+st.risk.CooldownBars+1)
	}
}

// finish handles a position still open after the last bar.
func (st *state) finish() {
	if st.pos == nil {
		return
	}
	last := len(st.bars) - 1
	px := st.bars[last].Close

	if st.cfg.ForceCloseAtEnd {
		st.closeAll(last, px, ExitForce)
		st.forcedClose = true
		st.equity[last] = st.cash
		if st.equity[last] > st.peak {
			st.peak = st.equity[last]
		}
		if st.peak > 0 {
			st.ddPct[last] = math.Max(0, (st.peak-st.cash)/st.peak*100)
		}
		return
	}

	p := st.pos
	value := p.shares * px
	pnl := value - p.cost
	st.trades = append(st.trades, Trade{
		EntryIndex: p.entryIndex,
		ExitIndex:  last,
		EntryTime:  p.entryTime,
		ExitTime:   st.bars[last].Timestamp,
		EntryPrice: p.avgPrice(),
		ExitPrice:  px,
		PnL:        pnl,
		PnLPct:     pnl / p.cost * 100,
		BarsHeld:   last - p.entryIndex,
		Open:       true,
		EntryFills: p.fills,
		Lots:       p.shares / st.cfg.LotSize,
		Shares:     p.shares,
		AvgCost:    p.avgCost(),
	})
}

// maxFinite is max(a, b) treating a non-finite a as absent.
func maxFinite(a, b float64) float64 {
	if !indicators.IsFinite(a) {
		return b
	}
	return math.Max(a, b)
}
