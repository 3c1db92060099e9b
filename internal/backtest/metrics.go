package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

const (
	tradingDaysPerYear = 252
	minDailyReturns    = 5
)

// computeMetrics derives the statistics from a finished run.
func computeMetrics(st *state, capital float64) Metrics {
	m := Metrics{MonthlyReturns: []MonthlyReturn{}}
	bars := st.bars
	final := st.equity[len(st.equity)-1]

	m.NetProfit = final - capital
	m.NetProfitPct = m.NetProfit / capital * 100
	m.TotalFees = st.fees
	m.ScaleOuts = st.scaleOuts
	m.Adds = st.adds

	peak := capital
	for i, eq := range st.equity {
		peak = math.Max(peak, eq)
		m.MaxDrawdown = math.Max(m.MaxDrawdown, peak-eq)
		m.MaxDrawdownPct = math.Max(m.MaxDrawdownPct, st.ddPct[i])
	}

	tradeStats(&m, st.trades)

	m.BuyHoldFinalEquity = buyAndHold(st, capital)
	m.BuyHoldReturnPct = (m.BuyHoldFinalEquity - capital) / capital * 100
	m.ExcessReturnPct = m.NetProfitPct - m.BuyHoldReturnPct
	m.ExposurePct = float64(st.heldBars) / float64(len(bars)) * 100

	years := bars[len(bars)-1].Timestamp.Sub(bars[0].Timestamp).Hours() / 24 / 365.25
	if years > 0 && final > 0 {
		m.CAGR = types.Some((math.Pow(final/capital, 1/years) - 1) * 100)
	}

	riskRatios(&m, dailyReturns(bars, st.equity, capital))

	if m.MaxDrawdownPct > 0 && m.CAGR.Valid {
		m.Calmar = types.Some(m.CAGR.Value / m.MaxDrawdownPct)
	}
	if m.MaxDrawdown > 0 {
		m.RecoveryFactor = types.Some(m.NetProfit / m.MaxDrawdown)
	}

	sumSq := 0.0
	for _, dd := range st.ddPct {
		sumSq += dd * dd
	}
	m.UlcerIndex = math.Sqrt(sumSq / float64(len(st.ddPct)))

	drawdownDuration(&m, bars, st.equity, capital)
	m.MonthlyReturns = monthlyReturns(bars, st.equity, capital)
	return m
}

// tradeStats fills the per-trade metrics from closed trades.
func tradeStats(m *Metrics, trades []Trade) {
	var sumPct, winPct, lossPct float64
	var sumBars int
	streakW, streakL := 0, 0

	for _, t := range trades {
		if t.Open {
			m.OpenTradeCount++
			continue
		}
		m.TradeCount++
		sumPct += t.PnLPct
		sumBars += t.BarsHeld
		m.MaxBarsHeld = max(m.MaxBarsHeld, t.BarsHeld)

		if t.PnL > 0 {
			m.WinCount++
			m.GrossProfit += t.PnL
			winPct += t.PnLPct
			streakW++
			streakL = 0
		} else {
			m.LossCount++
			m.GrossLoss += -t.PnL
			lossPct += t.PnLPct
			streakL++
			streakW = 0
		}
		m.MaxConsecWins = max(m.MaxConsecWins, streakW)
		m.MaxConsecLosses = max(m.MaxConsecLosses, streakL)
	}

	m.ProfitFactor = profitFactor(m.GrossProfit, m.GrossLoss)
	if m.TradeCount == 0 {
		return
	}
	n := float64(m.TradeCount)
	m.WinRate = float64(m.WinCount) / n * 100
	m.AvgTradePct = sumPct / n
	m.AvgBarsHeld = float64(sumBars) / n
	if m.WinCount > 0 {
		m.AvgWinPct = winPct / float64(m.WinCount)
	}
	if m.LossCount > 0 {
		m.AvgLossPct = lossPct / float64(m.LossCount)
	}
	wr := m.WinRate / 100
	m.ExpectancyPct = wr*m.AvgWinPct + (1-wr)*m.AvgLossPct
}

// profitFactor is gross profit over gross loss: +Inf with no losses, absent
// when there is neither.
func profitFactor(grossProfit, grossLoss float64) types.OptFloat {
	switch {
	case grossLoss > 0:
		return types.Some(grossProfit / grossLoss)
	case grossProfit > 0:
		return types.Some(math.Inf(1))
	default:
		return types.None()
	}
}

// buyAndHold buys whole lots at the first open with the same fees and holds
// to the last close.
func buyAndHold(st *state, capital float64) float64 {
	bars := st.bars
	cfg := st.cfg
	px := bars[0].Open
	q := st.floorLots((capital - cfg.MinFee) / (px * (1 + cfg.FeeRate)))
	for q > 0 && q*px+st.fee(q*px) > capital {
		q -= cfg.LotSize
	}
	if q <= 0 {
		return capital
	}
	cash := capital - q*px - st.fee(q*px)
	exit := q * bars[len(bars)-1].Close
	return cash + exit - st.fee(exit)
}

// dailyReturns resamples equity to the last value per UTC calendar day and
// returns the day-over-day returns.
func dailyReturns(bars []types.Bar, equity []float64, capital float64) []float64 {
	var closes []float64
	var day string
	for i, b := range bars {
		d := b.Timestamp.UTC().Format("2006-01-02")
		if d != day || len(closes) == 0 {
			closes = append(closes, equity[i])
			day = d
			continue
		}
		closes[len(closes)-1] = equity[i]
	}

	out := make([]float64, 0, len(closes))
	prev := capital
	for _, eq := range closes {
		if prev > 0 {
			out = append(out, eq/prev-1)
		}
		prev = eq
	}
	return out
}

// riskRatios sets volatility, Sharpe and Sortino from daily returns.
func riskRatios(m *Metrics, returns []float64) {
	if len(returns) < minDailyReturns {
		return
	}
	n := float64(len(returns))
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= n

	variance, downside := 0.0, 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
		if r < 0 {
			downside += r * r
		}
	}
	sd := math.Sqrt(variance / (n - 1))
	dsd := math.Sqrt(downside / n)
	ann := math.Sqrt(tradingDaysPerYear)

	m.Volatility = types.Some(sd * ann * 100)
	if sd > 0 {
		m.Sharpe = types.Some(mean / sd * ann)
	}
	switch {
	case dsd > 0:
		m.Sortino = types.Some(mean / dsd * ann)
	case mean > 0:
		m.Sortino = types.Some(math.Inf(1))
	}
}

// drawdownDuration finds the longest stretch below a prior equity peak,
// counted in distinct trading days.
func drawdownDuration(m *Metrics, bars []types.Bar, equity []float64, capital float64) {
	peak := capital
	peakIdx := 0
	bestStart, bestEnd, bestDays := -1, -1, 0

	consider := func(start, end int) {
		if start < 0 || end <= start {
			return
		}
		days := tradingDays(bars[start : end+1])
		if days > bestDays {
			bestStart, bestEnd, bestDays = start, end, days
		}
	}

	underwater := false
	for i, eq := range equity {
		if eq >= peak {
			if underwater {
				consider(peakIdx, i)
				underwater = false
			}
			peak = eq
			peakIdx = i
			continue
		}
		underwater = true
	}
	if underwater {
		consider(peakIdx, len(equity)-1)
	}

	if bestStart >= 0 {
		start := bars[bestStart].Timestamp
		end := bars[bestEnd].Timestamp
		m.MaxDDStart = &start
		m.MaxDDEnd = &end
		m.MaxDDDurationDays = bestDays
	}
}

// tradingDays counts distinct calendar days in bars minus one.
func tradingDays(bars []types.Bar) int {
	seen := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		seen[b.Timestamp.UTC().Format("2006-01-02")] = struct{}{}
	}
	return len(seen) - 1
}

// monthlyReturns compares each month's last equity with the previous month's.
func monthlyReturns(bars []types.Bar, equity []float64, capital float64) []MonthlyReturn {
	last := make(map[string]float64)
	var months []string
	for i, b := range bars {
		key := b.Timestamp.UTC().Format("2006-01")
		if _, ok := last[key]; !ok {
			months = append(months, key)
		}
		last[key] = equity[i]
	}
	sort.Strings(months)

	out := make([]MonthlyReturn, 0, len(months))
	prev := capital
	for _, mo := range months {
		eq := last[mo]
		ret := 0.0
		if prev > 0 {
			ret = (eq/prev - 1) * 100
		}
		out = append(out, MonthlyReturn{Month: mo, ReturnPct: ret})
		prev = eq
	}
	return out
}

// sampleDays is the calendar span of bars in whole days.
func sampleDays(bars []types.Bar) int {
	if len(bars) < 2 {
		return 0
	}
	return int(bars[len(bars)-1].Timestamp.Sub(bars[0].Timestamp) / (24 * time.Hour))
}
