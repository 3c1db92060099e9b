package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/backtest"
	"github.com/ducminhle1904/strategy-lab/internal/decision"
	"github.com/ducminhle1904/strategy-lab/internal/recommend"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/pkg/optimization"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ConsoleReporter prints results as tables.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter writes to out, or stdout when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

func (r *ConsoleReporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func keyValueColumns(t table.Writer) {
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, WidthMax: 60, Align: text.AlignLeft},
	})
}

// Backtest prints the summary of a backtest result.
func (r *ConsoleReporter) Backtest(res *backtest.Result) {
	t := r.newTable(fmt.Sprintf("BACKTEST %s", res.Strategy))
	if !res.OK {
		t.AppendRow(table.Row{"Error", res.Error})
		keyValueColumns(t)
		t.Render()
		return
	}

	m := res.Metrics
	t.AppendRows([]table.Row{
		{"Initial Capital", money(res.InitialCapital)},
		{"Final Equity", money(res.FinalEquity)},
		{"Net Profit", fmt.Sprintf("%s (%s)", money(m.NetProfit), pct(m.NetProfitPct))},
		{"Buy & Hold", pct(m.BuyHoldReturnPct)},
		{"Excess Return", pct(m.ExcessReturnPct)},
		{"Max Drawdown", fmt.Sprintf("%s (%s)", money(m.MaxDrawdown), pct(m.MaxDrawdownPct))},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Trades", fmt.Sprintf("%d (%d open)", m.TradeCount, m.OpenTradeCount)},
		{"Win Rate", pct(m.WinRate)},
		{"Profit Factor", opt(m.ProfitFactor)},
		{"Expectancy", pct(m.ExpectancyPct)},
		{"Avg Bars Held", fmt.Sprintf("%.1f", m.AvgBarsHeld)},
		{"Scale-outs / Adds", fmt.Sprintf("%d / %d", m.ScaleOuts, m.Adds)},
		{"Fees", money(m.TotalFees)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"CAGR", optPct(m.CAGR)},
		{"Sharpe", opt(m.Sharpe)},
		{"Sortino", opt(m.Sortino)},
		{"Calmar", opt(m.Calmar)},
		{"Ulcer Index", fmt.Sprintf("%.2f", m.UlcerIndex)},
		{"Exposure", pct(m.ExposurePct)},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Reliability", fmt.Sprintf("%s (%d bars, %d days)", res.Reliability.Level, res.Reliability.BarCount, res.Reliability.SampleDays)})
	for _, note := range res.Reliability.Notes {
		t.AppendRow(table.Row{"", note})
	}
	keyValueColumns(t)
	t.Render()
}

// Trades prints the last limit trades; limit <= 0 prints all.
func (r *ConsoleReporter) Trades(res *backtest.Result, limit int) {
	trades := res.Trades
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	t := r.newTable(fmt.Sprintf("TRADES (%d of %d)", len(trades), len(res.Trades)))
	t.AppendHeader(table.Row{"#", "Entry", "Exit", "Entry Px", "Exit Px", "Shares", "PnL", "PnL %", "Bars", "Reason"})
	offset := len(res.Trades) - len(trades)
	for i, tr := range trades {
		reason := string(tr.ExitReason)
		if tr.Open {
			reason = "open"
		}
		t.AppendRow(table.Row{
			offset + i + 1,
			stamp(tr.EntryTime),
			stamp(tr.ExitTime),
			fmt.Sprintf("%.4f", tr.EntryPrice),
			fmt.Sprintf("%.4f", tr.ExitPrice),
			fmt.Sprintf("%.4f", tr.Shares),
			money(tr.PnL),
			pct(tr.PnLPct),
			tr.BarsHeld,
			reason,
		})
	}
	closed := res.ClosedTrades()
	realized := 0.0
	for _, tr := range closed {
		realized += tr.PnL
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Closed", money(realized), "", len(closed), ""})
	t.Render()
}

// Signals prints strategy signals with the bar they were observed on.
func (r *ConsoleReporter) Signals(signals []types.StrategySignal, bars []types.Bar) {
	t := r.newTable(fmt.Sprintf("SIGNALS (%d)", len(signals)))
	t.AppendHeader(table.Row{"Bar", "Time", "Close", "Side", "Reason"})
	for _, s := range signals {
		ts, closePx := "", ""
		if s.BarIndex >= 0 && s.BarIndex < len(bars) {
			ts = stamp(bars[s.BarIndex].Timestamp)
			closePx = fmt.Sprintf("%.4f", bars[s.BarIndex].Close)
		}
		t.AppendRow(table.Row{s.BarIndex, ts, closePx, s.Side, s.Reason})
	}
	t.Render()
}

// Recommendations prints the ranked strategies.
func (r *ConsoleReporter) Recommendations(recs []recommend.Recommendation) {
	title := "RECOMMENDATIONS"
	if len(recs) > 0 {
		title = fmt.Sprintf("RECOMMENDATIONS (market %s)", recs[0].MarketRegime)
	}
	t := r.newTable(title)
	t.AppendHeader(table.Row{"Rank", "Strategy", "Family", "Score", "Weighted", "Affinity", "Stability", "Reason"})
	for _, rec := range recs {
		t.AppendRow(table.Row{
			rec.Rank,
			rec.Strategy,
			rec.Family,
			fmt.Sprintf("%.3f", rec.Score),
			fmt.Sprintf("%.3f", rec.WeightedScore),
			fmt.Sprintf("%.2f", rec.Affinity),
			fmt.Sprintf("-%.3f", rec.StabilityPenalty),
			rec.Reason,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 8, WidthMax: 70},
	})
	t.Render()
}

// Regime prints the market regime and the decision regime side by side.
func (r *ConsoleReporter) Regime(market regime.MarketInfo, info regime.Info) {
	t := r.newTable("REGIME")
	t.AppendRows([]table.Row{
		{"Market Regime", market.Regime},
		{"ADX / ATR%", fmt.Sprintf("%.2f / %.2f%%", market.ADX, market.ATRPct)},
		{"EMA20 / EMA50", fmt.Sprintf("%.4f / %.4f", market.EMA20, market.EMA50)},
		{"Market Reason", market.Reason},
	})
	t.AppendSeparator()
	r.appendInfo(t, info)
	keyValueColumns(t)
	t.Render()
}

func (r *ConsoleReporter) appendInfo(t table.Writer, info regime.Info) {
	f := info.Metrics.Features
	t.AppendRows([]table.Row{
		{"Decision Regime", fmt.Sprintf("%s (candidate %s)", info.Regime, info.Candidate)},
		{"Confidence", fmt.Sprintf("%.3f", info.Confidence)},
		{"Scores", fmt.Sprintf("trend %.3f  range %.3f  panic %.3f", info.Scores.Trend, info.Scores.Range, info.Scores.Panic)},
		{"Features", fmt.Sprintf("slope %.2f%%  atr %.2f%%  vol x%.2f  dd %.2f%%", f.SlopePct, f.ATRPct, f.VolumeRatio, f.DrawdownPct)},
	})
	if ext := info.ExternalSignals; ext != nil {
		t.AppendRow(table.Row{"External", fmt.Sprintf("news used: %t  realtime used: %t", ext.NewsUsed, ext.RealtimeUsed)})
	}
}

// Decision prints one engine decision with its reasons.
func (r *ConsoleReporter) Decision(d decision.Decision) {
	t := r.newTable(fmt.Sprintf("DECISION %s %s", d.Symbol, d.Timeframe))
	action := string(d.Action)
	if d.BlockedBy != "" {
		action = fmt.Sprintf("%s (%s blocked by %s)", d.Action, d.ProposedAction, d.BlockedBy)
	}
	t.AppendRows([]table.Row{
		{"Action", action},
		{"Strategy", d.Strategy},
		{"Position Cap", fmt.Sprintf("%.0f%%", d.PositionCap*100)},
		{"Server Time", d.ServerTime.UTC().Format(time.RFC3339)},
		{"Snapshot Saved", d.SnapshotSaved},
	})
	t.AppendSeparator()
	r.appendInfo(t, d.Info)
	t.AppendSeparator()
	for i, reason := range d.Reasons {
		label := ""
		if i == 0 {
			label = "Reasons"
		}
		t.AppendRow(table.Row{label, reason})
	}
	keyValueColumns(t)
	t.Render()
}

// Decisions prints a sequence of decisions, one row each.
func (r *ConsoleReporter) Decisions(ds []decision.Decision) {
	t := r.newTable(fmt.Sprintf("DECISIONS (%d)", len(ds)))
	t.AppendHeader(table.Row{"Time", "Regime", "Candidate", "Conf", "Strategy", "Action", "Blocked", "Cap"})
	for _, d := range ds {
		t.AppendRow(table.Row{
			stamp(d.ServerTime),
			d.Regime,
			d.Candidate,
			fmt.Sprintf("%.3f", d.Confidence),
			d.Strategy,
			d.Action,
			d.BlockedBy,
			fmt.Sprintf("%.0f%%", d.PositionCap*100),
		})
	}
	t.Render()
}

// Autotune prints the best parameters against the defaults.
func (r *ConsoleReporter) Autotune(res optimization.AutoTuneResult) {
	t := r.newTable("AUTOTUNE")
	best := "defaults"
	if res.BestTrial > 0 {
		best = fmt.Sprintf("trial %d", res.BestTrial)
	}
	t.AppendHeader(table.Row{"", "Best", "Default"})
	t.AppendRows([]table.Row{
		{"Score", fmt.Sprintf("%.4f", res.Score), fmt.Sprintf("%.4f", res.DefaultScore)},
		{"Net Return", pct(res.Metrics.NetReturn * 100), pct(res.DefaultMetrics.NetReturn * 100)},
		{"Max Drawdown", pct(res.Metrics.MaxDrawdown * 100), pct(res.DefaultMetrics.MaxDrawdown * 100)},
		{"Trades", res.Metrics.Trades, res.DefaultMetrics.Trades},
	})
	t.AppendFooter(table.Row{"", fmt.Sprintf("%s of %d, seed %d", best, res.Trials, res.Seed), res.Duration.Round(time.Millisecond)})
	t.Render()

	params := r.newTable("BEST PARAMETERS")
	for _, kv := range flatten(res.BestParams) {
		params.AppendRow(table.Row{kv[0], kv[1]})
	}
	keyValueColumns(params)
	params.Render()
}

// flatten lists the JSON fields of v as sorted dotted key/value pairs.
func flatten(v interface{}) [][2]string {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	var out [][2]string
	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		for k, v := range m {
			if nested, ok := v.(map[string]interface{}); ok {
				walk(prefix+k+".", nested)
				continue
			}
			out = append(out, [2]string{prefix + k, fmt.Sprint(v)})
		}
	}
	walk("", m)
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v) }

func opt(v types.OptFloat) string {
	switch {
	case !v.Valid:
		return "n/a"
	case v.IsInf(1):
		return "inf"
	}
	return fmt.Sprintf("%.2f", v.Value)
}

func optPct(v types.OptFloat) string {
	if !v.Valid {
		return "n/a"
	}
	return pct(v.Value)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strings.TrimSuffix(t.UTC().Format("2006-01-02 15:04"), " 00:00")
}
