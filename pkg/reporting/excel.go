package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ducminhle1904/strategy-lab/internal/backtest"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SummarySheet = "Summary"
	TradesSheet  = "Trades"
	EquitySheet  = "Equity"
	MonthlySheet = "Monthly"
)

// ExcelReporter writes backtest results to xlsx workbooks.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteBacktest writes a Summary, Trades, Equity and Monthly sheet to path.
func (r *ExcelReporter) WriteBacktest(res *backtest.Result, path string) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	for _, sheet := range []string{TradesSheet, EquitySheet, MonthlySheet} {
		if _, err := fx.NewSheet(sheet); err != nil {
			return err
		}
	}

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	writers := []func(*excelize.File, *backtest.Result, ExcelStyles) error{
		r.writeSummarySheet,
		r.writeTradesSheet,
		r.writeEquitySheet,
		r.writeMonthlySheet,
	}
	for _, write := range writers {
		if err := write(fx, res, styles); err != nil {
			return err
		}
	}

	if err := fx.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	cellBorder := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}
	right := &excelize.Alignment{Horizontal: "right"}

	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&styles.HeaderStyle, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border: []excelize.Border{
				{Type: "left", Color: "000000", Style: 1},
				{Type: "right", Color: "000000", Style: 1},
				{Type: "top", Color: "000000", Style: 1},
				{Type: "bottom", Color: "000000", Style: 1},
			},
		}},
		{&styles.CurrencyStyle, &excelize.Style{NumFmt: 7, Alignment: right, Border: cellBorder}},
		{&styles.PercentStyle, &excelize.Style{NumFmt: 10, Alignment: right, Border: cellBorder}},
		{&styles.NumberStyle, &excelize.Style{NumFmt: 4, Alignment: right, Border: cellBorder}},
		{&styles.BaseStyle, &excelize.Style{Border: cellBorder}},
		{&styles.RedPercentStyle, &excelize.Style{NumFmt: 10, Font: &excelize.Font{Color: "C00000"}, Alignment: right, Border: cellBorder}},
		{&styles.GreenPercentStyle, &excelize.Style{NumFmt: 10, Font: &excelize.Font{Color: "008000"}, Alignment: right, Border: cellBorder}},
		{&styles.DateStyle, &excelize.Style{NumFmt: 22, Border: cellBorder}},
	}
	for _, d := range defs {
		id, err := fx.NewStyle(d.style)
		if err != nil {
			return styles, err
		}
		*d.id = id
	}
	return styles, nil
}

func writeHeader(fx *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return fx.SetCellStyle(sheet, "A1", last, style)
}

// setRow writes values starting at column A and applies styles by column.
func setRow(fx *excelize.File, sheet string, row int, values []interface{}, styles []int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if i < len(styles) && styles[i] != 0 {
			if err := fx.SetCellStyle(sheet, cell, cell, styles[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Percentages are stored as fractions so the cell format renders them.
func frac(v float64) float64 { return v / 100 }

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, res *backtest.Result, s ExcelStyles) error {
	sheet := SummarySheet
	if err := fx.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}
	if err := fx.SetColWidth(sheet, "B", "B", 22); err != nil {
		return err
	}
	if err := writeHeader(fx, sheet, []string{"Metric", "Value"}, s.HeaderStyle); err != nil {
		return err
	}

	m := res.Metrics
	type entry struct {
		name  string
		value interface{}
		style int
	}
	entries := []entry{
		{"Strategy", string(res.Strategy), s.BaseStyle},
		{"OK", res.OK, s.BaseStyle},
		{"Error", res.Error, s.BaseStyle},
		{"Initial Capital", res.InitialCapital, s.CurrencyStyle},
		{"Final Equity", res.FinalEquity, s.CurrencyStyle},
		{"Net Profit", m.NetProfit, s.CurrencyStyle},
		{"Net Profit %", frac(m.NetProfitPct), signedPercent(m.NetProfitPct, s)},
		{"Buy & Hold %", frac(m.BuyHoldReturnPct), s.PercentStyle},
		{"Excess Return %", frac(m.ExcessReturnPct), signedPercent(m.ExcessReturnPct, s)},
		{"Max Drawdown", m.MaxDrawdown, s.CurrencyStyle},
		{"Max Drawdown %", frac(m.MaxDrawdownPct), s.RedPercentStyle},
		{"Trades", m.TradeCount, s.BaseStyle},
		{"Win Rate", frac(m.WinRate), s.PercentStyle},
		{"Profit Factor", opt(m.ProfitFactor), s.BaseStyle},
		{"Expectancy %", frac(m.ExpectancyPct), signedPercent(m.ExpectancyPct, s)},
		{"Total Fees", m.TotalFees, s.CurrencyStyle},
		{"CAGR", optPct(m.CAGR), s.BaseStyle},
		{"Sharpe", opt(m.Sharpe), s.BaseStyle},
		{"Sortino", opt(m.Sortino), s.BaseStyle},
		{"Calmar", opt(m.Calmar), s.BaseStyle},
		{"Ulcer Index", m.UlcerIndex, s.NumberStyle},
		{"Exposure %", frac(m.ExposurePct), s.PercentStyle},
		{"Max DD Duration (days)", m.MaxDDDurationDays, s.BaseStyle},
		{"Reliability", res.Reliability.Level, s.BaseStyle},
	}
	for i, e := range entries {
		if err := setRow(fx, sheet, i+2, []interface{}{e.name, e.value}, []int{s.BaseStyle, e.style}); err != nil {
			return err
		}
	}
	return nil
}

func signedPercent(v float64, s ExcelStyles) int {
	if v < 0 {
		return s.RedPercentStyle
	}
	return s.GreenPercentStyle
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, res *backtest.Result, s ExcelStyles) error {
	sheet := TradesSheet
	widths := map[string]float64{"A": 6, "B": 18, "C": 18, "D": 12, "E": 12, "F": 12, "G": 14, "H": 10, "I": 8, "J": 8, "K": 10}
	for col, w := range widths {
		if err := fx.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	headers := []string{"#", "Entry Time", "Exit Time", "Entry Price", "Exit Price", "Shares", "PnL", "PnL %", "Bars", "Fills", "Reason"}
	if err := writeHeader(fx, sheet, headers, s.HeaderStyle); err != nil {
		return err
	}

	for i, t := range res.Trades {
		reason := string(t.ExitReason)
		if t.Open {
			reason = "open"
		}
		values := []interface{}{i + 1, t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice, t.Shares, t.PnL, frac(t.PnLPct), t.BarsHeld, t.EntryFills, reason}
		styles := []int{s.BaseStyle, s.DateStyle, s.DateStyle, s.NumberStyle, s.NumberStyle, s.NumberStyle, s.CurrencyStyle, signedPercent(t.PnLPct, s), s.BaseStyle, s.BaseStyle, s.BaseStyle}
		if err := setRow(fx, sheet, i+2, values, styles); err != nil {
			return err
		}
	}
	return fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (r *ExcelReporter) writeEquitySheet(fx *excelize.File, res *backtest.Result, s ExcelStyles) error {
	sheet := EquitySheet
	if err := fx.SetColWidth(sheet, "A", "C", 18); err != nil {
		return err
	}
	if err := writeHeader(fx, sheet, []string{"Time", "Equity", "Drawdown %"}, s.HeaderStyle); err != nil {
		return err
	}
	for i, p := range res.EquityCurve {
		dd := 0.0
		if i < len(res.DrawdownPctCurve) {
			dd = res.DrawdownPctCurve[i]
		}
		if err := setRow(fx, sheet, i+2, []interface{}{p.Timestamp, p.Equity, frac(dd)}, []int{s.DateStyle, s.CurrencyStyle, s.PercentStyle}); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeMonthlySheet(fx *excelize.File, res *backtest.Result, s ExcelStyles) error {
	sheet := MonthlySheet
	if err := fx.SetColWidth(sheet, "A", "B", 14); err != nil {
		return err
	}
	if err := writeHeader(fx, sheet, []string{"Month", "Return %"}, s.HeaderStyle); err != nil {
		return err
	}
	for i, mr := range res.Metrics.MonthlyReturns {
		if err := setRow(fx, sheet, i+2, []interface{}{mr.Month, frac(mr.ReturnPct)}, []int{s.BaseStyle, signedPercent(mr.ReturnPct, s)}); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
