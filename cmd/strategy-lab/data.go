package main

import (
	"context"
	"fmt"
	"strings"

	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/internal/exchange/bybit"
	"github.com/ducminhle1904/strategy-lab/pkg/data"
	"github.com/ducminhle1904/strategy-lab/pkg/reporting"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/spf13/cobra"
)

// dataFlags select where a command reads bars from.
type dataFlags struct {
	path          string
	symbol        string
	interval      string
	bybitSymbol   string
	bybitInterval string
	limit         int
	period        string
}

func addDataFlags(cmd *cobra.Command, f *dataFlags) {
	fs := cmd.Flags()
	fs.StringVar(&f.path, "data", "", "CSV file with OHLCV bars")
	fs.StringVar(&f.symbol, "symbol", "", "symbol; with --interval and no --data, locates the CSV under data.root")
	fs.StringVar(&f.interval, "interval", "", "bar interval such as 5m, 1h or 1d")
	fs.StringVar(&f.bybitSymbol, "bybit-symbol", "", "fetch bars for this symbol from Bybit instead of a CSV")
	fs.StringVar(&f.bybitInterval, "bybit-interval", "1h", "Bybit kline interval")
	fs.IntVar(&f.limit, "limit", 0, "keep the last N bars; for Bybit the fetch size (default: data.bybit.limit)")
	fs.StringVar(&f.period, "period", "", "keep only the trailing period, e.g. 30d or 72h")
}

// symbolName is the best known symbol for the loaded bars.
func (f dataFlags) symbolName() string {
	switch {
	case f.bybitSymbol != "":
		return strings.ToUpper(f.bybitSymbol)
	case f.symbol != "":
		return strings.ToUpper(f.symbol)
	case f.path != "":
		return reporting.SymbolFromPath(f.path)
	}
	return ""
}

// timeframe is the best known interval for the loaded bars.
func (f dataFlags) timeframe() string {
	switch {
	case f.interval != "":
		return f.interval
	case f.bybitSymbol != "":
		return f.bybitInterval
	case f.path != "":
		return reporting.IntervalFromPath(f.path)
	}
	return ""
}

// loadBars reads bars from Bybit, the --data file or the data tree, then
// applies --period.
func (a *app) loadBars(ctx context.Context) ([]types.Bar, error) {
	f := a.data
	var (
		bars   []types.Bar
		source string
		err    error
	)
	switch {
	case f.bybitSymbol != "":
		source = "bybit"
		limit := f.limit
		if limit <= 0 {
			limit = a.cfg.Data.Bybit.Limit
		}
		client := bybit.NewClient(bybit.Config{
			APIKey:    a.cfg.Data.Bybit.APIKey,
			APISecret: a.cfg.Data.Bybit.APISecret,
			Testnet:   a.cfg.Data.Bybit.Testnet,
			Category:  a.cfg.Data.Bybit.Category,
		}).WithLogger(a.log.Logger)
		bars, err = client.FetchBars(ctx, f.bybitSymbol, f.bybitInterval, limit)
	case f.path != "" || f.symbol != "":
		source = f.path
		if source == "" {
			if f.interval == "" {
				return nil, engineerrors.NewValidationError("cli", "load bars", "--interval is required with --symbol")
			}
			source, err = data.FindDataFile(a.cfg.Data.Root, a.cfg.Data.Exchange, f.symbol, f.interval)
			if err != nil {
				return nil, engineerrors.NewDataError("cli", "locate data", err)
			}
		}
		if a.csv == nil {
			a.csv = data.NewCachedProvider(data.NewCSVProvider().WithLogger(a.log.Logger))
		}
		bars, err = a.csv.LoadBars(source)
		bars = data.TakeLast(bars, f.limit)
	default:
		return nil, engineerrors.NewValidationError("cli", "load bars", "one of --data, --symbol or --bybit-symbol is required")
	}
	if err != nil {
		return nil, err
	}

	if f.period != "" {
		period, ok := data.ParseTrailingPeriod(f.period)
		if !ok {
			return nil, engineerrors.NewValidationError("cli", "load bars", fmt.Sprintf("invalid --period %q", f.period))
		}
		bars = data.FilterByPeriod(bars, period)
	}
	if len(bars) == 0 {
		return nil, engineerrors.NewValidationError("cli", "load bars", "no bars loaded")
	}

	a.log.Info().
		Str("source", source).
		Int("bars", len(bars)).
		Time("from", bars[0].Timestamp).
		Time("to", bars[len(bars)-1].Timestamp).
		Msg("bars loaded")
	return bars, nil
}
