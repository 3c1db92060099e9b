package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/config"
	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/internal/logger"
	"github.com/ducminhle1904/strategy-lab/internal/monitoring"
	"github.com/ducminhle1904/strategy-lab/internal/store"
	"github.com/ducminhle1904/strategy-lab/pkg/data"
	"github.com/spf13/cobra"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfgPath     string
	envFile     string
	logLevel    string
	metricsAddr string
	data        dataFlags

	cfg     *config.Config
	log     *logger.Logger
	metrics *http.Server
	csv     *data.CachedProvider
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "strategy-lab",
		Short: "Backtest, rank and tune strategies; make regime-aware decisions",
		Long: `strategy-lab runs indicator strategies over OHLCV bars from CSV files or
the Bybit market API. It backtests a single strategy, ranks every strategy for
the current market, classifies the TREND/RANGE/PANIC regime, makes guarded
BUY/SELL/HOLD decisions and tunes the decision parameters by random search.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.envFile, "env", ".env", "environment file loaded before the config")
	pf.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&a.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address while running")

	root.AddCommand(
		newBacktestCmd(a),
		newSignalsCmd(a),
		newRecommendCmd(a),
		newRegimeCmd(a),
		newDecideCmd(a),
		newAutotuneCmd(a),
		newFetchCmd(a),
		newVersionCmd(),
	)
	return root
}

// execute runs root and then releases whatever setup opened, whether or not
// the command succeeded.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(); err == nil {
		err = terr
	}
	return err
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath, a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	l, err := logger.New(logger.Options{
		Level:    cfg.Log.Level,
		Console:  cfg.Log.Console,
		Out:      cmd.ErrOrStderr(),
		Dir:      cfg.Log.Dir,
		Symbol:   a.data.symbolName(),
		Interval: a.data.timeframe(),
	})
	if err != nil {
		return engineerrors.WrapError(err, engineerrors.ErrorCategoryConfiguration, "cli", "logger")
	}
	a.log = l

	if a.metricsAddr != "" {
		ln, err := net.Listen("tcp", a.metricsAddr)
		if err != nil {
			return engineerrors.WrapError(err, engineerrors.ErrorCategoryConfiguration, "cli", "metrics listen")
		}
		a.metrics = &http.Server{Handler: monitoring.NewServeMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		a.log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	}
	return nil
}

// teardown stops the metrics server and closes the log. Safe to call more
// than once.
func (a *app) teardown() error {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.metrics.Shutdown(ctx)
		a.metrics = nil
	}
	if a.log == nil {
		return nil
	}
	st := monitoring.Health().Status()
	a.log.Debug().
		Str("status", st.Status).
		Int64("backtests", st.Backtests).
		Int64("decisions", st.Decisions).
		Strs("errors", st.Errors).
		Msg("session finished")
	err := a.log.Close()
	a.log = nil
	return err
}

// openStore opens the configured snapshot store.
func (a *app) openStore(ctx context.Context) (store.SnapshotStore, error) {
	if strings.EqualFold(a.cfg.Storage.Driver, "sqlite") {
		s, err := store.OpenSQLite(ctx, a.cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return store.NewMemoryStore(), nil
}
