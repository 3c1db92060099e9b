package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ducminhle1904/strategy-lab/internal/monitoring"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/rs/zerolog"
)

// ErrNoSignal is returned by a chain when no provider had a value.
var ErrNoSignal = errors.New("no provider returned a signal")

// NewsChain tries news providers in order; the first non-nil signal wins.
// Provider errors are logged, counted and skipped.
type NewsChain struct {
	providers []NewsProvider
	logger    zerolog.Logger
}

// NewNewsChain creates a chain over providers in priority order.
func NewNewsChain(providers ...NewsProvider) *NewsChain {
	return &NewsChain{providers: providers, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for provider failures.
func (c *NewsChain) WithLogger(l zerolog.Logger) *NewsChain {
	c.logger = l.With().Str("component", "news-chain").Logger()
	return c
}

func (c *NewsChain) Name() string { return "news-chain" }

// News returns the first available signal. When none is found the error
// wraps ErrNoSignal together with every provider failure.
func (c *NewsChain) News(ctx context.Context, symbol string) (*types.NewsSignal, error) {
	errs := []error{ErrNoSignal}
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sig, err := p.News(ctx, symbol)
		if err != nil {
			monitoring.RecordSignalUnavailable(p.Name(), err)
			c.logger.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("news provider failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if sig != nil {
			return sig, nil
		}
	}
	return nil, errors.Join(errs...)
}

// RealtimeChain tries realtime providers in order; the first non-nil signal
// wins.
type RealtimeChain struct {
	providers []RealtimeProvider
	logger    zerolog.Logger
}

// NewRealtimeChain creates a chain over providers in priority order.
func NewRealtimeChain(providers ...RealtimeProvider) *RealtimeChain {
	return &RealtimeChain{providers: providers, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for provider failures.
func (c *RealtimeChain) WithLogger(l zerolog.Logger) *RealtimeChain {
	c.logger = l.With().Str("component", "realtime-chain").Logger()
	return c
}

func (c *RealtimeChain) Name() string { return "realtime-chain" }

// Realtime returns the first available signal.
func (c *RealtimeChain) Realtime(ctx context.Context, symbol, timeframe string) (*types.RealtimeSignal, error) {
	errs := []error{ErrNoSignal}
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sig, err := p.Realtime(ctx, symbol, timeframe)
		if err != nil {
			monitoring.RecordSignalUnavailable(p.Name(), err)
			c.logger.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("realtime provider failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if sig != nil {
			return sig, nil
		}
	}
	return nil, errors.Join(errs...)
}
