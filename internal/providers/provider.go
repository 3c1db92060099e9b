// Package providers supplies the optional news and realtime-tape signals the
// decision regime blends in. Every provider is fallible; callers treat any
// error or missing value as unavailable.
package providers

import (
	"context"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// NewsProvider looks up the latest aggregated news sentiment for a symbol.
// A nil signal with a nil error means the provider has nothing.
type NewsProvider interface {
	Name() string
	News(ctx context.Context, symbol string) (*types.NewsSignal, error)
}

// RealtimeProvider looks up the latest tape surprise ratios.
type RealtimeProvider interface {
	Name() string
	Realtime(ctx context.Context, symbol, timeframe string) (*types.RealtimeSignal, error)
}

// StaticNews always returns the same signal or error.
type StaticNews struct {
	Source string
	Signal *types.NewsSignal
	Err    error
}

func (s StaticNews) Name() string {
	if s.Source == "" {
		return "static-news"
	}
	return s.Source
}

func (s StaticNews) News(ctx context.Context, symbol string) (*types.NewsSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil || s.Signal == nil {
		return nil, s.Err
	}
	sig := *s.Signal
	if sig.Source == "" {
		sig.Source = s.Name()
	}
	return &sig, nil
}

// StaticRealtime always returns the same signal or error.
type StaticRealtime struct {
	Source string
	Signal *types.RealtimeSignal
	Err    error
}

func (s StaticRealtime) Name() string {
	if s.Source == "" {
		return "static-realtime"
	}
	return s.Source
}

func (s StaticRealtime) Realtime(ctx context.Context, symbol, timeframe string) (*types.RealtimeSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil || s.Signal == nil {
		return nil, s.Err
	}
	sig := *s.Signal
	if sig.Source == "" {
		sig.Source = s.Name()
	}
	return &sig, nil
}
