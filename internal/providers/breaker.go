package providers

import (
	"context"
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures a provider circuit breaker.
type BreakerSettings struct {
	MaxRequests         uint32        `json:"max_requests" yaml:"max_requests"`                 // half-open probes (default: 1)
	Interval            time.Duration `json:"interval" yaml:"interval"`                         // count reset while closed (default: 1m)
	Timeout             time.Duration `json:"timeout" yaml:"timeout"`                           // open duration (default: 30s)
	ConsecutiveFailures uint32        `json:"consecutive_failures" yaml:"consecutive_failures"` // default: 3
}

// DefaultBreakerSettings returns the default breaker configuration.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 3,
	}
}

// Breaker stops calling a provider after repeated failures and lets a probe
// through once the timeout elapses.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a breaker named after the provider it guards.
func NewBreaker(name string, s BreakerSettings, logger zerolog.Logger) *Breaker {
	threshold := s.ConsecutiveFailures
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// State returns the breaker state name: closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// WrapNews guards p with the breaker.
func (b *Breaker) WrapNews(p NewsProvider) NewsProvider {
	return &breakerNews{inner: p, cb: b.cb}
}

// WrapRealtime guards p with the breaker.
func (b *Breaker) WrapRealtime(p RealtimeProvider) RealtimeProvider {
	return &breakerRealtime{inner: p, cb: b.cb}
}

type breakerNews struct {
	inner NewsProvider
	cb    *gobreaker.CircuitBreaker
}

func (b *breakerNews) Name() string { return b.inner.Name() }

func (b *breakerNews) News(ctx context.Context, symbol string) (*types.NewsSignal, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.News(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	sig, _ := out.(*types.NewsSignal)
	return sig, nil
}

type breakerRealtime struct {
	inner RealtimeProvider
	cb    *gobreaker.CircuitBreaker
}

func (b *breakerRealtime) Name() string { return b.inner.Name() }

func (b *breakerRealtime) Realtime(ctx context.Context, symbol, timeframe string) (*types.RealtimeSignal, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Realtime(ctx, symbol, timeframe)
	})
	if err != nil {
		return nil, err
	}
	sig, _ := out.(*types.RealtimeSignal)
	return sig, nil
}
