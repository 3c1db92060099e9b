package decision

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/providers"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/internal/store"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

// brokenStore fails every call.
type brokenStore struct {
	*store.MemoryStore
}

func (brokenStore) SaveDecision(context.Context, store.DecisionSnapshot) (store.DecisionSnapshot, error) {
	return store.DecisionSnapshot{}, errStoreDown
}

func (brokenStore) LatestDecision(context.Context, string, string, string) (store.DecisionSnapshot, error) {
	return store.DecisionSnapshot{}, errStoreDown
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultParams(), opts...)
	require.NoError(t, err)
	return e
}

func hasReason(d Decision, substr string) bool {
	for _, r := range d.Reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func TestNewEngine_InvalidParams(t *testing.T) {
	p := DefaultParams()
	p.MeanRevStdDev = 0
	_, err := NewEngine(p)
	require.Error(t, err)
}

func TestDecide_RequiresSymbol(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Decide(context.Background(), Request{Bars: trendingBars(60), Now: testNow})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol is required")
}

func TestDecide_Cancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Decide(ctx, Request{Symbol: "BTCUSDT", Bars: trendingBars(60), Now: testNow})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecide_TrendBuys(t *testing.T) {
	e := newTestEngine(t)
	d, err := e.Decide(context.Background(), Request{Symbol: "BTCUSDT", Timeframe: "1h", Bars: trendingBars(120), Now: testNow})
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, regime.RegimeTrend, d.Regime)
	assert.Equal(t, StrategyTSMOM, d.Strategy)
	assert.Equal(t, ActionBuy, d.Action)
	assert.Equal(t, ActionBuy, d.ProposedAction)
	assert.Empty(t, d.BlockedBy)
	assert.Equal(t, 1.0, d.PositionCap)
	assert.Equal(t, testNow, d.ServerTime)
	assert.False(t, d.SnapshotSaved)
	assert.True(t, hasReason(d, "TSMOM: 20-bar return"))
}

func TestDecide_CooldownBetweenActions(t *testing.T) {
	e := newTestEngine(t)
	req := Request{UserID: "u1", Symbol: "BTCUSDT", Timeframe: "1h", Bars: trendingBars(120), Now: testNow}

	d, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, d.Action)

	req.Now = testNow.Add(10 * time.Second)
	d, err = e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionHold, d.Action)
	assert.Equal(t, ActionBuy, d.ProposedAction)
	assert.Equal(t, GuardCooldown, d.BlockedBy)

	// a blocked action does not restart the cooldown
	req.Now = testNow.Add(31 * time.Second)
	d, err = e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, d.Action)

	// the cooldown belongs to the symbol, whoever asks on whatever timeframe
	for _, other := range []Request{
		{UserID: "u2", Symbol: "BTCUSDT", Timeframe: "1h"},
		{UserID: "u1", Symbol: "BTCUSDT", Timeframe: "5m"},
	} {
		other.Bars = req.Bars
		other.Now = testNow.Add(32 * time.Second)
		d, err = e.Decide(context.Background(), other)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, d.Action, other.UserID+"/"+other.Timeframe)
		assert.Equal(t, GuardCooldown, d.BlockedBy)
	}

	req.Symbol = "ETHUSDT"
	req.Now = testNow.Add(32 * time.Second)
	d, err = e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, d.Action)
}

func TestDecide_PanicSells(t *testing.T) {
	e := newTestEngine(t)
	req := Request{Symbol: "BTCUSDT", Timeframe: "1h", Bars: crashBars(120), Now: testNow, Position: 1}

	d, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, regime.RegimePanic, d.Regime)
	assert.Equal(t, StrategyRiskOff, d.Strategy)
	assert.Equal(t, ActionSell, d.Action)
	assert.Zero(t, d.PositionCap)

	req.Symbol = "ETHUSDT"
	req.Position = 0
	d, err = e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionHold, d.Action)
}

func TestDecide_RangeUsesMeanReversion(t *testing.T) {
	e := newTestEngine(t)
	d, err := e.Decide(context.Background(), Request{Symbol: "BTCUSDT", Timeframe: "1h", Bars: flatBars(120), Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, regime.RegimeRange, d.Regime)
	assert.Equal(t, StrategyMeanReversion, d.Strategy)
	assert.Equal(t, ActionHold, d.Action)
	assert.Equal(t, 0.5, d.PositionCap)
}

func TestDecide_SnapshotThrottled(t *testing.T) {
	mem := store.NewMemoryStore()
	e := newTestEngine(t, WithSnapshotStore(mem))
	req := Request{UserID: "u1", Symbol: "BTCUSDT", Timeframe: "1h", Bars: flatBars(120), Now: testNow}
	ctx := context.Background()

	d, err := e.Decide(ctx, req)
	require.NoError(t, err)
	assert.True(t, d.SnapshotSaved)

	req.Now = testNow.Add(30 * time.Second)
	d, err = e.Decide(ctx, req)
	require.NoError(t, err)
	assert.False(t, d.SnapshotSaved)

	req.Now = testNow.Add(61 * time.Second)
	d, err = e.Decide(ctx, req)
	require.NoError(t, err)
	assert.True(t, d.SnapshotSaved)

	snap, err := mem.LatestDecision(ctx, "u1", "BTCUSDT", "1h")
	require.NoError(t, err)
	assert.Equal(t, "RANGE", snap.Regime)
	assert.Equal(t, StrategyMeanReversion, snap.Strategy)
	assert.Equal(t, "HOLD", snap.Action)
	assert.True(t, snap.CreatedAt.Equal(testNow.Add(61*time.Second)))
}

func TestDecide_SeedsFromFreshSnapshot(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	_, err := mem.SaveDecision(ctx, store.DecisionSnapshot{
		UserID: "u1", Symbol: "BTCUSDT", Timeframe: "1h",
		Regime: "RANGE", Strategy: StrategyMeanReversion, Action: "HOLD",
		CreatedAt: testNow.Add(-time.Hour),
	})
	require.NoError(t, err)

	e := newTestEngine(t, WithSnapshotStore(mem))
	d, err := e.Decide(ctx, Request{UserID: "u1", Symbol: "BTCUSDT", Timeframe: "1h", Bars: trendingBars(120), Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, regime.RegimeTrend, d.Candidate)
	assert.Equal(t, regime.RegimeRange, d.Regime)
	assert.Equal(t, StrategyMeanReversion, d.Strategy)
	assert.True(t, hasReason(d, "hysteresis seeded with RANGE"))
	assert.True(t, hasReason(d, "waiting for stability"))
}

func TestDecide_IgnoresStaleSnapshot(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	_, err := mem.SaveDecision(ctx, store.DecisionSnapshot{
		UserID: "u1", Symbol: "BTCUSDT", Timeframe: "1h",
		Regime: "RANGE", CreatedAt: testNow.Add(-48 * time.Hour),
	})
	require.NoError(t, err)

	e := newTestEngine(t, WithSnapshotStore(mem))
	d, err := e.Decide(ctx, Request{UserID: "u1", Symbol: "BTCUSDT", Timeframe: "1h", Bars: trendingBars(120), Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, regime.RegimeTrend, d.Regime)
	assert.True(t, hasReason(d, "ignored"))
}

func TestDecide_StoreFailureIsSoft(t *testing.T) {
	e := newTestEngine(t, WithSnapshotStore(brokenStore{store.NewMemoryStore()}))
	d, err := e.Decide(context.Background(), Request{Symbol: "BTCUSDT", Timeframe: "1h", Bars: trendingBars(120), Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, ActionBuy, d.Action)
	assert.False(t, d.SnapshotSaved)
	assert.True(t, hasReason(d, "snapshot unavailable: store down"))
	assert.True(t, hasReason(d, "snapshot not saved: store down"))
}

func TestDecide_ProviderSignals(t *testing.T) {
	news := providers.StaticNews{Signal: &types.NewsSignal{Score: 0.5, Confidence: 0.8, Timestamp: testNow}}
	realtime := providers.StaticRealtime{Err: errors.New("tape offline")}
	e := newTestEngine(t, WithNewsProvider(news), WithRealtimeProvider(realtime))

	d, err := e.Decide(context.Background(), Request{Symbol: "BTCUSDT", Timeframe: "1h", Bars: flatBars(120), Now: testNow})
	require.NoError(t, err)

	require.NotNil(t, d.ExternalSignals)
	assert.True(t, d.ExternalSignals.NewsUsed)
	assert.Equal(t, "static-news", d.ExternalSignals.News.Source)
	assert.False(t, d.ExternalSignals.RealtimeUsed)
	assert.True(t, hasReason(d, "realtime provider: tape offline"))
	assert.InDelta(t, 0.3*0.5*0.8, d.Scores.Trend, 1e-9)
}

func TestDecide_RequestSignalsBypassProviders(t *testing.T) {
	news := providers.StaticNews{Err: errors.New("should not be called")}
	e := newTestEngine(t, WithNewsProvider(news))

	d, err := e.Decide(context.Background(), Request{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Bars:      flatBars(120),
		Now:       testNow,
		News:      &types.NewsSignal{Score: -0.9, Confidence: 1, Timestamp: testNow},
	})
	require.NoError(t, err)
	assert.False(t, hasReason(d, "should not be called"))
	assert.InDelta(t, 0.3*0.9, d.Scores.Panic, 1e-9)
}

func TestDecide_UsesClock(t *testing.T) {
	e := newTestEngine(t, WithClock(func() time.Time { return testNow }))
	d, err := e.Decide(context.Background(), Request{Symbol: "BTCUSDT", Bars: flatBars(120)})
	require.NoError(t, err)
	assert.Equal(t, testNow, d.ServerTime)
}

func TestDecide_ConcurrentCallsShareState(t *testing.T) {
	states := NewStateStore()
	e := newTestEngine(t, WithStateStore(states), WithSnapshotStore(store.NewMemoryStore()))
	bars := trendingBars(120)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		buys int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := e.Decide(context.Background(), Request{Symbol: "BTCUSDT", Timeframe: "1h", Bars: bars, Now: testNow})
			assert.NoError(t, err)
			if d.Action == ActionBuy {
				mu.Lock()
				buys++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, buys)
	assert.Equal(t, 1, states.Len())
}
