package regime

import (
	"strings"
	"testing"
	"time"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 08:00 at UTC+8, before the default 09:30 open
var testNow = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func hasReason(info Info, substr string) bool {
	for _, r := range info.Reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func TestClassify_Trend(t *testing.T) {
	d := NewDetector(DefaultParams())
	info := d.Classify(Input{Bars: trendingBars(120), Timeframe: "1h", Now: testNow}, nil)

	assert.Equal(t, RegimeTrend, info.Regime)
	assert.Equal(t, RegimeTrend, info.Candidate)
	assert.InDelta(t, 1.0, info.Confidence, 1e-9)
	assert.InDelta(t, 1.0, info.Metrics.Components.TrendK, 1e-9)
	assert.Nil(t, info.ExternalSignals)
	assert.True(t, hasReason(info, "news unavailable"))
	assert.True(t, hasReason(info, "realtime unavailable"))
}

func TestClassify_Range(t *testing.T) {
	d := NewDetector(DefaultParams())
	info := d.Classify(Input{Bars: flatBars(120), Timeframe: "1h", Now: testNow}, nil)

	assert.Equal(t, RegimeRange, info.Regime)
	assert.InDelta(t, 0.8, info.Scores.Range, 1e-9)
	assert.InDelta(t, 0.8, info.Confidence, 1e-9)
}

func TestClassify_Panic(t *testing.T) {
	d := NewDetector(DefaultParams())
	info := d.Classify(Input{Bars: crashBars(120), Timeframe: "1h", Now: testNow}, nil)

	assert.Equal(t, RegimePanic, info.Regime)
	assert.InDelta(t, 1.0, info.Metrics.Components.PanicK, 1e-9)
	assert.Greater(t, info.Metrics.Features.DrawdownPct, 40.0)
	assert.InDelta(t, 0.2, info.Confidence, 1e-9)
}

func TestClassify_ShortHistory(t *testing.T) {
	d := NewDetector(DefaultParams())
	info := d.Classify(Input{Bars: flatBars(10), Now: testNow}, nil)

	assert.True(t, hasReason(info, "insufficient history"))
	assert.Equal(t, RegimeRange, info.Regime)
}

func TestPick_TieOrder(t *testing.T) {
	r, second := pick(Scores{Trend: 1, Range: 1, Panic: 1})
	assert.Equal(t, RegimePanic, r)
	assert.Equal(t, 1.0, second)

	r, _ = pick(Scores{Trend: 0.5, Range: 0.5, Panic: 0.1})
	assert.Equal(t, RegimeTrend, r)

	r, second = pick(Scores{Trend: 0.2, Range: 0.7, Panic: 0.1})
	assert.Equal(t, RegimeRange, r)
	assert.Equal(t, 0.2, second)
}

func TestClassify_News(t *testing.T) {
	d := NewDetector(DefaultParams())
	bars := flatBars(120)

	t.Run("fresh bearish news feeds trend and panic", func(t *testing.T) {
		news := &types.NewsSignal{Score: -0.9, Confidence: 1, Timestamp: testNow.Add(-time.Hour)}
		info := d.Classify(Input{Bars: bars, Now: testNow, News: news}, nil)

		require.NotNil(t, info.ExternalSignals)
		assert.True(t, info.ExternalSignals.NewsUsed)
		assert.InDelta(t, 0.9, info.Metrics.Components.TrendNews, 1e-9)
		assert.InDelta(t, 0.9, info.Metrics.Components.PanicNews, 1e-9)
		assert.InDelta(t, 0.3*0.9, info.Scores.Trend, 1e-9)
		assert.InDelta(t, 0.3*0.9, info.Scores.Panic, 1e-9)
	})

	t.Run("weak news below thresholds", func(t *testing.T) {
		news := &types.NewsSignal{Score: 0.2, Confidence: 1, Timestamp: testNow}
		info := d.Classify(Input{Bars: bars, Now: testNow, News: news}, nil)

		assert.True(t, info.ExternalSignals.NewsUsed)
		assert.Zero(t, info.Metrics.Components.TrendNews)
		assert.Zero(t, info.Metrics.Components.PanicNews)
	})

	t.Run("stale news is excluded", func(t *testing.T) {
		news := &types.NewsSignal{Score: -0.9, Confidence: 1, Timestamp: testNow.Add(-5 * time.Hour)}
		info := d.Classify(Input{Bars: bars, Now: testNow, News: news}, nil)

		assert.False(t, info.ExternalSignals.NewsUsed)
		assert.Zero(t, info.Metrics.Components.PanicNews)
		assert.True(t, hasReason(info, "stale"))
	})
}

func TestClassify_RealtimeStaleness(t *testing.T) {
	d := NewDetector(DefaultParams())
	bars := flatBars(120)
	rt := &types.RealtimeSignal{VolumeSurprise: 5, AmountSurprise: 3.5, Timestamp: testNow.Add(-4 * time.Minute)}

	oneMin := d.Classify(Input{Bars: bars, Timeframe: "1m", Now: testNow, Realtime: rt}, nil)
	assert.False(t, oneMin.ExternalSignals.RealtimeUsed)
	assert.Zero(t, oneMin.Metrics.Components.PanicRT)

	fiveMin := d.Classify(Input{Bars: bars, Timeframe: "5m", Now: testNow, Realtime: rt}, nil)
	assert.True(t, fiveMin.ExternalSignals.RealtimeUsed)
	assert.InDelta(t, 1.0, fiveMin.Metrics.Components.PanicRT, 1e-9)
	assert.InDelta(t, 0.3, fiveMin.Scores.Panic, 1e-9)

	old := *rt
	old.Timestamp = testNow.Add(-7 * time.Minute)
	stale := d.Classify(Input{Bars: bars, Timeframe: "5m", Now: testNow, Realtime: &old}, nil)
	assert.False(t, stale.ExternalSignals.RealtimeUsed)
}

func TestClassify_RealtimeOpeningWindow(t *testing.T) {
	d := NewDetector(DefaultParams())
	now := time.Date(2024, 3, 11, 1, 40, 0, 0, time.UTC) // 09:40 at UTC+8
	rt := &types.RealtimeSignal{VolumeSurprise: 5, Timestamp: now}

	info := d.Classify(Input{Bars: flatBars(120), Timeframe: "5m", Now: now, Realtime: rt}, nil)
	assert.False(t, info.ExternalSignals.RealtimeUsed)
	assert.True(t, hasReason(info, "opening window"))
}

func TestParams_InOpeningWindow(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name string
		utc  string
		want bool
	}{
		{"before open", "01:29", false},
		{"at open", "01:30", true},
		{"inside window", "01:59", true},
		{"window closed", "02:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, err := time.Parse("2006-01-02 15:04", "2024-03-11 "+tt.utc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.inOpeningWindow(now))
		})
	}

	p.MarketOpen = "9h30"
	assert.Error(t, p.Validate())
}

func TestClassify_HysteresisAcrossCalls(t *testing.T) {
	d := NewDetector(DefaultParams())
	h := NewHysteresis(RegimeRange)
	in := Input{Bars: trendingBars(120), Timeframe: "1h", Now: testNow}

	for i := 0; i < 4; i++ {
		info := d.Classify(in, h)
		assert.Equal(t, RegimeRange, info.Regime)
		assert.Equal(t, RegimeTrend, info.Candidate)
		assert.True(t, hasReason(info, "waiting for stability"))
	}
	info := d.Classify(in, h)
	assert.Equal(t, RegimeTrend, info.Regime)
	assert.True(t, info.Switched)
}

func TestClassify_ConfidenceBounded(t *testing.T) {
	p := DefaultParams()
	p.WTrend = 5
	d := NewDetector(p)
	info := d.Classify(Input{Bars: trendingBars(120), Now: testNow}, nil)

	assert.Equal(t, 1.0, info.Confidence)
}
