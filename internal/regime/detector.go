package regime

import (
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/indicators"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/rs/zerolog"
)

// Input is everything one classification looks at.
type Input struct {
	Bars      []types.Bar
	Timeframe string
	Now       time.Time
	News      *types.NewsSignal
	Realtime  *types.RealtimeSignal
}

// ComponentScores are the normalized per-source scores before weighting.
type ComponentScores struct {
	TrendK    float64 `json:"score_trend_k"`
	PanicK    float64 `json:"score_panic_k"`
	RangeK    float64 `json:"score_range_k"`
	TrendNews float64 `json:"score_trend_news"`
	PanicNews float64 `json:"score_panic_news"`
	PanicRT   float64 `json:"score_panic_rt"`
}

// Metrics is the diagnostic payload attached to Info.
type Metrics struct {
	Features   Features        `json:"features"`
	Components ComponentScores `json:"components"`
}

// ExternalSignals echoes the optional inputs and whether each was used.
type ExternalSignals struct {
	News         *types.NewsSignal     `json:"news,omitempty"`
	NewsUsed     bool                  `json:"news_used"`
	Realtime     *types.RealtimeSignal `json:"realtime,omitempty"`
	RealtimeUsed bool                  `json:"realtime_used"`
}

// Info is a decision regime classification.
type Info struct {
	Regime          Regime           `json:"regime"`
	Candidate       Regime           `json:"candidate"`
	Switched        bool             `json:"switched"`
	Confidence      float64          `json:"confidence"`
	Scores          Scores           `json:"scores"`
	Metrics         Metrics          `json:"metrics"`
	Reasons         []string         `json:"reasons"`
	ExternalSignals *ExternalSignals `json:"external_signals,omitempty"`
}

// Detector classifies bars plus optional news/realtime signals into
// TREND/RANGE/PANIC.
type Detector struct {
	params Params
	logger zerolog.Logger
}

// NewDetector creates a detector with the given parameters.
func NewDetector(params Params) *Detector {
	return &Detector{params: params, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for regime switches.
func (d *Detector) WithLogger(l zerolog.Logger) *Detector {
	d.logger = l.With().Str("component", "regime").Logger()
	return d
}

// Params returns the detector configuration.
func (d *Detector) Params() Params {
	return d.params
}

// Classify scores the input, picks a candidate and runs it through h. A nil
// h reports the candidate as the regime.
func (d *Detector) Classify(in Input, h *Hysteresis) Info {
	p := d.params
	info := Info{Reasons: []string{}}

	f := ComputeFeatures(in.Bars)
	comp := ComponentScores{
		TrendK: clamp01(math.Abs(f.SlopePct), p.TrendSlopeThreshold, p.TrendSlopeScale),
		PanicK: panicScore(f, p),
	}
	comp.RangeK = 1 - math.Max(comp.TrendK, comp.PanicK)
	if !indicators.AllFinite(f.SlopePct, f.ATRPct) {
		info.Reasons = append(info.Reasons, fmt.Sprintf("insufficient history (%d bars): price features partial", len(in.Bars)))
	}

	ext := &ExternalSignals{News: in.News, Realtime: in.Realtime}
	d.applyNews(in, &comp, ext, &info)
	d.applyRealtime(in, &comp, ext, &info)
	if in.News != nil || in.Realtime != nil {
		info.ExternalSignals = ext
	}

	info.Scores = Scores{
		Trend: p.WTrend*comp.TrendK + p.WNews*comp.TrendNews,
		Range: p.WRange * comp.RangeK,
		Panic: p.WPanic*comp.PanicK + p.WNews*comp.PanicNews + p.WRealtime*comp.PanicRT,
	}
	info.Metrics = Metrics{Features: f, Components: comp}

	var second float64
	info.Candidate, second = pick(info.Scores)
	top := scoreOf(info.Scores, info.Candidate)
	info.Confidence = math.Max(0, math.Min(1, top-second))
	info.Reasons = append(info.Reasons, fmt.Sprintf("candidate %s (trend %.3f, range %.3f, panic %.3f)",
		info.Candidate, info.Scores.Trend, info.Scores.Range, info.Scores.Panic))

	if h == nil {
		info.Regime = info.Candidate
		return info
	}

	prev := h.Stable()
	stable, switched := h.Push(info.Candidate)
	info.Regime = stable
	info.Switched = switched
	switch {
	case switched:
		info.Reasons = append(info.Reasons, fmt.Sprintf("regime switched %s -> %s after %d consecutive candidates", prev, stable, HysteresisWindow))
		d.logger.Info().Str("from", string(prev)).Str("to", string(stable)).Float64("confidence", info.Confidence).Msg("regime switched")
	case info.Candidate != stable:
		info.Reasons = append(info.Reasons, fmt.Sprintf("waiting for stability: %s seen %d/%d, keeping %s", info.Candidate, h.Run(), HysteresisWindow, stable))
	}
	return info
}

func panicScore(f Features, p Params) float64 {
	atr := clamp01(f.ATRPct, p.PanicATRThreshold, p.PanicATRScale)
	dd := clamp01(f.DrawdownPct, p.PanicDDThreshold, p.PanicDDScale)
	vol := clamp01(f.VolumeRatio, p.PanicVolThreshold, p.PanicVolScale)
	return math.Min(1, 0.5*atr+0.5*dd+0.25*vol)
}

func (d *Detector) applyNews(in Input, comp *ComponentScores, ext *ExternalSignals, info *Info) {
	p := d.params
	n := in.News
	switch {
	case n == nil:
		info.Reasons = append(info.Reasons, "news unavailable: no signal")
		return
	case !indicators.AllFinite(n.Score, n.Confidence):
		info.Reasons = append(info.Reasons, "news unavailable: non-finite values")
		return
	case n.Age(in.Now) > p.NewsMaxAge:
		info.Reasons = append(info.Reasons, fmt.Sprintf("news unavailable: stale (%s old, limit %s)", n.Age(in.Now).Round(time.Second), p.NewsMaxAge))
		return
	}

	ext.NewsUsed = true
	score := math.Max(-1, math.Min(1, n.Score))
	conf := math.Max(0, math.Min(1, n.Confidence))
	if math.Abs(score) > p.NewsTrendThreshold {
		comp.TrendNews = math.Abs(score) * conf
	}
	if -score > p.NewsPanicThreshold {
		comp.PanicNews = -score * conf
	}
	info.Reasons = append(info.Reasons, fmt.Sprintf("news score %.2f confidence %.2f", score, conf))
}

func (d *Detector) applyRealtime(in Input, comp *ComponentScores, ext *ExternalSignals, info *Info) {
	p := d.params
	r := in.Realtime
	switch {
	case r == nil:
		info.Reasons = append(info.Reasons, "realtime unavailable: no signal")
		return
	case r.Age(in.Now) > p.realtimeMaxAge(in.Timeframe):
		info.Reasons = append(info.Reasons, fmt.Sprintf("realtime unavailable: stale (%s old, limit %s)", r.Age(in.Now).Round(time.Second), p.realtimeMaxAge(in.Timeframe)))
		return
	case p.inOpeningWindow(in.Now):
		info.Reasons = append(info.Reasons, "realtime unavailable: within opening window")
		return
	}

	surprise := math.NaN()
	for _, v := range []float64{r.VolumeSurprise, r.AmountSurprise} {
		if indicators.AllFinite(v) && (math.IsNaN(surprise) || v > surprise) {
			surprise = v
		}
	}
	if math.IsNaN(surprise) {
		info.Reasons = append(info.Reasons, "realtime unavailable: non-finite values")
		return
	}
	ext.RealtimeUsed = true
	comp.PanicRT = clamp01(surprise, p.RealtimeThreshold, p.RealtimeScale)
	info.Reasons = append(info.Reasons, fmt.Sprintf("realtime surprise %.2f", surprise))
}

// pick returns the argmax regime and the second-highest score. Ties go to
// PANIC, then TREND, then RANGE.
func pick(s Scores) (Regime, float64) {
	ordered := []struct {
		r Regime
		v float64
	}{
		{RegimePanic, s.Panic},
		{RegimeTrend, s.Trend},
		{RegimeRange, s.Range},
	}
	best := 0
	for i := 1; i < len(ordered); i++ {
		if ordered[i].v > ordered[best].v {
			best = i
		}
	}
	second := math.Inf(-1)
	for i, o := range ordered {
		if i != best && o.v > second {
			second = o.v
		}
	}
	return ordered[best].r, second
}

func scoreOf(s Scores, r Regime) float64 {
	switch r {
	case RegimeTrend:
		return s.Trend
	case RegimePanic:
		return s.Panic
	default:
		return s.Range
	}
}
