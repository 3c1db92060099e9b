// Package decision turns the decision regime into one actionable decision
// per call: it picks a leaf strategy by regime, applies the guards and keeps
// per-symbol state between calls.
package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/internal/monitoring"
	"github.com/ducminhle1904/strategy-lab/internal/providers"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/internal/store"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Request is one decision call.
type Request struct {
	UserID    string      `json:"user_id"`
	Symbol    string      `json:"symbol"`
	Timeframe string      `json:"timeframe"`
	Bars      []types.Bar `json:"-"`
	Now       time.Time   `json:"now"`       // zero means the engine clock
	Position  float64     `json:"position"`  // current exposure, fraction of a full allocation

	// Explicit signals bypass the providers.
	News     *types.NewsSignal     `json:"news,omitempty"`
	Realtime *types.RealtimeSignal `json:"realtime,omitempty"`
}

// Decision is the engine output.
type Decision struct {
	regime.Info
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Timeframe      string    `json:"timeframe"`
	Strategy       string    `json:"strategy"`
	Action         Action    `json:"action"`
	ProposedAction Action    `json:"proposed_action"`
	BlockedBy      string    `json:"blocked_by,omitempty"`
	PositionCap    float64   `json:"position_cap"`
	ServerTime     time.Time `json:"server_time"`
	SnapshotSaved  bool      `json:"snapshot_saved"`
}

// Engine makes decisions. It is safe for concurrent use; calls for the same
// key are serialized.
type Engine struct {
	params    Params
	detector  *regime.Detector
	news      providers.NewsProvider
	realtime  providers.RealtimeProvider
	snapshots store.SnapshotStore
	state     *StateStore
	throttle  *SnapshotThrottle
	clock     func() time.Time
	logger    zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithNewsProvider sets the news source, usually a providers.NewsChain.
func WithNewsProvider(p providers.NewsProvider) Option {
	return func(e *Engine) { e.news = p }
}

// WithRealtimeProvider sets the realtime tape source.
func WithRealtimeProvider(p providers.RealtimeProvider) Option {
	return func(e *Engine) { e.realtime = p }
}

// WithSnapshotStore enables snapshot seeding and writes.
func WithSnapshotStore(s store.SnapshotStore) Option {
	return func(e *Engine) { e.snapshots = s }
}

// WithStateStore shares per-key state between engines.
func WithStateStore(s *StateStore) Option {
	return func(e *Engine) { e.state = s }
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l.With().Str("component", "decision").Logger() }
}

// NewEngine creates an engine after validating params.
func NewEngine(params Params, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, engineerrors.NewConfigurationError("decision", "new engine", err.Error())
	}
	e := &Engine{
		params:   params,
		state:    NewStateStore(),
		throttle: NewSnapshotThrottle(params.SnapshotInterval),
		clock:    time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.detector = regime.NewDetector(params.Regime).WithLogger(e.logger)
	return e, nil
}

// Params returns the engine configuration.
func (e *Engine) Params() Params {
	return e.params
}

// Decide classifies the request's bars, dispatches the leaf strategy for the
// stable regime and applies the guards. Provider and snapshot failures
// degrade the decision with a reason; only a missing symbol or a cancelled
// context return an error.
func (e *Engine) Decide(ctx context.Context, req Request) (Decision, error) {
	if req.Symbol == "" {
		return Decision{}, engineerrors.NewValidationError("decision", "decide", "symbol is required")
	}
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	now := req.Now
	if now.IsZero() {
		now = e.clock()
	}
	bars, _ := types.CleanBars(req.Bars)
	key := StreamKey{UserID: req.UserID, Symbol: req.Symbol, Timeframe: req.Timeframe}
	log := e.logger.With().Str("symbol", req.Symbol).Str("timeframe", req.Timeframe).Logger()

	var reasons []string
	news, realtime := req.News, req.Realtime
	if news == nil && e.news != nil {
		sig, err := e.news.News(ctx, req.Symbol)
		if err != nil {
			reasons = append(reasons, "news provider: "+err.Error())
		}
		news = sig
	}
	if realtime == nil && e.realtime != nil {
		sig, err := e.realtime.Realtime(ctx, req.Symbol, req.Timeframe)
		if err != nil {
			reasons = append(reasons, "realtime provider: "+err.Error())
		}
		realtime = sig
	}
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	st := e.state.Lock(req.Symbol)
	defer st.Unlock()

	if !st.Hysteresis.Seeded() && e.snapshots != nil {
		reasons = append(reasons, e.seed(ctx, key, now, st.Hysteresis)...)
	}

	info := e.detector.Classify(regime.Input{
		Bars:      bars,
		Timeframe: req.Timeframe,
		Now:       now,
		News:      news,
		Realtime:  realtime,
	}, st.Hysteresis)

	sig := Dispatch(info.Regime, bars, req.Position, e.params)
	action, blockedBy, guardReasons := applyGuards(e.params, guardInput{
		bars:       bars,
		info:       info,
		now:        now,
		lastAction: st.LastAction,
	}, sig.Action)
	if action != ActionHold {
		st.LastAction = now
	}

	info.Reasons = append(append(append(reasons, info.Reasons...), fmt.Sprintf("%s: %s", sig.Strategy, sig.Reason)), guardReasons...)
	d := Decision{
		Info:           info,
		ID:             uuid.NewString(),
		Symbol:         req.Symbol,
		Timeframe:      req.Timeframe,
		Strategy:       sig.Strategy,
		Action:         action,
		ProposedAction: sig.Action,
		BlockedBy:      blockedBy,
		PositionCap:    e.params.PositionCap(info.Regime),
		ServerTime:     now,
	}
	monitoring.RecordDecision(string(d.Regime), string(d.Action))

	if e.snapshots != nil && e.throttle.Allow(key, now) {
		_, err := e.snapshots.SaveDecision(ctx, store.DecisionSnapshot{
			UserID:     req.UserID,
			Symbol:     req.Symbol,
			Timeframe:  req.Timeframe,
			Regime:     string(d.Regime),
			Confidence: d.Confidence,
			Strategy:   d.Strategy,
			Action:     string(d.Action),
			CreatedAt:  now,
		})
		if err != nil {
			log.Warn().Err(err).Msg("decision snapshot not saved")
			d.Reasons = append(d.Reasons, "snapshot not saved: "+err.Error())
		} else {
			d.SnapshotSaved = true
		}
	}

	log.Info().
		Str("regime", string(d.Regime)).
		Str("strategy", d.Strategy).
		Str("action", string(d.Action)).
		Str("reason", d.BlockedBy).
		Float64("confidence", d.Confidence).
		Msg("decision")
	return d, nil
}

// seed restores the stable regime from the latest snapshot for key.
func (e *Engine) seed(ctx context.Context, key StreamKey, now time.Time, h *regime.Hysteresis) []string {
	snap, err := e.snapshots.LatestDecision(ctx, key.UserID, key.Symbol, key.Timeframe)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		e.logger.Warn().Err(err).Str("symbol", key.Symbol).Msg("decision snapshot unavailable")
		return []string{"snapshot unavailable: " + err.Error()}
	}

	r := regime.ParseRegime(snap.Regime)
	age := now.Sub(snap.CreatedAt)
	if r == "" || (e.params.SnapshotMaxAge > 0 && age > e.params.SnapshotMaxAge) {
		return []string{fmt.Sprintf("snapshot from %s ignored", snap.CreatedAt.Format(time.RFC3339))}
	}
	h.Seed(r)
	return []string{fmt.Sprintf("hysteresis seeded with %s from snapshot %s", r, snap.ID)}
}
