// Package store persists decision and autotune snapshots. The engine only
// reads the latest decision snapshot to keep regime hysteresis continuous.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

// DecisionSnapshot records one emitted decision.
type DecisionSnapshot struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Regime     string    `json:"regime"`
	Confidence float64   `json:"confidence"`
	Strategy   string    `json:"strategy"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

// AutoTuneSnapshot records the best parameters an autotune run found.
// BestParams and Metrics are stored as encoded JSON.
type AutoTuneSnapshot struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	BestParams json.RawMessage `json:"best_params"`
	Metrics    json.RawMessage `json:"metrics"`
	Score      float64         `json:"score"`
	Trials     int             `json:"trials"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SnapshotStore saves snapshots and returns the latest per key.
type SnapshotStore interface {
	SaveDecision(ctx context.Context, s DecisionSnapshot) (DecisionSnapshot, error)
	LatestDecision(ctx context.Context, userID, symbol, timeframe string) (DecisionSnapshot, error)
	SaveAutoTune(ctx context.Context, s AutoTuneSnapshot) (AutoTuneSnapshot, error)
	LatestAutoTune(ctx context.Context, symbol, timeframe string) (AutoTuneSnapshot, error)
	Close() error
}

// stamp fills a missing ID and creation time.
func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}
