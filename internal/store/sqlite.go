package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS decision_snapshots (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    timeframe TEXT NOT NULL,
    regime TEXT NOT NULL,
    confidence REAL NOT NULL,
    strategy TEXT NOT NULL,
    action TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_snapshots_key
    ON decision_snapshots (user_id, symbol, timeframe, created_at);

CREATE TABLE IF NOT EXISTS autotune_snapshots (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    timeframe TEXT NOT NULL,
    best_params TEXT NOT NULL,
    metrics TEXT NOT NULL,
    score REAL NOT NULL,
    trials INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_autotune_snapshots_key
    ON autotune_snapshots (symbol, timeframe, created_at);
`

// SQLiteStore persists snapshots in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path and applies
// the schema. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, engineerrors.NewConfigurationError("store", "open", "database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, engineerrors.NewStorageError("store", "create db directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, engineerrors.NewStorageError("store", "open sqlite", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, engineerrors.NewStorageError("store", "apply schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveDecision(ctx context.Context, snap DecisionSnapshot) (DecisionSnapshot, error) {
	stamp(&snap.ID, &snap.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decision_snapshots (id, user_id, symbol, timeframe, regime, confidence, strategy, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.UserID, snap.Symbol, snap.Timeframe, snap.Regime, snap.Confidence, snap.Strategy, snap.Action, snap.CreatedAt.UnixNano())
	if err != nil {
		return snap, engineerrors.NewStorageError("store", "save decision snapshot", err)
	}
	return snap, nil
}

func (s *SQLiteStore) LatestDecision(ctx context.Context, userID, symbol, timeframe string) (DecisionSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, symbol, timeframe, regime, confidence, strategy, action, created_at
		FROM decision_snapshots
		WHERE user_id = ? AND symbol = ? AND timeframe = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, userID, symbol, timeframe)

	var snap DecisionSnapshot
	var created int64
	err := row.Scan(&snap.ID, &snap.UserID, &snap.Symbol, &snap.Timeframe, &snap.Regime, &snap.Confidence, &snap.Strategy, &snap.Action, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return DecisionSnapshot{}, ErrNotFound
	}
	if err != nil {
		return DecisionSnapshot{}, engineerrors.NewStorageError("store", "load decision snapshot", err)
	}
	snap.CreatedAt = time.Unix(0, created).UTC()
	return snap, nil
}

func (s *SQLiteStore) SaveAutoTune(ctx context.Context, snap AutoTuneSnapshot) (AutoTuneSnapshot, error) {
	stamp(&snap.ID, &snap.CreatedAt)
	params, metrics := string(snap.BestParams), string(snap.Metrics)
	if params == "" {
		params = "null"
	}
	if metrics == "" {
		metrics = "null"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO autotune_snapshots (id, symbol, timeframe, best_params, metrics, score, trials, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Symbol, snap.Timeframe, params, metrics, snap.Score, snap.Trials, snap.CreatedAt.UnixNano())
	if err != nil {
		return snap, engineerrors.NewStorageError("store", "save autotune snapshot", err)
	}
	return snap, nil
}

func (s *SQLiteStore) LatestAutoTune(ctx context.Context, symbol, timeframe string) (AutoTuneSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, timeframe, best_params, metrics, score, trials, created_at
		FROM autotune_snapshots
		WHERE symbol = ? AND timeframe = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, symbol, timeframe)

	var snap AutoTuneSnapshot
	var params, metrics string
	var created int64
	err := row.Scan(&snap.ID, &snap.Symbol, &snap.Timeframe, &params, &metrics, &snap.Score, &snap.Trials, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return AutoTuneSnapshot{}, ErrNotFound
	}
	if err != nil {
		return AutoTuneSnapshot{}, engineerrors.NewStorageError("store", "load autotune snapshot", err)
	}
	snap.BestParams = []byte(params)
	snap.Metrics = []byte(metrics)
	snap.CreatedAt = time.Unix(0, created).UTC()
	return snap, nil
}

// Close releases the underlying DB handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
