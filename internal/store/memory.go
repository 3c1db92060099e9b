package store

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	decisions []DecisionSnapshot
	autotunes []AutoTuneSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveDecision(ctx context.Context, s DecisionSnapshot) (DecisionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return s, err
	}
	stamp(&s.ID, &s.CreatedAt)
	m.mu.Lock()
	m.decisions = append(m.decisions, s)
	m.mu.Unlock()
	return s, nil
}

// LatestDecision returns the newest snapshot for the key; on equal times the
// one saved last wins.
func (m *MemoryStore) LatestDecision(ctx context.Context, userID, symbol, timeframe string) (DecisionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return DecisionSnapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := -1
	for i, s := range m.decisions {
		if s.UserID != userID || s.Symbol != symbol || s.Timeframe != timeframe {
			continue
		}
		if found < 0 || !s.CreatedAt.Before(m.decisions[found].CreatedAt) {
			found = i
		}
	}
	if found < 0 {
		return DecisionSnapshot{}, ErrNotFound
	}
	return m.decisions[found], nil
}

func (m *MemoryStore) SaveAutoTune(ctx context.Context, s AutoTuneSnapshot) (AutoTuneSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return s, err
	}
	stamp(&s.ID, &s.CreatedAt)
	m.mu.Lock()
	m.autotunes = append(m.autotunes, s)
	m.mu.Unlock()
	return s, nil
}

func (m *MemoryStore) LatestAutoTune(ctx context.Context, symbol, timeframe string) (AutoTuneSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return AutoTuneSnapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := -1
	for i, s := range m.autotunes {
		if s.Symbol != symbol || s.Timeframe != timeframe {
			continue
		}
		if found < 0 || !s.CreatedAt.Before(m.autotunes[found].CreatedAt) {
			found = i
		}
	}
	if found < 0 {
		return AutoTuneSnapshot{}, ErrNotFound
	}
	return m.autotunes[found], nil
}

func (m *MemoryStore) Close() error { return nil }
