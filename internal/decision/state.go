package decision

import (
	"sync"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/regime"
)

// StreamKey identifies one decision stream for snapshot persistence.
type StreamKey struct {
	UserID    string
	Symbol    string
	Timeframe string
}

// SymbolState is the mutable state carried between decisions for one
// symbol, shared by every user and timeframe deciding on it. Fields are only
// touched while the entry is locked.
type SymbolState struct {
	mu         sync.Mutex
	Hysteresis *regime.Hysteresis
	LastAction time.Time
}

// Unlock releases an entry returned by StateStore.Lock.
func (s *SymbolState) Unlock() {
	s.mu.Unlock()
}

// StateStore holds per-symbol decision state. Entries are created on first use
// and live for the lifetime of the store.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]*SymbolState
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{entries: make(map[string]*SymbolState)}
}

// Lock returns the entry for symbol with its lock held. The caller must call
// Unlock on it.
func (s *StateStore) Lock(symbol string) *SymbolState {
	s.mu.Lock()
	st, ok := s.entries[symbol]
	if !ok {
		st = &SymbolState{Hysteresis: regime.NewHysteresis("")}
		s.entries[symbol] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	return st
}

// Len returns the number of tracked symbols.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
