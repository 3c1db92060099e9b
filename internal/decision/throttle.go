package decision

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SnapshotThrottle allows at most one snapshot write per interval for each
// key.
type SnapshotThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[StreamKey]*rate.Limiter
}

// NewSnapshotThrottle creates a throttle. A non-positive interval allows
// every write.
func NewSnapshotThrottle(interval time.Duration) *SnapshotThrottle {
	return &SnapshotThrottle{
		interval: interval,
		limiters: make(map[StreamKey]*rate.Limiter),
	}
}

// Allow reports whether key may write a snapshot at now, consuming the slot
// when it does.
func (t *SnapshotThrottle) Allow(key StreamKey, now time.Time) bool {
	if t.interval <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[key] = l
	}
	return l.AllowN(now, 1)
}
