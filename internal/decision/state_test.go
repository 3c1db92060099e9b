package decision

import (
	"sync"
	"testing"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/stretchr/testify/assert"
)

func TestStateStore_LockCreatesOnce(t *testing.T) {
	s := NewStateStore()

	st := s.Lock("BTCUSDT")
	assert.False(t, st.Hysteresis.Seeded())
	st.Hysteresis.Seed(regime.RegimeRange)
	st.Unlock()

	st = s.Lock("BTCUSDT")
	assert.Equal(t, regime.RegimeRange, st.Hysteresis.Stable())
	st.Unlock()

	other := s.Lock("ETHUSDT")
	assert.False(t, other.Hysteresis.Seeded())
	other.Unlock()
	assert.Equal(t, 2, s.Len())
}

func TestStateStore_SerializesKey(t *testing.T) {
	s := NewStateStore()
	key := "ETHUSDT"

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := s.Lock(key)
			st.LastAction = st.LastAction.Add(time.Second)
			st.Unlock()
		}()
	}
	wg.Wait()

	st := s.Lock(key)
	defer st.Unlock()
	assert.Equal(t, time.Time{}.Add(50*time.Second), st.LastAction)
}

func TestSnapshotThrottle(t *testing.T) {
	th := NewSnapshotThrottle(time.Minute)
	a := StreamKey{UserID: "u1", Symbol: "BTCUSDT", Timeframe: "1h"}
	b := StreamKey{UserID: "u1", Symbol: "BTCUSDT", Timeframe: "4h"}

	assert.True(t, th.Allow(a, testNow))
	assert.False(t, th.Allow(a, testNow.Add(30*time.Second)))
	assert.True(t, th.Allow(b, testNow.Add(30*time.Second)))
	assert.True(t, th.Allow(a, testNow.Add(61*time.Second)))
	assert.False(t, th.Allow(a, testNow.Add(62*time.Second)))
}

func TestSnapshotThrottle_Disabled(t *testing.T) {
	th := NewSnapshotThrottle(0)
	key := StreamKey{Symbol: "BTCUSDT"}
	for i := 0; i < 3; i++ {
		assert.True(t, th.Allow(key, testNow))
	}
}
