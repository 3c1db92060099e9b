package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHysteresis_FirstCandidateBecomesStable(t *testing.T) {
	h := NewHysteresis("")
	stable, switched := h.Push(RegimePanic)

	assert.Equal(t, RegimePanic, stable)
	assert.False(t, switched)
}

func TestHysteresis_SwitchesOnFifthConsecutive(t *testing.T) {
	h := NewHysteresis(RegimeRange)

	for i := 1; i <= 4; i++ {
		stable, switched := h.Push(RegimeTrend)
		assert.Equal(t, RegimeRange, stable, "candidate %d", i)
		assert.False(t, switched)
	}
	stable, switched := h.Push(RegimeTrend)
	assert.Equal(t, RegimeTrend, stable)
	assert.True(t, switched)
}

func TestHysteresis_InterruptedRunDoesNotSwitch(t *testing.T) {
	h := NewHysteresis(RegimeRange)
	seq := []Regime{
		RegimeTrend, RegimeTrend, RegimeTrend, RegimeTrend,
		RegimePanic,
		RegimeTrend, RegimeTrend, RegimeTrend, RegimeTrend,
	}
	for _, c := range seq {
		stable, _ := h.Push(c)
		assert.Equal(t, RegimeRange, stable)
	}
	stable, switched := h.Push(RegimeTrend)
	assert.Equal(t, RegimeTrend, stable)
	assert.True(t, switched)
}

func TestHysteresis_CandidateEqualToStableKeepsIt(t *testing.T) {
	h := NewHysteresis(RegimeTrend)
	for i := 0; i < 10; i++ {
		stable, switched := h.Push(RegimeTrend)
		assert.Equal(t, RegimeTrend, stable)
		assert.False(t, switched)
	}
}

func TestHysteresis_RunsOfFourNeverSwitch(t *testing.T) {
	h := NewHysteresis(RegimeRange)
	for round := 0; round < 5; round++ {
		for _, c := range []Regime{RegimeTrend, RegimeTrend, RegimeTrend, RegimeTrend, RegimePanic, RegimePanic, RegimePanic, RegimePanic} {
			stable, _ := h.Push(c)
			assert.Equal(t, RegimeRange, stable)
		}
	}
}

func TestHysteresis_WindowAndRun(t *testing.T) {
	h := NewHysteresis(RegimeRange)
	for _, c := range []Regime{RegimePanic, RegimeTrend, RegimeTrend, RegimeRange, RegimeTrend, RegimeTrend} {
		h.Push(c)
	}

	assert.Equal(t, []Regime{RegimeTrend, RegimeTrend, RegimeRange, RegimeTrend, RegimeTrend}, h.Window())
	assert.Equal(t, 2, h.Run())
}

func TestHysteresis_SeedAndClone(t *testing.T) {
	h := NewHysteresis("bogus")
	assert.False(t, h.Seeded())

	h.Seed(RegimePanic)
	assert.Equal(t, RegimePanic, h.Stable())
	h.Seed(RegimeTrend)
	assert.Equal(t, RegimePanic, h.Stable(), "seed only applies once")

	c := h.Clone()
	c.Push(RegimeTrend)
	assert.Empty(t, h.Window())
	assert.Len(t, c.Window(), 1)
}
