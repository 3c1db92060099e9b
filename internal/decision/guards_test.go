package decision

import (
	"testing"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/stretchr/testify/assert"
)

// calmInput is a guard input no guard objects to.
func calmInput() guardInput {
	info := regime.Info{Regime: regime.RegimeTrend}
	info.Metrics.Features.VolumeRatio = 1
	return guardInput{bars: flatBars(30), info: info, now: testNow}
}

func TestApplyGuards_PassesCalmInput(t *testing.T) {
	action, blockedBy, reasons := applyGuards(DefaultParams(), calmInput(), ActionBuy)
	assert.Equal(t, ActionBuy, action)
	assert.Empty(t, blockedBy)
	assert.Empty(t, reasons)
}

func TestApplyGuards_HoldIsNeverBlocked(t *testing.T) {
	in := calmInput()
	in.info.Regime = regime.RegimePanic
	in.lastAction = testNow

	action, blockedBy, _ := applyGuards(DefaultParams(), in, ActionHold)
	assert.Equal(t, ActionHold, action)
	assert.Empty(t, blockedBy)
}

func TestApplyGuards_Liquidity(t *testing.T) {
	in := calmInput()
	in.bars[len(in.bars)-1].Volume = 100

	action, blockedBy, reasons := applyGuards(DefaultParams(), in, ActionSell)
	assert.Equal(t, ActionHold, action)
	assert.Equal(t, GuardLiquidity, blockedBy)
	assert.Len(t, reasons, 1)

	// amount takes precedence over volume when every bar has one
	for i := range in.bars {
		in.bars[i].Amount = 5000
	}
	action, _, _ = applyGuards(DefaultParams(), in, ActionSell)
	assert.Equal(t, ActionSell, action)
}

func TestApplyGuards_LiquidityNeedsHistory(t *testing.T) {
	in := calmInput()
	in.bars = flatBars(5)
	in.bars[4].Volume = 1

	action, _, _ := applyGuards(DefaultParams(), in, ActionBuy)
	assert.Equal(t, ActionBuy, action)
}

func TestApplyGuards_Cooldown(t *testing.T) {
	in := calmInput()
	in.lastAction = testNow.Add(-10 * time.Second)

	action, blockedBy, reasons := applyGuards(DefaultParams(), in, ActionBuy)
	assert.Equal(t, ActionHold, action)
	assert.Equal(t, GuardCooldown, blockedBy)
	assert.Contains(t, reasons[0], "10s ago")

	in.lastAction = testNow.Add(-30 * time.Second)
	action, _, _ = applyGuards(DefaultParams(), in, ActionBuy)
	assert.Equal(t, ActionBuy, action)
}

func TestApplyGuards_LowVolume(t *testing.T) {
	in := calmInput()
	in.info.Metrics.Features.VolumeRatio = 0.4

	action, blockedBy, _ := applyGuards(DefaultParams(), in, ActionBuy)
	assert.Equal(t, ActionHold, action)
	assert.Equal(t, GuardLowVolume, blockedBy)
}

func TestApplyGuards_PanicBuy(t *testing.T) {
	in := calmInput()
	in.info.Regime = regime.RegimePanic

	action, blockedBy, _ := applyGuards(DefaultParams(), in, ActionBuy)
	assert.Equal(t, ActionHold, action)
	assert.Equal(t, GuardPanicBuy, blockedBy)

	action, _, _ = applyGuards(DefaultParams(), in, ActionSell)
	assert.Equal(t, ActionSell, action)
}

func TestApplyGuards_FirstBlockWins(t *testing.T) {
	in := calmInput()
	in.info.Regime = regime.RegimePanic
	in.info.Metrics.Features.VolumeRatio = 0.1
	in.lastAction = testNow.Add(-time.Second)

	_, blockedBy, reasons := applyGuards(DefaultParams(), in, ActionBuy)
	assert.Equal(t, GuardCooldown, blockedBy)
	assert.Len(t, reasons, 1)
}
