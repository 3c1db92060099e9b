package decision

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/indicators"
	"github.com/ducminhle1904/strategy-lab/internal/monitoring"
	"github.com/ducminhle1904/strategy-lab/internal/regime"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// Guard names, in the order they run.
const (
	GuardLiquidity = "liquidity"
	GuardCooldown  = "cooldown"
	GuardLowVolume = "low_volume"
	GuardPanicBuy  = "panic_buy"
)

// guardInput is what the guards look at.
type guardInput struct {
	bars       []types.Bar
	info       regime.Info
	now        time.Time
	lastAction time.Time
}

// guard returns a non-empty reason when it blocks the action.
type guard struct {
	name  string
	check func(p Params, in guardInput, action Action) string
}

var guards = []guard{
	{GuardLiquidity, liquidityGuard},
	{GuardCooldown, cooldownGuard},
	{GuardLowVolume, lowVolumeGuard},
	{GuardPanicBuy, panicBuyGuard},
}

// applyGuards downgrades a non-HOLD action to HOLD at the first guard that
// blocks it. It returns the final action, the blocking guard and the
// reasons collected.
func applyGuards(p Params, in guardInput, action Action) (Action, string, []string) {
	var reasons []string
	for _, g := range guards {
		if action == ActionHold {
			break
		}
		if why := g.check(p, in, action); why != "" {
			monitoring.RecordGuardBlock(g.name)
			reasons = append(reasons, fmt.Sprintf("%s guard: %s", g.name, why))
			return ActionHold, g.name, reasons
		}
	}
	return action, "", reasons
}

// liquidityGuard compares the last bar's amount (volume when amount is
// missing) with its recent average.
func liquidityGuard(p Params, in guardInput, _ Action) string {
	series := indicators.Liquidity(in.bars)
	avg := indicators.Last(indicators.SMA(series, p.LiquidityPeriod))
	last := indicators.Last(series)
	if !indicators.AllFinite(avg, last) || avg <= 0 {
		return ""
	}
	if ratio := last / avg; ratio < p.LiquidityMinRatio {
		return fmt.Sprintf("last bar at %.2fx its %d-bar average (min %.2fx)", ratio, p.LiquidityPeriod, p.LiquidityMinRatio)
	}
	return ""
}

func cooldownGuard(p Params, in guardInput, _ Action) string {
	if in.lastAction.IsZero() || p.Cooldown <= 0 {
		return ""
	}
	if since := in.now.Sub(in.lastAction); since < p.Cooldown {
		return fmt.Sprintf("last action %s ago (cooldown %s)", since.Round(time.Second), p.Cooldown)
	}
	return ""
}

func lowVolumeGuard(p Params, in guardInput, _ Action) string {
	ratio := in.info.Metrics.Features.VolumeRatio
	if indicators.IsFinite(ratio) && ratio < p.LowVolumeFloor {
		return fmt.Sprintf("volume ratio %.2f below floor %.2f", ratio, p.LowVolumeFloor)
	}
	return ""
}

func panicBuyGuard(_ Params, in guardInput, action Action) string {
	if in.info.Regime == regime.RegimePanic && action == ActionBuy {
		return "buying is disabled in PANIC"
	}
	return ""
}
