package regime

import "time"

// MarketRegime is the price-only classification used by the recommender.
type MarketRegime string

const (
	MarketTrendUp   MarketRegime = "TREND_UP"
	MarketTrendDown MarketRegime = "TREND_DOWN"
	MarketRange     MarketRegime = "RANGE"
	MarketHighVol   MarketRegime = "HIGH_VOL"
	MarketUncertain MarketRegime = "UNCERTAIN"
)

func (m MarketRegime) String() string { return string(m) }

// Regime is the decision regime that selects the strategy family.
type Regime string

const (
	RegimeTrend Regime = "TREND"
	RegimeRange Regime = "RANGE"
	RegimePanic Regime = "PANIC"
)

func (r Regime) String() string { return string(r) }

// Valid reports whether r is one of the three decision regimes.
func (r Regime) Valid() bool {
	switch r {
	case RegimeTrend, RegimeRange, RegimePanic:
		return true
	default:
		return false
	}
}

// ParseRegime returns the regime for s, or "" when s is not a regime.
func ParseRegime(s string) Regime {
	r := Regime(s)
	if r.Valid() {
		return r
	}
	return ""
}

// Scores are the weighted per-regime sums the candidate is picked from.
type Scores struct {
	Trend float64 `json:"trend"`
	Range float64 `json:"range"`
	Panic float64 `json:"panic"`
}

// Change is a stable-regime transition.
type Change struct {
	Timestamp  time.Time `json:"timestamp"`
	From       Regime    `json:"from"`
	To         Regime    `json:"to"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}
