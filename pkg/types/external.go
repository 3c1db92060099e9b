package types

import "time"

// NewsSignal is an aggregated news sentiment reading. Score is in [-1, 1],
// Confidence in [0, 1].
type NewsSignal struct {
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source,omitempty"`
}

// Age returns how old the reading is at now.
func (n NewsSignal) Age(now time.Time) time.Duration {
	return now.Sub(n.Timestamp)
}

// RealtimeSignal carries tape surprise ratios: current volume and amount
// relative to their recent norm (1.0 = normal).
type RealtimeSignal struct {
	VolumeSurprise float64   `json:"volume_surprise"`
	AmountSurprise float64   `json:"amount_surprise"`
	Timestamp      time.Time `json:"timestamp"`
	Source         string    `json:"source,omitempty"`
}

// Age returns how old the reading is at now.
func (r RealtimeSignal) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}
