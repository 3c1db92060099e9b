package regime

// HysteresisWindow is how many consecutive identical candidates it takes to
// switch the stable regime.
const HysteresisWindow = 5

// Hysteresis keeps the last HysteresisWindow candidates for one symbol and
// the stable regime derived from them. It is not safe for concurrent use;
// callers hold it under their per-symbol lock.
type Hysteresis struct {
	ring   [HysteresisWindow]Regime
	count  int
	next   int
	stable Regime
}

// NewHysteresis returns a ring seeded with a stable regime. An empty seed
// means the first candidate becomes stable immediately.
func NewHysteresis(seed Regime) *Hysteresis {
	h := &Hysteresis{}
	if seed.Valid() {
		h.stable = seed
	}
	return h
}

// Stable returns the current stable regime, or "" before the first Push.
func (h *Hysteresis) Stable() Regime {
	return h.stable
}

// Seeded reports whether a stable regime is set.
func (h *Hysteresis) Seeded() bool {
	return h.stable != ""
}

// Seed sets the stable regime if none is set yet.
func (h *Hysteresis) Seed(r Regime) {
	if h.stable == "" && r.Valid() {
		h.stable = r
	}
}

// Window returns the recorded candidates, oldest first.
func (h *Hysteresis) Window() []Regime {
	out := make([]Regime, 0, h.count)
	start := (h.next - h.count + HysteresisWindow) % HysteresisWindow
	for i := 0; i < h.count; i++ {
		out = append(out, h.ring[(start+i)%HysteresisWindow])
	}
	return out
}

// Run returns how many of the most recent candidates equal the newest one.
func (h *Hysteresis) Run() int {
	if h.count == 0 {
		return 0
	}
	last := h.ring[(h.next-1+HysteresisWindow)%HysteresisWindow]
	run := 0
	for i := 1; i <= h.count; i++ {
		if h.ring[(h.next-i+HysteresisWindow)%HysteresisWindow] != last {
			break
		}
		run++
	}
	return run
}

// Push records a candidate and returns the stable regime afterwards and
// whether it switched on this call.
func (h *Hysteresis) Push(candidate Regime) (Regime, bool) {
	h.ring[h.next] = candidate
	h.next = (h.next + 1) % HysteresisWindow
	if h.count < HysteresisWindow {
		h.count++
	}

	if h.stable == "" {
		h.stable = candidate
		return h.stable, false
	}
	if candidate != h.stable && h.Run() >= HysteresisWindow {
		h.stable = candidate
		return h.stable, true
	}
	return h.stable, false
}

// Clone returns an independent copy.
func (h *Hysteresis) Clone() *Hysteresis {
	c := *h
	return &c
}
