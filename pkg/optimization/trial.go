package optimization

import (
	"github.com/ducminhle1904/strategy-lab/internal/decision"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// Trial is one evaluated parameter set. Index 0 is the default set; random
// samples start at 1.
type Trial struct {
	Index     int             `json:"index"`
	Params    decision.Params `json:"params"`
	Metrics   Metrics         `json:"metrics"`
	Score     float64         `json:"score"`
	Evaluated bool            `json:"evaluated"`
	Error     string          `json:"error,omitempty"`
}

// better reports whether t beats best. Equal scores keep the earlier trial.
func (t Trial) better(best Trial) bool {
	return t.Evaluated && t.Error == "" && t.Score > best.Score
}

// evaluate scores params over bars.
func evaluate(index int, bars []types.Bar, p decision.Params, cfg Config) Trial {
	t := Trial{Index: index, Params: p, Evaluated: true}
	if err := p.Validate(); err != nil {
		t.Error = err.Error()
		t.Score = ddFailScore
		return t
	}
	t.Metrics = Simulate(bars, p, cfg.StartBar, cfg.Window)
	t.Score = Objective(t.Metrics)
	return t
}
