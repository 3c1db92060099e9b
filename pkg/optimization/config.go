package optimization

import "fmt"

const (
	minTrials = 20
	maxTrials = 200
)

// Config configures an Autotuner run.
type Config struct {
	Trials   int    `json:"trials" yaml:"trials"`       // random trials after the default (default: 80, clamped to 20..200)
	Seed     int64  `json:"seed" yaml:"seed"`           // RNG seed (default: 1)
	Workers  int    `json:"workers" yaml:"workers"`     // parallel trials, 0 = NumCPU
	StartBar int    `json:"start_bar" yaml:"start_bar"` // first simulated bar (default: 60)
	Window   int    `json:"window" yaml:"window"`       // trailing bars classified per step (default: 120)
	Ranges   Ranges `json:"ranges" yaml:"ranges"`       // nil = DefaultRanges
}

// DefaultConfig returns the default autotune configuration.
func DefaultConfig() Config {
	return Config{
		Trials:   80,
		Seed:     1,
		StartBar: 60,
		Window:   120,
		Ranges:   DefaultRanges(),
	}
}

// trials returns Trials clamped to the supported range, 80 when unset.
func (c Config) trials() int {
	if c.Trials <= 0 {
		return 80
	}
	return min(max(c.Trials, minTrials), maxTrials)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.StartBar < 1 {
		return fmt.Errorf("start_bar must be at least 1, got %d", c.StartBar)
	}
	if c.Window < 2 {
		return fmt.Errorf("window must be at least 2, got %d", c.Window)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if err := c.Ranges.Validate(); err != nil {
		return fmt.Errorf("ranges: %w", err)
	}
	return nil
}
