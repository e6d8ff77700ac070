// Package tuning loads gameplay balance parameters from a YAML file.
// Everything here is expected to be rebalanced over time; nothing in
// the engine hard-codes these numbers.
package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning holds all tunable gameplay constants.
type Tuning struct {
	ControlThreshold float64 `yaml:"control_threshold"`
	ContestThreshold float64 `yaml:"contest_threshold"`

	Cascade  Cascade  `yaml:"cascade"`
	Decay    Decay    `yaml:"decay"`
	Decision Decision `yaml:"decision"`
	Action   Action   `yaml:"action"`
}

// Cascade controls secondary propagation after a control flip.
type Cascade struct {
	// Dampening multiplies the propagation probability once per wave,
	// keeping chains finite in expectation. Must be < 1.
	Dampening float64 `yaml:"dampening"`
	// MaxDepth caps propagation waves.
	MaxDepth int `yaml:"max_depth"`
	// BudgetMs is the latency budget for one full pass; deeper waves
	// are truncated once it is spent.
	BudgetMs int `yaml:"budget_ms"`
	// BaseProbability scales with the flipped territory's strategic
	// value (value/10 * BaseProbability).
	BaseProbability float64 `yaml:"base_probability"`
	// ReinforcementBonus is added to the probability when the new
	// controller already holds influence in the neighbor.
	ReinforcementBonus float64 `yaml:"reinforcement_bonus"`
	// CentralityWeight scales the neighbor-degree contribution.
	CentralityWeight float64 `yaml:"centrality_weight"`
	// DeltaScale converts strategic value x probability into the
	// secondary influence delta.
	DeltaScale float64 `yaml:"delta_scale"`
	// DominanceStrategicValue: controlling 2+ territories at or above
	// this value makes a faction dominant.
	DominanceStrategicValue int `yaml:"dominance_strategic_value"`
	// StrategicLossValue: losing a territory at or above this value
	// emits a strategic-loss notification.
	StrategicLossValue int `yaml:"strategic_loss_value"`
}

// Decay controls passive influence loss.
type Decay struct {
	IntervalSec int     `yaml:"interval_sec"`
	Rate        float64 `yaml:"rate"`      // default influence lost per sweep
	GraceSec    int     `yaml:"grace_sec"` // recent actions suppress decay
}

// Decision controls the faction AI loops.
type Decision struct {
	CadenceSec int     `yaml:"cadence_sec"`
	BudgetMs   int     `yaml:"budget_ms"`
	BaseDelta  float64 `yaml:"base_delta"` // base magnitude of emitted actions
}

// Action controls boundary action magnitudes.
type Action struct {
	MaxMagnitude float64 `yaml:"max_magnitude"`
}

// Default returns the standard ruleset.
func Default() *Tuning {
	return &Tuning{
		ControlThreshold: 60,
		ContestThreshold: 40,
		Cascade: Cascade{
			Dampening:               0.6,
			MaxDepth:                2,
			BudgetMs:                40,
			BaseProbability:         0.9,
			ReinforcementBonus:      0.15,
			CentralityWeight:        0.25,
			DeltaScale:              1.5,
			DominanceStrategicValue: 7,
			StrategicLossValue:      5,
		},
		Decay: Decay{
			IntervalSec: 60,
			Rate:        2,
			GraceSec:    180,
		},
		Decision: Decision{
			CadenceSec: 5,
			BudgetMs:   50,
			BaseDelta:  10,
		},
		Action: Action{
			MaxMagnitude: 25,
		},
	}
}

// Load reads a tuning file, applying defaults for the rest. A missing
// path returns defaults; a malformed file is an error.
func Load(path string) (*Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("tuning read: %w", err)
	}
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("tuning parse %s: %w", path, err)
	}
	return t, t.validate()
}

func (t *Tuning) validate() error {
	if t.ContestThreshold >= t.ControlThreshold {
		return fmt.Errorf("contest threshold %.1f must be below control threshold %.1f",
			t.ContestThreshold, t.ControlThreshold)
	}
	if t.Cascade.Dampening <= 0 || t.Cascade.Dampening >= 1 {
		return fmt.Errorf("cascade dampening %.2f must be in (0,1)", t.Cascade.Dampening)
	}
	if t.Cascade.MaxDepth < 1 {
		return fmt.Errorf("cascade max depth %d must be at least 1", t.Cascade.MaxDepth)
	}
	return nil
}

// CascadeBudget returns the propagation latency budget as a duration.
func (t *Tuning) CascadeBudget() time.Duration {
	return time.Duration(t.Cascade.BudgetMs) * time.Millisecond
}

// DecisionBudget returns the per-tick AI budget as a duration.
func (t *Tuning) DecisionBudget() time.Duration {
	return time.Duration(t.Decision.BudgetMs) * time.Millisecond
}
