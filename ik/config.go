package ik

import "github.com/pkg/errors"

// Config is the numeric configuration surface of the solver. It is owned by
// the host's parameter loader and consumed read-only here; the JSON tags
// match the parameter names the loader uses. A goal weight of zero or less
// disables that goal entirely.
type Config struct {
	// Acceptance thresholds for frame tests and aggregate cost.
	PositionThreshold float64 `json:"position_threshold"`
	RotationThreshold float64 `json:"rotation_threshold"`
	TwistThreshold    float64 `json:"twist_threshold"`
	CostThreshold     float64 `json:"cost_threshold"`

	// Weights for the built-in goals.
	CenterJointsWeight        float64 `json:"center_joints_weight"`
	AvoidJointLimitsWeight    float64 `json:"avoid_joint_limits_weight"`
	MinimalDisplacementWeight float64 `json:"minimal_displacement_weight"`

	// Search knobs. StepSize is the initial gradient step, which adapts
	// during the search; when it collapses below MinStepSize the search
	// restarts from a random configuration. MaxIterations of 0 leaves the
	// search bounded only by the deadline.
	StepSize      float64 `json:"step_size"`
	MinStepSize   float64 `json:"min_step_size"`
	MaxIterations int     `json:"max_iterations"`
}

// DefaultConfig returns a config with pure-pose acceptance: millimeter-scale
// tolerances and every secondary goal disabled.
func DefaultConfig() Config {
	return Config{
		PositionThreshold: 0.001,
		RotationThreshold: 0.001,
		TwistThreshold:    0.001,
		CostThreshold:     0.001,
		StepSize:          0.1,
		MinStepSize:       1e-5,
	}
}

// Validate checks the config for values the solver cannot run with.
func (c *Config) Validate() error {
	if c.PositionThreshold < 0 || c.RotationThreshold < 0 || c.TwistThreshold < 0 {
		return errors.New("frame test thresholds must not be negative")
	}
	if c.CostThreshold < 0 {
		return errors.New("cost threshold must not be negative")
	}
	if c.StepSize <= 0 {
		return errors.New("step size must be positive")
	}
	if c.MinStepSize <= 0 || c.MinStepSize > c.StepSize {
		return errors.New("min step size must be positive and no larger than step size")
	}
	if c.MaxIterations < 0 {
		return errors.New("max iterations must not be negative")
	}
	return nil
}
