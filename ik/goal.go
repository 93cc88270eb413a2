package ik

import (
	"math"

	"github.com/rr-mark/pick-ik/referenceframe"
	"github.com/rr-mark/pick-ik/spatialmath"
	"github.com/rr-mark/pick-ik/utils"
)

// barrierEpsilon keeps the limit-avoidance barrier finite when a variable
// sits exactly on a bound.
const barrierEpsilon = 1e-3

// CostFn maps the active variable values of a candidate to a non-negative
// scalar. Zero means fully satisfied. Cost functions are soft preferences;
// pose constraints are enforced separately by frame tests.
type CostFn func(x []float64) float64

// UserCostFn is the hook for caller-supplied preferences, evaluated once per
// requested goal pose with weight fixed at 1. The solver does not interpret
// its semantics.
type UserCostFn func(goal spatialmath.Pose, x []float64) float64

// Goal pairs a cost function with its weight. Goals with weight <= 0 are
// never instantiated; the solver skips their construction entirely rather
// than carrying zero-weighted terms.
type Goal struct {
	Cost   CostFn
	Weight float64
}

// TotalCost returns the aggregate weighted cost of a candidate over all
// goals.
func TotalCost(goals []Goal, x []float64) float64 {
	total := 0.0
	for _, g := range goals {
		total += g.Weight * g.Cost(x)
	}
	return total
}

// NewCenterJointsCost returns a cost that penalizes active variables for
// sitting away from the midpoint of their range, scaled per variable by its
// minimal displacement factor. Unbounded variables contribute nothing.
func NewCenterJointsCost(limits []referenceframe.Limit, factors []float64) CostFn {
	return func(x []float64) float64 {
		cost := 0.0
		for i, lim := range limits {
			if lim.Unbounded() {
				continue
			}
			halfRange := (lim.Max - lim.Min) / 2
			if halfRange == 0 {
				continue
			}
			mid := (lim.Min + lim.Max) / 2
			cost += factors[i] * utils.Square((x[i]-mid)/halfRange)
		}
		return cost
	}
}

// NewAvoidJointLimitsCost returns a cost that rises smoothly as an active
// variable approaches a bound, an inverse-distance barrier rather than a
// hard cutoff so gradient steps see a usable signal before a limit is
// reached. Each finite bound contributes its own barrier, so a half-bounded
// variable is still repelled from the bound it has. Fully bounded variables
// have their barrier shifted to measure zero at the range midpoint; fully
// unbounded variables contribute nothing.
func NewAvoidJointLimitsCost(limits []referenceframe.Limit, factors []float64) CostFn {
	return func(x []float64) float64 {
		cost := 0.0
		for i, lim := range limits {
			lowFinite := !math.IsInf(lim.Min, -1)
			highFinite := !math.IsInf(lim.Max, 1)
			if !lowFinite && !highFinite {
				continue
			}
			barrier := 0.0
			if lowFinite {
				barrier += 1 / (math.Max(x[i]-lim.Min, 0) + barrierEpsilon)
			}
			if highFinite {
				barrier += 1 / (math.Max(lim.Max-x[i], 0) + barrierEpsilon)
			}
			if lowFinite && highFinite {
				barrier -= 4 / (lim.Max - lim.Min + 2*barrierEpsilon)
				if barrier < 0 {
					barrier = 0
				}
			}
			cost += factors[i] * barrier
		}
		return cost
	}
}

// NewMinimalDisplacementCost returns a cost that penalizes the squared
// distance of each active variable from its value in the seed configuration,
// scaled per variable by its minimal displacement factor. It keeps solutions
// close to the seed for continuity across successive calls in a control
// loop.
func NewMinimalDisplacementCost(seed, factors []float64) CostFn {
	return func(x []float64) float64 {
		cost := 0.0
		for i, s := range seed {
			cost += factors[i] * utils.Square(x[i]-s)
		}
		return cost
	}
}
