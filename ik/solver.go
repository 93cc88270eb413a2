// Package ik implements a gradient-descent inverse-kinematics solver: frame
// tests that gate pose acceptance, weighted cost functions that score
// secondary preferences, and the iterative search that drives a candidate
// configuration toward both.
package ik

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/rr-mark/pick-ik/referenceframe"
	"github.com/rr-mark/pick-ik/spatialmath"
	"github.com/rr-mark/pick-ik/utils"
)

const (
	defaultTimeout  = 100 * time.Millisecond
	defaultRandSeed = 1

	// gradientJump is the finite-difference perturbation used to estimate
	// the descent direction.
	gradientJump = 1e-6

	stepGrowth = 1.5
	stepShrink = 0.5

	// Default to [-999,999] as the restart range if limits are infinite.
	unboundedRange = 999
)

// Solver searches a model's joint space for configurations whose forward
// kinematics reproduce requested tip poses. It is bound once to a model,
// joint group, and tip set, and is then safe to share across concurrent
// solve calls; all per-call state is local to Solve.
type Solver struct {
	model  *referenceframe.Model
	group  string
	tips   []string
	cfg    Config
	logger golog.Logger
	clock  clock.Clock

	activeIdx    []int
	activeLimits []referenceframe.Limit
	factors      []float64
}

// SolveRequest is the canonical solve operation: one goal pose per bound tip
// link, already expressed in the model's base frame, plus a seed
// configuration and a time budget. Optional fields refine the search.
type SolveRequest struct {
	// Goals holds one target pose per tip, in binding order.
	Goals []spatialmath.Pose
	// Seed is the full variable vector the search starts from.
	Seed []float64
	// Timeout bounds the wall-clock duration of the search.
	Timeout time.Duration
	// ConsistencyLimits, when present, restrict each active variable to
	// seed +- limit. One entry per active variable.
	ConsistencyLimits []float64
	// CostFn, when present, is evaluated per goal pose with weight 1.
	CostFn UserCostFn
	// SolutionFn, when present, is consulted before an exact solution is
	// returned, letting the caller apply checks the solver cannot express,
	// such as collision tests. Returning false rejects the candidate and the
	// search continues. Approximate results are returned without
	// consultation.
	SolutionFn func(*Solution) bool
	// RandomSeed fixes the randomized escape steps for reproducible runs.
	// Zero selects the default seed.
	RandomSeed int64
	// ReturnApproximate returns the best candidate found even when it does
	// not satisfy the frame tests.
	ReturnApproximate bool
}

// Solution is an accepted (or, if requested, best-effort) configuration.
type Solution struct {
	// Configuration is the full variable vector, seed values with the active
	// variables replaced by the solved ones.
	Configuration []float64
	// Cost is the aggregate weighted goal cost of the configuration.
	Cost float64
	// FrameErrs holds the per-tip frame test measures.
	FrameErrs []FrameErr
	// Exact is true when every frame test passed and the cost threshold was
	// met.
	Exact bool
	// Iterations is the number of search iterations performed.
	Iterations int
}

// candidate is the transient per-iteration state: active variable values and
// their evaluation. frameErr is the scalar pose residual, the summed squared
// excess of each error measure over its threshold, so it reaches zero
// exactly when all frame tests pass.
type candidate struct {
	x        []float64
	frameErr float64
	cost     float64
	errs     []FrameErr
	passes   bool
}

// NewSolver binds a solver to a model's joint group and tip links. The
// binding resolves the active variables and their displacement factors once;
// failures here are fatal and no solve calls are possible afterward.
func NewSolver(
	model *referenceframe.Model,
	group string,
	tips []string,
	cfg Config,
	logger golog.Logger,
) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(ErrBinding, err.Error())
	}
	if len(tips) == 0 {
		return nil, errors.Wrap(ErrBinding, "at least one tip link is required")
	}
	activeIdx, err := referenceframe.ActiveVariables(model, group, tips)
	if err != nil {
		return nil, errors.Wrap(ErrBinding, err.Error())
	}
	if len(activeIdx) == 0 {
		return nil, errors.Wrapf(ErrBinding, "group %q has no active variables for the requested tips", group)
	}

	modelLimits := model.DoF()
	activeLimits := make([]referenceframe.Limit, len(activeIdx))
	for i, idx := range activeIdx {
		activeLimits[i] = modelLimits[idx]
	}

	logger.Debugf("bound group %q with tips %v, %d active variables", group, tips, len(activeIdx))
	return &Solver{
		model:        model,
		group:        group,
		tips:         tips,
		cfg:          cfg,
		logger:       logger,
		clock:        clock.New(),
		activeIdx:    activeIdx,
		activeLimits: activeLimits,
		factors:      referenceframe.MinimalDisplacementFactors(model, activeIdx, tips),
	}, nil
}

// Tips returns the tip links the solver was bound to, in goal order.
func (s *Solver) Tips() []string {
	return s.tips
}

// ActiveVariables returns the variable indices the search operates over.
func (s *Solver) ActiveVariables() []int {
	return s.activeIdx
}

// SolvePose funnels the common single-tip case into the canonical request.
func (s *Solver) SolvePose(ctx context.Context, goal spatialmath.Pose, seed []float64, timeout time.Duration) (*Solution, error) {
	return s.Solve(ctx, &SolveRequest{Goals: []spatialmath.Pose{goal}, Seed: seed, Timeout: timeout})
}

// Solve runs the search. On success the returned Solution satisfies every
// frame test with aggregate cost at or below the configured threshold.
// A deadline reached without an accepted candidate returns ErrNoSolution,
// distinct from the ErrInvalidRequest family which is rejected before any
// iteration runs.
func (s *Solver) Solve(ctx context.Context, req *SolveRequest) (*Solution, error) {
	if len(req.Goals) != len(s.tips) {
		return nil, NewPoseCountMismatchError(len(req.Goals), len(s.tips))
	}
	if len(req.Seed) != len(s.model.DoF()) {
		return nil, NewSeedLengthError(len(req.Seed), len(s.model.DoF()))
	}
	if req.ConsistencyLimits != nil && len(req.ConsistencyLimits) != len(s.activeIdx) {
		return nil, NewConsistencyLimitLengthError(len(req.ConsistencyLimits), len(s.activeIdx))
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rseed := req.RandomSeed
	if rseed == 0 {
		rseed = defaultRandSeed
	}
	//nolint:gosec
	rng := rand.New(rand.NewSource(rseed))

	tests := MakeFrameTests(req.Goals, s.cfg.PositionThreshold, s.cfg.RotationThreshold, s.cfg.TwistThreshold)
	seedActive := selectIndexes(req.Seed, s.activeIdx)
	goals := s.assembleGoals(seedActive, req)
	lower, upper := s.searchBounds(seedActive, req.ConsistencyLimits)

	eval := func(x []float64) (candidate, error) {
		full := append([]float64(nil), req.Seed...)
		for i, idx := range s.activeIdx {
			full[idx] = x[i]
		}
		frames, err := s.model.Transform(referenceframe.FloatsToInputs(full))
		// The search clamps to bounds, so out-of-bounds errors can only
		// come from the seed itself; evaluation still proceeds.
		if frames == nil {
			return candidate{}, err
		}
		c := candidate{x: append([]float64(nil), x...), passes: true}
		for i, tip := range s.tips {
			e := tests[i].Errors(frames[tip])
			c.errs = append(c.errs, e)
			c.frameErr += utils.Square(math.Max(0, e.Position-s.cfg.PositionThreshold)) +
				utils.Square(math.Max(0, e.Rotation-s.cfg.RotationThreshold)) +
				utils.Square(math.Max(0, e.Twist-s.cfg.TwistThreshold))
			if !e.Within(s.cfg.PositionThreshold, s.cfg.RotationThreshold, s.cfg.TwistThreshold) {
				c.passes = false
			}
		}
		c.cost = TotalCost(goals, c.x)
		return c, nil
	}

	// score folds the pose residual and goal cost into the single scalar
	// the gradient descends on; acceptance and best-candidate ordering stay
	// on the (frameErr, cost) pair with pose accuracy dominating.
	score := func(c candidate) float64 {
		return c.frameErr + c.cost
	}

	gradient := func(c candidate) ([]float64, error) {
		grad := make([]float64, len(c.x))
		x := append([]float64(nil), c.x...)
		base := score(c)
		for i := range x {
			flip := false
			orig := x[i]
			x[i] = orig + gradientJump
			if x[i] > upper[i] {
				flip = true
				x[i] = orig - gradientJump
			}
			probe, err := eval(x)
			if err != nil {
				return nil, err
			}
			grad[i] = (score(probe) - base) / gradientJump
			if flip {
				grad[i] *= -1
			}
			x[i] = orig
		}
		return grad, nil
	}

	deadline := s.clock.Now().Add(timeout)

	best, err := eval(seedActive)
	if err != nil {
		return nil, err
	}
	if s.accepted(best) {
		sol := s.solution(req.Seed, best, 0)
		if req.SolutionFn == nil || req.SolutionFn(sol) {
			return sol, nil
		}
	}
	current := best
	step := s.cfg.StepSize
	iterations := 0

	for {
		// The deadline is checked at the top of every iteration, never
		// partway through an evaluation, so worst-case overrun is one
		// iteration's cost.
		if !s.clock.Now().Before(deadline) {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.cfg.MaxIterations > 0 && iterations >= s.cfg.MaxIterations {
			break
		}
		iterations++

		grad, err := gradient(current)
		if err != nil {
			return nil, err
		}
		norm := floats.Norm(grad, 2)
		if norm > 0 {
			next := make([]float64, len(current.x))
			for i := range next {
				next[i] = utils.Clamp(current.x[i]-step*grad[i]/norm, lower[i], upper[i])
			}
			cand, err := eval(next)
			if err != nil {
				return nil, err
			}
			if s.better(cand, current) {
				current = cand
				step *= stepGrowth
				if step > s.cfg.StepSize {
					step = s.cfg.StepSize
				}
			} else {
				step *= stepShrink
			}
		}
		if norm == 0 || step < s.cfg.MinStepSize {
			// Stagnated in a local minimum; escape with a randomized
			// restart, keeping the best candidate found so far.
			restart, err := eval(randomBetween(rng, lower, upper))
			if err != nil {
				return nil, err
			}
			current = restart
			step = s.cfg.StepSize
		}
		if s.better(current, best) {
			best = current
		}
		if s.accepted(current) {
			sol := s.solution(req.Seed, current, iterations)
			if req.SolutionFn == nil || req.SolutionFn(sol) {
				return sol, nil
			}
		}
	}

	if req.ReturnApproximate {
		s.logger.Debugf("returning approximate solution after %d iterations, residual %f", iterations, best.frameErr)
		return s.solution(req.Seed, best, iterations), nil
	}
	return nil, ErrNoSolution
}

// assembleGoals instantiates the goals enabled by the config plus the
// caller's cost function. Goals whose weight is zero or negative are never
// constructed.
func (s *Solver) assembleGoals(seedActive []float64, req *SolveRequest) []Goal {
	var goals []Goal
	if s.cfg.CenterJointsWeight > 0 {
		goals = append(goals, Goal{
			Cost:   NewCenterJointsCost(s.activeLimits, s.factors),
			Weight: s.cfg.CenterJointsWeight,
		})
	}
	if s.cfg.AvoidJointLimitsWeight > 0 {
		goals = append(goals, Goal{
			Cost:   NewAvoidJointLimitsCost(s.activeLimits, s.factors),
			Weight: s.cfg.AvoidJointLimitsWeight,
		})
	}
	if s.cfg.MinimalDisplacementWeight > 0 {
		seed := append([]float64(nil), seedActive...)
		goals = append(goals, Goal{
			Cost:   NewMinimalDisplacementCost(seed, s.factors),
			Weight: s.cfg.MinimalDisplacementWeight,
		})
	}
	if req.CostFn != nil {
		for _, goal := range req.Goals {
			goal := goal
			goals = append(goals, Goal{
				Cost:   func(x []float64) float64 { return req.CostFn(goal, x) },
				Weight: 1,
			})
		}
	}
	return goals
}

// searchBounds returns the per-variable search range: the joint limits,
// optionally tightened to seed +- the consistency limit.
func (s *Solver) searchBounds(seedActive, consistencyLimits []float64) (lower, upper []float64) {
	lower = make([]float64, len(s.activeLimits))
	upper = make([]float64, len(s.activeLimits))
	for i, lim := range s.activeLimits {
		lower[i], upper[i] = lim.Min, lim.Max
		if consistencyLimits != nil {
			lower[i] = math.Max(lower[i], seedActive[i]-consistencyLimits[i])
			upper[i] = math.Min(upper[i], seedActive[i]+consistencyLimits[i])
		}
	}
	return lower, upper
}

// better orders candidates with pose accuracy dominating: a reduction in
// frame error always wins, cost breaks ties.
func (s *Solver) better(a, b candidate) bool {
	if a.frameErr != b.frameErr {
		return a.frameErr < b.frameErr
	}
	return a.cost < b.cost
}

// accepted reports whether a candidate is a solution: every frame test
// passes and the aggregate cost meets the threshold. The two gates are
// independent; a candidate can satisfy the poses exactly and still be
// rejected on cost.
func (s *Solver) accepted(c candidate) bool {
	return c.passes && c.cost <= s.cfg.CostThreshold
}

func (s *Solver) solution(seed []float64, c candidate, iterations int) *Solution {
	full := append([]float64(nil), seed...)
	for i, idx := range s.activeIdx {
		full[idx] = c.x[i]
	}
	return &Solution{
		Configuration: full,
		Cost:          c.cost,
		FrameErrs:     c.errs,
		Exact:         s.accepted(c),
		Iterations:    iterations,
	}
}

func selectIndexes(v []float64, indexes []int) []float64 {
	out := make([]float64, len(indexes))
	for i, idx := range indexes {
		out[i] = v[idx]
	}
	return out
}

func randomBetween(rng *rand.Rand, lower, upper []float64) []float64 {
	out := make([]float64, len(lower))
	for i := range out {
		l, u := lower[i], upper[i]
		if math.IsInf(l, -1) {
			l = -unboundedRange
		}
		if math.IsInf(u, 1) {
			u = unboundedRange
		}
		out[i] = rng.Float64()*(u-l) + l
	}
	return out
}
