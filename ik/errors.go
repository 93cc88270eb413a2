package ik

import "github.com/pkg/errors"

var (
	// ErrNoSolution is the expected failure outcome of a solve call: the
	// deadline was reached with no accepted candidate. It is distinct from
	// invalid input.
	ErrNoSolution = errors.New("no solution found within timeout")

	// ErrBinding is the parent of all errors surfaced while binding a solver
	// to a model group. A solver that fails to bind is not usable.
	ErrBinding = errors.New("unable to bind solver to group")

	// ErrInvalidRequest is the parent of all per-call request validation
	// errors, rejected before any search iteration runs.
	ErrInvalidRequest = errors.New("invalid solve request")
)

// NewPoseCountMismatchError returns an error indicating the request supplied a different number of goal poses than the solver has tips.
func NewPoseCountMismatchError(got, want int) error {
	return errors.Wrapf(ErrInvalidRequest, "expected %d goal poses, one per tip, but got %d", want, got)
}

// NewSeedLengthError returns an error indicating the seed vector does not match the model's variable count.
func NewSeedLengthError(got, want int) error {
	return errors.Wrapf(ErrInvalidRequest, "seed vector has length %d, model has %d variables", got, want)
}

// NewConsistencyLimitLengthError returns an error indicating the consistency limits do not match the active variable count.
func NewConsistencyLimitLengthError(got, want int) error {
	return errors.Wrapf(ErrInvalidRequest, "consistency limits have length %d, expected one per active variable (%d)", got, want)
}
