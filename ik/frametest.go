package ik

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/rr-mark/pick-ik/spatialmath"
)

// FrameErr holds the three independent error measures of a candidate frame
// against a goal frame. All are non-negative; a candidate exactly at the goal
// measures exactly zero on every axis.
type FrameErr struct {
	// Position is the Euclidean distance between translations.
	Position float64
	// Rotation is the shortest-path rotation angle between orientations, in [0, pi].
	Rotation float64
	// Twist is the component of the rotation error about the goal's tool
	// approach axis. It is tracked separately so roll about the tool's own
	// axis can be given a looser tolerance than general rotation.
	Twist float64
}

// FrameTest measures a candidate frame for one tip against that tip's goal
// frame and three independent thresholds.
type FrameTest struct {
	goal         spatialmath.Pose
	goalPoint    r3.Vector
	goalRot      quat.Number
	approachAxis r3.Vector

	posThreshold   float64
	rotThreshold   float64
	twistThreshold float64
}

// MakeFrameTests builds one FrameTest per goal frame, all sharing the given
// thresholds.
func MakeFrameTests(goals []spatialmath.Pose, posThreshold, rotThreshold, twistThreshold float64) []FrameTest {
	tests := make([]FrameTest, 0, len(goals))
	for _, goal := range goals {
		rot := goal.Rotation()
		tests = append(tests, FrameTest{
			goal:           goal,
			goalPoint:      goal.Point(),
			goalRot:        rot,
			approachAxis:   rotateVector(rot, r3.Vector{Z: 1}),
			posThreshold:   posThreshold,
			rotThreshold:   rotThreshold,
			twistThreshold: twistThreshold,
		})
	}
	return tests
}

// Goal returns the goal frame this test measures against.
func (ft *FrameTest) Goal() spatialmath.Pose {
	return ft.goal
}

// Errors measures the candidate frame against the goal. Degenerate inputs
// (zero translation distance, identity rotation difference) measure zero
// rather than erroring; they occur routinely at convergence.
func (ft *FrameTest) Errors(candidate spatialmath.Pose) FrameErr {
	rotDiff := spatialmath.OrientationBetween(ft.goalRot, candidate.Rotation())
	// The R3 axis angle of the difference is the rotation error vector; its
	// projection on the tool axis is the twist component.
	errVec := spatialmath.QuatToR3AA(rotDiff)
	twist := errVec.Dot(ft.approachAxis)
	if twist < 0 {
		twist = -twist
	}
	return FrameErr{
		Position: candidate.Point().Sub(ft.goalPoint).Norm(),
		Rotation: spatialmath.AngularDistance(ft.goalRot, candidate.Rotation()),
		Twist:    twist,
	}
}

// Passes reports whether every error measure of the candidate is within its
// threshold.
func (ft *FrameTest) Passes(candidate spatialmath.Pose) bool {
	return ft.Errors(candidate).Within(ft.posThreshold, ft.rotThreshold, ft.twistThreshold)
}

// Within reports whether all three error measures are at or below the given
// thresholds.
func (e FrameErr) Within(posThreshold, rotThreshold, twistThreshold float64) bool {
	return e.Position <= posThreshold && e.Rotation <= rotThreshold && e.Twist <= twistThreshold
}

// rotateVector applies the rotation quaternion to the vector.
func rotateVector(rot quat.Number, v r3.Vector) r3.Vector {
	pure := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(rot, pure), quat.Conj(rot))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
