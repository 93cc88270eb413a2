// Package spatialmath defines spatial mathematical operations: rigid
// transforms represented as dual quaternions, axis angles, and the distance
// measures between them.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/rr-mark/pick-ik/utils"
)

// Pose is a rigid transform in 3D space, a rotation plus a translation. It is
// an immutable value type; composition and inversion return new Poses.
// Represented internally as a unit dual quaternion.
type Pose struct {
	q dualquat.Number
}

// NewZeroPose returns a pose with no translation or rotation.
// Since the real part of a dual quaternion should be a unit quaternion, not
// all zeroes, this should be used instead of Pose{}.
func NewZeroPose() Pose {
	return Pose{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// NewPose returns a pose with the given translation and orientation.
func NewPose(pt r3.Vector, o *R4AA) Pose {
	return newPose(pt, o.ToQuat())
}

// NewPoseFromPoint returns a pose with the given translation and no rotation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return newPose(pt, quat.Number{Real: 1})
}

// NewPoseFromOrientation returns a pose with the given rotation and no translation.
func NewPoseFromOrientation(o *R4AA) Pose {
	return Pose{dualquat.Number{Real: o.ToQuat()}}
}

// NewPoseFromQuat returns a pose with the given translation and rotation quaternion.
func NewPoseFromQuat(pt r3.Vector, rot quat.Number) Pose {
	return newPose(pt, rot)
}

func newPose(pt r3.Vector, rot quat.Number) Pose {
	q := dualquat.Number{Real: rot}
	// The dual part encodes half the translation against the rotation.
	q.Dual = quat.Mul(quat.Number{Imag: pt.X / 2, Jmag: pt.Y / 2, Kmag: pt.Z / 2}, q.Real)
	return Pose{q}
}

// Point returns the translation of the pose.
func (p Pose) Point() r3.Vector {
	// Multiplying by the conjugate gives a dq whose dual holds real world units.
	cart := dualquat.Mul(p.q, dualquat.Conj(p.q))
	return r3.Vector{X: cart.Dual.Imag, Y: cart.Dual.Jmag, Z: cart.Dual.Kmag}
}

// Rotation returns the rotation quaternion of the pose.
func (p Pose) Rotation() quat.Number {
	return p.q.Real
}

// Orientation returns the rotation of the pose in axis-angle representation.
func (p Pose) Orientation() R4AA {
	return QuatToR4AA(p.q.Real)
}

// Compose returns the pose equivalent to applying b in the frame of a.
func Compose(a, b Pose) Pose {
	result := Pose{dualquat.Mul(a.q, b.q)}
	// Mul on non-unit real parts drifts; renormalize.
	if vecLen := quat.Abs(result.q.Real); vecLen != 1 {
		result.q.Real = quat.Scale(1/vecLen, result.q.Real)
	}
	return result
}

// PoseInverse returns the pose which, composed with p, gives the zero pose.
func PoseInverse(p Pose) Pose {
	return Pose{dualquat.Inv(p.q)}
}

// PoseBetween returns the pose which, when composed onto a, gives b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual returns whether two poses are within epsilon of each other
// in both translation distance and rotation angle.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.Point().Sub(b.Point()).Norm(), 0, epsilon) &&
		utils.Float64AlmostEqual(AngularDistance(a.Rotation(), b.Rotation()), 0, epsilon)
}

// OrientationBetween returns the quaternion representing the rotation from q1 to q2.
func OrientationBetween(q1, q2 quat.Number) quat.Number {
	return quat.Mul(q2, quat.Conj(q1))
}

// AngularDistance returns the shortest-path rotation angle between two unit
// quaternions, in the range [0, pi]. Identical orientations yield exactly 0.
func AngularDistance(q1, q2 quat.Number) float64 {
	diff := OrientationBetween(q1, q2)
	return 2 * math.Atan2(Norm(diff), math.Abs(diff.Real))
}

// Norm returns the norm of the quaternion, i.e. the sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}
