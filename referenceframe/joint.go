package referenceframe

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/rr-mark/pick-ik/spatialmath"
)

// JointType distinguishes how a joint's variable moves its child link.
type JointType string

// The supported joint types. Fixed joints carry no variable.
const (
	JointRevolute  = JointType("revolute")
	JointPrismatic = JointType("prismatic")
	JointFixed     = JointType("fixed")
)

// Limit represents the limits of motion for a variable.
type Limit struct {
	Min float64
	Max float64
}

// LimitUnbounded is the limit of a variable with no bounds.
var LimitUnbounded = Limit{Min: math.Inf(-1), Max: math.Inf(1)}

// Unbounded returns whether the limit allows unrestricted motion in either direction.
func (l Limit) Unbounded() bool {
	return math.IsInf(l.Min, -1) || math.IsInf(l.Max, 1)
}

// Joint attaches a child link to a parent link. Its transform is the fixed
// origin offset composed with the motion produced by its current variable
// value. Immutable once the model is built.
type Joint struct {
	name   string
	jType  JointType
	parent string
	child  string
	origin spatialmath.Pose
	axis   r3.Vector
	limit  Limit
}

// Name returns the name of the joint.
func (j *Joint) Name() string {
	return j.name
}

// Type returns the joint type.
func (j *Joint) Type() JointType {
	return j.jType
}

// Parent returns the name of the parent link.
func (j *Joint) Parent() string {
	return j.parent
}

// Child returns the name of the child link.
func (j *Joint) Child() string {
	return j.child
}

// Limit returns the limits of motion of the joint's variable.
func (j *Joint) Limit() Limit {
	return j.limit
}

// DoF returns the number of degrees of freedom of the joint, 1 for revolute
// and prismatic joints and 0 for fixed ones.
func (j *Joint) DoF() int {
	if j.jType == JointFixed {
		return 0
	}
	return 1
}

// Transform returns the pose of the child link relative to the parent link
// for the given variable value. Fixed joints ignore the value.
func (j *Joint) Transform(value float64) spatialmath.Pose {
	switch j.jType {
	case JointRevolute:
		rot := spatialmath.NewPoseFromOrientation(&spatialmath.R4AA{Theta: value, RX: j.axis.X, RY: j.axis.Y, RZ: j.axis.Z})
		return spatialmath.Compose(j.origin, rot)
	case JointPrismatic:
		return spatialmath.Compose(j.origin, spatialmath.NewPoseFromPoint(j.axis.Mul(value)))
	default:
		return j.origin
	}
}

// Link is a named rigid body in the kinematic tree, offset from the joint
// that attaches it by a fixed transform.
type Link struct {
	name   string
	offset spatialmath.Pose
}

// Name returns the name of the link.
func (l *Link) Name() string {
	return l.name
}

// Offset returns the link's fixed transform from its parent joint.
func (l *Link) Offset() spatialmath.Pose {
	return l.offset
}
