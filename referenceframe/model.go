// Package referenceframe describes kinematic models of articulated robots:
// the joints and links that form them, the variables that move them, and the
// forward-kinematics evaluation from a variable vector to link poses.
package referenceframe

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/rr-mark/pick-ik/spatialmath"
)

// OOBErrString is a string that all out-of-bounds errors contain, so that they can be checked for distinct from other Transform errors.
const OOBErrString = "input out of bounds"

// Model is an immutable kinematic tree: an ordered set of joints and links
// forming one or more open chains, plus the named joint groups defined on
// them. It owns no mutable state and is safe for concurrent use.
type Model struct {
	name        string
	joints      []*Joint // topological order, parent before child
	links       map[string]*Link
	roots       []string
	parentJoint map[string]*Joint // child link name -> attaching joint
	varIndex    map[string]int    // joint name -> index into the variable vector
	limits      []Limit           // per variable, in variable order
	groups      map[string][]string
}

// NewModel builds a Model from a structural description. This is the single
// topological pass where construction can fail: a link with two parents, a
// missing parent reference, or a cycle is rejected here, never at evaluation
// time.
func NewModel(cfg *ModelConfig) (*Model, error) {
	m := &Model{
		name:        cfg.Name,
		links:       map[string]*Link{},
		parentJoint: map[string]*Joint{},
		varIndex:    map[string]int{},
		groups:      map[string][]string{},
	}

	offsets := map[string]spatialmath.Pose{}
	for _, lc := range cfg.Links {
		offsets[lc.Name] = lc.pose()
	}
	linkOf := func(name string) *Link {
		if l, ok := m.links[name]; ok {
			return l
		}
		offset, ok := offsets[name]
		if !ok {
			offset = spatialmath.NewZeroPose()
		}
		l := &Link{name: name, offset: offset}
		m.links[name] = l
		return l
	}

	joints := make([]*Joint, 0, len(cfg.Joints))
	byName := map[string]*Joint{}
	for _, jc := range cfg.Joints {
		j, err := jc.toJoint()
		if err != nil {
			return nil, err
		}
		if _, ok := byName[j.name]; ok {
			return nil, NewDuplicateJointError(j.name)
		}
		if j.parent == "" {
			return nil, NewParentLinkMissingError(j.name, j.parent)
		}
		if _, ok := m.parentJoint[j.child]; ok {
			return nil, NewLinkMultipleParentsError(j.child)
		}
		byName[j.name] = j
		m.parentJoint[j.child] = j
		linkOf(j.parent)
		linkOf(j.child)
		joints = append(joints, j)

		if j.DoF() > 0 {
			m.varIndex[j.name] = len(m.limits)
			m.limits = append(m.limits, j.limit)
		}
	}

	// Roots are links that are never the child of a joint.
	for name := range m.links {
		if _, ok := m.parentJoint[name]; !ok {
			m.roots = append(m.roots, name)
		}
	}

	// Order joints parent-before-child; joints left unplaced are part of a
	// cycle or hang off one.
	placed := map[string]bool{}
	for _, root := range m.roots {
		placed[root] = true
	}
	for len(m.joints) < len(joints) {
		progress := false
		for _, j := range joints {
			if placed[j.child] || !placed[j.parent] {
				continue
			}
			m.joints = append(m.joints, j)
			placed[j.child] = true
			progress = true
		}
		if !progress {
			return nil, NewTopologyCycleError()
		}
	}

	for group, jointNames := range cfg.Groups {
		for _, name := range jointNames {
			if _, ok := byName[name]; !ok {
				return nil, errors.Wrapf(ErrModelBuild, "group %q references unknown joint %q", group, name)
			}
		}
		m.groups[group] = jointNames
	}

	return m, nil
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// DoF returns the limits of each variable of the model, in variable order.
func (m *Model) DoF() []Limit {
	return m.limits
}

// Joint returns the named joint, if present.
func (m *Model) Joint(name string) (*Joint, bool) {
	for _, j := range m.joints {
		if j.name == name {
			return j, true
		}
	}
	return nil, false
}

// VariableIndex returns the index of the named joint's variable within the
// model's variable vector. Fixed joints have no variable.
func (m *Model) VariableIndex(jointName string) (int, bool) {
	idx, ok := m.varIndex[jointName]
	return idx, ok
}

// Group returns the ordered joint names of the named group, if present.
func (m *Model) Group(name string) ([]string, bool) {
	joints, ok := m.groups[name]
	return joints, ok
}

// HasLink reports whether a link with the given name exists in the model.
func (m *Model) HasLink(name string) bool {
	_, ok := m.links[name]
	return ok
}

// Transform evaluates the forward kinematics of the model: it maps a full
// variable vector to the world-relative pose of every link. It is pure and
// deterministic. Out-of-bounds inputs still evaluate, but a descriptive
// error is returned alongside the result.
func (m *Model) Transform(inputs []Input) (map[string]spatialmath.Pose, error) {
	if len(inputs) != len(m.limits) {
		return nil, NewIncorrectInputLengthError(len(inputs), len(m.limits))
	}
	var errAll error
	frames := make(map[string]spatialmath.Pose, len(m.links))
	for _, root := range m.roots {
		frames[root] = m.links[root].offset
	}
	for _, j := range m.joints {
		value := 0.0
		if idx, ok := m.varIndex[j.name]; ok {
			value = inputs[idx].Value
			if value < j.limit.Min || value > j.limit.Max {
				multierr.AppendInto(&errAll, errors.Errorf("%.5f %s %v", value, OOBErrString, j.limit))
			}
		}
		pose := spatialmath.Compose(frames[j.parent], j.Transform(value))
		frames[j.child] = spatialmath.Compose(pose, m.links[j.child].offset)
	}
	return frames, errAll
}

// TipTransform evaluates the forward kinematics of the model and returns the
// world-relative pose of the single named link.
func (m *Model) TipTransform(inputs []Input, linkName string) (spatialmath.Pose, error) {
	if !m.HasLink(linkName) {
		return spatialmath.Pose{}, NewLinkNotFoundError(linkName)
	}
	frames, err := m.Transform(inputs)
	if frames == nil {
		return spatialmath.Pose{}, err
	}
	return frames[linkName], err
}
