package referenceframe

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/rr-mark/pick-ik/spatialmath"
)

func floatPtr(f float64) *float64 {
	return &f
}

// planarArmConfig describes a 2R planar arm with unit link lengths: base ->
// shoulder -> link1 -> elbow -> link2 -> (fixed wrist) -> tool.
func planarArmConfig() *ModelConfig {
	return &ModelConfig{
		Name: "planar2r",
		Joints: []JointConfig{
			{
				Name: "shoulder", Type: "revolute", Parent: "base", Child: "link1",
				Axis: r3.Vector{Z: 1}, Min: floatPtr(-math.Pi), Max: floatPtr(math.Pi),
			},
			{
				Name: "elbow", Type: "revolute", Parent: "link1", Child: "link2",
				Axis: r3.Vector{Z: 1}, Translation: r3.Vector{X: 1},
				Min: floatPtr(-math.Pi), Max: floatPtr(math.Pi),
			},
			{
				Name: "wrist", Type: "fixed", Parent: "link2", Child: "tool",
				Translation: r3.Vector{X: 1},
			},
		},
		Groups: map[string][]string{"arm": {"shoulder", "elbow"}},
	}
}

func TestModelBuild(t *testing.T) {
	m, err := NewModel(planarArmConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, "planar2r")
	test.That(t, len(m.DoF()), test.ShouldEqual, 2)
	test.That(t, m.HasLink("tool"), test.ShouldBeTrue)
	test.That(t, m.HasLink("base"), test.ShouldBeTrue)

	idx, ok := m.VariableIndex("shoulder")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, idx, test.ShouldEqual, 0)
	_, ok = m.VariableIndex("wrist")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestModelBuildRejectsMultipleParents(t *testing.T) {
	cfg := planarArmConfig()
	cfg.Joints = append(cfg.Joints, JointConfig{
		Name: "rogue", Type: "fixed", Parent: "base", Child: "link2",
	})
	_, err := NewModel(cfg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrModelBuild), test.ShouldBeTrue)
}

func TestModelBuildRejectsCycle(t *testing.T) {
	cfg := &ModelConfig{
		Name: "cyclic",
		Joints: []JointConfig{
			{Name: "a", Type: "fixed", Parent: "l1", Child: "l2"},
			{Name: "b", Type: "fixed", Parent: "l2", Child: "l3"},
			{Name: "c", Type: "fixed", Parent: "l3", Child: "l1"},
		},
	}
	_, err := NewModel(cfg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrModelBuild), test.ShouldBeTrue)
}

func TestModelBuildRejectsDuplicateJoint(t *testing.T) {
	cfg := planarArmConfig()
	cfg.Joints = append(cfg.Joints, cfg.Joints[0])
	_, err := NewModel(cfg)
	test.That(t, errors.Is(err, ErrModelBuild), test.ShouldBeTrue)
}

func TestForwardKinematics(t *testing.T) {
	m, err := NewModel(planarArmConfig())
	test.That(t, err, test.ShouldBeNil)

	// Fully extended along x.
	frames, err := m.Transform(FloatsToInputs([]float64{0, 0}))
	test.That(t, err, test.ShouldBeNil)
	pt := frames["tool"].Point()
	test.That(t, pt.X, test.ShouldAlmostEqual, 2, 1e-9)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0, 1e-9)

	// Shoulder and elbow both at 90 degrees.
	frames, err = m.Transform(FloatsToInputs([]float64{math.Pi / 2, math.Pi / 2}))
	test.That(t, err, test.ShouldBeNil)
	pt = frames["tool"].Point()
	test.That(t, pt.X, test.ShouldAlmostEqual, -1, 1e-9)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 1, 1e-9)

	// The intermediate link frames are present too.
	pt = frames["link2"].Point()
	test.That(t, pt.X, test.ShouldAlmostEqual, math.Cos(math.Pi/2), 1e-9)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 1+math.Sin(math.Pi/2)-1, 1e-9)
}

func TestForwardKinematicsPurity(t *testing.T) {
	m, err := NewModel(planarArmConfig())
	test.That(t, err, test.ShouldBeNil)

	inputs := FloatsToInputs([]float64{0.3, -1.1})
	first, err := m.Transform(inputs)
	test.That(t, err, test.ShouldBeNil)
	second, err := m.Transform(inputs)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, len(first), test.ShouldEqual, len(second))
	for name, pose := range first {
		test.That(t, pose.Point(), test.ShouldResemble, second[name].Point())
		test.That(t, pose.Rotation(), test.ShouldResemble, second[name].Rotation())
	}
}

func TestTransformOutOfBounds(t *testing.T) {
	m, err := NewModel(planarArmConfig())
	test.That(t, err, test.ShouldBeNil)

	// Out-of-bounds inputs still evaluate but report the violation.
	frames, err := m.Transform(FloatsToInputs([]float64{2 * math.Pi, 0}))
	test.That(t, frames, test.ShouldNotBeNil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, OOBErrString)
}

func TestTransformWrongLength(t *testing.T) {
	m, err := NewModel(planarArmConfig())
	test.That(t, err, test.ShouldBeNil)

	_, err = m.Transform(FloatsToInputs([]float64{0}))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTipTransform(t *testing.T) {
	m, err := NewModel(planarArmConfig())
	test.That(t, err, test.ShouldBeNil)

	pose, err := m.TipTransform(FloatsToInputs([]float64{math.Pi / 4, 0}), "tool")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 2*math.Cos(math.Pi/4), 1e-9)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 2*math.Sin(math.Pi/4), 1e-9)

	_, err = m.TipTransform(FloatsToInputs([]float64{0, 0}), "nonexistent")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLinkOffset(t *testing.T) {
	cfg := planarArmConfig()
	cfg.Links = []LinkConfig{{Name: "tool", Translation: r3.Vector{Z: 0.5}}}
	m, err := NewModel(cfg)
	test.That(t, err, test.ShouldBeNil)

	pose, err := m.TipTransform(FloatsToInputs([]float64{0, 0}), "tool")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().Z, test.ShouldAlmostEqual, 0.5, 1e-9)
}

func TestUnmarshalModelJSON(t *testing.T) {
	jsonData := []byte(`{
		"name": "lift",
		"joints": [
			{"name": "slide", "type": "prismatic", "parent": "base", "child": "carriage",
			 "axis": {"Z": 1}, "min": 0, "max": 0.8}
		],
		"groups": {"lift": ["slide"]}
	}`)
	m, err := UnmarshalModelJSON(jsonData)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, "lift")
	test.That(t, len(m.DoF()), test.ShouldEqual, 1)
	test.That(t, m.DoF()[0].Max, test.ShouldEqual, 0.8)

	pose, err := m.TipTransform(FloatsToInputs([]float64{0.4}), "carriage")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().Z, test.ShouldAlmostEqual, 0.4, 1e-9)
}

func TestUnmarshalModelJSONRejectsBadType(t *testing.T) {
	jsonData := []byte(`{
		"name": "bad",
		"joints": [{"name": "j", "type": "helical", "parent": "a", "child": "b", "axis": {"Z": 1}}]
	}`)
	_, err := UnmarshalModelJSON(jsonData)
	test.That(t, errors.Is(err, ErrModelBuild), test.ShouldBeTrue)
}

func TestJointUnbounded(t *testing.T) {
	cfg := &ModelConfig{
		Name: "spinner",
		Joints: []JointConfig{
			{Name: "roll", Type: "revolute", Parent: "base", Child: "disc", Axis: r3.Vector{X: 1}},
		},
	}
	m, err := NewModel(cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.DoF()[0].Unbounded(), test.ShouldBeTrue)

	// No limit means no out-of-bounds error at any value.
	_, err = m.Transform(FloatsToInputs([]float64{100}))
	test.That(t, err, test.ShouldBeNil)
}

func TestJointTransformTypes(t *testing.T) {
	rev := &Joint{name: "r", jType: JointRevolute, origin: spatialmath.NewZeroPose(), axis: r3.Vector{Z: 1}}
	p := rev.Transform(math.Pi / 2)
	aa := p.Orientation()
	test.That(t, aa.Theta, test.ShouldAlmostEqual, math.Pi/2, 1e-9)

	pris := &Joint{name: "p", jType: JointPrismatic, origin: spatialmath.NewZeroPose(), axis: r3.Vector{Y: 1}}
	test.That(t, pris.Transform(0.25).Point().Y, test.ShouldAlmostEqual, 0.25, 1e-9)

	fixed := &Joint{name: "f", jType: JointFixed, origin: spatialmath.NewPoseFromPoint(r3.Vector{X: 3})}
	test.That(t, fixed.Transform(123).Point().X, test.ShouldAlmostEqual, 3, 1e-9)
	test.That(t, fixed.DoF(), test.ShouldEqual, 0)
}
