package referenceframe

import (
	"encoding/json"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/rr-mark/pick-ik/spatialmath"
)

// ModelConfig is the structural description a Model is built from. It is the
// JSON shape a host framework hands over after flattening its own robot
// description.
type ModelConfig struct {
	Name   string              `json:"name"`
	Joints []JointConfig       `json:"joints"`
	Links  []LinkConfig        `json:"links,omitempty"`
	Groups map[string][]string `json:"groups,omitempty"`
}

// JointConfig describes a single joint. Min/Max are optional; a bound left
// nil is unbounded.
type JointConfig struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Parent      string            `json:"parent"`
	Child       string            `json:"child"`
	Axis        r3.Vector         `json:"axis"`
	Translation r3.Vector         `json:"translation"`
	Orientation *spatialmath.R4AA `json:"orientation,omitempty"`
	Min         *float64          `json:"min,omitempty"`
	Max         *float64          `json:"max,omitempty"`
}

// LinkConfig describes a link's fixed offset from the joint that attaches it.
// Links without an entry have a zero offset.
type LinkConfig struct {
	Name        string            `json:"name"`
	Translation r3.Vector         `json:"translation"`
	Orientation *spatialmath.R4AA `json:"orientation,omitempty"`
}

func (lc *LinkConfig) pose() spatialmath.Pose {
	o := lc.Orientation
	if o == nil {
		o = spatialmath.NewR4AA()
	}
	return spatialmath.NewPose(lc.Translation, o)
}

func (jc *JointConfig) toJoint() (*Joint, error) {
	jType := JointType(jc.Type)
	switch jType {
	case JointRevolute, JointPrismatic, JointFixed:
	default:
		return nil, errors.Wrapf(ErrModelBuild, "joint %q has unsupported type %q", jc.Name, jc.Type)
	}

	axis := jc.Axis
	if jType != JointFixed {
		if axis.Norm() == 0 {
			return nil, errors.Wrapf(ErrModelBuild, "joint %q has a zero motion axis", jc.Name)
		}
		axis = axis.Normalize()
	}

	limit := LimitUnbounded
	if jc.Min != nil {
		limit.Min = *jc.Min
	}
	if jc.Max != nil {
		limit.Max = *jc.Max
	}
	if limit.Min > limit.Max {
		return nil, errors.Wrapf(ErrModelBuild, "joint %q has min %f greater than max %f", jc.Name, limit.Min, limit.Max)
	}

	o := jc.Orientation
	if o == nil {
		o = spatialmath.NewR4AA()
	}
	return &Joint{
		name:   jc.Name,
		jType:  jType,
		parent: jc.Parent,
		child:  jc.Child,
		origin: spatialmath.NewPose(jc.Translation, o),
		axis:   axis,
		limit:  limit,
	}, nil
}

// Validate checks fields that must be present before a build is attempted.
func (cfg *ModelConfig) Validate() error {
	if len(cfg.Joints) == 0 {
		return errors.Wrap(ErrModelBuild, "model has no joints")
	}
	for _, jc := range cfg.Joints {
		if jc.Name == "" || jc.Child == "" {
			return errors.Wrap(ErrModelBuild, "joint missing name or child link")
		}
		if jc.Min != nil && math.IsNaN(*jc.Min) || jc.Max != nil && math.IsNaN(*jc.Max) {
			return errors.Wrapf(ErrModelBuild, "joint %q has NaN limit", jc.Name)
		}
	}
	return nil
}

// UnmarshalModelJSON will parse the given JSON structural description and
// build a Model from it.
func UnmarshalModelJSON(jsonData []byte) (*Model, error) {
	cfg := &ModelConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse model json")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewModel(cfg)
}

// ParseModelJSONFile will read a json file describing a robot's kinematics
// and build a Model from it.
func ParseModelJSONFile(filename string) (*Model, error) {
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData)
}
