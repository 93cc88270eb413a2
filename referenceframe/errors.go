package referenceframe

import "github.com/pkg/errors"

// ErrModelBuild is the parent of all kinematic topology errors surfaced at
// model construction time. A model that fails to build is not usable.
var ErrModelBuild = errors.New("invalid kinematic model")

// NewLinkMultipleParentsError returns an error indicating a link is the child of more than one joint.
func NewLinkMultipleParentsError(link string) error {
	return errors.Wrapf(ErrModelBuild, "link %q has more than one parent joint", link)
}

// NewParentLinkMissingError returns an error indicating a joint references a parent link that no joint or root provides.
func NewParentLinkMissingError(joint, parent string) error {
	return errors.Wrapf(ErrModelBuild, "joint %q references missing parent link %q", joint, parent)
}

// NewTopologyCycleError returns an error indicating the joints form a reference cycle rather than a tree.
func NewTopologyCycleError() error {
	return errors.Wrap(ErrModelBuild, "joints form a reference cycle")
}

// NewDuplicateJointError returns an error indicating two joints share a name.
func NewDuplicateJointError(joint string) error {
	return errors.Wrapf(ErrModelBuild, "duplicate joint name %q", joint)
}

// NewIncorrectInputLengthError returns an error indicating that a slice of Inputs does not match the DoF of a model.
func NewIncorrectInputLengthError(got, want int) error {
	return errors.Errorf("number of inputs does not match model DoF, expected %d but got %d", want, got)
}

// NewLinkNotFoundError returns an error indicating the requested link does not exist in the model.
func NewLinkNotFoundError(link string) error {
	return errors.Errorf("no link with name %q in model", link)
}

// NewGroupNotFoundError returns an error indicating the requested joint group does not exist in the model.
func NewGroupNotFoundError(group string) error {
	return errors.Errorf("no joint group with name %q in model", group)
}
