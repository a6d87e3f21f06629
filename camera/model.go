// Package camera describes the camera models understood by the residual package and the layout
// of their parameter blocks.
package camera

import "github.com/pkg/errors"

// ModelType is the name of a camera model.
type ModelType string

const (
	// PinholeModelType is an ideal pinhole with one focal length and a principal point.
	PinholeModelType = ModelType("pinhole")
	// PinholeRadialK1ModelType adds one radial distortion coefficient to the pinhole.
	PinholeRadialK1ModelType = ModelType("pinhole_radial_k1")
	// PinholeRadialK3ModelType adds three radial distortion coefficients to the pinhole.
	PinholeRadialK3ModelType = ModelType("pinhole_radial_k3")
	// PinholeRigModelType is a pinhole rigidly mounted on a platform at a fixed sub-pose.
	PinholeRigModelType = ModelType("pinhole_rig")
)

// ModelTypes lists every supported camera model.
var ModelTypes = []ModelType{
	PinholeModelType,
	PinholeRadialK1ModelType,
	PinholeRadialK3ModelType,
	PinholeRigModelType,
}

// Offsets into an intrinsics block.
const (
	OffsetFocalLength     = 0
	OffsetPrincipalPointX = 1
	OffsetPrincipalPointY = 2
	OffsetDistortionK1    = 3
	OffsetDistortionK2    = 4
	OffsetDistortionK3    = 5
	// the rig stores its sub-pose after the principal point
	OffsetSubPoseRotation    = 3
	OffsetSubPoseTranslation = 6
)

// Offsets into an extrinsics block.
const (
	OffsetRotation    = 0
	OffsetTranslation = 3
)

// Block sizes shared by every model.
const (
	ResidualSize   = 2
	ExtrinsicsSize = 6
	PointSize      = 3
)

// Arity is the size of each block a residual model reads or writes. An optimizer needs it up
// front to allocate Jacobians and to wire parameter blocks.
type Arity struct {
	Residuals  int `json:"residuals"`
	Intrinsics int `json:"intrinsics"`
	Extrinsics int `json:"extrinsics"`
	Point      int `json:"point"`
}

// Parameters is the total number of parameters across the three input blocks.
func (a Arity) Parameters() int {
	return a.Intrinsics + a.Extrinsics + a.Point
}

// IntrinsicsSize returns the length of the intrinsics block for the model.
func (m ModelType) IntrinsicsSize() (int, error) {
	switch m {
	case PinholeModelType:
		return 3, nil
	case PinholeRadialK1ModelType:
		return 4, nil
	case PinholeRadialK3ModelType:
		return 6, nil
	case PinholeRigModelType:
		return 9, nil
	default:
		return 0, NewUnknownModelError(m)
	}
}

// Arity returns the block sizes for the model.
func (m ModelType) Arity() (Arity, error) {
	n, err := m.IntrinsicsSize()
	if err != nil {
		return Arity{}, err
	}
	return Arity{
		Residuals:  ResidualSize,
		Intrinsics: n,
		Extrinsics: ExtrinsicsSize,
		Point:      PointSize,
	}, nil
}

// MustArity is like Arity but panics on an unknown model.
func (m ModelType) MustArity() Arity {
	a, err := m.Arity()
	if err != nil {
		panic(err)
	}
	return a
}

// ErrUnknownModel is returned when a ModelType is not one of ModelTypes.
var ErrUnknownModel = errors.New("unknown camera model")

// NewUnknownModelError wraps ErrUnknownModel with the offending name.
func NewUnknownModelError(m ModelType) error {
	return errors.Wrapf(ErrUnknownModel, "do not know how to handle %q", m)
}
