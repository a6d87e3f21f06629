// Package residual implements reprojection residuals for bundle adjustment.
//
// Each model maps an intrinsics block, an extrinsics block and a 3D point to the pixel error
// between where the camera would see the point and where it was observed. The models are generic
// over autodiff.Number: evaluated over autodiff.Float they give residuals, over autodiff.Jet they
// also give the exact Jacobian with respect to every parameter.
//
// The models do not check that a point is in front of the camera. A point at zero depth yields
// Inf or NaN residuals; excluding such observations is up to whoever builds the problem.
package residual

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/reprojection/autodiff"
	"go.viam.com/reprojection/camera"
	"go.viam.com/reprojection/spatialmath"
)

// Functor is a residual model bound to one observation.
type Functor[T autodiff.Number[T]] interface {
	// Evaluate writes predicted minus observed pixel coordinates to residuals. The block lengths
	// must match Arity. It always returns true; numerical failures show up as non-finite output.
	Evaluate(intrinsics, extrinsics, point, residuals []T) bool
	// Arity is the size of each block Evaluate reads or writes.
	Arity() camera.Arity
	// Model is the camera model the functor implements.
	Model() camera.ModelType
	// Observation is the observed pixel.
	Observation() r2.Point
}

// New returns the residual model for a camera model.
func New[T autodiff.Number[T]](model camera.ModelType, observed r2.Point) (Functor[T], error) {
	switch model {
	case camera.PinholeModelType:
		return NewPinhole[T](observed), nil
	case camera.PinholeRadialK1ModelType:
		return NewPinholeRadialK1[T](observed), nil
	case camera.PinholeRadialK3ModelType:
		return NewPinholeRadialK3[T](observed), nil
	case camera.PinholeRigModelType:
		return NewPinholeRig[T](observed), nil
	default:
		return nil, camera.NewUnknownModelError(model)
	}
}

// ErrBlockSize is returned when a parameter block does not have the length a model expects.
var ErrBlockSize = errors.New("parameter block has the wrong size")

// CheckBlockSizes checks the three input blocks against an arity.
func CheckBlockSizes[T any](arity camera.Arity, intrinsics, extrinsics, point []T) error {
	for _, b := range []struct {
		name      string
		got, want int
	}{
		{"intrinsics", len(intrinsics), arity.Intrinsics},
		{"extrinsics", len(extrinsics), arity.Extrinsics},
		{"point", len(point), arity.Point},
	} {
		if b.got != b.want {
			return errors.Wrapf(ErrBlockSize, "%s block has %d values, expected %d", b.name, b.got, b.want)
		}
	}
	return nil
}

// Residual evaluates f over plain floats after checking the block sizes.
func Residual(f Functor[autodiff.Float], intrinsics, extrinsics, point []float64) (r2.Point, error) {
	if err := CheckBlockSizes(f.Arity(), intrinsics, extrinsics, point); err != nil {
		return r2.Point{}, err
	}
	var res [camera.ResidualSize]autodiff.Float
	f.Evaluate(autodiff.Floats(intrinsics), autodiff.Floats(extrinsics), autodiff.Floats(point), res[:])
	return r2.Point{X: float64(res[0]), Y: float64(res[1])}, nil
}

// Project returns the pixel at which a camera of the given model sees point.
func Project(model camera.ModelType, intrinsics, extrinsics, point []float64) (r2.Point, error) {
	f, err := New[autodiff.Float](model, r2.Point{})
	if err != nil {
		return r2.Point{}, err
	}
	return Residual(f, intrinsics, extrinsics, point)
}

// toCamera moves a world point into the camera frame: rotate by the extrinsic axis-angle, then
// translate.
func toCamera[T autodiff.Number[T]](extrinsics, point, out []T) {
	spatialmath.AngleAxisRotatePoint(rotation(extrinsics, camera.OffsetRotation), point, out)
	out[0] = out[0].Add(extrinsics[camera.OffsetTranslation])
	out[1] = out[1].Add(extrinsics[camera.OffsetTranslation+1])
	out[2] = out[2].Add(extrinsics[camera.OffsetTranslation+2])
}

// normalize is the perspective division to undistorted image coordinates.
func normalize[T autodiff.Number[T]](camPoint []T) (T, T) {
	return camPoint[0].Div(camPoint[2]), camPoint[1].Div(camPoint[2])
}

// pixelResidual applies focal length and principal point to image coordinates and subtracts the
// observation.
func pixelResidual[T autodiff.Number[T]](intrinsics []T, x, y T, observed r2.Point, residuals []T) {
	var zero T
	focal := intrinsics[camera.OffsetFocalLength]
	projectedX := intrinsics[camera.OffsetPrincipalPointX].Add(focal.Mul(x))
	projectedY := intrinsics[camera.OffsetPrincipalPointY].Add(focal.Mul(y))
	residuals[0] = projectedX.Sub(zero.Constant(observed.X))
	residuals[1] = projectedY.Sub(zero.Constant(observed.Y))
}

func rotation[T any](block []T, offset int) []T {
	return block[offset : offset+3]
}
