package residual

import (
	"github.com/golang/geo/r2"

	"go.viam.com/reprojection/autodiff"
	"go.viam.com/reprojection/camera"
)

// Pinhole is the residual of an ideal pinhole camera.
//
// Blocks: intrinsics [focal, ppx, ppy], extrinsics [rx, ry, rz, tx, ty, tz], point [x, y, z].
type Pinhole[T autodiff.Number[T]] struct {
	observed r2.Point
}

// NewPinhole returns a pinhole residual for an observed pixel.
func NewPinhole[T autodiff.Number[T]](observed r2.Point) *Pinhole[T] {
	return &Pinhole[T]{observed: observed}
}

// Evaluate implements Functor.
func (f *Pinhole[T]) Evaluate(intrinsics, extrinsics, point, residuals []T) bool {
	var camPoint [3]T
	toCamera(extrinsics, point, camPoint[:])
	xu, yu := normalize(camPoint[:])
	pixelResidual(intrinsics, xu, yu, f.observed, residuals)
	return true
}

// Arity implements Functor.
func (f *Pinhole[T]) Arity() camera.Arity {
	return camera.PinholeModelType.MustArity()
}

// Model implements Functor.
func (f *Pinhole[T]) Model() camera.ModelType {
	return camera.PinholeModelType
}

// Observation implements Functor.
func (f *Pinhole[T]) Observation() r2.Point {
	return f.observed
}
