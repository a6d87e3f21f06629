package residual

import (
	"github.com/golang/geo/r2"

	"go.viam.com/reprojection/autodiff"
	"go.viam.com/reprojection/camera"
)

// PinholeRadialK1 is the residual of a pinhole camera with one radial distortion coefficient:
//
//	(xd, yd) = (xu, yu)·(1 + k1·r²)
//
// Blocks: intrinsics [focal, ppx, ppy, k1], extrinsics [rx, ry, rz, tx, ty, tz], point [x, y, z].
type PinholeRadialK1[T autodiff.Number[T]] struct {
	observed r2.Point
}

// NewPinholeRadialK1 returns a radial K1 residual for an observed pixel.
func NewPinholeRadialK1[T autodiff.Number[T]](observed r2.Point) *PinholeRadialK1[T] {
	return &PinholeRadialK1[T]{observed: observed}
}

// Evaluate implements Functor.
func (f *PinholeRadialK1[T]) Evaluate(intrinsics, extrinsics, point, residuals []T) bool {
	var zero T
	var camPoint [3]T
	toCamera(extrinsics, point, camPoint[:])
	xu, yu := normalize(camPoint[:])

	k1 := intrinsics[camera.OffsetDistortionK1]
	radius2 := xu.Mul(xu).Add(yu.Mul(yu))
	coeff := zero.Constant(1).Add(k1.Mul(radius2))
	pixelResidual(intrinsics, xu.Mul(coeff), yu.Mul(coeff), f.observed, residuals)
	return true
}

// Arity implements Functor.
func (f *PinholeRadialK1[T]) Arity() camera.Arity {
	return camera.PinholeRadialK1ModelType.MustArity()
}

// Model implements Functor.
func (f *PinholeRadialK1[T]) Model() camera.ModelType {
	return camera.PinholeRadialK1ModelType
}

// Observation implements Functor.
func (f *PinholeRadialK1[T]) Observation() r2.Point {
	return f.observed
}

// PinholeRadialK3 is the residual of a pinhole camera with three radial distortion coefficients:
//
//	(xd, yd) = (xu, yu)·(1 + k1·r² + k2·r⁴ + k3·r⁶)
//
// Blocks: intrinsics [focal, ppx, ppy, k1, k2, k3], extrinsics [rx, ry, rz, tx, ty, tz],
// point [x, y, z].
type PinholeRadialK3[T autodiff.Number[T]] struct {
	observed r2.Point
}

// NewPinholeRadialK3 returns a radial K3 residual for an observed pixel.
func NewPinholeRadialK3[T autodiff.Number[T]](observed r2.Point) *PinholeRadialK3[T] {
	return &PinholeRadialK3[T]{observed: observed}
}

// Evaluate implements Functor.
func (f *PinholeRadialK3[T]) Evaluate(intrinsics, extrinsics, point, residuals []T) bool {
	var zero T
	var camPoint [3]T
	toCamera(extrinsics, point, camPoint[:])
	xu, yu := normalize(camPoint[:])

	k1 := intrinsics[camera.OffsetDistortionK1]
	k2 := intrinsics[camera.OffsetDistortionK2]
	k3 := intrinsics[camera.OffsetDistortionK3]
	radius2 := xu.Mul(xu).Add(yu.Mul(yu))
	r4 := radius2.Mul(radius2)
	r6 := r4.Mul(radius2)
	coeff := zero.Constant(1).Add(k1.Mul(radius2)).Add(k2.Mul(r4)).Add(k3.Mul(r6))
	pixelResidual(intrinsics, xu.Mul(coeff), yu.Mul(coeff), f.observed, residuals)
	return true
}

// Arity implements Functor.
func (f *PinholeRadialK3[T]) Arity() camera.Arity {
	return camera.PinholeRadialK3ModelType.MustArity()
}

// Model implements Functor.
func (f *PinholeRadialK3[T]) Model() camera.ModelType {
	return camera.PinholeRadialK3ModelType
}

// Observation implements Functor.
func (f *PinholeRadialK3[T]) Observation() r2.Point {
	return f.observed
}
