package residual

import (
	"github.com/golang/geo/r2"

	"go.viam.com/reprojection/autodiff"
	"go.viam.com/reprojection/camera"
	"go.viam.com/reprojection/spatialmath"
)

// PinholeRig is the residual of a pinhole camera mounted on a rigid platform. The extrinsics
// block is the platform pose (R, t); the camera's fixed offset from the platform (R_s, t_s) is
// calibrated once and rides along in the intrinsics block. A world point X lands in the camera
// frame at
//
//	R_s·(R·X) + t_s + R·t_s + t
//
// Blocks: intrinsics [focal, ppx, ppy, rsx, rsy, rsz, tsx, tsy, tsz],
// extrinsics [rx, ry, rz, tx, ty, tz], point [x, y, z].
type PinholeRig[T autodiff.Number[T]] struct {
	observed r2.Point
}

// NewPinholeRig returns a rig residual for an observed pixel.
func NewPinholeRig[T autodiff.Number[T]](observed r2.Point) *PinholeRig[T] {
	return &PinholeRig[T]{observed: observed}
}

// Evaluate implements Functor.
func (f *PinholeRig[T]) Evaluate(intrinsics, extrinsics, point, residuals []T) bool {
	platformRotation := rotation(extrinsics, camera.OffsetRotation)
	platformTranslation := extrinsics[camera.OffsetTranslation : camera.OffsetTranslation+3]
	subPoseRotation := rotation(intrinsics, camera.OffsetSubPoseRotation)
	subPoseTranslation := intrinsics[camera.OffsetSubPoseTranslation : camera.OffsetSubPoseTranslation+3]

	// R_s·R·X
	var onPlatform, camPoint [3]T
	spatialmath.AngleAxisRotatePoint(platformRotation, point, onPlatform[:])
	spatialmath.AngleAxisRotatePoint(subPoseRotation, onPlatform[:], camPoint[:])

	// R·t_s
	var rigTranslation [3]T
	spatialmath.AngleAxisRotatePoint(platformRotation, subPoseTranslation, rigTranslation[:])

	for i := range camPoint {
		camPoint[i] = camPoint[i].Add(subPoseTranslation[i]).Add(rigTranslation[i]).Add(platformTranslation[i])
	}

	xu, yu := normalize(camPoint[:])
	pixelResidual(intrinsics, xu, yu, f.observed, residuals)
	return true
}

// Arity implements Functor.
func (f *PinholeRig[T]) Arity() camera.Arity {
	return camera.PinholeRigModelType.MustArity()
}

// Model implements Functor.
func (f *PinholeRig[T]) Model() camera.ModelType {
	return camera.PinholeRigModelType
}

// Observation implements Functor.
func (f *PinholeRig[T]) Observation() r2.Point {
	return f.observed
}
