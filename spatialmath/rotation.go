// Package spatialmath defines the rotation math shared by the reprojection residual models.
package spatialmath

import (
	"github.com/golang/geo/r3"

	"go.viam.com/reprojection/autodiff"
)

// smallAngle is added in quadrature to the rotation angle. Below it the angle is indistinguishable
// from zero in float64, above it the smoothed angle equals the true one to machine precision.
const smallAngle = 0x1p-52

// AngleAxisRotatePoint rotates pt by the axis-angle vector angleAxis using Rodrigues' formula and
// writes the rotated point to result, which must not alias pt.
//
// The formula is evaluated as
//
//	p·cosθ + (ω×p)·sinθ/θ + ω(ω·p)·(1−cosθ)/θ²
//
// with θ = sqrt(ω·ω + ε²) and 1−cosθ computed as 2sin²(θ/2). There is no branch on the angle, so
// the same expression is differentiated everywhere; as ω goes to zero it tends to p + ω×p and at
// ω = 0 it is exactly the identity.
func AngleAxisRotatePoint[T autodiff.Number[T]](angleAxis, pt, result []T) {
	var zero T
	two := zero.Constant(2)
	eps := zero.Constant(smallAngle)

	theta2 := angleAxis[0].Mul(angleAxis[0]).
		Add(angleAxis[1].Mul(angleAxis[1])).
		Add(angleAxis[2].Mul(angleAxis[2]))
	theta := theta2.Add(eps.Mul(eps)).Sqrt()

	cosTheta := theta.Cos()
	halfSin := theta.Div(two).Sin()
	sinc := theta.Sin().Div(theta)
	versine := two.Mul(halfSin).Mul(halfSin).Div(theta.Mul(theta))

	// ω × p
	cross0 := angleAxis[1].Mul(pt[2]).Sub(angleAxis[2].Mul(pt[1]))
	cross1 := angleAxis[2].Mul(pt[0]).Sub(angleAxis[0].Mul(pt[2]))
	cross2 := angleAxis[0].Mul(pt[1]).Sub(angleAxis[1].Mul(pt[0]))

	// (ω · p)(1−cosθ)/θ²
	along := angleAxis[0].Mul(pt[0]).
		Add(angleAxis[1].Mul(pt[1])).
		Add(angleAxis[2].Mul(pt[2])).
		Mul(versine)

	result[0] = pt[0].Mul(cosTheta).Add(cross0.Mul(sinc)).Add(angleAxis[0].Mul(along))
	result[1] = pt[1].Mul(cosTheta).Add(cross1.Mul(sinc)).Add(angleAxis[1].Mul(along))
	result[2] = pt[2].Mul(cosTheta).Add(cross2.Mul(sinc)).Add(angleAxis[2].Mul(along))
}

// RotateVector rotates p by the axis-angle vector aa.
func RotateVector(aa, p r3.Vector) r3.Vector {
	var out [3]autodiff.Float
	AngleAxisRotatePoint(
		[]autodiff.Float{autodiff.Float(aa.X), autodiff.Float(aa.Y), autodiff.Float(aa.Z)},
		[]autodiff.Float{autodiff.Float(p.X), autodiff.Float(p.Y), autodiff.Float(p.Z)},
		out[:],
	)
	return r3.Vector{X: float64(out[0]), Y: float64(out[1]), Z: float64(out[2])}
}

// Transform applies a rigid transform, rotation then translation, to pt.
func Transform(rotation, translation, pt r3.Vector) r3.Vector {
	return RotateVector(rotation, pt).Add(translation)
}
