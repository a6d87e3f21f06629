package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/reprojection/autodiff"
)

func floats(v ...float64) []autodiff.Float {
	return autodiff.Floats(v)
}

func TestRotateZeroIsIdentity(t *testing.T) {
	pt := floats(1.5, -2, 3.25)
	out := make([]autodiff.Float, 3)
	AngleAxisRotatePoint(floats(0, 0, 0), pt, out)
	test.That(t, out, test.ShouldResemble, pt)

	v := r3.Vector{X: -4, Y: 0.5, Z: 9}
	test.That(t, RotateVector(r3.Vector{}, v), test.ShouldResemble, v)
}

func TestRotateAboutZ(t *testing.T) {
	for _, theta := range []float64{0.1, math.Pi / 4, math.Pi / 2, 2, math.Pi, -1.2} {
		got := RotateVector(r3.Vector{Z: theta}, r3.Vector{X: 1})
		test.That(t, got.X, test.ShouldAlmostEqual, math.Cos(theta), 1e-15)
		test.That(t, got.Y, test.ShouldAlmostEqual, math.Sin(theta), 1e-15)
		test.That(t, got.Z, test.ShouldAlmostEqual, 0, 1e-15)
	}
}

// rotateByQuat rotates p by the unit quaternion for axis-angle aa, as q·p·q*.
func rotateByQuat(aa, p r3.Vector) r3.Vector {
	theta := aa.Norm()
	axis := aa.Mul(1 / theta)
	sinHalf := math.Sin(theta / 2)
	q := quat.Number{Real: math.Cos(theta / 2), Imag: axis.X * sinHalf, Jmag: axis.Y * sinHalf, Kmag: axis.Z * sinHalf}
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

func TestRotateMatchesQuaternion(t *testing.T) {
	axes := []r3.Vector{
		{X: 1, Y: 2, Z: 3},
		{X: -0.3, Y: 0.1, Z: 0.05},
		{X: 0, Y: -2.5, Z: 0},
		{X: 1e-3, Y: -2e-3, Z: 5e-4},
	}
	p := r3.Vector{X: 0.4, Y: -1.7, Z: 2.2}
	for _, aa := range axes {
		want := rotateByQuat(aa, p)
		got := RotateVector(aa, p)
		test.That(t, got.X, test.ShouldAlmostEqual, want.X, 1e-12)
		test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, 1e-12)
		test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, 1e-12)
		// rotations preserve length
		test.That(t, got.Norm(), test.ShouldAlmostEqual, p.Norm(), 1e-12)
	}
}

func TestRotateSmallAngle(t *testing.T) {
	p := r3.Vector{X: 3, Y: -1, Z: 2}
	for _, aa := range []r3.Vector{
		{Z: 1e-8},
		{X: 1e-8, Y: -1e-8, Z: 5e-9},
		{X: 1e-12},
		{Y: 1e-300},
	} {
		got := RotateVector(aa, p)
		// first order: p + ω×p
		want := p.Add(aa.Cross(p))
		test.That(t, got.X, test.ShouldAlmostEqual, want.X, 1e-14)
		test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, 1e-14)
		test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, 1e-14)
		test.That(t, math.IsNaN(got.X+got.Y+got.Z), test.ShouldBeFalse)
	}
}

// rotateJacobian differentiates the rotation with respect to ω (columns 0-2) and p (columns 3-5).
func rotateJacobian(aa, p r3.Vector) *mat.Dense {
	out := make([]autodiff.Jet, 3)
	AngleAxisRotatePoint(
		autodiff.Variables([]float64{aa.X, aa.Y, aa.Z}, 0),
		autodiff.Variables([]float64{p.X, p.Y, p.Z}, 3),
		out,
	)
	jac := mat.NewDense(3, 6, nil)
	for r, j := range out {
		for c := 0; c < 6; c++ {
			jac.Set(r, c, j.Partial(c))
		}
	}
	return jac
}

func TestRotateJacobianAtZero(t *testing.T) {
	p := r3.Vector{X: 3, Y: -1, Z: 2}
	jac := rotateJacobian(r3.Vector{}, p)

	// d(R(ω)p)/dω at ω=0 is -[p]×, d/dp is the identity.
	want := mat.NewDense(3, 6, []float64{
		0, p.Z, -p.Y, 1, 0, 0,
		-p.Z, 0, p.X, 0, 1, 0,
		p.Y, -p.X, 0, 0, 0, 1,
	})
	test.That(t, mat.EqualApprox(jac, want, 1e-15), test.ShouldBeTrue)
}

func TestRotateJacobianMatchesFiniteDifference(t *testing.T) {
	f := func(y, x []float64) {
		out := make([]autodiff.Float, 3)
		AngleAxisRotatePoint(autodiff.Floats(x[:3]), autodiff.Floats(x[3:]), out)
		copy(y, autodiff.Values(out))
	}
	for _, aa := range []r3.Vector{
		{X: 0.3, Y: -0.2, Z: 0.9},
		{X: 1e-8, Y: 2e-8, Z: -1e-8},
		{X: 2, Y: 1, Z: -1},
	} {
		p := r3.Vector{X: 0.5, Y: 4, Z: -3}
		numeric := mat.NewDense(3, 6, nil)
		fd.Jacobian(numeric, f, []float64{aa.X, aa.Y, aa.Z, p.X, p.Y, p.Z}, &fd.JacobianSettings{
			Formula: fd.Central,
			Step:    1e-6,
		})
		test.That(t, mat.EqualApprox(rotateJacobian(aa, p), numeric, 1e-7), test.ShouldBeTrue)
	}
}

func TestTransform(t *testing.T) {
	got := Transform(r3.Vector{Z: math.Pi / 2}, r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: 1})
	test.That(t, got.X, test.ShouldAlmostEqual, 1, 1e-15)
	test.That(t, got.Y, test.ShouldAlmostEqual, 3, 1e-15)
	test.That(t, got.Z, test.ShouldAlmostEqual, 3, 1e-15)
}
