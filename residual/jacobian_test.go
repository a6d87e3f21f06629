package residual

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/reprojection/autodiff"
	"go.viam.com/reprojection/camera"
)

const fdStep = 1e-6

// numericJacobian differentiates the float residual of model by central differences over the
// concatenated parameter vector.
func numericJacobian(model camera.ModelType, obs r2.Point, intrinsics, extrinsics, point []float64) *mat.Dense {
	f, err := New[autodiff.Float](model, obs)
	if err != nil {
		panic(err)
	}
	ni, ne := len(intrinsics), len(extrinsics)
	x := append(append(append([]float64{}, intrinsics...), extrinsics...), point...)
	jac := mat.NewDense(2, len(x), nil)
	fd.Jacobian(jac, func(y, x []float64) {
		res := make([]autodiff.Float, 2)
		f.Evaluate(autodiff.Floats(x[:ni]), autodiff.Floats(x[ni:ni+ne]), autodiff.Floats(x[ni+ne:]), res)
		y[0], y[1] = float64(res[0]), float64(res[1])
	}, x, &fd.JacobianSettings{Formula: fd.Central, Step: fdStep})
	return jac
}

func TestJacobianMatchesFiniteDifference(t *testing.T) {
	obs := r2.Point{X: 333, Y: 222}
	poses := map[string][]float64{
		"general":       testPose,
		"zero rotation": {0, 0, 0, 0.3, -0.1, 5},
		"tiny rotation": {1e-8, -2e-8, 1e-8, 0.3, -0.1, 5},
		"large":         {1.5, -0.7, 2.2, -0.5, 0.4, 8},
	}
	for _, model := range camera.ModelTypes {
		for name, pose := range poses {
			t.Run(string(model)+"/"+name, func(t *testing.T) {
				f, err := New[autodiff.Jet](model, obs)
				test.That(t, err, test.ShouldBeNil)
				eval, err := EvaluateJacobian(f, testIntrinsics[model], pose, testPoint)
				test.That(t, err, test.ShouldBeNil)

				want, err := Project(model, testIntrinsics[model], pose, testPoint)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, eval.Residual.X, test.ShouldAlmostEqual, want.X-obs.X, 1e-9)
				test.That(t, eval.Residual.Y, test.ShouldAlmostEqual, want.Y-obs.Y, 1e-9)

				analytic := eval.Jacobian()
				numeric := numericJacobian(model, obs, testIntrinsics[model], pose, testPoint)
				r, c := analytic.Dims()
				test.That(t, r, test.ShouldEqual, 2)
				test.That(t, c, test.ShouldEqual, model.MustArity().Parameters())
				for i := 0; i < r; i++ {
					for j := 0; j < c; j++ {
						// central differences are accurate to O(h²) plus rounding of order ε|r|/h
						tol := 1e3 * fdStep * math.Max(1, math.Abs(numeric.At(i, j)))
						test.That(t, analytic.At(i, j), test.ShouldAlmostEqual, numeric.At(i, j), tol)
					}
				}
			})
		}
	}
}

func TestJacobianBlocks(t *testing.T) {
	f := NewPinhole[autodiff.Jet](r2.Point{X: 500, Y: 500})
	eval, err := EvaluateJacobian(f, []float64{1000, 500, 500}, []float64{0, 0, 0, 0, 0, 1}, []float64{0, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Residual, test.ShouldResemble, r2.Point{})

	// camera point (0, 0, 1): d/dfocal is the normalized point, d/dpp is the identity
	test.That(t, mat.Equal(eval.Intrinsics, mat.NewDense(2, 3, []float64{
		0, 1, 0,
		0, 0, 1,
	})), test.ShouldBeTrue)
	// rotating the origin moves nothing, translation moves the pixel by focal/z, and depth does
	// nothing on the optical axis
	test.That(t, mat.EqualApprox(eval.Extrinsics, mat.NewDense(2, 6, []float64{
		0, 0, 0, 1000, 0, 0,
		0, 0, 0, 0, 1000, 0,
	}), 1e-9), test.ShouldBeTrue)
	test.That(t, mat.EqualApprox(eval.Point, mat.NewDense(2, 3, []float64{
		1000, 0, 0,
		0, 1000, 0,
	}), 1e-9), test.ShouldBeTrue)
}

func TestEvaluateJacobianErrors(t *testing.T) {
	f := NewPinholeRig[autodiff.Jet](r2.Point{})
	_, err := EvaluateJacobian(f, []float64{800, 320, 240}, testPose, testPoint)
	test.That(t, errors.Is(err, ErrBlockSize), test.ShouldBeTrue)
}

func TestDualMatchesJet(t *testing.T) {
	obs := r2.Point{X: 280, Y: 250}
	for _, model := range camera.ModelTypes {
		t.Run(string(model), func(t *testing.T) {
			jf, err := New[autodiff.Jet](model, obs)
			test.That(t, err, test.ShouldBeNil)
			eval, err := EvaluateJacobian(jf, testIntrinsics[model], testPose, testPoint)
			test.That(t, err, test.ShouldBeNil)

			n := model.MustArity().Parameters()
			direction := make([]float64, n)
			for i := range direction {
				direction[i] = math.Sin(float64(i) + 0.5)
			}
			var want mat.VecDense
			want.MulVec(eval.Jacobian(), mat.NewVecDense(n, direction))

			df, err := New[autodiff.Dual](model, obs)
			test.That(t, err, test.ShouldBeNil)
			value, derivative, err := DirectionalDerivative(df, testIntrinsics[model], testPose, testPoint, direction)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, value.X, test.ShouldAlmostEqual, eval.Residual.X, 1e-9)
			test.That(t, value.Y, test.ShouldAlmostEqual, eval.Residual.Y, 1e-9)
			test.That(t, derivative.X, test.ShouldAlmostEqual, want.AtVec(0), 1e-7)
			test.That(t, derivative.Y, test.ShouldAlmostEqual, want.AtVec(1), 1e-7)

			_, _, err = DirectionalDerivative(df, testIntrinsics[model], testPose, testPoint, direction[1:])
			test.That(t, errors.Is(err, ErrBlockSize), test.ShouldBeTrue)
			_, _, err = DirectionalDerivative(df, testIntrinsics[model], testPose[1:], testPoint, direction)
			test.That(t, errors.Is(err, ErrBlockSize), test.ShouldBeTrue)
		})
	}
}
