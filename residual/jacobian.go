package residual

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/reprojection/autodiff"
	"go.viam.com/reprojection/camera"
)

// Evaluation is a residual together with its partial derivatives, one 2×n matrix per parameter
// block, laid out the way an optimizer stores per-block Jacobians.
type Evaluation struct {
	Residual   r2.Point
	Intrinsics *mat.Dense
	Extrinsics *mat.Dense
	Point      *mat.Dense
}

// Jacobian returns the three blocks side by side as a single 2×(n+6+3) matrix.
func (e *Evaluation) Jacobian() *mat.Dense {
	_, ni := e.Intrinsics.Dims()
	_, ne := e.Extrinsics.Dims()
	_, np := e.Point.Dims()
	full := mat.NewDense(camera.ResidualSize, ni+ne+np, nil)
	full.Slice(0, camera.ResidualSize, 0, ni).(*mat.Dense).Copy(e.Intrinsics)
	full.Slice(0, camera.ResidualSize, ni, ni+ne).(*mat.Dense).Copy(e.Extrinsics)
	full.Slice(0, camera.ResidualSize, ni+ne, ni+ne+np).(*mat.Dense).Copy(e.Point)
	return full
}

// EvaluateJacobian evaluates f once over jets seeded with every parameter and returns the
// residual and its Jacobian.
func EvaluateJacobian(f Functor[autodiff.Jet], intrinsics, extrinsics, point []float64) (*Evaluation, error) {
	arity := f.Arity()
	if err := CheckBlockSizes(arity, intrinsics, extrinsics, point); err != nil {
		return nil, err
	}
	if arity.Parameters() > autodiff.MaxDims {
		return nil, errors.Errorf("%d parameters do not fit in a jet of %d", arity.Parameters(), autodiff.MaxDims)
	}

	in := autodiff.Variables(intrinsics, 0)
	ex := autodiff.Variables(extrinsics, arity.Intrinsics)
	pt := autodiff.Variables(point, arity.Intrinsics+arity.Extrinsics)
	res := make([]autodiff.Jet, arity.Residuals)
	f.Evaluate(in, ex, pt, res)

	return &Evaluation{
		Residual:   r2.Point{X: res[0].Value(), Y: res[1].Value()},
		Intrinsics: jacobianBlock(res, 0, arity.Intrinsics),
		Extrinsics: jacobianBlock(res, arity.Intrinsics, arity.Extrinsics),
		Point:      jacobianBlock(res, arity.Intrinsics+arity.Extrinsics, arity.Point),
	}, nil
}

func jacobianBlock(res []autodiff.Jet, offset, n int) *mat.Dense {
	block := mat.NewDense(len(res), n, nil)
	for r, j := range res {
		for c := 0; c < n; c++ {
			block.Set(r, c, j.Partial(offset+c))
		}
	}
	return block
}

// DirectionalDerivative evaluates f over gonum dual numbers seeded with direction, which has one
// entry per parameter in intrinsics, extrinsics, point order. It returns the residual and its
// derivative along direction.
func DirectionalDerivative(
	f Functor[autodiff.Dual],
	intrinsics, extrinsics, point, direction []float64,
) (r2.Point, r2.Point, error) {
	arity := f.Arity()
	if err := CheckBlockSizes(arity, intrinsics, extrinsics, point); err != nil {
		return r2.Point{}, r2.Point{}, err
	}
	if len(direction) != arity.Parameters() {
		return r2.Point{}, r2.Point{}, errors.Wrapf(ErrBlockSize,
			"direction has %d values, expected %d", len(direction), arity.Parameters())
	}

	ni, ne := arity.Intrinsics, arity.Extrinsics
	res := make([]autodiff.Dual, arity.Residuals)
	f.Evaluate(
		autodiff.Duals(intrinsics, direction[:ni]),
		autodiff.Duals(extrinsics, direction[ni:ni+ne]),
		autodiff.Duals(point, direction[ni+ne:]),
		res,
	)
	return r2.Point{X: res[0].Value(), Y: res[1].Value()},
		r2.Point{X: res[0].Derivative(), Y: res[1].Derivative()},
		nil
}
