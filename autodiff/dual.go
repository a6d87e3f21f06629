package autodiff

import "gonum.org/v1/gonum/num/dual"

// Dual adapts gonum's dual numbers to Number. It carries one derivative, so evaluating a function
// over Dual gives the directional derivative along whatever direction the inputs were seeded with.
type Dual dual.Number

// NewDual returns a dual number with value v and tangent d.
func NewDual(v, d float64) Dual {
	return Dual{Real: v, Emag: d}
}

// Duals seeds a block with values and matching tangent components.
func Duals(values, direction []float64) []Dual {
	out := make([]Dual, len(values))
	for i, v := range values {
		out[i] = NewDual(v, direction[i])
	}
	return out
}

// Add returns d + o.
func (d Dual) Add(o Dual) Dual {
	return Dual(dual.Add(dual.Number(d), dual.Number(o)))
}

// Sub returns d - o.
func (d Dual) Sub(o Dual) Dual {
	return Dual(dual.Sub(dual.Number(d), dual.Number(o)))
}

// Mul returns d * o.
func (d Dual) Mul(o Dual) Dual {
	return Dual(dual.Mul(dual.Number(d), dual.Number(o)))
}

// Div returns d / o.
func (d Dual) Div(o Dual) Dual {
	return Dual(dual.Mul(dual.Number(d), dual.Inv(dual.Number(o))))
}

// Sqrt returns the square root of d.
func (d Dual) Sqrt() Dual {
	return Dual(dual.Sqrt(dual.Number(d)))
}

// Sin returns the sine of d.
func (d Dual) Sin() Dual {
	return Dual(dual.Sin(dual.Number(d)))
}

// Cos returns the cosine of d.
func (d Dual) Cos() Dual {
	return Dual(dual.Cos(dual.Number(d)))
}

// Constant returns v with a zero tangent.
func (Dual) Constant(v float64) Dual {
	return Dual{Real: v}
}

// Value returns the value part of d.
func (d Dual) Value() float64 {
	return d.Real
}

// Derivative returns the tangent part of d.
func (d Dual) Derivative() float64 {
	return d.Emag
}
