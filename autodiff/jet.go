package autodiff

import (
	"fmt"
	"math"
)

// MaxDims is the number of partial derivatives a Jet carries. It covers the widest residual
// block: 9 intrinsics, 6 extrinsics and 3 point coordinates.
const MaxDims = 18

// Jet is a forward-mode dual number with a fixed-size tangent. Dual[i] holds the partial
// derivative of Real with respect to the i-th seeded variable.
type Jet struct {
	Real float64
	Dual [MaxDims]float64
}

// Variable returns a jet for value v that is the i-th independent variable.
func Variable(v float64, i int) Jet {
	j := Jet{Real: v}
	j.Dual[i] = 1
	return j
}

// Variables seeds a whole parameter block. The k-th value becomes variable offset+k.
func Variables(values []float64, offset int) []Jet {
	out := make([]Jet, len(values))
	for k, v := range values {
		out[k] = Variable(v, offset+k)
	}
	return out
}

// Partial returns the derivative with respect to variable i.
func (j Jet) Partial(i int) float64 {
	return j.Dual[i]
}

// Value returns the value part of j.
func (j Jet) Value() float64 {
	return j.Real
}

// Constant returns a jet for v with a zero tangent.
func (Jet) Constant(v float64) Jet {
	return Jet{Real: v}
}

// Add returns j + o.
func (j Jet) Add(o Jet) Jet {
	out := Jet{Real: j.Real + o.Real}
	for i := range out.Dual {
		out.Dual[i] = j.Dual[i] + o.Dual[i]
	}
	return out
}

// Sub returns j - o.
func (j Jet) Sub(o Jet) Jet {
	out := Jet{Real: j.Real - o.Real}
	for i := range out.Dual {
		out.Dual[i] = j.Dual[i] - o.Dual[i]
	}
	return out
}

// Mul returns j * o.
func (j Jet) Mul(o Jet) Jet {
	out := Jet{Real: j.Real * o.Real}
	for i := range out.Dual {
		out.Dual[i] = j.Dual[i]*o.Real + j.Real*o.Dual[i]
	}
	return out
}

// Div returns j / o.
func (j Jet) Div(o Jet) Jet {
	inv := 1 / o.Real
	q := j.Real * inv
	out := Jet{Real: q}
	for i := range out.Dual {
		out.Dual[i] = (j.Dual[i] - q*o.Dual[i]) * inv
	}
	return out
}

// Sqrt returns the square root of j.
func (j Jet) Sqrt() Jet {
	s := math.Sqrt(j.Real)
	return j.chain(s, 1/(2*s))
}

// Sin returns the sine of j.
func (j Jet) Sin() Jet {
	sin, cos := math.Sincos(j.Real)
	return j.chain(sin, cos)
}

// Cos returns the cosine of j.
func (j Jet) Cos() Jet {
	sin, cos := math.Sincos(j.Real)
	return j.chain(cos, -sin)
}

// chain applies a scalar function with value v and derivative d at j.Real.
func (j Jet) chain(v, d float64) Jet {
	out := Jet{Real: v}
	for i := range out.Dual {
		out.Dual[i] = d * j.Dual[i]
	}
	return out
}

// String formats the value and the non-zero partials.
func (j Jet) String() string {
	s := fmt.Sprintf("%g", j.Real)
	for i, d := range j.Dual {
		if d != 0 {
			s += fmt.Sprintf(" + %gε%d", d, i)
		}
	}
	return s
}
