// Package autodiff defines the arithmetic that residual functions are written against, along with
// number types that carry derivatives through that arithmetic.
//
// A function written over Number[T] evaluates to plain values when T is Float and to values plus
// exact partial derivatives when T is Jet or Dual. Functions that want derivatives to survive must
// not branch on values or convert to float64 part way through.
package autodiff

import "math"

// Number is the set of operations a differentiable scalar must provide.
type Number[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Sqrt() T
	Sin() T
	Cos() T
	// Constant lifts v into T with no derivative. It ignores its receiver, so it may be called
	// on the zero value.
	Constant(v float64) T
	// Value returns the value part, dropping any derivatives.
	Value() float64
}

// Float is a float64 that satisfies Number.
type Float float64

// Add returns f + o.
func (f Float) Add(o Float) Float { return f + o }

// Sub returns f - o.
func (f Float) Sub(o Float) Float { return f - o }

// Mul returns f * o.
func (f Float) Mul(o Float) Float { return f * o }

// Div returns f / o.
func (f Float) Div(o Float) Float { return f / o }

// Sqrt returns the square root of f.
func (f Float) Sqrt() Float { return Float(math.Sqrt(float64(f))) }

// Sin returns the sine of f.
func (f Float) Sin() Float { return Float(math.Sin(float64(f))) }

// Cos returns the cosine of f.
func (f Float) Cos() Float { return Float(math.Cos(float64(f))) }

// Constant returns v as a Float.
func (Float) Constant(v float64) Float { return Float(v) }

// Value returns f as a float64.
func (f Float) Value() float64 { return float64(f) }

// Floats converts a block of float64 values to Floats.
func Floats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

// Values reads the value part of every element of a block.
func Values[T Number[T]](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.Value()
	}
	return out
}

// Constants lifts a block of float64 values into T with no derivatives.
func Constants[T Number[T]](values []float64) []T {
	var zero T
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = zero.Constant(v)
	}
	return out
}
