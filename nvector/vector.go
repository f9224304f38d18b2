// Package nvector provides a resizable flat numeric vector with element-wise
// arithmetic. It is the state representation handed to the ODE solvers, which
// therefore know nothing about rigid bodies.
package nvector

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Vector is a flat vector of floating point values.
type Vector[T constraints.Float] []T

// New allocates a zeroed vector of length n.
func New[T constraints.Float](n int) Vector[T] {
	return make(Vector[T], n)
}

// Len returns the number of elements.
func (v Vector[T]) Len() int {
	return len(v)
}

// Resize returns a vector of length n that keeps the common prefix of v.
// The backing array is reused when it is large enough.
func (v Vector[T]) Resize(n int) Vector[T] {
	if n <= cap(v) {
		old := len(v)
		v = v[:n]
		for i := old; i < n; i++ {
			v[i] = 0
		}
		return v
	}

	out := make(Vector[T], n)
	copy(out, v)
	return out
}

// Clone returns a copy of v.
func (v Vector[T]) Clone() Vector[T] {
	out := make(Vector[T], len(v))
	copy(out, v)
	return out
}

// Zero sets every element to 0.
func (v Vector[T]) Zero() {
	for i := range v {
		v[i] = 0
	}
}

// Add returns v + o.
func (v Vector[T]) Add(o Vector[T]) Vector[T] {
	mustMatch(v, o)
	out := make(Vector[T], len(v))
	for i := range v {
		out[i] = v[i] + o[i]
	}
	return out
}

// Sub returns v - o.
func (v Vector[T]) Sub(o Vector[T]) Vector[T] {
	mustMatch(v, o)
	out := make(Vector[T], len(v))
	for i := range v {
		out[i] = v[i] - o[i]
	}
	return out
}

// Mul returns the Hadamard product of v and o.
func (v Vector[T]) Mul(o Vector[T]) Vector[T] {
	mustMatch(v, o)
	out := make(Vector[T], len(v))
	for i := range v {
		out[i] = v[i] * o[i]
	}
	return out
}

// Div returns the element-wise quotient v / o.
func (v Vector[T]) Div(o Vector[T]) Vector[T] {
	mustMatch(v, o)
	out := make(Vector[T], len(v))
	for i := range v {
		out[i] = v[i] / o[i]
	}
	return out
}

// Scale returns s * v.
func (v Vector[T]) Scale(s T) Vector[T] {
	out := make(Vector[T], len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

// DivScalar returns v / s.
func (v Vector[T]) DivScalar(s T) Vector[T] {
	out := make(Vector[T], len(v))
	for i := range v {
		out[i] = v[i] / s
	}
	return out
}

// AddScaled performs v += s * o in place.
func (v Vector[T]) AddScaled(s T, o Vector[T]) {
	mustMatch(v, o)
	for i := range v {
		v[i] += s * o[i]
	}
}

func mustMatch[T constraints.Float](a, b Vector[T]) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("nvector: length mismatch %d != %d", len(a), len(b)))
	}
}
