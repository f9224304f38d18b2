// Package ode implements explicit integrators over a flat state vector.
//
// A solver advances x0 at t0 to xFinal at t1 by sampling a derivative
// function. The derivative is allowed to have side effects: the rigid-body
// world unpacks x into its bodies, resolves collisions and, when an impulse
// was applied, rewrites x with the post-impulse state before returning true.
//
// Only Euler handles such discontinuities correctly. Midpoint and RK4 sample
// the derivative at synthetic intermediate states and combine slopes taken on
// either side of an impulse, so they are only valid for discontinuity-free
// systems. Rigid-body worlds should use Euler.
package ode

import (
	"fmt"
	"strings"

	"github.com/danepowell/openhaptics-sub000/nvector"
	"gonum.org/v1/gonum/floats"
)

// Derivative writes dx/dt at (t, x) into xdot. It returns true when a
// discontinuity occurred during the evaluation, in which case x may have been
// rewritten in place.
type Derivative func(t float64, x, xdot nvector.Vector[float64]) bool

// Solver is an explicit ODE integrator.
type Solver interface {
	// SetSize allocates scratch buffers for states of length n.
	SetSize(n int)
	// Solve integrates from (t0, x0) to t1 and stores the result in xFinal.
	// It reports whether any derivative evaluation flagged a discontinuity.
	Solve(x0, xFinal nvector.Vector[float64], t0, t1 float64, f Derivative) bool
}

// Kind selects a solver implementation.
type Kind int

const (
	KindEuler Kind = iota
	KindMidpoint
	KindRK4
)

func (k Kind) String() string {
	switch k {
	case KindEuler:
		return "euler"
	case KindMidpoint:
		return "midpoint"
	case KindRK4:
		return "rk4"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so a Kind can be read from
// a config file.
func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "euler":
		*k = KindEuler
	case "midpoint":
		*k = KindMidpoint
	case "rk4":
		*k = KindRK4
	default:
		return fmt.Errorf("unknown solver %q", string(text))
	}
	return nil
}

// New returns a solver of the given kind.
func New(kind Kind) (Solver, error) {
	switch kind {
	case KindEuler:
		return &Euler{}, nil
	case KindMidpoint:
		return &Midpoint{}, nil
	case KindRK4:
		return &RK4{}, nil
	}
	return nil, fmt.Errorf("unknown solver %v", kind)
}

// Euler is the forward Euler method: xFinal = x0 + h*f(t0, x0).
type Euler struct {
	size int
	k    nvector.Vector[float64]
}

func (e *Euler) SetSize(n int) {
	e.size = n
	e.k = e.k.Resize(n)
}

func (e *Euler) Solve(x0, xFinal nvector.Vector[float64], t0, t1 float64, f Derivative) bool {
	checkSize("euler", e.size, x0, xFinal)
	h := t1 - t0

	discontinuity := f(t0, x0, e.k)
	floats.AddScaledTo(xFinal, x0, h, e.k)

	return discontinuity
}

// Midpoint evaluates the slope at t0, steps half way and integrates the full
// step using only the slope sampled at the midpoint.
type Midpoint struct {
	size int
	k    nvector.Vector[float64]
	xm   nvector.Vector[float64]
}

func (m *Midpoint) SetSize(n int) {
	m.size = n
	m.k = m.k.Resize(n)
	m.xm = m.xm.Resize(n)
}

func (m *Midpoint) Solve(x0, xFinal nvector.Vector[float64], t0, t1 float64, f Derivative) bool {
	checkSize("midpoint", m.size, x0, xFinal)
	h := t1 - t0

	discontinuity := f(t0, x0, m.k)
	floats.AddScaledTo(m.xm, x0, h/2, m.k)

	if f(t0+h/2, m.xm, m.k) {
		discontinuity = true
	}
	floats.AddScaledTo(xFinal, x0, h, m.k)

	return discontinuity
}

// RK4 is the classical fourth order Runge-Kutta method.
type RK4 struct {
	size           int
	k1, k2, k3, k4 nvector.Vector[float64]
	tmp            nvector.Vector[float64]
}

func (r *RK4) SetSize(n int) {
	r.size = n
	r.k1 = r.k1.Resize(n)
	r.k2 = r.k2.Resize(n)
	r.k3 = r.k3.Resize(n)
	r.k4 = r.k4.Resize(n)
	r.tmp = r.tmp.Resize(n)
}

func (r *RK4) Solve(x0, xFinal nvector.Vector[float64], t0, t1 float64, f Derivative) bool {
	checkSize("rk4", r.size, x0, xFinal)
	h := t1 - t0

	discontinuity := f(t0, x0, r.k1)

	floats.AddScaledTo(r.tmp, x0, h/2, r.k1)
	if f(t0+h/2, r.tmp, r.k2) {
		discontinuity = true
	}

	floats.AddScaledTo(r.tmp, x0, h/2, r.k2)
	if f(t0+h/2, r.tmp, r.k3) {
		discontinuity = true
	}

	floats.AddScaledTo(r.tmp, x0, h, r.k3)
	if f(t1, r.tmp, r.k4) {
		discontinuity = true
	}

	// xFinal = x0 + h/6 * (k1 + 2k2 + 2k3 + k4)
	copy(xFinal, x0)
	floats.AddScaled(xFinal, h/6, r.k1)
	floats.AddScaled(xFinal, h/3, r.k2)
	floats.AddScaled(xFinal, h/3, r.k3)
	floats.AddScaled(xFinal, h/6, r.k4)

	return discontinuity
}

func checkSize(name string, size int, x0, xFinal nvector.Vector[float64]) {
	if size != x0.Len() || size != xFinal.Len() {
		panic(fmt.Sprintf("ode: %s solver sized for %d, got x0=%d xFinal=%d", name, size, x0.Len(), xFinal.Len()))
	}
}
