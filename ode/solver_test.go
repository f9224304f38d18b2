package ode

import (
	"math"
	"testing"

	"github.com/danepowell/openhaptics-sub000/nvector"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// constantForce is x' = v, v' = a for a point mass.
func constantForce(a float64) Derivative {
	return func(t float64, x, xdot nvector.Vector[float64]) bool {
		xdot[0] = x[1]
		xdot[1] = a
		return false
	}
}

func solveOnce(t *testing.T, kind Kind, x0 nvector.Vector[float64], t0, t1 float64, f Derivative) nvector.Vector[float64] {
	t.Helper()

	solver, err := New(kind)
	if err != nil {
		t.Fatalf("New(%v) error: %v", kind, err)
	}
	solver.SetSize(x0.Len())

	xFinal := nvector.New[float64](x0.Len())
	solver.Solve(x0, xFinal, t0, t1, f)
	return xFinal
}

// =============================================================================
// Order checks
// =============================================================================

func TestEuler_ConstantForceFromRest(t *testing.T) {
	const (
		force = 3.0
		mass  = 1.5
		h     = 0.01
	)
	a := force / mass

	x := solveOnce(t, KindEuler, nvector.Vector[float64]{0, 0}, 0, h, constantForce(a))

	if !almostEqual(x[1], a*h, 1e-15) {
		t.Errorf("velocity = %v, want %v", x[1], a*h)
	}
	// Euler drops the 1/2 a h^2 term entirely: error is O(h^2).
	exact := 0.5 * a * h * h
	if math.Abs(x[0]-exact) > a*h*h {
		t.Errorf("displacement = %v, exact %v, error beyond O(h^2)", x[0], exact)
	}
}

func TestRK4_ConstantForceIsExact(t *testing.T) {
	const (
		a  = -9.8
		v0 = 2.0
		h  = 0.25
	)

	x := solveOnce(t, KindRK4, nvector.Vector[float64]{1, v0}, 0, h, constantForce(a))

	wantX := 1 + v0*h + 0.5*a*h*h
	wantV := v0 + a*h
	if !almostEqual(x[0], wantX, 1e-12) {
		t.Errorf("position = %v, want %v", x[0], wantX)
	}
	if !almostEqual(x[1], wantV, 1e-12) {
		t.Errorf("velocity = %v, want %v", x[1], wantV)
	}
}

func TestMidpoint_ConstantForce(t *testing.T) {
	const (
		a = 4.0
		h = 0.5
	)

	x := solveOnce(t, KindMidpoint, nvector.Vector[float64]{0, 0}, 0, h, constantForce(a))

	if !almostEqual(x[0], 0.5*a*h*h, 1e-12) {
		t.Errorf("position = %v, want %v", x[0], 0.5*a*h*h)
	}
	if !almostEqual(x[1], a*h, 1e-12) {
		t.Errorf("velocity = %v, want %v", x[1], a*h)
	}
}

func TestSolvers_ExponentialDecayAccuracy(t *testing.T) {
	decay := func(t float64, x, xdot nvector.Vector[float64]) bool {
		xdot[0] = -x[0]
		return false
	}
	exact := math.Exp(-0.1)

	tests := []struct {
		kind      Kind
		tolerance float64
	}{
		{KindEuler, 1e-2},
		{KindMidpoint, 1e-3},
		{KindRK4, 1e-7},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			x := solveOnce(t, tt.kind, nvector.Vector[float64]{1}, 0, 0.1, decay)
			if !almostEqual(x[0], exact, tt.tolerance) {
				t.Errorf("x(0.1) = %v, want %v within %v", x[0], exact, tt.tolerance)
			}
		})
	}
}

// =============================================================================
// Evaluation counts and discontinuities
// =============================================================================

func TestSolvers_EvaluationCount(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindEuler, 1},
		{KindMidpoint, 2},
		{KindRK4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			calls := 0
			f := func(t float64, x, xdot nvector.Vector[float64]) bool {
				calls++
				xdot.Zero()
				return false
			}
			solveOnce(t, tt.kind, nvector.Vector[float64]{0}, 0, 1, f)

			if calls != tt.want {
				t.Errorf("derivative evaluated %d times, want %d", calls, tt.want)
			}
		})
	}
}

func TestEuler_DiscontinuityRewritesState(t *testing.T) {
	solver := &Euler{}
	solver.SetSize(2)

	// The derivative flips the velocity as an impulse would, then reports it.
	bounce := func(t float64, x, xdot nvector.Vector[float64]) bool {
		x[1] = -x[1]
		xdot[0] = x[1]
		xdot[1] = 0
		return true
	}

	x0 := nvector.Vector[float64]{0, -2}
	xFinal := nvector.New[float64](2)
	if !solver.Solve(x0, xFinal, 0, 0.5, bounce) {
		t.Error("Solve() should report the discontinuity")
	}

	if xFinal[1] != 2 {
		t.Errorf("velocity = %v, want post-impulse 2", xFinal[1])
	}
	if xFinal[0] != 1 {
		t.Errorf("position = %v, want 1 (moved with post-impulse velocity)", xFinal[0])
	}
}

func TestSolver_SizeMismatchPanics(t *testing.T) {
	solver := &RK4{}
	solver.SetSize(3)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched state size")
		}
	}()

	solver.Solve(nvector.New[float64](2), nvector.New[float64](2), 0, 1, constantForce(0))
}

// =============================================================================
// Kind
// =============================================================================

func TestKind_UnmarshalText(t *testing.T) {
	tests := []struct {
		text    string
		want    Kind
		wantErr bool
	}{
		{"euler", KindEuler, false},
		{"Midpoint", KindMidpoint, false},
		{" rk4 ", KindRK4, false},
		{"verlet", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var k Kind
			err := k.UnmarshalText([]byte(tt.text))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if !tt.wantErr && k != tt.want {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.text, k, tt.want)
			}
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	if _, err := New(Kind(42)); err == nil {
		t.Error("New(Kind(42)) should fail")
	}
}

func BenchmarkRK4_Solve(b *testing.B) {
	const n = 13 * 64
	solver := &RK4{}
	solver.SetSize(n)
	x0 := nvector.New[float64](n)
	xFinal := nvector.New[float64](n)
	f := func(t float64, x, xdot nvector.Vector[float64]) bool {
		copy(xdot, x)
		return false
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		solver.Solve(x0, xFinal, 0, 0.01, f)
	}
}
