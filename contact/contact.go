// Package contact turns a witness in contact or penetration into a single
// contact point and resolves collisions at it with an impulse.
package contact

import (
	"fmt"

	"github.com/danepowell/openhaptics-sub000/actor"
	"github.com/danepowell/openhaptics-sub000/witness"
	"github.com/go-gl/mathgl/mgl64"
)

// Classification of a contact from its relative normal velocity.
type Classification int

const (
	Separating Classification = iota
	Resting
	Colliding
)

func (c Classification) String() string {
	switch c {
	case Separating:
		return "separating"
	case Resting:
		return "resting"
	case Colliding:
		return "colliding"
	}
	return fmt.Sprintf("Classification(%d)", int(c))
}

// Contact is a transient contact point between two bodies.
//
// A is the body whose vertices touch the plane, B the body the plane belongs
// to. N is the plane normal and points from B towards A.
type Contact struct {
	A, B     int
	P        mgl64.Vec3
	N        mgl64.Vec3
	Distance float64
}

// Create builds the contact of a witness. Every vertex of the secondary body
// within threshold of the plane, or behind it, is averaged into one point.
//
// Create panics when the witness holds no plane or no vertex qualifies: it
// must only be called for pairs in contact or penetration.
func Create(w *witness.Witness, bodies []*actor.RigidBody, threshold float64) Contact {
	plane, ok := w.Plane(bodies)
	if !ok {
		panic(fmt.Sprintf("contact: witness (%d,%d) has no plane", w.A, w.B))
	}

	secondary := bodies[w.Secondary]

	var sum mgl64.Vec3
	var distance float64
	count := 0
	for _, v := range secondary.WorldVertices {
		d := plane.Distance(v)
		if d <= threshold {
			sum = sum.Add(v)
			distance += d
			count++
		}
	}

	if count == 0 {
		panic(fmt.Sprintf("contact: no vertex of body %d within %g of the plane of body %d", w.Secondary, threshold, w.Primary))
	}

	inv := 1 / float64(count)
	return Contact{
		A:        w.Secondary,
		B:        w.Primary,
		P:        sum.Mul(inv),
		N:        plane.Normal,
		Distance: distance * inv,
	}
}

// RelativeVelocity returns n · (vA(p) - vB(p)). Negative means approaching.
func (c *Contact) RelativeVelocity(bodies []*actor.RigidBody) float64 {
	a, b := bodies[c.A], bodies[c.B]
	return c.N.Dot(a.PointVelocity(c.P).Sub(b.PointVelocity(c.P)))
}

// Classify returns Separating when v_rel > epsilon, Resting when
// -epsilon < v_rel <= epsilon and Colliding otherwise.
func (c *Contact) Classify(bodies []*actor.RigidBody, epsilon float64) Classification {
	vrel := c.RelativeVelocity(bodies)
	switch {
	case vrel > epsilon:
		return Separating
	case vrel > -epsilon:
		return Resting
	default:
		return Colliding
	}
}

// ApplyImpulse resolves the collision with restitution e and returns the
// impulse magnitude j. A receives +j·n and B receives -j·n at P; both bodies'
// velocities are refreshed before returning.
func (c *Contact) ApplyImpulse(bodies []*actor.RigidBody, restitution float64) float64 {
	a, b := bodies[c.A], bodies[c.B]
	n := c.N

	rA := c.P.Sub(a.X)
	rB := c.P.Sub(b.X)

	vrel := c.RelativeVelocity(bodies)

	termA := n.Dot(a.IInv.Mul3x1(rA.Cross(n)).Cross(rA))
	termB := n.Dot(b.IInv.Mul3x1(rB.Cross(n)).Cross(rB))
	denominator := a.MassInv + b.MassInv + termA + termB
	if denominator == 0 {
		return 0
	}

	j := -(1 + restitution) * vrel / denominator
	impulse := n.Mul(j)

	a.ApplyImpulseAtPoint(impulse, c.P)
	b.ApplyImpulseAtPoint(impulse.Mul(-1), c.P)

	return j
}
