package actor

import (
	"fmt"
	"math"

	"github.com/danepowell/openhaptics-sub000/linalg"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// StateSize is the number of scalars a body contributes to the flat state
// vector: position (3), orientation quaternion (4), linear momentum (3) and
// angular momentum (3).
const StateSize = 13

// RigidBody is a convex polyhedron with physical state
type RigidBody struct {
	ID    uuid.UUID
	Shape Shape

	// Constant mass properties. MassInv == 0 marks an immovable body.
	MassInv  float64
	IBody    mgl64.Mat3
	IBodyInv mgl64.Mat3

	// Integrated state
	X mgl64.Vec3 // position of the center of mass
	Q mgl64.Quat // orientation
	P mgl64.Vec3 // linear momentum
	L mgl64.Vec3 // angular momentum

	// Derived state, recomputed from the integrated state and never integrated
	R     mgl64.Mat3 // rotation matrix of Q
	IInv  mgl64.Mat3 // world-space inverse inertia
	V     mgl64.Vec3 // linear velocity
	Omega mgl64.Vec3 // angular velocity

	// Per-evaluation accumulators
	Force  mgl64.Vec3
	Torque mgl64.Vec3

	// Object-space geometry
	Vertices []mgl64.Vec3
	Normals  []mgl64.Vec3
	Faces    []Face
	Edges    []Edge
	// NonParallelEdges indexes Edges, one entry per edge direction
	NonParallelEdges []int

	// World-space geometry, kept in sync by TransformObjectToWorld
	WorldVertices []mgl64.Vec3
	WorldNormals  []mgl64.Vec3
}

// NewBox creates a solid box of unit density. size holds the full width,
// height and depth and must be strictly positive.
func NewBox(position mgl64.Vec3, orientation mgl64.Quat, size mgl64.Vec3, velocity mgl64.Vec3, angularVelocity mgl64.Vec3) *RigidBody {
	if isDegenerateSize(size) {
		panic(fmt.Sprintf("actor: invalid box size %v", size))
	}

	geom := boxGeometry(size)
	mass := size.X() * size.Y() * size.Z()

	rb := newRigidBody(Shape{Kind: ShapeBox, Size: size}, geom)
	rb.MassInv = 1.0 / mass
	rb.IBody = boxInertia(mass, size)
	rb.IBodyInv = rb.IBody.Inv()

	rb.X = position
	rb.Q = normalizeQuat(orientation)
	rb.P = velocity.Mul(mass)

	// L = I_world * omega
	R := linalg.Mat3FromQuat(rb.Q)
	rb.L = linalg.WorldInertia(R, rb.IBody).Mul3x1(angularVelocity)

	rb.updateDerived()
	return rb
}

// NewWall creates an immovable quadrilateral from four world-space corners.
// The face normal follows the corner winding (right-hand rule).
func NewWall(v0, v1, v2, v3 mgl64.Vec3) *RigidBody {
	corners := [4]mgl64.Vec3{v0, v1, v2, v3}
	geom, centroid := wallGeometry(corners)

	rb := newRigidBody(Shape{Kind: ShapeWall, Corners: corners}, geom)
	rb.MassInv = 0
	rb.X = centroid
	rb.Q = mgl64.QuatIdent()

	rb.updateDerived()
	return rb
}

func newRigidBody(shape Shape, geom geometry) *RigidBody {
	return &RigidBody{
		ID:               uuid.New(),
		Shape:            shape,
		Vertices:         geom.vertices,
		Normals:          geom.normals,
		Faces:            geom.faces,
		Edges:            geom.edges,
		NonParallelEdges: nonParallelEdges(geom.vertices, geom.edges),
		WorldVertices:    make([]mgl64.Vec3, len(geom.vertices)),
		WorldNormals:     make([]mgl64.Vec3, len(geom.normals)),
	}
}

// IsStatic reports whether the body is immovable
func (rb *RigidBody) IsStatic() bool {
	return rb.MassInv == 0
}

// IsWall reports whether the body is a wall. A wall acts as an unbounded
// plane: only its face separates it from other bodies.
func (rb *RigidBody) IsWall() bool {
	return rb.Shape.Kind == ShapeWall
}

// NoEdgeCollisions reports whether the body is left out of edge-edge plane
// construction.
func (rb *RigidBody) NoEdgeCollisions() bool {
	return rb.IsWall()
}

// =============================================================================
// State vector
// =============================================================================

// StateToArray writes X, Q, P and L into y starting at offset.
func (rb *RigidBody) StateToArray(y []float64, offset int) {
	s := y[offset : offset+StateSize]

	s[0], s[1], s[2] = rb.X[0], rb.X[1], rb.X[2]
	s[3], s[4], s[5], s[6] = rb.Q.W, rb.Q.V[0], rb.Q.V[1], rb.Q.V[2]
	s[7], s[8], s[9] = rb.P[0], rb.P[1], rb.P[2]
	s[10], s[11], s[12] = rb.L[0], rb.L[1], rb.L[2]
}

// ArrayToState reads X, Q, P and L from y starting at offset, renormalizes the
// orientation and recomputes every derived quantity, including world-space
// geometry.
func (rb *RigidBody) ArrayToState(y []float64, offset int) {
	s := y[offset : offset+StateSize]

	rb.X = mgl64.Vec3{s[0], s[1], s[2]}
	rb.Q = normalizeQuat(mgl64.Quat{W: s[3], V: mgl64.Vec3{s[4], s[5], s[6]}})
	rb.P = mgl64.Vec3{s[7], s[8], s[9]}
	rb.L = mgl64.Vec3{s[10], s[11], s[12]}

	rb.updateDerived()
}

// DerivativeToArray writes d/dt of the state into y starting at offset:
// velocity, quaternion rate, force and torque. Immovable bodies have a zero
// derivative.
func (rb *RigidBody) DerivativeToArray(y []float64, offset int) {
	s := y[offset : offset+StateSize]

	if rb.IsStatic() {
		clear(s)
		return
	}

	qdot := linalg.QuatDerivative(rb.Q, rb.Omega)

	s[0], s[1], s[2] = rb.V[0], rb.V[1], rb.V[2]
	s[3], s[4], s[5], s[6] = qdot.W, qdot.V[0], qdot.V[1], qdot.V[2]
	s[7], s[8], s[9] = rb.Force[0], rb.Force[1], rb.Force[2]
	s[10], s[11], s[12] = rb.Torque[0], rb.Torque[1], rb.Torque[2]
}

func (rb *RigidBody) updateDerived() {
	rb.R = linalg.Mat3FromQuat(rb.Q)
	rb.IInv = linalg.WorldInertia(rb.R, rb.IBodyInv)
	rb.UpdateVelocities()
	rb.TransformObjectToWorld()
}

// UpdateVelocities recomputes V and Omega from the momenta.
func (rb *RigidBody) UpdateVelocities() {
	rb.V = rb.P.Mul(rb.MassInv)
	rb.Omega = rb.IInv.Mul3x1(rb.L)
}

// TransformObjectToWorld refreshes the world-space vertices and normals from
// R and X.
func (rb *RigidBody) TransformObjectToWorld() {
	for i, v := range rb.Vertices {
		rb.WorldVertices[i] = rb.R.Mul3x1(v).Add(rb.X)
	}
	for i, n := range rb.Normals {
		rb.WorldNormals[i] = rb.R.Mul3x1(n)
	}
}

func normalizeQuat(q mgl64.Quat) mgl64.Quat {
	l := q.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.QuatIdent()
	}
	return q.Scale(1 / l)
}

// =============================================================================
// Forces and impulses
// =============================================================================

// AddForce accumulates a force through the center of mass
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	rb.Force = rb.Force.Add(force)
}

// AddTorque accumulates a pure torque
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	rb.Torque = rb.Torque.Add(torque)
}

// ApplyForceAtPoint accumulates a force applied at a world-space point:
// force += F, torque += (p - X) × F.
func (rb *RigidBody) ApplyForceAtPoint(force mgl64.Vec3, point mgl64.Vec3) {
	rb.Force = rb.Force.Add(force)
	rb.Torque = rb.Torque.Add(point.Sub(rb.X).Cross(force))
}

// ClearForces resets the accumulators
func (rb *RigidBody) ClearForces() {
	rb.Force = mgl64.Vec3{}
	rb.Torque = mgl64.Vec3{}
}

// ApplyImpulseAtPoint changes the momenta by an impulse applied at a
// world-space point and refreshes the velocities so the change is visible
// immediately. Immovable bodies are left untouched.
func (rb *RigidBody) ApplyImpulseAtPoint(impulse mgl64.Vec3, point mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}

	rb.P = rb.P.Add(impulse)
	rb.L = rb.L.Add(point.Sub(rb.X).Cross(impulse))
	rb.UpdateVelocities()
}

// =============================================================================
// Queries
// =============================================================================

// PointVelocity returns the velocity of the material point at p:
// v + omega × (p - x).
func (rb *RigidBody) PointVelocity(p mgl64.Vec3) mgl64.Vec3 {
	return rb.V.Add(rb.Omega.Cross(p.Sub(rb.X)))
}

// DistPlanePoint returns the signed distance from plane to point.
func (rb *RigidBody) DistPlanePoint(plane Plane, point mgl64.Vec3) float64 {
	return plane.Distance(point)
}

// DistPlanePoly returns the smallest signed distance from plane to any world
// vertex of other. A positive result means other lies entirely in front of
// the plane.
func (rb *RigidBody) DistPlanePoly(plane Plane, other *RigidBody) float64 {
	best := math.Inf(1)
	for _, v := range other.WorldVertices {
		best = math.Min(best, plane.Distance(v))
	}
	return best
}

// FacePlane returns the world-space plane of face i.
func (rb *RigidBody) FacePlane(i int) Plane {
	f := rb.Faces[i]
	return Plane{
		Point:  rb.WorldVertices[f.Vertices[0]],
		Normal: rb.WorldNormals[f.Normal],
	}
}

// EdgeDirection returns the world-space direction (not normalized) of edge i.
func (rb *RigidBody) EdgeDirection(i int) mgl64.Vec3 {
	e := rb.Edges[i]
	return rb.WorldVertices[e.B].Sub(rb.WorldVertices[e.A])
}

// Support returns the index of the world vertex furthest along direction.
func (rb *RigidBody) Support(direction mgl64.Vec3) int {
	best, bestDot := 0, math.Inf(-1)
	for i, v := range rb.WorldVertices {
		if d := v.Dot(direction); d > bestDot {
			best, bestDot = i, d
		}
	}
	return best
}

// Transform returns the current world transform
func (rb *RigidBody) Transform() Transform {
	return Transform{Position: rb.X, Rotation: rb.Q}
}

// FaceWorldVertices returns the world-space corners of face i, in winding order.
func (rb *RigidBody) FaceWorldVertices(i int) []mgl64.Vec3 {
	f := rb.Faces[i]
	out := make([]mgl64.Vec3, len(f.Vertices))
	for k, idx := range f.Vertices {
		out[k] = rb.WorldVertices[idx]
	}
	return out
}

// FaceContains reports whether p, projected on face i, falls inside the face
// polygon or within tolerance of its border.
func (rb *RigidBody) FaceContains(i int, p mgl64.Vec3, tolerance float64) bool {
	f := rb.Faces[i]
	n := rb.WorldNormals[f.Normal]
	for k, idx := range f.Vertices {
		a := rb.WorldVertices[idx]
		b := rb.WorldVertices[f.Vertices[(k+1)%len(f.Vertices)]]
		// Counter-clockwise winding: n × edge points into the face
		inward := n.Cross(b.Sub(a)).Normalize()
		if p.Sub(a).Dot(inward) < -tolerance {
			return false
		}
	}
	return true
}

// Mass returns the body mass, +Inf for immovable bodies.
func (rb *RigidBody) Mass() float64 {
	if rb.IsStatic() {
		return math.Inf(1)
	}
	return 1 / rb.MassInv
}

// Centroid returns the average of the world-space vertices.
func (rb *RigidBody) Centroid() mgl64.Vec3 {
	var c mgl64.Vec3
	for _, v := range rb.WorldVertices {
		c = c.Add(v)
	}
	return c.Mul(1 / float64(len(rb.WorldVertices)))
}
