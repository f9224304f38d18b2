package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind discriminates the closed set of polyhedron shapes
type ShapeKind int

const (
	// ShapeBox is a solid rectangular prism of unit density
	ShapeBox ShapeKind = iota

	// ShapeWall is an immovable quadrilateral used to bound the scene
	ShapeWall
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeWall:
		return "wall"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// Shape carries the construction parameters of a body. Only the fields of the
// active Kind are meaningful.
type Shape struct {
	Kind ShapeKind
	// Size is the full width, height and depth of a box
	Size mgl64.Vec3
	// Corners are the four world-space corners of a wall, in winding order
	Corners [4]mgl64.Vec3
}

// Face is a planar convex polygon of a body: vertex indices in
// counter-clockwise order seen from outside, and the index of its normal.
type Face struct {
	Vertices []int
	Normal   int
}

// Edge joins two vertices of a body.
type Edge struct {
	A, B int
}

// Plane is an oriented plane through Point. Normal is unit length and points
// to the positive side.
type Plane struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// Distance returns the signed distance from the plane to p, positive on the
// side the normal points to.
func (p Plane) Distance(point mgl64.Vec3) float64 {
	return point.Sub(p.Point).Dot(p.Normal)
}

// geometry is the object-space description shared by all shapes
type geometry struct {
	vertices []mgl64.Vec3
	normals  []mgl64.Vec3
	faces    []Face
	edges    []Edge
}

// boxGeometry builds a box centered on the origin.
//
// Vertex layout:
//
//	0 (-,-,-)  1 (+,-,-)  2 (+,+,-)  3 (-,+,-)
//	4 (-,-,+)  5 (+,-,+)  6 (+,+,+)  7 (-,+,+)
func boxGeometry(size mgl64.Vec3) geometry {
	hx, hy, hz := size.X()/2, size.Y()/2, size.Z()/2

	return geometry{
		vertices: []mgl64.Vec3{
			{-hx, -hy, -hz},
			{+hx, -hy, -hz},
			{+hx, +hy, -hz},
			{-hx, +hy, -hz},
			{-hx, -hy, +hz},
			{+hx, -hy, +hz},
			{+hx, +hy, +hz},
			{-hx, +hy, +hz},
		},
		normals: []mgl64.Vec3{
			{0, 0, -1},
			{0, 0, 1},
			{0, -1, 0},
			{0, 1, 0},
			{-1, 0, 0},
			{1, 0, 0},
		},
		faces: []Face{
			{Vertices: []int{0, 3, 2, 1}, Normal: 0},
			{Vertices: []int{4, 5, 6, 7}, Normal: 1},
			{Vertices: []int{0, 1, 5, 4}, Normal: 2},
			{Vertices: []int{3, 7, 6, 2}, Normal: 3},
			{Vertices: []int{0, 4, 7, 3}, Normal: 4},
			{Vertices: []int{1, 2, 6, 5}, Normal: 5},
		},
		edges: []Edge{
			{0, 1}, {1, 2}, {2, 3}, {3, 0},
			{4, 5}, {5, 6}, {6, 7}, {7, 4},
			{0, 4}, {1, 5}, {2, 6}, {3, 7},
		},
	}
}

// wallGeometry builds a single quad around its centroid. The normal follows the
// winding of the corners.
func wallGeometry(corners [4]mgl64.Vec3) (geometry, mgl64.Vec3) {
	var centroid mgl64.Vec3
	for _, c := range corners {
		centroid = centroid.Add(c)
	}
	centroid = centroid.Mul(0.25)

	vertices := make([]mgl64.Vec3, len(corners))
	for i, c := range corners {
		vertices[i] = c.Sub(centroid)
	}

	normal := corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0])).Normalize()

	return geometry{
		vertices: vertices,
		normals:  []mgl64.Vec3{normal},
		faces:    []Face{{Vertices: []int{0, 1, 2, 3}, Normal: 0}},
		edges:    []Edge{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	}, centroid
}

// nonParallelEdges keeps one edge per direction. Edge-edge separating planes
// only depend on the pair of directions, so parallel duplicates add nothing.
func nonParallelEdges(vertices []mgl64.Vec3, edges []Edge) []int {
	const parallelTolerance = 1e-9

	var kept []int
	for i, e := range edges {
		d := vertices[e.B].Sub(vertices[e.A]).Normalize()

		parallel := false
		for _, k := range kept {
			other := vertices[edges[k].B].Sub(vertices[edges[k].A]).Normalize()
			if d.Cross(other).Len() < parallelTolerance {
				parallel = true
				break
			}
		}
		if !parallel {
			kept = append(kept, i)
		}
	}

	return kept
}

// boxInertia returns the body-space inertia tensor of a solid box.
func boxInertia(mass float64, size mgl64.Vec3) mgl64.Mat3 {
	x, y, z := size.X(), size.Y(), size.Z()

	// I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0
	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

// planarTolerance bounds the distance of the fourth wall corner from the
// plane of the first three, relative to the size of the wall.
const planarTolerance = 1e-9

func isDegenerateSize(size mgl64.Vec3) bool {
	return size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 ||
		math.IsInf(size.X()*size.Y()*size.Z(), 0)
}

// ValidBoxSize reports whether size describes a box with positive, finite
// volume.
func ValidBoxSize(size mgl64.Vec3) bool {
	return !isDegenerateSize(size)
}

// ValidWallCorners reports whether the corners form a planar convex quad:
// v0, v1, v2 span a plane, v3 lies on it and every corner turns the same way.
func ValidWallCorners(v0, v1, v2, v3 mgl64.Vec3) bool {
	n := v1.Sub(v0).Cross(v2.Sub(v0))
	l := n.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return false
	}
	n = n.Mul(1 / l)

	corners := [4]mgl64.Vec3{v0, v1, v2, v3}
	scale := 0.0
	for _, c := range corners {
		scale = math.Max(scale, c.Sub(v0).Len())
	}
	if math.Abs(v3.Sub(v0).Dot(n)) > planarTolerance*scale {
		return false
	}

	for i := range corners {
		prev := corners[(i+3)%4]
		next := corners[(i+1)%4]
		if corners[i].Sub(prev).Cross(next.Sub(corners[i])).Dot(n) <= 0 {
			return false
		}
	}
	return true
}
