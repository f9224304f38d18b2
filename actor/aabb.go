package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Bounds returns the box enclosing the world vertices of the body.
func (rb *RigidBody) Bounds() AABB {
	inf := math.Inf(1)
	b := AABB{Min: mgl64.Vec3{inf, inf, inf}, Max: mgl64.Vec3{-inf, -inf, -inf}}
	for _, v := range rb.WorldVertices {
		for i := 0; i < 3; i++ {
			b.Min[i] = math.Min(b.Min[i], v[i])
			b.Max[i] = math.Max(b.Max[i], v[i])
		}
	}
	return b
}
