package actor

import (
	"github.com/danepowell/openhaptics-sub000/linalg"
	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position and orientation in 3D space
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Matrix returns the homogeneous object-to-world matrix
func (t Transform) Matrix() mgl64.Mat4 {
	return linalg.RigidTransform(t.Position, t.Rotation)
}

// InverseMatrix returns the world-to-object matrix
func (t Transform) InverseMatrix() mgl64.Mat4 {
	return linalg.InvertRigid(t.Matrix())
}
