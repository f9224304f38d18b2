// Package linalg holds the small amount of rigid-body math that mgl64 does not
// provide directly: homogeneous rigid transforms, their cheap inverse and the
// quaternion rate used to integrate orientation.
package linalg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RigidTransform builds the 4x4 world matrix of a frame at position x with
// orientation q. q does not need to be normalized.
func RigidTransform(x mgl64.Vec3, q mgl64.Quat) mgl64.Mat4 {
	m := q.Normalize().Mat4()
	m[12], m[13], m[14] = x[0], x[1], x[2]
	return m
}

// InvertRigid inverts a rotation+translation matrix.
// R^-1 = R^T and t^-1 = -R^T t, which avoids the general 4x4 inverse.
func InvertRigid(m mgl64.Mat4) mgl64.Mat4 {
	rt := m.Mat3().Transpose()
	t := rt.Mul3x1(mgl64.Vec3{m[12], m[13], m[14]}).Mul(-1)

	inv := rt.Mat4()
	inv[12], inv[13], inv[14] = t[0], t[1], t[2]
	return inv
}

// TransformPoint applies a homogeneous matrix to a point (w = 1).
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies only the rotational part of m (w = 0).
func TransformDirection(m mgl64.Mat4, d mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// Mat3FromQuat returns the rotation matrix of a unit quaternion.
func Mat3FromQuat(q mgl64.Quat) mgl64.Mat3 {
	return q.Mat4().Mat3()
}

// QuatFromMat3 converts a rotation matrix back into a unit quaternion.
func QuatFromMat3(m mgl64.Mat3) mgl64.Quat {
	return mgl64.Mat4ToQuat(m.Mat4()).Normalize()
}

// QuatDerivative returns dq/dt = 1/2 * (0, omega) * q for a world-space
// angular velocity omega.
func QuatDerivative(q mgl64.Quat, omega mgl64.Vec3) mgl64.Quat {
	return mgl64.Quat{W: 0, V: omega}.Mul(q).Scale(0.5)
}

// WorldInertia rotates a body-space inertia tensor (or its inverse) into world
// space: R * I * R^T.
func WorldInertia(r mgl64.Mat3, body mgl64.Mat3) mgl64.Mat3 {
	return r.Mul3(body).Mul3(r.Transpose())
}

// QuatEqualRotation reports whether a and b describe the same rotation,
// treating q and -q as equal.
func QuatEqualRotation(a, b mgl64.Quat, epsilon float64) bool {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	return math.Abs(1-d) <= epsilon
}
