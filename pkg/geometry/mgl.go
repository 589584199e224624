package geometry

import "github.com/go-gl/mathgl/mgl64"

// FromVec3 converts a mathgl vector
func FromVec3(v mgl64.Vec3) Vector3 {
	return Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// Vec3 converts to a mathgl vector
func (v Vector3) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Transform applies an affine matrix to a point
func (v Vector3) Transform(m mgl64.Mat4) Vector3 {
	return FromVec3(mgl64.TransformCoordinate(v.Vec3(), m))
}

// TransformDir applies a matrix to a direction, ignoring translation
func (v Vector3) TransformDir(m mgl64.Mat4) Vector3 {
	return FromVec3(mgl64.TransformNormal(v.Vec3(), m))
}
