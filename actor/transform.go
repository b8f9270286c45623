package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at position, rotated by angle (radians) around axis.
// A zero axis yields the identity rotation.
func NewTransformAt(position mgl64.Vec3, axis mgl64.Vec3, angle float64) Transform {
	rotation := mgl64.QuatIdent()
	if axis.Len() > 1e-12 {
		rotation = mgl64.QuatRotate(angle, axis.Normalize())
	}

	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}
