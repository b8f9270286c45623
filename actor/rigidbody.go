package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and impulses
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They still take part in limit measurements (e.g., a fixed anchor point)
	BodyTypeStatic
)

type Material struct {
	Density float64
	mass    float64

	LinearDamping  float64 // 0.0 - 1.0, typical: 0.01
	AngularDamping float64 // 0.0 - 1.0, typical: 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	// Linear motion
	Velocity mgl64.Vec3 // Linear velocity (m/s)

	// Angular motion
	AngularVelocity mgl64.Vec3 // rad/s
	// Inertia tensor in local space
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64

	// Physical properties
	Material Material
	BodyType BodyType // Dynamic or Static

	// Shape used to derive mass and inertia
	Shape ShapeInterface
}

// NewRigidBody creates a new rigid body with the given properties
// density is used to calculate mass for dynamic bodies (ignored for static)
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, density float64) *RigidBody {
	if transform.Rotation == (mgl64.Quat{}) {
		transform.Rotation = mgl64.QuatIdent()
	}
	transform.InverseRotation = transform.Rotation.Inverse()

	rb := &RigidBody{
		PreviousTransform: transform,
		Transform:         transform,
		Shape:             shape,
		BodyType:          bodyType,
	}

	if bodyType == BodyTypeStatic {
		// Static bodies have infinite mass
		rb.Material = Material{
			Density: 0,
			mass:    math.Inf(1),
		}
		return rb
	}

	rb.Material = Material{Density: density}
	rb.SetMass(shape.ComputeMass(density))

	return rb
}

// SetMass overrides the mass derived from the density, and recomputes the inertia tensor from the shape.
// It has no effect on static bodies.
func (rb *RigidBody) SetMass(mass float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.Material.mass = mass
	rb.InertiaLocal = rb.Shape.ComputeInertia(mass)
	rb.InverseInertiaLocal = invertInertia(rb.InertiaLocal)
}

// invertInertia returns a zero tensor for singular inertia (massless or infinite shapes)
func invertInertia(inertia mgl64.Mat3) mgl64.Mat3 {
	det := inertia.Det()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return mgl64.Mat3{}
	}

	return inertia.Inv()
}

// IsDynamic reports whether the body can receive impulses
func (rb *RigidBody) IsDynamic() bool {
	return rb.BodyType == BodyTypeDynamic && rb.GetInverseMass() > 0
}

// GetInverseMass returns 1/mass, or 0 for static bodies and infinite masses
func (rb *RigidBody) GetInverseMass() float64 {
	if rb.BodyType == BodyTypeStatic {
		return 0
	}

	mass := rb.Material.GetMass()
	if mass <= 0 || math.IsInf(mass, 1) || math.IsNaN(mass) {
		return 0
	}

	return 1.0 / mass
}

func (rb *RigidBody) TrySleep(dt float64, timethreshold float64, velocityThreshold float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timethreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// IntegrateVelocity applies gravity, accumulated forces and damping to the velocities.
// Positions are left untouched so that limits can correct the velocities first.
func (rb *RigidBody) IntegrateVelocity(dt float64, gravity mgl64.Vec3) {
	if !rb.IsDynamic() || rb.IsSleeping || dt <= 0 {
		rb.ClearForces()
		return
	}

	invMass := rb.GetInverseMass()

	// ========== LINEAR ==========
	acceleration := gravity.Add(rb.accumulatedForce.Mul(invMass))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))

	// ========== ANGULAR ==========
	angularAccel := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAccel.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	rb.ClearForces()
}

// IntegratePosition moves the body along its (solved) velocities
func (rb *RigidBody) IntegratePosition(dt float64) {
	if !rb.IsDynamic() || rb.IsSleeping || dt <= 0 {
		return
	}

	rb.PreviousTransform = rb.Transform

	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// q' = 0.5 * ω * q
	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()
}

// AddForce in N, applied at the center of mass during the next velocity integration
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()

		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque in N⋅m
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()

		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// ApplyLinearImpulse changes the linear velocity by impulse/mass
func (rb *RigidBody) ApplyLinearImpulse(impulse mgl64.Vec3) {
	if !rb.IsDynamic() {
		return
	}

	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.GetInverseMass()))
}

// ApplyAngularImpulse changes the angular velocity by I_world^(-1) * impulse
func (rb *RigidBody) ApplyAngularImpulse(impulse mgl64.Vec3) {
	if !rb.IsDynamic() {
		return
	}

	rb.AngularVelocity = rb.AngularVelocity.Add(rb.GetInverseInertiaWorld().Mul3x1(impulse))
}

// RotationMatrix returns the 3x3 rotation matrix of the current orientation
func (rb *RigidBody) RotationMatrix() mgl64.Mat3 {
	return rb.Transform.Rotation.Mat4().Mat3()
}

// LocalToWorld transforms a point from body space into world space
func (rb *RigidBody) LocalToWorld(point mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.Rotation.Rotate(point).Add(rb.Transform.Position)
}

// WorldToLocal transforms a point from world space into body space
func (rb *RigidBody) WorldToLocal(point mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.Rotation.Conjugate().Rotate(point.Sub(rb.Transform.Position))
}

func (rb *RigidBody) LocalToWorldDirection(direction mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.Rotation.Rotate(direction)
}

func (rb *RigidBody) WorldToLocalDirection(direction mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.Rotation.Conjugate().Rotate(direction)
}

// Inertia in world space
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	// I_world = R * I_local * R^T
	R := rb.RotationMatrix()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// Inverse inertia in world space
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Mat3{0, 0, 0, 0, 0, 0, 0, 0, 0}
	}

	// I_world^(-1) = R * I_local^(-1) * R^T
	R := rb.RotationMatrix()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}
