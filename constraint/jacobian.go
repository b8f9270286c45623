package constraint

import (
	"math"

	"github.com/akmonengine/tether/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Jacobian maps the velocities of two bodies to the scalar velocity along a single degree of freedom.
type Jacobian struct {
	LinearA  mgl64.Vec3
	AngularA mgl64.Vec3
	LinearB  mgl64.Vec3
	AngularB mgl64.Vec3
}

// Negate flips the direction of the degree of freedom
func (j Jacobian) Negate() Jacobian {
	return Jacobian{
		LinearA:  j.LinearA.Mul(-1),
		AngularA: j.AngularA.Mul(-1),
		LinearB:  j.LinearB.Mul(-1),
		AngularB: j.AngularB.Mul(-1),
	}
}

// Velocity returns J·v for the current body velocities
func (j Jacobian) Velocity(bodyA, bodyB *actor.RigidBody) float64 {
	return j.LinearA.Dot(bodyA.Velocity) +
		j.AngularA.Dot(bodyA.AngularVelocity) +
		j.LinearB.Dot(bodyB.Velocity) +
		j.AngularB.Dot(bodyB.AngularVelocity)
}

// InverseEffectiveMass returns J·M⁻¹·Jᵀ, counting only the bodies that can move
func (j Jacobian) InverseEffectiveMass(bodyA, bodyB *actor.RigidBody) float64 {
	var k float64

	if canMove(bodyA) {
		k += j.LinearA.Dot(j.LinearA) * bodyA.GetInverseMass()
		k += bodyA.GetInverseInertiaWorld().Mul3x1(j.AngularA).Dot(j.AngularA)
	}
	if canMove(bodyB) {
		k += j.LinearB.Dot(j.LinearB) * bodyB.GetInverseMass()
		k += bodyB.GetInverseInertiaWorld().Mul3x1(j.AngularB).Dot(j.AngularB)
	}

	return k
}

// Apply adds impulse·J to the velocities of the bodies that can move
func (j Jacobian) Apply(bodyA, bodyB *actor.RigidBody, impulse float64) {
	if impulse == 0 {
		return
	}

	if canMove(bodyA) {
		bodyA.ApplyLinearImpulse(j.LinearA.Mul(impulse))
		bodyA.ApplyAngularImpulse(j.AngularA.Mul(impulse))
	}
	if canMove(bodyB) {
		bodyB.ApplyLinearImpulse(j.LinearB.Mul(impulse))
		bodyB.ApplyAngularImpulse(j.AngularB.Mul(impulse))
	}
}

// impulseRow is the 1-DOF sequential impulse primitive shared by every limit.
// The limit fills jacobian, effectiveMass, softness and bias in Update; the row owns the accumulated impulse.
type impulseRow struct {
	jacobian      Jacobian
	effectiveMass float64
	softness      float64
	bias          float64
	positionError float64
	accumulated   float64
	active        bool

	// lower and upper bound the accumulated impulse
	lower float64
	upper float64
}

// deactivate discards the warm-start history and the derived state
func (r *impulseRow) deactivate() {
	r.active = false
	r.accumulated = 0
	r.positionError = 0
	r.bias = 0
	r.effectiveMass = 0
	r.softness = 0
	r.jacobian = Jacobian{}
}

// prepare computes the effective mass for the current Jacobian.
// It returns false when no useful impulse can be produced.
func (r *impulseRow) prepare(bodyA, bodyB *actor.RigidBody, softness float64) bool {
	denominator := softness + r.jacobian.InverseEffectiveMass(bodyA, bodyB)
	if denominator <= Epsilon || math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return false
	}

	r.softness = softness
	r.effectiveMass = 1.0 / denominator
	r.active = true

	return true
}

func (r *impulseRow) warmStart(bodyA, bodyB *actor.RigidBody) {
	if !r.active {
		return
	}

	r.jacobian.Apply(bodyA, bodyB, r.accumulated)
}

func (r *impulseRow) solve(bodyA, bodyB *actor.RigidBody) float64 {
	if !r.active {
		return 0
	}

	relativeVelocity := r.jacobian.Velocity(bodyA, bodyB)
	lambda := (-relativeVelocity + r.bias - r.softness*r.accumulated) * r.effectiveMass

	oldAccumulated := r.accumulated
	r.accumulated = clamp(oldAccumulated+lambda, r.lower, r.upper)
	delta := r.accumulated - oldAccumulated

	r.jacobian.Apply(bodyA, bodyB, delta)

	return math.Abs(delta)
}

// Impulse returns the accumulated impulse of the current tick
func (r *impulseRow) Impulse() float64 {
	return r.accumulated
}

// PositionError returns the violation beyond the margin, 0 when inactive
func (r *impulseRow) PositionError() float64 {
	return r.positionError
}

func (r *impulseRow) BiasVelocity() float64 {
	return r.bias
}

func (r *impulseRow) EffectiveMass() float64 {
	return r.effectiveMass
}

func (r *impulseRow) Jacobian() Jacobian {
	return r.jacobian
}

func (r *impulseRow) IsActive() bool {
	return r.active
}
