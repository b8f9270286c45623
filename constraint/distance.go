package constraint

import (
	"math"

	"github.com/akmonengine/tether/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// DistanceLimit keeps the distance between an anchor on each body within [minimum, maximum].
//
// Jacobian (maximum side, the minimum side is negated):
//
//	u = (pB - pA) / |pB - pA|
//	J = [u, rA × u, -u, -(rB × u)]
//
// so that J·v > 0 when the violation shrinks. The accumulated impulse is always >= 0.
type DistanceLimit struct {
	LimitConfig
	bodyPair
	impulseRow

	localAnchorA mgl64.Vec3
	localAnchorB mgl64.Vec3
	worldAnchorA mgl64.Vec3
	worldAnchorB mgl64.Vec3

	distance float64
	// side is +1 when the maximum is violated, -1 for the minimum, 0 when inactive
	side int
}

// NewDistanceLimit connects two bodies with world-space anchors and enables the limit
func NewDistanceLimit(bodyA, bodyB *actor.RigidBody, anchorA, anchorB mgl64.Vec3, minimum, maximum float64) (*DistanceLimit, error) {
	limit := &DistanceLimit{
		LimitConfig: NewLimitConfig(0, 0),
	}
	limit.SetBounds(minimum, maximum)
	limit.Connect(bodyA, bodyB)

	if err := limit.SetWorldAnchors(anchorA, anchorB); err != nil {
		return nil, err
	}
	limit.SetEnabled(true)

	return limit, nil
}

// SetBounds clamps negative distances to zero
func (d *DistanceLimit) SetBounds(minimum, maximum float64) {
	d.LimitConfig.SetBounds(math.Max(0, minimum), math.Max(0, maximum))
}

func (d *DistanceLimit) SetMinimum(minimum float64) {
	d.LimitConfig.SetMinimum(math.Max(0, minimum))
}

func (d *DistanceLimit) SetMaximum(maximum float64) {
	d.LimitConfig.SetMaximum(math.Max(0, maximum))
}

// SetWorldAnchors converts world-space anchors into each body's local space
func (d *DistanceLimit) SetWorldAnchors(anchorA, anchorB mgl64.Vec3) error {
	if !d.connected() {
		return ErrBodyNotConnected
	}

	d.localAnchorA = d.bodyA.WorldToLocal(anchorA)
	d.localAnchorB = d.bodyB.WorldToLocal(anchorB)
	d.worldAnchorA = anchorA
	d.worldAnchorB = anchorB

	return nil
}

func (d *DistanceLimit) SetLocalAnchors(anchorA, anchorB mgl64.Vec3) {
	d.localAnchorA = anchorA
	d.localAnchorB = anchorB
}

func (d *DistanceLimit) LocalAnchors() (mgl64.Vec3, mgl64.Vec3) {
	return d.localAnchorA, d.localAnchorB
}

// WorldAnchors returns the anchors at the bodies' current transforms
func (d *DistanceLimit) WorldAnchors() (mgl64.Vec3, mgl64.Vec3) {
	if !d.connected() {
		return d.worldAnchorA, d.worldAnchorB
	}

	return d.bodyA.LocalToWorld(d.localAnchorA), d.bodyB.LocalToWorld(d.localAnchorB)
}

// CurrentDistance measures the anchor distance at the bodies' current transforms
func (d *DistanceLimit) CurrentDistance() float64 {
	anchorA, anchorB := d.WorldAnchors()
	return anchorB.Sub(anchorA).Len()
}

func (d *DistanceLimit) Update(dt float64) error {
	skip, err := d.precheck(dt)
	if skip {
		d.reset()
		return err
	}

	bodyA, bodyB := d.bodyA, d.bodyB

	d.worldAnchorA = bodyA.LocalToWorld(d.localAnchorA)
	d.worldAnchorB = bodyB.LocalToWorld(d.localAnchorB)
	separation := d.worldAnchorB.Sub(d.worldAnchorA)
	d.distance = separation.Len()

	var violation float64
	var side int
	switch {
	case d.distance > d.maximum:
		violation = d.distance - d.maximum
		side = 1
	case d.distance < d.minimum:
		violation = d.distance - d.minimum
		side = -1
	default:
		d.reset()
		return nil
	}

	// minimum == maximum: the active bound can switch without passing through the valid range
	if side != d.side {
		d.accumulated = 0
	}
	d.side = side

	if !wakeForLimit(bodyA, bodyB) {
		d.reset()
		return nil
	}

	// Zero-length separation: no usable direction, the Jacobian stays zero
	var u mgl64.Vec3
	if d.distance > Epsilon {
		u = separation.Mul(1.0 / d.distance)
	}

	rA := d.worldAnchorA.Sub(bodyA.Transform.Position)
	rB := d.worldAnchorB.Sub(bodyB.Transform.Position)

	jacobian := Jacobian{
		LinearA:  u,
		AngularA: rA.Cross(u),
		LinearB:  u.Mul(-1),
		AngularB: rB.Cross(u).Mul(-1),
	}
	if side < 0 {
		jacobian = jacobian.Negate()
	}
	d.jacobian = jacobian
	d.lower = 0
	d.upper = math.Inf(1)

	errorReduction, softness := d.Softness().ComputeErrorReductionAndSoftness(dt, 1.0/dt)
	if !d.prepare(bodyA, bodyB, softness) {
		d.reset()
		return nil
	}

	d.positionError = d.marginError(violation)
	bias := d.correctiveBias(errorReduction, d.positionError)

	// J·v < 0 means the anchors keep moving out of range
	closingVelocity := -jacobian.Velocity(bodyA, bodyB)
	d.bias = math.Max(bias, d.bounceBias(closingVelocity))

	return nil
}

func (d *DistanceLimit) ExclusiveUpdate() {
	if !d.enabled || !d.connected() {
		return
	}

	d.warmStart(d.bodyA, d.bodyB)
}

func (d *DistanceLimit) SolveIteration() float64 {
	if !d.enabled || !d.connected() {
		return 0
	}

	return d.solve(d.bodyA, d.bodyB)
}

// RelativeVelocity returns the current velocity along the limit, positive when the violation shrinks
func (d *DistanceLimit) RelativeVelocity() float64 {
	return d.relativeVelocity(d.jacobian)
}

func (d *DistanceLimit) reset() {
	d.deactivate()
	d.side = 0
}
