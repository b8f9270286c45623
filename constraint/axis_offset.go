package constraint

import (
	"math"

	"github.com/akmonengine/tether/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// AxisOffsetLimit keeps the projection of (anchorB - anchorA) on an axis fixed in A's frame within [minimum, maximum].
//
// The Jacobian is the time derivative of the offset, whichever bound is violated:
//
//	J = [-axis, -((pB - xA) × axis), axis, rB × axis]
//
// The clamp direction follows the violated bound instead: the accumulated impulse is <= 0
// above the maximum and >= 0 below the minimum.
type AxisOffsetLimit struct {
	LimitConfig
	bodyPair
	impulseRow

	localAnchorA mgl64.Vec3
	localAnchorB mgl64.Vec3
	localAxis    mgl64.Vec3
	worldAnchorA mgl64.Vec3
	worldAnchorB mgl64.Vec3
	worldAxis    mgl64.Vec3

	offset float64
	side   int
}

// NewAxisOffsetLimit connects two bodies with world-space anchors and a world-space axis, then enables the limit.
// The axis is attached to bodyA.
func NewAxisOffsetLimit(bodyA, bodyB *actor.RigidBody, anchorA, anchorB, axis mgl64.Vec3, minimum, maximum float64) (*AxisOffsetLimit, error) {
	limit := &AxisOffsetLimit{
		LimitConfig: NewLimitConfig(minimum, maximum),
	}
	limit.Connect(bodyA, bodyB)

	if err := limit.SetWorldAnchors(anchorA, anchorB); err != nil {
		return nil, err
	}
	if err := limit.SetWorldAxis(axis); err != nil {
		return nil, err
	}
	limit.SetEnabled(true)

	return limit, nil
}

func (a *AxisOffsetLimit) SetWorldAnchors(anchorA, anchorB mgl64.Vec3) error {
	if !a.connected() {
		return ErrBodyNotConnected
	}

	a.localAnchorA = a.bodyA.WorldToLocal(anchorA)
	a.localAnchorB = a.bodyB.WorldToLocal(anchorB)
	a.worldAnchorA = anchorA
	a.worldAnchorB = anchorB

	return nil
}

func (a *AxisOffsetLimit) SetLocalAnchors(anchorA, anchorB mgl64.Vec3) {
	a.localAnchorA = anchorA
	a.localAnchorB = anchorB
}

func (a *AxisOffsetLimit) LocalAnchors() (mgl64.Vec3, mgl64.Vec3) {
	return a.localAnchorA, a.localAnchorB
}

func (a *AxisOffsetLimit) WorldAnchors() (mgl64.Vec3, mgl64.Vec3) {
	if !a.connected() {
		return a.worldAnchorA, a.worldAnchorB
	}

	return a.bodyA.LocalToWorld(a.localAnchorA), a.bodyB.LocalToWorld(a.localAnchorB)
}

// SetWorldAxis normalizes the axis and stores it in bodyA's frame
func (a *AxisOffsetLimit) SetWorldAxis(axis mgl64.Vec3) error {
	if a.bodyA == nil {
		return ErrBodyNotConnected
	}
	if axis.Len() <= Epsilon {
		return ErrDegenerateAxis
	}

	a.worldAxis = axis.Normalize()
	a.localAxis = a.bodyA.WorldToLocalDirection(a.worldAxis)

	return nil
}

// SetLocalAxis normalizes the axis, given in bodyA's frame
func (a *AxisOffsetLimit) SetLocalAxis(axis mgl64.Vec3) error {
	if axis.Len() <= Epsilon {
		return ErrDegenerateAxis
	}

	a.localAxis = axis.Normalize()

	return nil
}

func (a *AxisOffsetLimit) LocalAxis() mgl64.Vec3 {
	return a.localAxis
}

func (a *AxisOffsetLimit) WorldAxis() mgl64.Vec3 {
	if a.bodyA == nil {
		return a.worldAxis
	}

	return a.bodyA.LocalToWorldDirection(a.localAxis)
}

// CurrentOffset measures the signed offset along the axis at the bodies' current transforms
func (a *AxisOffsetLimit) CurrentOffset() float64 {
	anchorA, anchorB := a.WorldAnchors()
	return a.WorldAxis().Dot(anchorB.Sub(anchorA))
}

func (a *AxisOffsetLimit) Update(dt float64) error {
	skip, err := a.precheck(dt)
	if skip {
		a.reset()
		return err
	}

	bodyA, bodyB := a.bodyA, a.bodyB

	a.worldAnchorA = bodyA.LocalToWorld(a.localAnchorA)
	a.worldAnchorB = bodyB.LocalToWorld(a.localAnchorB)
	a.worldAxis = bodyA.LocalToWorldDirection(a.localAxis)
	a.offset = a.worldAxis.Dot(a.worldAnchorB.Sub(a.worldAnchorA))

	var violation float64
	var side int
	switch {
	case a.offset > a.maximum:
		violation = a.offset - a.maximum
		side = 1
	case a.offset < a.minimum:
		violation = a.offset - a.minimum
		side = -1
	default:
		a.reset()
		return nil
	}

	if side != a.side {
		a.accumulated = 0
	}
	a.side = side

	if !wakeForLimit(bodyA, bodyB) {
		a.reset()
		return nil
	}

	axis := a.worldAxis
	armA := a.worldAnchorB.Sub(bodyA.Transform.Position)
	rB := a.worldAnchorB.Sub(bodyB.Transform.Position)

	a.jacobian = Jacobian{
		LinearA:  axis.Mul(-1),
		AngularA: armA.Cross(axis).Mul(-1),
		LinearB:  axis,
		AngularB: rB.Cross(axis),
	}

	if side > 0 {
		a.lower = math.Inf(-1)
		a.upper = 0
	} else {
		a.lower = 0
		a.upper = math.Inf(1)
	}

	errorReduction, softness := a.Softness().ComputeErrorReductionAndSoftness(dt, 1.0/dt)
	if !a.prepare(bodyA, bodyB, softness) {
		a.reset()
		return nil
	}

	a.positionError = a.marginError(violation)
	direction := -float64(side)
	bias := direction * a.correctiveBias(errorReduction, a.positionError)

	// side * J·v > 0 means the offset keeps moving out of range
	closingVelocity := float64(side) * a.jacobian.Velocity(bodyA, bodyB)
	bounce := direction * a.bounceBias(closingVelocity)
	if side > 0 {
		a.bias = math.Min(bias, bounce)
	} else {
		a.bias = math.Max(bias, bounce)
	}

	return nil
}

func (a *AxisOffsetLimit) ExclusiveUpdate() {
	if !a.enabled || !a.connected() {
		return
	}

	a.warmStart(a.bodyA, a.bodyB)
}

func (a *AxisOffsetLimit) SolveIteration() float64 {
	if !a.enabled || !a.connected() {
		return 0
	}

	return a.solve(a.bodyA, a.bodyB)
}

// RelativeVelocity returns the rate of change of the offset along the axis
func (a *AxisOffsetLimit) RelativeVelocity() float64 {
	return a.relativeVelocity(a.jacobian)
}

func (a *AxisOffsetLimit) reset() {
	a.deactivate()
	a.side = 0
}
