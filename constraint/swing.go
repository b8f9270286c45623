package constraint

import (
	"math"

	"github.com/akmonengine/tether/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// SwingAngleLimit keeps the angle between an axis fixed on each body below a maximum angle (a cone).
// The limit is satisfied while cos(angle) >= cos(maximum). The violation, and so the
// position error and the margin, are measured in cosine units: cos(maximum) - cos(angle).
//
// The Jacobian is purely angular, around the hinge axis n = normalize(axisA × axisB):
//
//	J = [0, n, 0, -n]
//
// When the axes are antiparallel the cross product vanishes and n falls back to
// axisA × up, then axisA × right.
type SwingAngleLimit struct {
	LimitConfig
	bodyPair
	impulseRow

	localAxisA mgl64.Vec3
	localAxisB mgl64.Vec3
	worldAxisA mgl64.Vec3
	worldAxisB mgl64.Vec3
	hingeAxis  mgl64.Vec3

	angle float64
}

// NewSwingAngleLimit connects two bodies with world-space axes and a maximum angle in radians, then enables the limit
func NewSwingAngleLimit(bodyA, bodyB *actor.RigidBody, axisA, axisB mgl64.Vec3, maximumAngle float64) (*SwingAngleLimit, error) {
	limit := &SwingAngleLimit{
		LimitConfig: NewLimitConfig(0, 0),
	}
	limit.SetMaximumAngle(maximumAngle)
	limit.Connect(bodyA, bodyB)

	if err := limit.SetWorldAxes(axisA, axisB); err != nil {
		return nil, err
	}
	limit.SetEnabled(true)

	return limit, nil
}

// SetMaximumAngle clamps the angle to [0, π]
func (s *SwingAngleLimit) SetMaximumAngle(angle float64) {
	s.LimitConfig.SetBounds(0, clamp(angle, 0, math.Pi))
}

func (s *SwingAngleLimit) MaximumAngle() float64 {
	return s.maximum
}

// MinimumCosine is the cosine of the maximum angle
func (s *SwingAngleLimit) MinimumCosine() float64 {
	return math.Cos(s.maximum)
}

// SetBounds only keeps the upper bound, a swing limit has no minimum angle
func (s *SwingAngleLimit) SetBounds(_, maximum float64) {
	s.SetMaximumAngle(maximum)
}

func (s *SwingAngleLimit) SetMinimum(float64) {}

func (s *SwingAngleLimit) SetMaximum(maximum float64) {
	s.SetMaximumAngle(maximum)
}

// SetWorldAxes normalizes the axes and stores them in each body's frame
func (s *SwingAngleLimit) SetWorldAxes(axisA, axisB mgl64.Vec3) error {
	if !s.connected() {
		return ErrBodyNotConnected
	}
	if axisA.Len() <= Epsilon || axisB.Len() <= Epsilon {
		return ErrDegenerateAxis
	}

	s.worldAxisA = axisA.Normalize()
	s.worldAxisB = axisB.Normalize()
	s.localAxisA = s.bodyA.WorldToLocalDirection(s.worldAxisA)
	s.localAxisB = s.bodyB.WorldToLocalDirection(s.worldAxisB)

	return nil
}

func (s *SwingAngleLimit) SetLocalAxes(axisA, axisB mgl64.Vec3) error {
	if axisA.Len() <= Epsilon || axisB.Len() <= Epsilon {
		return ErrDegenerateAxis
	}

	s.localAxisA = axisA.Normalize()
	s.localAxisB = axisB.Normalize()

	return nil
}

func (s *SwingAngleLimit) LocalAxes() (mgl64.Vec3, mgl64.Vec3) {
	return s.localAxisA, s.localAxisB
}

func (s *SwingAngleLimit) WorldAxes() (mgl64.Vec3, mgl64.Vec3) {
	if !s.connected() {
		return s.worldAxisA, s.worldAxisB
	}

	return s.bodyA.LocalToWorldDirection(s.localAxisA), s.bodyB.LocalToWorldDirection(s.localAxisB)
}

// HingeAxis returns the rotation axis of the last Update, zero when inactive
func (s *SwingAngleLimit) HingeAxis() mgl64.Vec3 {
	return s.hingeAxis
}

// CurrentAngle measures the angle between the axes at the bodies' current orientations
func (s *SwingAngleLimit) CurrentAngle() float64 {
	axisA, axisB := s.WorldAxes()
	return math.Acos(clamp(axisA.Dot(axisB), -1, 1))
}

func (s *SwingAngleLimit) Update(dt float64) error {
	skip, err := s.precheck(dt)
	if skip {
		s.reset()
		return err
	}

	bodyA, bodyB := s.bodyA, s.bodyB

	s.worldAxisA = bodyA.LocalToWorldDirection(s.localAxisA)
	s.worldAxisB = bodyB.LocalToWorldDirection(s.localAxisB)

	cosine := clamp(s.worldAxisA.Dot(s.worldAxisB), -1, 1)
	s.angle = math.Acos(cosine)
	violation := s.MinimumCosine() - cosine
	if violation <= 0 {
		s.reset()
		return nil
	}

	if !wakeForLimit(bodyA, bodyB) {
		s.reset()
		return nil
	}

	hinge := s.worldAxisA.Cross(s.worldAxisB)
	if hinge.LenSqr() < degenerateAxisEpsilon {
		hinge = perpendicular(s.worldAxisA)
	} else {
		hinge = hinge.Normalize()
	}
	s.hingeAxis = hinge

	s.jacobian = Jacobian{
		AngularA: hinge,
		AngularB: hinge.Mul(-1),
	}
	s.lower = 0
	s.upper = math.Inf(1)

	errorReduction, softness := s.Softness().ComputeErrorReductionAndSoftness(dt, 1.0/dt)
	if !s.prepare(bodyA, bodyB, softness) {
		s.reset()
		return nil
	}

	s.positionError = s.marginError(violation)
	bias := s.correctiveBias(errorReduction, s.positionError)

	closingVelocity := -s.jacobian.Velocity(bodyA, bodyB)
	s.bias = math.Max(bias, s.bounceBias(closingVelocity))

	return nil
}

func (s *SwingAngleLimit) ExclusiveUpdate() {
	if !s.enabled || !s.connected() {
		return
	}

	s.warmStart(s.bodyA, s.bodyB)
}

func (s *SwingAngleLimit) SolveIteration() float64 {
	if !s.enabled || !s.connected() {
		return 0
	}

	return s.solve(s.bodyA, s.bodyB)
}

// RelativeVelocity returns the angular velocity closing the cone, positive when the angle shrinks
func (s *SwingAngleLimit) RelativeVelocity() float64 {
	return s.relativeVelocity(s.jacobian)
}

func (s *SwingAngleLimit) reset() {
	s.deactivate()
	s.hingeAxis = mgl64.Vec3{}
}
