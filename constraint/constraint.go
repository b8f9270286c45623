package constraint

import (
	"errors"
	"math"

	"github.com/akmonengine/tether/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// Epsilon guards lengths and denominators against floating-point noise.
	Epsilon = 1e-8

	// degenerateAxisEpsilon is the squared length below which a cross product is treated as zero.
	degenerateAxisEpsilon = 1e-12
)

var (
	// ErrBodyNotConnected is returned by Update when an enabled limit lacks one of its two bodies.
	ErrBodyNotConnected = errors.New("constraint: both bodies must be connected before the first update")

	// ErrInvalidTimestep is returned by Update for a non-positive timestep.
	ErrInvalidTimestep = errors.New("constraint: timestep must be positive")

	// ErrDegenerateAxis is returned when a zero-length axis is assigned to a limit.
	ErrDegenerateAxis = errors.New("constraint: axis must have a non-zero length")
)

// Constraint is the per-tick protocol driven by the outer solver:
// Update once, ExclusiveUpdate once, then SolveIteration N times.
type Constraint interface {
	// Update recomputes the geometry and the solver state for this tick.
	Update(dt float64) error
	// ExclusiveUpdate applies the accumulated impulse of the previous tick (warm start).
	ExclusiveUpdate()
	// SolveIteration runs one Gauss-Seidel pass and returns the magnitude of the applied impulse.
	SolveIteration() float64
	IsActive() bool
	Bodies() (*actor.RigidBody, *actor.RigidBody)
}

// canMove reports whether the body takes impulses this tick
func canMove(body *actor.RigidBody) bool {
	return body.IsDynamic() && !body.IsSleeping
}

// wakeForLimit wakes a sleeping dynamic body attached to a moving one.
// It returns false when neither body can move, meaning the limit must stay inactive.
func wakeForLimit(bodyA, bodyB *actor.RigidBody) bool {
	movingA, movingB := canMove(bodyA), canMove(bodyB)
	if !movingA && !movingB {
		return false
	}

	if movingA && bodyB.IsDynamic() && bodyB.IsSleeping {
		bodyB.Awake()
	}
	if movingB && bodyA.IsDynamic() && bodyA.IsSleeping {
		bodyA.Awake()
	}

	return true
}

func clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}

// perpendicular returns a unit vector orthogonal to v.
// It crosses with the up axis, then with the right axis when v is nearly vertical.
func perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	n := v.Cross(mgl64.Vec3{0, 1, 0})
	if n.LenSqr() < degenerateAxisEpsilon {
		n = v.Cross(mgl64.Vec3{1, 0, 0})
	}
	if n.LenSqr() < degenerateAxisEpsilon {
		return mgl64.Vec3{}
	}

	return n.Normalize()
}
