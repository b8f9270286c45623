package constraint

import "github.com/akmonengine/tether/actor"

// bodyPair holds the two non-owning body references of a limit and its enabled flag.
// A zero bodyPair is disabled.
type bodyPair struct {
	bodyA   *actor.RigidBody
	bodyB   *actor.RigidBody
	enabled bool
}

func (p *bodyPair) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return p.bodyA, p.bodyB
}

// Connect assigns the two bodies. It does not enable the limit.
func (p *bodyPair) Connect(bodyA, bodyB *actor.RigidBody) {
	p.bodyA = bodyA
	p.bodyB = bodyB
}

func (p *bodyPair) Enabled() bool {
	return p.enabled
}

// SetEnabled toggles the limit. A disabled limit skips Update, ExclusiveUpdate and SolveIteration.
func (p *bodyPair) SetEnabled(enabled bool) {
	p.enabled = enabled
}

func (p *bodyPair) connected() bool {
	return p.bodyA != nil && p.bodyB != nil
}

// precheck validates the caller contract of Update.
// skip is true when the limit must stay inactive this tick.
func (p *bodyPair) precheck(dt float64) (skip bool, err error) {
	if !p.enabled {
		return true, nil
	}
	if !p.connected() {
		return true, ErrBodyNotConnected
	}
	if dt <= 0 {
		return true, ErrInvalidTimestep
	}

	return false, nil
}

// relativeVelocity returns J·v for the current velocities, 0 when the bodies are missing
func (p *bodyPair) relativeVelocity(jacobian Jacobian) float64 {
	if !p.connected() {
		return 0
	}

	return jacobian.Velocity(p.bodyA, p.bodyB)
}
