package constraint

const (
	// DefaultStiffness and DefaultDamping give an error reduction of 0.2 per step at 60 Hz.
	// Higher stiffness = faster correction of the limit violation
	// Higher damping = softer response, less overshoot
	DefaultStiffness = 6e4
	DefaultDamping   = 4e3
)

// SoftnessModel converts a spring configuration and the timestep into
// an error reduction rate (1/s) and a softness coefficient (inverse mass units).
type SoftnessModel interface {
	ComputeErrorReductionAndSoftness(dt, inverseDt float64) (float64, float64)
}

// Softness is a spring-damper SoftnessModel.
// For a spring constant k and damping c over a step h:
//
//	errorReduction = k / (c + h*k)
//	softness       = 1 / (h * (c + h*k))
type Softness struct {
	Stiffness float64
	Damping   float64
}

// DefaultSoftness returns the softness used by limits that were not given one
func DefaultSoftness() Softness {
	return Softness{
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

func (s Softness) ComputeErrorReductionAndSoftness(dt, inverseDt float64) (float64, float64) {
	denominator := s.Damping + dt*s.Stiffness
	if denominator <= Epsilon {
		return 0, 0
	}

	return s.Stiffness / denominator, inverseDt / denominator
}
