package constraint

import "math"

const (
	DefaultMargin                  = 0.0
	DefaultBounciness              = 0.0
	DefaultBounceVelocityThreshold = 0.5  // m/s or rad/s
	DefaultMaxCorrectiveVelocity   = 10.0 // m/s or rad/s
)

// LimitConfig holds the bounds and tuning of a limit.
// It is read once per tick by Update; setters clamp invalid values instead of rejecting them.
type LimitConfig struct {
	minimum                 float64
	maximum                 float64
	margin                  float64
	bounciness              float64
	bounceVelocityThreshold float64
	maxCorrectiveVelocity   float64
	softnessModel           SoftnessModel
}

// NewLimitConfig returns a config with the given bounds and the default tuning.
// Reversed bounds are swapped.
func NewLimitConfig(minimum, maximum float64) LimitConfig {
	config := LimitConfig{
		margin:                  DefaultMargin,
		bounciness:              DefaultBounciness,
		bounceVelocityThreshold: DefaultBounceVelocityThreshold,
		maxCorrectiveVelocity:   DefaultMaxCorrectiveVelocity,
		softnessModel:           DefaultSoftness(),
	}
	config.SetBounds(minimum, maximum)

	return config
}

func (c *LimitConfig) Minimum() float64 {
	return c.minimum
}

func (c *LimitConfig) Maximum() float64 {
	return c.maximum
}

// SetBounds assigns both bounds at once
func (c *LimitConfig) SetBounds(minimum, maximum float64) {
	if minimum > maximum {
		minimum, maximum = maximum, minimum
	}
	c.minimum = minimum
	c.maximum = maximum
}

// SetMinimum clamps the value so that it never exceeds the maximum
func (c *LimitConfig) SetMinimum(minimum float64) {
	c.minimum = math.Min(minimum, c.maximum)
}

// SetMaximum clamps the value so that it is never below the minimum
func (c *LimitConfig) SetMaximum(maximum float64) {
	c.maximum = math.Max(maximum, c.minimum)
}

func (c *LimitConfig) Margin() float64 {
	return c.margin
}

// SetMargin sets the slack band near the bounds where the error is ignored
func (c *LimitConfig) SetMargin(margin float64) {
	c.margin = math.Max(0, margin)
}

func (c *LimitConfig) Bounciness() float64 {
	return c.bounciness
}

// SetBounciness sets the restitution: 0 = no rebound, 1 = perfect rebound
func (c *LimitConfig) SetBounciness(bounciness float64) {
	c.bounciness = clamp(bounciness, 0, 1)
}

func (c *LimitConfig) BounceVelocityThreshold() float64 {
	return c.bounceVelocityThreshold
}

// SetBounceVelocityThreshold sets the closing speed below which no rebound happens
func (c *LimitConfig) SetBounceVelocityThreshold(threshold float64) {
	c.bounceVelocityThreshold = math.Max(0, threshold)
}

func (c *LimitConfig) MaxCorrectiveVelocity() float64 {
	return c.maxCorrectiveVelocity
}

func (c *LimitConfig) SetMaxCorrectiveVelocity(velocity float64) {
	c.maxCorrectiveVelocity = math.Max(0, velocity)
}

func (c *LimitConfig) Softness() SoftnessModel {
	if c.softnessModel == nil {
		return DefaultSoftness()
	}
	return c.softnessModel
}

// SetSoftness replaces the softness model, nil restores the default one
func (c *LimitConfig) SetSoftness(softness SoftnessModel) {
	c.softnessModel = softness
}

// correctiveBias converts an error into a bias velocity, clamped by the max corrective velocity
func (c *LimitConfig) correctiveBias(errorReduction, err float64) float64 {
	return clamp(errorReduction*err, -c.maxCorrectiveVelocity, c.maxCorrectiveVelocity)
}

// marginError removes the margin from a violation magnitude
func (c *LimitConfig) marginError(violation float64) float64 {
	return math.Max(0, math.Abs(violation)-c.margin)
}

// bounceBias returns the restitution velocity for a closing velocity, or 0 if it should not bounce
func (c *LimitConfig) bounceBias(closingVelocity float64) float64 {
	if c.bounciness <= 0 || closingVelocity <= c.bounceVelocityThreshold {
		return 0
	}
	return c.bounciness * closingVelocity
}
