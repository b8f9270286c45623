package constraint

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewSwingAngleLimit(t *testing.T) {
	bodyA := createStaticBody(mgl64.Vec3{})
	bodyB := createDynamicBody(mgl64.Vec3{}, mgl64.Vec3{}, 1)

	limit, err := NewSwingAngleLimit(bodyA, bodyB, mgl64.Vec3{0, 2, 0}, mgl64.Vec3{3, 0, 0}, math.Pi/4)
	if err != nil {
		t.Fatalf("NewSwingAngleLimit() error = %v", err)
	}

	axisA, axisB := limit.WorldAxes()
	if !vec3AlmostEqual(axisA, mgl64.Vec3{0, 1, 0}, 1e-12) || !vec3AlmostEqual(axisB, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("WorldAxes() = %v, %v, want normalized axes", axisA, axisB)
	}
	if !almostEqual(limit.CurrentAngle(), math.Pi/2, 1e-12) {
		t.Errorf("CurrentAngle() = %v, want π/2", limit.CurrentAngle())
	}
	if !almostEqual(limit.MinimumCosine(), math.Sqrt2/2, 1e-12) {
		t.Errorf("MinimumCosine() = %v, want √2/2", limit.MinimumCosine())
	}

	if _, err := NewSwingAngleLimit(bodyA, bodyB, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 1); !errors.Is(err, ErrDegenerateAxis) {
		t.Errorf("error = %v, want ErrDegenerateAxis", err)
	}
	if _, err := NewSwingAngleLimit(nil, bodyB, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}, 1); !errors.Is(err, ErrBodyNotConnected) {
		t.Errorf("error = %v, want ErrBodyNotConnected", err)
	}
}

func TestSwingAngleLimit_MaximumAngle(t *testing.T) {
	limit, err := NewSwingAngleLimit(createStaticBody(mgl64.Vec3{}), createDynamicBody(mgl64.Vec3{}, mgl64.Vec3{}, 1), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("NewSwingAngleLimit() error = %v", err)
	}

	tests := []struct {
		name     string
		set      func()
		expected float64
	}{
		{"above π", func() { limit.SetMaximumAngle(4) }, math.Pi},
		{"negative", func() { limit.SetMaximumAngle(-1) }, 0},
		{"SetMaximum", func() { limit.SetMaximum(0.5) }, 0.5},
		{"SetBounds keeps the maximum", func() { limit.SetBounds(0.2, 0.7) }, 0.7},
		{"SetMinimum is ignored", func() { limit.SetMinimum(0.6) }, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.set()
			if limit.MaximumAngle() != tt.expected {
				t.Errorf("MaximumAngle() = %v, want %v", limit.MaximumAngle(), tt.expected)
			}
			if limit.Minimum() != 0 {
				t.Errorf("Minimum() = %v, want 0", limit.Minimum())
			}
		})
	}
}

func TestSwingAngleLimit_ParallelAxes(t *testing.T) {
	bodyA := createDynamicBody(mgl64.Vec3{}, mgl64.Vec3{}, 1)
	bodyB := createDynamicBody(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{}, 1)
	bodyB.AngularVelocity = mgl64.Vec3{1, 0, 0}
	limit, err := NewSwingAngleLimit(bodyA, bodyB, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}, 0.5)
	if err != nil {
		t.Fatalf("NewSwingAngleLimit() error = %v", err)
	}

	limit.Update(testDt)
	limit.ExclusiveUpdate()

	if limit.IsActive() || limit.SolveIteration() != 0 {
		t.Error("limit should be inactive with parallel axes")
	}
	if limit.HingeAxis() != (mgl64.Vec3{}) {
		t.Errorf("HingeAxis() = %v, want zero when inactive", limit.HingeAxis())
	}
	if bodyB.AngularVelocity != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("bodyB.AngularVelocity = %v, want unchanged", bodyB.AngularVelocity)
	}
}

func TestSwingAngleLimit_AntiparallelAxes(t *testing.T) {
	bodyA := createDynamicBody(mgl64.Vec3{}, mgl64.Vec3{}, 1)
	bodyB := createDynamicBody(mgl64.Vec3{}, mgl64.Vec3{}, 1)
	limit, err := NewSwingAngleLimit(bodyA, bodyB, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}, math.Pi/4)
	if err != nil {
		t.Fatalf("NewSwingAngleLimit() error = %v", err)
	}

	limit.Update(testDt)

	if !limit.IsActive() {
		t.Fatal("limit should be active with antiparallel axes")
	}
	hinge := limit.HingeAxis()
	if !vec3IsFinite(hinge) || !almostEqual(hinge.Len(), 1, 1e-12) {
		t.Fatalf("HingeAxis() = %v, want a finite unit vector", hinge)
	}
	// Vertical axes: the up fallback is degenerate, the right one is used
	if !vec3AlmostEqual(hinge, mgl64.Vec3{0, 0, -1}, 1e-12) {
		t.Errorf("HingeAxis() = %v, want [0 0 -1]", hinge)
	}
	// cos(π/4) - cos(π)
	if !almostEqual(limit.PositionError(), math.Sqrt2/2+1, 1e-12) {
		t.Errorf("PositionError() = %v, want %v", limit.PositionError(), math.Sqrt2/2+1)
	}

	limit.ExclusiveUpdate()
	limit.SolveIteration()
	if limit.Impulse() <= 0 || !vec3IsFinite(bodyA.AngularVelocity) {
		t.Errorf("Impulse() = %v, ωA = %v, want a finite corrective impulse", limit.Impulse(), bodyA.AngularVelocity)
	}
}

func TestSwingAngleLimit_BeyondMaximum(t *testing.T) {
	bodyA := createStaticBody(mgl64.Vec3{})
	bodyB := createDynamicBody(mgl64.Vec3{}, mgl64.Vec3{}, 1)
	limit, err := NewSwingAngleLimit(bodyA, bodyB, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}, math.Pi/4)
	if err != nil {
		t.Fatalf("NewSwingAngleLimit() error = %v", err)
	}

	if err := limit.Update(testDt); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !limit.IsActive() {
		t.Fatal("limit should be active beyond the maximum angle")
	}
	// cos(π/4) - cos(π/2)
	if !almostEqual(limit.PositionError(), math.Sqrt2/2, 1e-12) {
		t.Errorf("PositionError() = %v, want √2/2", limit.PositionError())
	}
	if !vec3AlmostEqual(limit.HingeAxis(), mgl64.Vec3{0, 0, -1}, 1e-12) {
		t.Errorf("HingeAxis() = %v, want [0 0 -1]", limit.HingeAxis())
	}
	jacobian := limit.Jacobian()
	if jacobian.LinearA != (mgl64.Vec3{}) || jacobian.LinearB != (mgl64.Vec3{}) {
		t.Errorf("Jacobian() = %v, want a purely angular Jacobian", jacobian)
	}
	if !almostEqual(limit.BiasVelocity(), 12*math.Sqrt2/2, 1e-9) {
		t.Errorf("BiasVelocity() = %v, want %v", limit.BiasVelocity(), 12*math.Sqrt2/2)
	}

	limit.ExclusiveUpdate()
	for range 8 {
		limit.SolveIteration()
	}

	// B turns around +Z, bringing its X axis back towards Y
	if bodyB.AngularVelocity.Z() <= 0 {
		t.Errorf("bodyB.AngularVelocity = %v, want a positive Z rotation", bodyB.AngularVelocity)
	}
	if limit.RelativeVelocity() <= 0 {
		t.Errorf("RelativeVelocity() = %v, the angle should shrink", limit.RelativeVelocity())
	}
}

// The margin is a slack band on the cosine violation
func TestSwingAngleLimit_Margin(t *testing.T) {
	tests := []struct {
		name          string
		maximumAngle  float64
		margin        float64
		expectedError float64
	}{
		{"no margin", math.Pi / 4, 0, math.Sqrt2 / 2},
		{"violation beyond the margin", math.Pi / 4, 0.1, math.Sqrt2/2 - 0.1},
		{"violation within the margin", math.Pi/2 - 0.05, 0.1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodyA := createStaticBody(mgl64.Vec3{})
			bodyB := createDynamicBody(mgl64.Vec3{}, mgl64.Vec3{}, 1)
			limit, err := NewSwingAngleLimit(bodyA, bodyB, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}, tt.maximumAngle)
			if err != nil {
				t.Fatalf("NewSwingAngleLimit() error = %v", err)
			}
			limit.SetMargin(tt.margin)

			if err := limit.Update(testDt); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			if !limit.IsActive() {
				t.Fatal("limit should be active beyond the maximum angle")
			}
			if !almostEqual(limit.PositionError(), tt.expectedError, 1e-12) {
				t.Errorf("PositionError() = %v, want %v", limit.PositionError(), tt.expectedError)
			}
			if !almostEqual(limit.BiasVelocity(), 12*tt.expectedError, 1e-9) {
				t.Errorf("BiasVelocity() = %v, want %v", limit.BiasVelocity(), 12*tt.expectedError)
			}
		})
	}
}

func TestSwingAngleLimit_Bounce(t *testing.T) {
	bodyA := createStaticBody(mgl64.Vec3{})
	bodyB := createDynamicBody(mgl64.Vec3{}, mgl64.Vec3{}, 1)
	bodyB.AngularVelocity = mgl64.Vec3{0, 0, -4}
	limit, err := NewSwingAngleLimit(bodyA, bodyB, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}, math.Pi/4)
	if err != nil {
		t.Fatalf("NewSwingAngleLimit() error = %v", err)
	}
	limit.SetSoftness(rigidSoftness{})
	limit.SetBounciness(0.5)
	limit.SetMargin(5)

	limit.Update(testDt)
	limit.ExclusiveUpdate()
	for range 4 {
		limit.SolveIteration()
	}

	if !almostEqual(bodyB.AngularVelocity.Z(), 2, 1e-9) {
		t.Errorf("bodyB.AngularVelocity.Z = %v, want 2", bodyB.AngularVelocity.Z())
	}
}

func TestSwingAngleLimit_ImpulseNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomVec := func() mgl64.Vec3 {
		return mgl64.Vec3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
	}

	for i := range 200 {
		bodyA := createRotatedBody(mgl64.Vec3{}, randomVec().Add(mgl64.Vec3{0, 2, 0}), rng.Float64()*math.Pi)
		bodyB := createRotatedBody(mgl64.Vec3{}, randomVec().Add(mgl64.Vec3{0, 0, 2}), rng.Float64()*math.Pi)
		bodyA.AngularVelocity = randomVec().Mul(10)
		bodyB.AngularVelocity = randomVec().Mul(10)

		limit, err := NewSwingAngleLimit(bodyA, bodyB, randomVec().Add(mgl64.Vec3{2, 0, 0}), randomVec().Add(mgl64.Vec3{0, 2, 0}), rng.Float64()*math.Pi)
		if err != nil {
			t.Fatalf("case %d: NewSwingAngleLimit() error = %v", i, err)
		}
		limit.SetBounciness(rng.Float64())

		limit.Update(testDt)
		limit.ExclusiveUpdate()
		for iteration := range 8 {
			limit.SolveIteration()
			if limit.Impulse() < 0 {
				t.Fatalf("case %d iteration %d: Impulse() = %v", i, iteration, limit.Impulse())
			}
		}
		if !vec3IsFinite(bodyA.AngularVelocity) || !vec3IsFinite(bodyB.AngularVelocity) {
			t.Fatalf("case %d: non-finite angular velocities", i)
		}
	}
}

// -J·v must match the measured rate of change of the angle
func TestSwingAngleLimit_JacobianFiniteDifference(t *testing.T) {
	bodyA := createRotatedBody(mgl64.Vec3{0.3, -0.2, 0.1}, mgl64.Vec3{1, 2, 3}, 0.7)
	bodyB := createRotatedBody(mgl64.Vec3{1.5, 2, -0.7}, mgl64.Vec3{-1, 0, 1}, 1.3)
	bodyA.AngularVelocity = mgl64.Vec3{1.5, -0.5, 2}
	bodyB.AngularVelocity = mgl64.Vec3{-2, 1, 0.5}

	limit, err := NewSwingAngleLimit(bodyA, bodyB, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0.3, 0.2}, 0.2)
	if err != nil {
		t.Fatalf("NewSwingAngleLimit() error = %v", err)
	}
	limit.Update(testDt)
	if !limit.IsActive() {
		t.Fatal("limit should be active")
	}

	h := 1e-6
	before := limit.CurrentAngle()
	bodyA.IntegratePosition(h)
	bodyB.IntegratePosition(h)
	rate := (limit.CurrentAngle() - before) / h

	if !almostEqual(-limit.RelativeVelocity(), rate, 1e-4) {
		t.Errorf("-J·v = %v, want %v", -limit.RelativeVelocity(), rate)
	}
}
