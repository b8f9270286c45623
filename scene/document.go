// Package scene builds a tether World from a YAML description.
//
//	world:
//	  gravity: [0, -9.81, 0]
//	  iterations: 10
//	bodies:
//	  - name: ceiling
//	    type: static
//	  - name: bob
//	    position: [0, -2, 0]
//	    shape: {type: sphere, radius: 0.25}
//	    mass: 1
//	limit_defaults:
//	  max_corrective_velocity: 5
//	limits:
//	  - kind: distance
//	    body_a: ceiling
//	    body_b: bob
//	    anchor_a: [0, 0, 0]
//	    anchor_b: [0, -2, 0]
//	    max: 2
//
// Anchors and axes are given in world space at the initial transforms.
package scene

// Document is the root of a scene file
type Document struct {
	World         WorldDef   `yaml:"world"`
	Bodies        []BodyDef  `yaml:"bodies"`
	LimitDefaults TuningDef  `yaml:"limit_defaults"`
	Limits        []LimitDef `yaml:"limits"`
}

type WorldDef struct {
	Gravity          []float64 `yaml:"gravity"`
	Substeps         int       `yaml:"substeps"`
	Iterations       int       `yaml:"iterations"`
	ImpulseTolerance float64   `yaml:"impulse_tolerance"`
	Workers          int       `yaml:"workers"`
	Sleep            bool      `yaml:"sleep"`
}

type BodyDef struct {
	Name string `yaml:"name"`
	// Type is "dynamic" (default) or "static"
	Type            string    `yaml:"type"`
	Position        []float64 `yaml:"position"`
	RotationAxis    []float64 `yaml:"rotation_axis"`
	RotationAngle   float64   `yaml:"rotation_angle"` // degrees
	Velocity        []float64 `yaml:"velocity"`
	AngularVelocity []float64 `yaml:"angular_velocity"`
	Shape           ShapeDef  `yaml:"shape"`
	// Mass overrides the mass computed from Density when positive
	Mass           float64 `yaml:"mass"`
	Density        float64 `yaml:"density"`
	LinearDamping  float64 `yaml:"linear_damping"`
	AngularDamping float64 `yaml:"angular_damping"`
}

type ShapeDef struct {
	// Type is "sphere" (default) or "box"
	Type        string    `yaml:"type"`
	Radius      float64   `yaml:"radius"`
	HalfExtents []float64 `yaml:"half_extents"`
}

// TuningDef holds the limit properties that limit_defaults can provide.
// Zero values are treated as unset.
type TuningDef struct {
	Margin                  float64 `yaml:"margin"`
	Bounciness              float64 `yaml:"bounciness"`
	BounceVelocityThreshold float64 `yaml:"bounce_velocity_threshold"`
	MaxCorrectiveVelocity   float64 `yaml:"max_corrective_velocity"`
	Stiffness               float64 `yaml:"stiffness"`
	Damping                 float64 `yaml:"damping"`
}

type LimitDef struct {
	Name string `yaml:"name"`
	// Kind is "distance", "axis_offset" or "swing"
	Kind     string    `yaml:"kind"`
	BodyA    string    `yaml:"body_a"`
	BodyB    string    `yaml:"body_b"`
	AnchorA  []float64 `yaml:"anchor_a"`
	AnchorB  []float64 `yaml:"anchor_b"`
	Axis     []float64 `yaml:"axis"`
	AxisA    []float64 `yaml:"axis_a"`
	AxisB    []float64 `yaml:"axis_b"`
	Min      float64   `yaml:"min"`
	Max      float64   `yaml:"max"`
	MaxAngle float64   `yaml:"max_angle"` // degrees
	Disabled bool      `yaml:"disabled"`

	TuningDef `yaml:",inline"`
}
