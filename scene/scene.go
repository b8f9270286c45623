package scene

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/akmonengine/tether"
	"github.com/akmonengine/tether/actor"
	"github.com/akmonengine/tether/constraint"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyDocument = errors.New("scene: empty document")
	ErrUnknownBody   = errors.New("scene: unknown body")
	ErrDuplicateName = errors.New("scene: duplicate name")
	ErrUnknownKind   = errors.New("scene: unknown kind")
	ErrInvalidVector = errors.New("scene: vectors need exactly 3 components")
)

// Scene is a loaded world, with its bodies and limits indexed by name
type Scene struct {
	World  *tether.World
	Bodies map[string]*actor.RigidBody
	Limits map[string]constraint.Constraint
}

// LoadFile reads and builds the scene stored at path
func LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "scene")
	}

	return Load(data)
}

// Load decodes a YAML document and builds the scene. Unknown fields are rejected.
func Load(data []byte) (*Scene, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, errors.Wrap(err, "scene: decode")
	}

	return Build(doc)
}

// Build creates the world, the bodies then the limits of a document
func Build(doc Document) (*Scene, error) {
	gravity, err := vec3(doc.World.Gravity, mgl64.Vec3{0, -9.81, 0})
	if err != nil {
		return nil, errors.Wrap(err, "scene: world gravity")
	}

	world := tether.NewWorld(gravity)
	if doc.World.Substeps > 0 {
		world.Substeps = doc.World.Substeps
	}
	if doc.World.Iterations > 0 {
		world.Iterations = doc.World.Iterations
	}
	if doc.World.ImpulseTolerance > 0 {
		world.ImpulseTolerance = doc.World.ImpulseTolerance
	}
	if doc.World.Workers > 0 {
		world.Workers = doc.World.Workers
	}
	world.SleepEnabled = doc.World.Sleep

	s := &Scene{
		World:  world,
		Bodies: make(map[string]*actor.RigidBody, len(doc.Bodies)),
		Limits: make(map[string]constraint.Constraint, len(doc.Limits)),
	}

	for i, def := range doc.Bodies {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("body-%d", i)
		}
		if _, exists := s.Bodies[name]; exists {
			return nil, errors.Wrapf(ErrDuplicateName, "scene: body %q", name)
		}

		body, err := buildBody(def)
		if err != nil {
			return nil, errors.Wrapf(err, "scene: body %q", name)
		}

		s.Bodies[name] = body
		world.AddBody(body)
	}

	for i, def := range doc.Limits {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("limit-%d", i)
		}
		if _, exists := s.Limits[name]; exists {
			return nil, errors.Wrapf(ErrDuplicateName, "scene: limit %q", name)
		}

		limit, err := s.buildLimit(def, doc.LimitDefaults)
		if err != nil {
			return nil, errors.Wrapf(err, "scene: limit %q", name)
		}

		s.Limits[name] = limit
		world.AddLimit(limit)
	}

	return s, nil
}

func buildBody(def BodyDef) (*actor.RigidBody, error) {
	var bodyType actor.BodyType
	switch def.Type {
	case "", "dynamic":
		bodyType = actor.BodyTypeDynamic
	case "static":
		bodyType = actor.BodyTypeStatic
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "body type %q", def.Type)
	}

	shape, err := buildShape(def.Shape)
	if err != nil {
		return nil, err
	}

	position, err := vec3(def.Position, mgl64.Vec3{})
	if err != nil {
		return nil, errors.Wrap(err, "position")
	}
	rotationAxis, err := vec3(def.RotationAxis, mgl64.Vec3{})
	if err != nil {
		return nil, errors.Wrap(err, "rotation_axis")
	}
	velocity, err := vec3(def.Velocity, mgl64.Vec3{})
	if err != nil {
		return nil, errors.Wrap(err, "velocity")
	}
	angularVelocity, err := vec3(def.AngularVelocity, mgl64.Vec3{})
	if err != nil {
		return nil, errors.Wrap(err, "angular_velocity")
	}

	density := def.Density
	if density <= 0 {
		density = 1
	}

	transform := actor.NewTransformAt(position, rotationAxis, mgl64.DegToRad(def.RotationAngle))
	body := actor.NewRigidBody(transform, shape, bodyType, density)
	if def.Mass > 0 {
		body.SetMass(def.Mass)
	}

	if bodyType == actor.BodyTypeDynamic {
		body.Velocity = velocity
		body.AngularVelocity = angularVelocity
		body.Material.LinearDamping = def.LinearDamping
		body.Material.AngularDamping = def.AngularDamping
	}

	return body, nil
}

func buildShape(def ShapeDef) (actor.ShapeInterface, error) {
	switch def.Type {
	case "", "sphere":
		radius := def.Radius
		if radius <= 0 {
			radius = 0.5
		}
		return &actor.Sphere{Radius: radius}, nil
	case "box":
		halfExtents, err := vec3(def.HalfExtents, mgl64.Vec3{0.5, 0.5, 0.5})
		if err != nil {
			return nil, errors.Wrap(err, "half_extents")
		}
		return &actor.Box{HalfExtents: halfExtents}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "shape %q", def.Type)
	}
}

func (s *Scene) buildLimit(def LimitDef, defaults TuningDef) (constraint.Constraint, error) {
	bodyA, ok := s.Bodies[def.BodyA]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBody, "body_a %q", def.BodyA)
	}
	bodyB, ok := s.Bodies[def.BodyB]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBody, "body_b %q", def.BodyB)
	}

	// Per-limit values override the defaults, field by field
	tuning := defaults
	if err := copier.CopyWithOption(&tuning, &def.TuningDef, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, errors.Wrap(err, "tuning")
	}

	var limit constraint.Constraint
	var config *constraint.LimitConfig

	switch def.Kind {
	case "distance":
		anchorA, anchorB, err := anchors(def, bodyA, bodyB)
		if err != nil {
			return nil, err
		}
		distance, err := constraint.NewDistanceLimit(bodyA, bodyB, anchorA, anchorB, def.Min, def.Max)
		if err != nil {
			return nil, err
		}
		limit, config = distance, &distance.LimitConfig
		distance.SetEnabled(!def.Disabled)

	case "axis_offset":
		anchorA, anchorB, err := anchors(def, bodyA, bodyB)
		if err != nil {
			return nil, err
		}
		axis, err := vec3(def.Axis, mgl64.Vec3{1, 0, 0})
		if err != nil {
			return nil, errors.Wrap(err, "axis")
		}
		offset, err := constraint.NewAxisOffsetLimit(bodyA, bodyB, anchorA, anchorB, axis, def.Min, def.Max)
		if err != nil {
			return nil, err
		}
		limit, config = offset, &offset.LimitConfig
		offset.SetEnabled(!def.Disabled)

	case "swing":
		axisA, err := vec3(def.AxisA, mgl64.Vec3{0, 1, 0})
		if err != nil {
			return nil, errors.Wrap(err, "axis_a")
		}
		axisB, err := vec3(def.AxisB, axisA)
		if err != nil {
			return nil, errors.Wrap(err, "axis_b")
		}
		swing, err := constraint.NewSwingAngleLimit(bodyA, bodyB, axisA, axisB, mgl64.DegToRad(def.MaxAngle))
		if err != nil {
			return nil, err
		}
		limit, config = swing, &swing.LimitConfig
		swing.SetEnabled(!def.Disabled)

	default:
		return nil, errors.Wrapf(ErrUnknownKind, "limit kind %q", def.Kind)
	}

	applyTuning(config, tuning)

	return limit, nil
}

// anchors defaults each anchor to its body's position
func anchors(def LimitDef, bodyA, bodyB *actor.RigidBody) (mgl64.Vec3, mgl64.Vec3, error) {
	anchorA, err := vec3(def.AnchorA, bodyA.Transform.Position)
	if err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, errors.Wrap(err, "anchor_a")
	}
	anchorB, err := vec3(def.AnchorB, bodyB.Transform.Position)
	if err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, errors.Wrap(err, "anchor_b")
	}

	return anchorA, anchorB, nil
}

func applyTuning(config *constraint.LimitConfig, tuning TuningDef) {
	if tuning.Margin != 0 {
		config.SetMargin(tuning.Margin)
	}
	if tuning.Bounciness != 0 {
		config.SetBounciness(tuning.Bounciness)
	}
	if tuning.BounceVelocityThreshold != 0 {
		config.SetBounceVelocityThreshold(tuning.BounceVelocityThreshold)
	}
	if tuning.MaxCorrectiveVelocity != 0 {
		config.SetMaxCorrectiveVelocity(tuning.MaxCorrectiveVelocity)
	}
	if tuning.Stiffness != 0 || tuning.Damping != 0 {
		softness := constraint.DefaultSoftness()
		if tuning.Stiffness != 0 {
			softness.Stiffness = tuning.Stiffness
		}
		if tuning.Damping != 0 {
			softness.Damping = tuning.Damping
		}
		config.SetSoftness(softness)
	}
}

func vec3(values []float64, fallback mgl64.Vec3) (mgl64.Vec3, error) {
	switch len(values) {
	case 0:
		return fallback, nil
	case 3:
		return mgl64.Vec3{values[0], values[1], values[2]}, nil
	default:
		return mgl64.Vec3{}, ErrInvalidVector
	}
}
