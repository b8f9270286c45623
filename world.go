package tether

import (
	"io"
	"log"
	"slices"

	"github.com/akmonengine/tether/actor"
	"github.com/akmonengine/tether/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS           = 1
	DEFAULT_SUBSTEPS          = 1
	DEFAULT_ITERATIONS        = 8
	DEFAULT_IMPULSE_TOLERANCE = 1e-9

	SLEEP_TIME_THRESHOLD     = 0.1
	SLEEP_VELOCITY_THRESHOLD = 0.05
)

var discardLogger = log.New(io.Discard, "", 0)

type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody
	// Limits solved every substep, in insertion order
	Limits []constraint.Constraint
	// Gravity acceleration (m/s², or N/kg)
	Gravity  mgl64.Vec3
	Substeps int
	// Iterations is the maximum number of SolveIteration passes per substep
	Iterations int
	// ImpulseTolerance stops the passes early once the summed impulse of a pass falls below it
	ImpulseTolerance float64
	Workers          int
	SleepEnabled     bool

	// Logger receives solver diagnostics, nil discards them
	Logger *log.Logger

	Events Events
}

// NewWorld creates a world with the default settings
func NewWorld(gravity mgl64.Vec3) *World {
	return &World{
		Gravity:          gravity,
		Substeps:         DEFAULT_SUBSTEPS,
		Iterations:       DEFAULT_ITERATIONS,
		ImpulseTolerance: DEFAULT_IMPULSE_TOLERANCE,
		Workers:          DEFAULT_WORKERS,
		Events:           NewEvents(),
	}
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body from the world, along with the limits attached to it
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = slices.Delete(w.Bodies, k, k+1)
	}

	n := 0
	for _, limit := range w.Limits {
		bodyA, bodyB := limit.Bodies()
		if bodyA == body || bodyB == body {
			w.Events.forget(limit)
			continue
		}
		w.Limits[n] = limit
		n++
	}
	clear(w.Limits[n:])
	w.Limits = w.Limits[:n]

	w.Events.forgetBody(body)
}

// AddLimit registers a limit, solved after the limits already added
func (w *World) AddLimit(limit constraint.Constraint) {
	w.Limits = append(w.Limits, limit)
}

// RemoveLimit unregisters a limit
func (w *World) RemoveLimit(limit constraint.Constraint) {
	for i, l := range w.Limits {
		if l == limit {
			w.Limits = slices.Delete(w.Limits, i, i+1)
			w.Events.forget(limit)
			return
		}
	}
}

func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}

	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	w.Substeps = max(DEFAULT_SUBSTEPS, w.Substeps)
	if w.Iterations <= 0 {
		w.Iterations = DEFAULT_ITERATIONS
	}
	w.Events.init()

	h := dt / float64(w.Substeps)

	unconverged := 0
	var residual float64
	for range w.Substeps {
		// Phase 1: gravity and forces
		w.integrateVelocities(h)

		// Phase 2: limits, velocity level
		if total, converged := w.solveLimits(h); !converged {
			unconverged++
			residual = total
		}

		// Phase 3: commit positions with the solved velocities
		w.integratePositions(h)

		if w.SleepEnabled {
			w.trySleep(h)
		}
	}

	if unconverged > 0 {
		w.logger().Printf("tether: limits not converged after %d iterations in %d of %d substeps (last impulse %g)", w.Iterations, unconverged, w.Substeps, residual)
	}

	w.Events.recordLimits(w.Limits)
	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) integrateVelocities(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.IntegrateVelocity(h, w.Gravity)
	})
}

// solveLimits runs the per-tick protocol. Every Update completes before the first
// ExclusiveUpdate, and the iterations are serial: limits sharing a body read the velocities
// written by the previous limits (Gauss-Seidel).
// It returns the summed impulse of the last pass, and whether it fell below the tolerance.
func (w *World) solveLimits(h float64) (float64, bool) {
	if len(w.Limits) == 0 {
		return 0, true
	}

	logger := w.logger()

	for i, limit := range w.Limits {
		if err := limit.Update(h); err != nil {
			logger.Printf("tether: limit %d skipped: %v", i, err)
		}
	}

	for _, limit := range w.Limits {
		limit.ExclusiveUpdate()
	}

	var total float64
	for iteration := 0; iteration < w.Iterations; iteration++ {
		total = 0
		for _, limit := range w.Limits {
			total += limit.SolveIteration()
		}
		if total <= w.ImpulseTolerance {
			return total, true
		}
	}

	return total, false
}

func (w *World) integratePositions(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.IntegratePosition(h)
	})
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
// this method is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(h float64) {
	for _, body := range w.Bodies {
		body.TrySleep(h, SLEEP_TIME_THRESHOLD, SLEEP_VELOCITY_THRESHOLD)
	}
}

func (w *World) logger() *log.Logger {
	if w.Logger == nil {
		return discardLogger
	}
	return w.Logger
}
