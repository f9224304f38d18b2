// Package dynamics is a rigid-body world of convex boxes and immovable walls.
//
// Collisions are found with cached separating planes, one per body pair, and
// answered with instantaneous impulses. The body state is integrated by an
// explicit ODE solver from package ode over a flat state vector.
//
// A scene is built with AddBox and AddWall, frozen with InitSimulation and
// advanced with AdvanceSimulation. Changing the body set requires a new
// InitSimulation.
package dynamics

import (
	"fmt"

	"github.com/danepowell/openhaptics-sub000/actor"
	"github.com/danepowell/openhaptics-sub000/contact"
	"github.com/danepowell/openhaptics-sub000/nvector"
	"github.com/danepowell/openhaptics-sub000/ode"
	"github.com/danepowell/openhaptics-sub000/witness"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type World struct {
	config Config
	logger *zap.Logger
	solver ode.Solver

	// Bodies in insertion order; the index is the body handle
	bodies []*actor.RigidBody
	index  map[uuid.UUID]int

	// One witness per pair, ordered like the bodies
	witnesses []*witness.Witness
	pairs     map[witness.PairKey]*witness.Witness
	contacts  []contact.Contact

	x0, xFinal nvector.Vector[float64]

	initialized bool
	load        externalLoad

	Events Events
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// NewWorld creates an empty world.
func NewWorld(config Config, opts ...Option) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	solver, err := ode.New(config.Solver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	w := &World{
		config: config,
		logger: zap.NewNop(),
		solver: solver,
		index:  make(map[uuid.UUID]int),
		pairs:  make(map[witness.PairKey]*witness.Witness),
		Events: NewEvents(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if config.Solver != ode.KindEuler {
		w.logger.Warn("solver is not valid across collision impulses, use euler for rigid bodies",
			zap.Stringer("solver", config.Solver))
	}

	return w, nil
}

// Config returns the tunables the world was built with.
func (w *World) Config() Config {
	return w.config
}

// =============================================================================
// Scene construction
// =============================================================================

// AddBox adds a solid box of unit density. size is the full width, height
// and depth.
func (w *World) AddBox(position mgl64.Vec3, orientation mgl64.Quat, size mgl64.Vec3, velocity, angularVelocity mgl64.Vec3) (uuid.UUID, error) {
	if !actor.ValidBoxSize(size) {
		return uuid.Nil, fmt.Errorf("%w: box size %v", ErrInvalidShape, size)
	}
	return w.addBody(actor.NewBox(position, orientation, size, velocity, angularVelocity)), nil
}

// AddWall adds an immovable quad. Its normal follows the winding of the
// corners.
func (w *World) AddWall(v0, v1, v2, v3 mgl64.Vec3) (uuid.UUID, error) {
	if !actor.ValidWallCorners(v0, v1, v2, v3) {
		return uuid.Nil, fmt.Errorf("%w: wall corners %v %v %v %v are not a planar convex quad", ErrInvalidShape, v0, v1, v2, v3)
	}
	return w.addBody(actor.NewWall(v0, v1, v2, v3)), nil
}

func (w *World) addBody(body *actor.RigidBody) uuid.UUID {
	w.index[body.ID] = len(w.bodies)
	w.bodies = append(w.bodies, body)
	w.invalidate()

	w.logger.Debug("body added",
		zap.Stringer("id", body.ID),
		zap.Stringer("shape", body.Shape.Kind),
		zap.Int("bodies", len(w.bodies)))

	return body.ID
}

// RemoveBody removes a body. Handles of later bodies shift down, so the
// witness list is dropped until the next InitSimulation.
func (w *World) RemoveBody(id uuid.UUID) error {
	k, ok := w.index[id]
	if !ok {
		return fmt.Errorf("remove %v: %w", id, ErrUnknownBody)
	}

	w.bodies = append(w.bodies[:k], w.bodies[k+1:]...)
	delete(w.index, id)
	for i := k; i < len(w.bodies); i++ {
		w.index[w.bodies[i].ID] = i
	}

	if w.load.active && w.load.body == id {
		w.load = externalLoad{}
	}
	w.Events.removeBody(id)
	w.invalidate()

	w.logger.Debug("body removed", zap.Stringer("id", id), zap.Int("bodies", len(w.bodies)))
	return nil
}

func (w *World) invalidate() {
	w.initialized = false
	w.witnesses = nil
	clear(w.pairs)
	w.contacts = w.contacts[:0]
}

// InitSimulation sizes the state buffers and the solver for the current
// bodies and builds one witness per pair.
func (w *World) InitSimulation() {
	n := len(w.bodies) * actor.StateSize
	w.x0 = w.x0.Resize(n)
	w.xFinal = w.xFinal.Resize(n)
	w.solver.SetSize(n)

	w.witnesses = make([]*witness.Witness, 0, len(w.bodies)*(len(w.bodies)-1)/2)
	clear(w.pairs)
	for i := range w.bodies {
		for j := i + 1; j < len(w.bodies); j++ {
			wt := witness.New(i, j)
			w.witnesses = append(w.witnesses, wt)
			w.pairs[wt.Key()] = wt
		}
	}

	w.contacts = w.contacts[:0]
	w.Events.reset()
	w.pack(w.x0)
	w.initialized = true

	w.logger.Info("simulation initialized",
		zap.Int("bodies", len(w.bodies)),
		zap.Int("witnesses", len(w.witnesses)),
		zap.Stringer("solver", w.config.Solver))
}

// Initialized reports whether the world can be stepped.
func (w *World) Initialized() bool {
	return w.initialized
}

// =============================================================================
// Stepping
// =============================================================================

// AdvanceSimulation integrates the world from tPrev to tCurr in one solver
// step. The external load, if any, applies to this step only. Events are
// delivered before it returns.
func (w *World) AdvanceSimulation(tPrev, tCurr float64) error {
	if !w.initialized {
		return ErrNotInitialized
	}
	if tCurr < tPrev {
		return fmt.Errorf("advance from %g to %g: time runs backwards", tPrev, tCurr)
	}

	w.pack(w.x0)
	discontinuity := w.solver.Solve(w.x0, w.xFinal, tPrev, tCurr, w.derivative)
	if discontinuity && w.config.Solver != ode.KindEuler {
		w.logger.Warn("collision impulse inside a multi-stage solver step",
			zap.Stringer("solver", w.config.Solver),
			zap.Float64("t", tPrev))
	}
	w.unpack(w.xFinal)

	w.load = externalLoad{}
	w.recordContacts()
	w.Events.flush()

	return nil
}

// derivative is the ode.Derivative of the world. It moves the bodies to x,
// resolves collisions and, when an impulse was applied, writes the new
// momenta back into x before computing forces.
func (w *World) derivative(t float64, x, xdot nvector.Vector[float64]) bool {
	w.unpack(x)

	w.detectContacts()
	discontinuity := w.resolveCollisions()
	if discontinuity {
		w.pack(x)
	}

	w.computeForces()
	for i, body := range w.bodies {
		body.DerivativeToArray(xdot, i*actor.StateSize)
	}

	return discontinuity
}

func (w *World) pack(x nvector.Vector[float64]) {
	for i, body := range w.bodies {
		body.StateToArray(x, i*actor.StateSize)
	}
}

func (w *World) unpack(x nvector.Vector[float64]) {
	for i, body := range w.bodies {
		body.ArrayToState(x, i*actor.StateSize)
	}
}

// computeForces accumulates gravity, drag and the external load.
func (w *World) computeForces() {
	for _, body := range w.bodies {
		body.ClearForces()
		if body.IsStatic() {
			continue
		}

		body.AddForce(mgl64.Vec3{0, w.config.Gravity * body.Mass(), 0})
		body.AddForce(body.V.Mul(-w.config.DragLinear))
		body.AddTorque(body.Omega.Mul(-w.config.DragAngular))
	}

	w.applyLoad()
}

// =============================================================================
// External load
// =============================================================================

// externalLoad is an extra force and torque for one body, set from outside
// the world for a single step.
type externalLoad struct {
	active bool
	body   uuid.UUID
	force  mgl64.Vec3
	torque mgl64.Vec3
	// point, when set, is where force acts in world space
	point    mgl64.Vec3
	hasPoint bool
}

// SetExternalLoad adds force through the center of mass and torque to one
// body during the next step. It replaces any load set before.
func (w *World) SetExternalLoad(id uuid.UUID, force, torque mgl64.Vec3) error {
	if _, ok := w.index[id]; !ok {
		return fmt.Errorf("external load on %v: %w", id, ErrUnknownBody)
	}
	w.load = externalLoad{active: true, body: id, force: force, torque: torque}
	return nil
}

// SetExternalForceAtPoint adds force applied at a world-space point to one
// body during the next step. It replaces any load set before.
func (w *World) SetExternalForceAtPoint(id uuid.UUID, force, point mgl64.Vec3) error {
	if _, ok := w.index[id]; !ok {
		return fmt.Errorf("external force on %v: %w", id, ErrUnknownBody)
	}
	w.load = externalLoad{active: true, body: id, force: force, point: point, hasPoint: true}
	return nil
}

func (w *World) applyLoad() {
	if !w.load.active {
		return
	}
	body := w.bodies[w.index[w.load.body]]
	if body.IsStatic() {
		return
	}

	if w.load.hasPoint {
		body.ApplyForceAtPoint(w.load.force, w.load.point)
	} else {
		body.AddForce(w.load.force)
	}
	body.AddTorque(w.load.torque)
}
