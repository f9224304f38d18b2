package dynamics

import (
	"fmt"

	"github.com/danepowell/openhaptics-sub000/actor"
	"github.com/danepowell/openhaptics-sub000/witness"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// BodySnapshot is a copy of the kinematic state of a body.
type BodySnapshot struct {
	ID              uuid.UUID
	Shape           actor.ShapeKind
	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	Rotation        mgl64.Mat3
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	// Transform is the object-to-world matrix, InverseTransform its inverse
	Transform        mgl64.Mat4
	InverseTransform mgl64.Mat4
	Bounds           actor.AABB
}

// WitnessInfo describes the separating plane of one pair, for debug drawing.
type WitnessInfo struct {
	// Primary owns the plane, Secondary is measured against it
	Primary   uuid.UUID
	Secondary uuid.UUID
	Feature   witness.FeatureKind
	State     witness.State
	Distance  float64
	Plane     actor.Plane
	HasPlane  bool
}

// ContactInfo is a contact of the last derivative evaluation.
type ContactInfo struct {
	// BodyA touches the plane of BodyB
	BodyA    uuid.UUID
	BodyB    uuid.UUID
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Snapshot returns the state of a body.
func (w *World) Snapshot(id uuid.UUID) (BodySnapshot, error) {
	if !w.initialized {
		return BodySnapshot{}, fmt.Errorf("snapshot %v: %w", id, ErrNotInitialized)
	}
	k, ok := w.index[id]
	if !ok {
		return BodySnapshot{}, fmt.Errorf("snapshot %v: %w", id, ErrUnknownBody)
	}

	body := w.bodies[k]
	transform := body.Transform()
	return BodySnapshot{
		ID:               body.ID,
		Shape:            body.Shape.Kind,
		Position:         body.X,
		Orientation:      body.Q,
		Rotation:         body.R,
		Velocity:         body.V,
		AngularVelocity:  body.Omega,
		Transform:        transform.Matrix(),
		InverseTransform: transform.InverseMatrix(),
		Bounds:           body.Bounds(),
	}, nil
}

// Body returns the body with the given identifier. The body must be treated
// as read-only.
func (w *World) Body(id uuid.UUID) (*actor.RigidBody, bool) {
	k, ok := w.index[id]
	if !ok {
		return nil, false
	}
	return w.bodies[k], true
}

// ForEachBody calls fn for every body in insertion order. fn must not modify
// the body.
func (w *World) ForEachBody(fn func(body *actor.RigidBody)) {
	for _, body := range w.bodies {
		fn(body)
	}
}

// NumBodies returns the number of bodies.
func (w *World) NumBodies() int {
	return len(w.bodies)
}

// NumWitnesses returns the number of tracked pairs, n(n-1)/2 after
// InitSimulation.
func (w *World) NumWitnesses() int {
	return len(w.witnesses)
}

// Witnesses describes every pair, in body order.
func (w *World) Witnesses() []WitnessInfo {
	out := make([]WitnessInfo, 0, len(w.witnesses))
	for _, wt := range w.witnesses {
		out = append(out, w.witnessInfo(wt))
	}
	return out
}

// Witness returns the pair state of two bodies.
func (w *World) Witness(a, b uuid.UUID) (WitnessInfo, error) {
	if !w.initialized {
		return WitnessInfo{}, ErrNotInitialized
	}
	ka, okA := w.index[a]
	kb, okB := w.index[b]
	if !okA || !okB || ka == kb {
		return WitnessInfo{}, fmt.Errorf("witness %v/%v: %w", a, b, ErrUnknownBody)
	}

	return w.witnessInfo(w.pairs[witness.NewPairKey(ka, kb)]), nil
}

func (w *World) witnessInfo(wt *witness.Witness) WitnessInfo {
	plane, ok := wt.Plane(w.bodies)
	return WitnessInfo{
		Primary:   w.bodies[wt.Primary].ID,
		Secondary: w.bodies[wt.Secondary].ID,
		Feature:   wt.Feature.Kind,
		State:     wt.State,
		Distance:  wt.Distance,
		Plane:     plane,
		HasPlane:  ok,
	}
}

// Contacts returns the contacts of the last derivative evaluation.
func (w *World) Contacts() []ContactInfo {
	out := make([]ContactInfo, len(w.contacts))
	for i, c := range w.contacts {
		out[i] = ContactInfo{
			BodyA:    w.bodies[c.A].ID,
			BodyB:    w.bodies[c.B].ID,
			Point:    c.P,
			Normal:   c.N,
			Distance: c.Distance,
		}
	}
	return out
}

// Subscribe adds a listener for an event type.
func (w *World) Subscribe(eventType EventType, listener EventListener) {
	w.Events.Subscribe(eventType, listener)
}
