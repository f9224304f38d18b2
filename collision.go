package dynamics

import (
	"github.com/danepowell/openhaptics-sub000/contact"
	"github.com/danepowell/openhaptics-sub000/witness"
	"go.uber.org/zap"
)

// detectContacts updates every witness and builds one contact per pair in
// contact or penetration.
func (w *World) detectContacts() {
	threshold := w.config.ContactThreshold

	task(w.config.Workers, w.witnesses, func(wt *witness.Witness) {
		wt.CheckSeparation(w.bodies, threshold)
	})

	w.contacts = w.contacts[:0]
	for _, wt := range w.witnesses {
		if wt.State != witness.Contact && wt.State != witness.Penetration {
			continue
		}
		// Penetration without any candidate plane leaves nothing to push on
		if !wt.Valid() {
			continue
		}
		w.contacts = append(w.contacts, contact.Create(wt, w.bodies, threshold))
	}
}

// resolveCollisions applies impulses until a full pass over the contacts
// finds none colliding. It reports whether any impulse was applied.
func (w *World) resolveCollisions() bool {
	discontinuity := false

	for pass := 0; ; pass++ {
		if pass == w.config.MaxResolutionPasses {
			w.logger.Warn("collision resolution did not converge",
				zap.Int("passes", pass),
				zap.Int("contacts", len(w.contacts)))
			break
		}

		collided := false
		for i := range w.contacts {
			c := &w.contacts[i]
			if c.Classify(w.bodies, w.config.CollisionEpsilon) != contact.Colliding {
				continue
			}

			j := c.ApplyImpulse(w.bodies, w.config.Restitution)
			collided = true

			w.Events.emitCollision(CollisionEvent{
				BodyA:   w.bodies[c.A].ID,
				BodyB:   w.bodies[c.B].ID,
				Point:   c.P,
				Normal:  c.N,
				Impulse: j,
			})
		}

		if !collided {
			break
		}
		discontinuity = true
	}

	return discontinuity
}

// recordContacts feeds the pair states of the last evaluation to the event
// tracker.
func (w *World) recordContacts() {
	for _, wt := range w.witnesses {
		switch wt.State {
		case witness.Contact:
			w.Events.recordContact(w.bodies[wt.A].ID, w.bodies[wt.B].ID)
		case witness.Penetration:
			a, b := w.bodies[wt.A].ID, w.bodies[wt.B].ID
			w.Events.recordContact(a, b)
			w.Events.emitPenetration(a, b, wt.Distance)
			w.logger.Debug("penetration",
				zap.Stringer("bodyA", a),
				zap.Stringer("bodyB", b),
				zap.Float64("distance", wt.Distance))
		}
	}
}
