package dynamics

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

const (
	CONTACT_ENTER EventType = iota
	CONTACT_STAY
	CONTACT_EXIT
	PENETRATION
	COLLISION
)

type pairKey struct {
	bodyA uuid.UUID
	bodyB uuid.UUID
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(bodyA, bodyB uuid.UUID) pairKey {
	if bytes.Compare(bodyB[:], bodyA[:]) < 0 {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

func (p pairKey) has(id uuid.UUID) bool {
	return p.bodyA == id || p.bodyB == id
}

type EventType uint8

func (t EventType) String() string {
	switch t {
	case CONTACT_ENTER:
		return "contact-enter"
	case CONTACT_STAY:
		return "contact-stay"
	case CONTACT_EXIT:
		return "contact-exit"
	case PENETRATION:
		return "penetration"
	case COLLISION:
		return "collision"
	}
	return "unknown"
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Contact events, one per touching pair and step
type ContactEnterEvent struct {
	BodyA uuid.UUID
	BodyB uuid.UUID
}

func (e ContactEnterEvent) Type() EventType { return CONTACT_ENTER }

type ContactStayEvent struct {
	BodyA uuid.UUID
	BodyB uuid.UUID
}

func (e ContactStayEvent) Type() EventType { return CONTACT_STAY }

type ContactExitEvent struct {
	BodyA uuid.UUID
	BodyB uuid.UUID
}

func (e ContactExitEvent) Type() EventType { return CONTACT_EXIT }

// PenetrationEvent reports a pair that no plane separates. Distance is the
// signed distance of the best plane found, negative.
type PenetrationEvent struct {
	BodyA    uuid.UUID
	BodyB    uuid.UUID
	Distance float64
}

func (e PenetrationEvent) Type() EventType { return PENETRATION }

// CollisionEvent reports one impulse. BodyA is the body whose vertices
// touched the plane of BodyB; it received Impulse along Normal at Point.
type CollisionEvent struct {
	BodyA   uuid.UUID
	BodyB   uuid.UUID
	Point   mgl64.Vec3
	Normal  mgl64.Vec3
	Impulse float64
}

func (e CollisionEvent) Type() EventType { return COLLISION }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Contact tracking for Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContact marks a pair as touching during the current step
func (e *Events) recordContact(bodyA, bodyB uuid.UUID) {
	e.currentActivePairs[makePairKey(bodyA, bodyB)] = true
}

func (e *Events) emitPenetration(bodyA, bodyB uuid.UUID, distance float64) {
	e.buffer = append(e.buffer, PenetrationEvent{BodyA: bodyA, BodyB: bodyB, Distance: distance})
}

func (e *Events) emitCollision(event CollisionEvent) {
	e.buffer = append(e.buffer, event)
}

// processContactEvents compares current and previous pairs to detect Enter/Stay/Exit
func (e *Events) processContactEvents() {
	for pair := range e.currentActivePairs {
		if e.previousActivePairs[pair] {
			e.buffer = append(e.buffer, ContactStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			e.buffer = append(e.buffer, ContactEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	for pair := range e.previousActivePairs {
		if !e.currentActivePairs[pair] {
			e.buffer = append(e.buffer, ContactExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	// Swap for next step and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// removeBody forgets every pair involving id, so no exit event is sent for it
func (e *Events) removeBody(id uuid.UUID) {
	for pair := range e.previousActivePairs {
		if pair.has(id) {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.has(id) {
			delete(e.currentActivePairs, pair)
		}
	}
}

// reset drops buffered events and tracked pairs, keeping the listeners
func (e *Events) reset() {
	e.buffer = e.buffer[:0]
	clear(e.previousActivePairs)
	clear(e.currentActivePairs)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processContactEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
