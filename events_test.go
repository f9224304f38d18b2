package dynamics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) count() int {
	return len(ec.events)
}

func (ec *eventCapture) hasEventType(eventType EventType) bool {
	for _, e := range ec.events {
		if e.Type() == eventType {
			return true
		}
	}
	return false
}

// =============================================================================
// Subscribe and Listeners Tests
// =============================================================================

func TestEvents_Subscribe(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}

	events.Subscribe(CONTACT_ENTER, capture.capture)

	if len(events.listeners[CONTACT_ENTER]) != 1 {
		t.Errorf("Expected 1 listener for CONTACT_ENTER, got %d", len(events.listeners[CONTACT_ENTER]))
	}
}

func TestEvents_MultipleListeners(t *testing.T) {
	events := NewEvents()
	captures := []*eventCapture{{}, {}, {}}
	for _, c := range captures {
		events.Subscribe(CONTACT_ENTER, c.capture)
	}

	events.recordContact(uuid.New(), uuid.New())
	events.flush()

	for i, c := range captures {
		if c.count() != 1 {
			t.Errorf("capture %d expected 1 event, got %d", i, c.count())
		}
	}
}

func TestEvents_DifferentEventTypes(t *testing.T) {
	events := NewEvents()
	captureContact := &eventCapture{}
	captureCollision := &eventCapture{}

	events.Subscribe(CONTACT_ENTER, captureContact.capture)
	events.Subscribe(COLLISION, captureCollision.capture)

	events.recordContact(uuid.New(), uuid.New())
	events.flush()

	if captureContact.count() != 1 {
		t.Errorf("Contact capture expected 1 event, got %d", captureContact.count())
	}
	if captureCollision.count() != 0 {
		t.Errorf("Collision capture expected 0 events, got %d", captureCollision.count())
	}
}

// =============================================================================
// makePairKey Tests
// =============================================================================

func TestMakePairKey_Normalization(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	if makePairKey(a, b) != makePairKey(b, a) {
		t.Error("makePairKey should normalize pairs to consistent ordering")
	}
}

func TestMakePairKey_DifferentPairs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	if makePairKey(a, b) == makePairKey(a, c) {
		t.Error("makePairKey should produce different keys for different pairs")
	}
}

// =============================================================================
// Contact Enter / Stay / Exit
// =============================================================================

func TestEvents_ContactLifecycle(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(CONTACT_ENTER, capture.capture)
	events.Subscribe(CONTACT_STAY, capture.capture)
	events.Subscribe(CONTACT_EXIT, capture.capture)

	a, b := uuid.New(), uuid.New()

	// Step 1: Enter
	events.recordContact(a, b)
	events.flush()
	if capture.count() != 1 || !capture.hasEventType(CONTACT_ENTER) {
		t.Fatalf("step 1: got %v, want a single CONTACT_ENTER", capture.events)
	}
	capture.reset()

	// Step 2: Stay, reported in the opposite order
	events.recordContact(b, a)
	events.flush()
	if capture.count() != 1 || !capture.hasEventType(CONTACT_STAY) {
		t.Fatalf("step 2: got %v, want a single CONTACT_STAY", capture.events)
	}
	capture.reset()

	// Step 3: Exit
	events.flush()
	if capture.count() != 1 || !capture.hasEventType(CONTACT_EXIT) {
		t.Fatalf("step 3: got %v, want a single CONTACT_EXIT", capture.events)
	}

	exit := capture.events[0].(ContactExitEvent)
	if makePairKey(exit.BodyA, exit.BodyB) != makePairKey(a, b) {
		t.Error("CONTACT_EXIT carries the wrong pair")
	}
	capture.reset()

	// Step 4: nothing left to report
	events.flush()
	if capture.count() != 0 {
		t.Errorf("step 4: got %d events, want none", capture.count())
	}
}

func TestEvents_RemoveBodySuppressesExit(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(CONTACT_EXIT, capture.capture)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	events.recordContact(a, b)
	events.recordContact(b, c)
	events.flush()

	events.removeBody(a)
	events.flush()

	if capture.count() != 1 {
		t.Fatalf("got %d exit events, want 1 (only the pair without the removed body)", capture.count())
	}
	exit := capture.events[0].(ContactExitEvent)
	if makePairKey(exit.BodyA, exit.BodyB) != makePairKey(b, c) {
		t.Error("exit event reported for a removed body")
	}
}

func TestEvents_Reset(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(CONTACT_EXIT, capture.capture)
	events.Subscribe(PENETRATION, capture.capture)

	events.recordContact(uuid.New(), uuid.New())
	events.flush()
	events.emitPenetration(uuid.New(), uuid.New(), -0.1)
	events.reset()
	events.flush()

	if capture.count() != 0 {
		t.Errorf("got %d events after reset, want none", capture.count())
	}
	if len(events.listeners[PENETRATION]) != 1 {
		t.Error("reset should keep listeners")
	}
}

// =============================================================================
// Penetration and collision events
// =============================================================================

func TestEvents_CollisionAndPenetration(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION, capture.capture)
	events.Subscribe(PENETRATION, capture.capture)

	a, b := uuid.New(), uuid.New()
	events.emitCollision(CollisionEvent{BodyA: a, BodyB: b, Normal: mgl64.Vec3{0, 1, 0}, Impulse: 2.5})
	events.emitPenetration(a, b, -0.02)

	if capture.count() != 0 {
		t.Fatal("events delivered before flush")
	}
	events.flush()

	if capture.count() != 2 {
		t.Fatalf("got %d events, want 2", capture.count())
	}
	collision := capture.events[0].(CollisionEvent)
	if collision.Impulse != 2.5 || collision.BodyA != a {
		t.Errorf("CollisionEvent = %+v", collision)
	}
	penetration := capture.events[1].(PenetrationEvent)
	if penetration.Distance != -0.02 {
		t.Errorf("PenetrationEvent.Distance = %v, want -0.02", penetration.Distance)
	}

	capture.reset()
	events.flush()
	if capture.count() != 0 {
		t.Error("buffer not cleared after flush")
	}
}

func TestEventTypeString(t *testing.T) {
	tests := map[EventType]string{
		CONTACT_ENTER: "contact-enter",
		COLLISION:     "collision",
		EventType(99): "unknown",
	}
	for et, want := range tests {
		if got := et.String(); got != want {
			t.Errorf("EventType(%d).String() = %q, want %q", et, got, want)
		}
	}
}
