package quill

import (
	"unsafe"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/collision"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type pairKey struct {
	skinA *collision.CollisionSkin
	skinB *collision.CollisionSkin
}

// makePairKey orders the two skins by address so (a, b) and (b, a) share a key
func makePairKey(skinA, skinB *collision.CollisionSkin) pairKey {
	ptrA := uintptr(unsafe.Pointer(skinA))
	ptrB := uintptr(unsafe.Pointer(skinB))

	if ptrB < ptrA {
		skinA, skinB = skinB, skinA
	}

	return pairKey{skinA: skinA, skinB: skinB}
}

// involves reports whether skin is one side of the pair
func (p pairKey) involves(skin *collision.CollisionSkin) bool {
	return p.skinA == skin || p.skinB == skin
}

// asleep reports whether no side of the pair can move: static skins and frozen bodies
func (p pairKey) asleep() bool {
	return !awake(p.skinA) && !awake(p.skinB)
}

func awake(skin *collision.CollisionSkin) bool {
	body := skin.Owner()
	return body != nil && body.IsActive()
}

type EventType uint8

func (t EventType) String() string {
	switch t {
	case TRIGGER_ENTER:
		return "trigger enter"
	case COLLISION_ENTER:
		return "collision enter"
	case TRIGGER_STAY:
		return "trigger stay"
	case COLLISION_STAY:
		return "collision stay"
	case TRIGGER_EXIT:
		return "trigger exit"
	case COLLISION_EXIT:
		return "collision exit"
	case ON_SLEEP:
		return "sleep"
	case ON_WAKE:
		return "wake"
	}
	return "unknown"
}

// Event is delivered to the listeners of its Type after a step
type Event interface {
	Type() EventType
}

// Trigger events are sent for overlapping skins that do not block each other
type TriggerEnterEvent struct {
	SkinA *collision.CollisionSkin
	SkinB *collision.CollisionSkin
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	SkinA *collision.CollisionSkin
	SkinB *collision.CollisionSkin
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	SkinA *collision.CollisionSkin
	SkinB *collision.CollisionSkin
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events are sent for blocking contacts
type CollisionEnterEvent struct {
	SkinA *collision.CollisionSkin
	SkinB *collision.CollisionSkin
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	SkinA *collision.CollisionSkin
	SkinB *collision.CollisionSkin
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	SkinA *collision.CollisionSkin
	SkinB *collision.CollisionSkin
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// Sleep/Wake events follow the Active/Inactive transitions of the bodies
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener receives the events of the types it subscribed to
type EventListener func(event Event)

// Events buffers what happened during a step and hands it to the listeners once the step is over
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event

	// pairs touching during the previous and the current step, true when blocking
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool

	// sleepStates is true for the bodies last seen inactive
	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
		sleepStates:         make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollisions marks the skin pairs of infos as touching during this step.
// A pair is blocking as soon as one of its infos is.
func (e *Events) recordCollisions(infos []*collision.CollisionInfo) {
	for _, ci := range infos {
		pair := makePairKey(ci.SkinInfo.Skin0, ci.SkinInfo.Skin1)
		e.currentActivePairs[pair] = e.currentActivePairs[pair] || ci.Blocking
	}
}

// processCollisionEvents diffs this step's pairs against the previous step's
func (e *Events) processCollisionEvents() {
	// inactive pairs are not tested any more: they still touch
	for pair, blocking := range e.previousActivePairs {
		if _, ok := e.currentActivePairs[pair]; !ok && pair.asleep() {
			e.currentActivePairs[pair] = blocking
		}
	}

	for pair, blocking := range e.currentActivePairs {
		_, stay := e.previousActivePairs[pair]
		if stay && pair.asleep() {
			continue
		}

		switch {
		case stay && blocking:
			e.buffer = append(e.buffer, CollisionStayEvent{SkinA: pair.skinA, SkinB: pair.skinB})
		case stay:
			e.buffer = append(e.buffer, TriggerStayEvent{SkinA: pair.skinA, SkinB: pair.skinB})
		case blocking:
			e.buffer = append(e.buffer, CollisionEnterEvent{SkinA: pair.skinA, SkinB: pair.skinB})
		default:
			e.buffer = append(e.buffer, TriggerEnterEvent{SkinA: pair.skinA, SkinB: pair.skinB})
		}
	}

	for pair, blocking := range e.previousActivePairs {
		if _, ok := e.currentActivePairs[pair]; ok {
			continue
		}
		if blocking {
			e.buffer = append(e.buffer, CollisionExitEvent{SkinA: pair.skinA, SkinB: pair.skinB})
		} else {
			e.buffer = append(e.buffer, TriggerExitEvent{SkinA: pair.skinA, SkinB: pair.skinB})
		}
	}

	// this step becomes the previous one
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		asleep := !body.IsActive()
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = asleep
			continue
		}

		if !trackedState && asleep {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
		} else if trackedState && !asleep {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
		}
		e.sleepStates[body] = asleep
	}
}

// forget drops every tracked state of a body and its skin, without sending Exit events
func (e *Events) forget(body *actor.RigidBody, skin *collision.CollisionSkin) {
	if body != nil {
		delete(e.sleepStates, body)
	}
	if skin == nil {
		return
	}
	for pair := range e.previousActivePairs {
		if pair.involves(skin) {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.involves(skin) {
			delete(e.currentActivePairs, pair)
		}
	}
}

// flush delivers the buffered events in order, then empties the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	clear(e.buffer)
	e.buffer = e.buffer[:0]
}
