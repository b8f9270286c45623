package tether

import (
	"slices"

	"github.com/akmonengine/tether/actor"
	"github.com/akmonengine/tether/constraint"
)

const (
	LIMIT_ENTER EventType = iota
	LIMIT_STAY
	LIMIT_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// LimitEnterEvent is sent on the step a limit becomes active (its bound is violated)
type LimitEnterEvent struct {
	Limit constraint.Constraint
}

func (e LimitEnterEvent) Type() EventType { return LIMIT_ENTER }

type LimitStayEvent struct {
	Limit constraint.Constraint
}

func (e LimitStayEvent) Type() EventType { return LIMIT_STAY }

// LimitExitEvent is sent on the step a limit is back within its bounds
type LimitExitEvent struct {
	Limit constraint.Constraint
}

func (e LimitExitEvent) Type() EventType { return LIMIT_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Limit tracking for Enter/Stay/Exit detection, the slices keep the world order
	previousActiveLimits map[constraint.Constraint]bool
	currentActiveLimits  map[constraint.Constraint]bool
	previousOrder        []constraint.Constraint
	currentOrder         []constraint.Constraint

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	events := Events{}
	events.init()

	return events
}

// init allocates the maps of a zero Events
func (e *Events) init() {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	if e.buffer == nil {
		e.buffer = make([]Event, 0, 256)
	}
	if e.previousActiveLimits == nil {
		e.previousActiveLimits = make(map[constraint.Constraint]bool)
	}
	if e.currentActiveLimits == nil {
		e.currentActiveLimits = make(map[constraint.Constraint]bool)
	}
	if e.sleepStates == nil {
		e.sleepStates = make(map[*actor.RigidBody]bool)
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.init()
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordLimits stores the limits active at the end of the step
func (e *Events) recordLimits(limits []constraint.Constraint) {
	for _, limit := range limits {
		if limit.IsActive() && !e.currentActiveLimits[limit] {
			e.currentActiveLimits[limit] = true
			e.currentOrder = append(e.currentOrder, limit)
		}
	}
}

// forget drops the tracking of a removed limit, without emitting an exit event
func (e *Events) forget(limit constraint.Constraint) {
	delete(e.previousActiveLimits, limit)
	delete(e.currentActiveLimits, limit)
	isLimit := func(l constraint.Constraint) bool { return l == limit }
	e.previousOrder = slices.DeleteFunc(e.previousOrder, isLimit)
	e.currentOrder = slices.DeleteFunc(e.currentOrder, isLimit)
}

func (e *Events) forgetBody(body *actor.RigidBody) {
	delete(e.sleepStates, body)
}

// processLimitEvents compares current and previous active limits to detect Enter/Stay/Exit
// Should be called after all substeps. Events follow the order the limits were recorded in.
func (e *Events) processLimitEvents() {
	for _, limit := range e.currentOrder {
		if !e.currentActiveLimits[limit] {
			continue
		}
		if e.previousActiveLimits[limit] {
			e.buffer = append(e.buffer, LimitStayEvent{Limit: limit})
		} else {
			e.buffer = append(e.buffer, LimitEnterEvent{Limit: limit})
		}
	}

	for _, limit := range e.previousOrder {
		if e.previousActiveLimits[limit] && !e.currentActiveLimits[limit] {
			e.buffer = append(e.buffer, LimitExitEvent{Limit: limit})
		}
	}

	// Swap for next frame and clear current
	e.previousActiveLimits, e.currentActiveLimits = e.currentActiveLimits, e.previousActiveLimits
	clear(e.currentActiveLimits)
	e.previousOrder, e.currentOrder = e.currentOrder, e.previousOrder
	clear(e.currentOrder)
	e.currentOrder = e.currentOrder[:0]
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		if !trackedState && body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processLimitEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
