// ABOUTME: Typed event bus for engine observers
// ABOUTME: Publish/subscribe keyed by event kind with structured payloads
package cue

import (
	"sync"
	"time"
)

// EventType identifies the kind of engine event
type EventType string

const (
	EventPlay  EventType = "play"
	EventStop  EventType = "stop"
	EventLoad  EventType = "load"
	EventError EventType = "error"
	EventState EventType = "state"
)

// Event carries one engine occurrence. Key is set for play/stop/load,
// Code and Err for error events, and State for state changes.
type Event struct {
	Type  EventType     `json:"type"`
	At    time.Time     `json:"at"`
	Key   string        `json:"key,omitempty"`
	Code  Code          `json:"code,omitempty"`
	Err   string        `json:"err,omitempty"`
	State *Status       `json:"state,omitempty"`
	Delay time.Duration `json:"delay,omitempty"`
}

// Listener receives events for a subscribed type
type Listener func(Event)

// Bus is a typed publish/subscribe channel keyed by event kind.
// Dispatch is synchronous on the publishing goroutine; listeners
// must not block.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[EventType]map[int]Listener
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{listeners: make(map[EventType]map[int]Listener)}
}

// Subscribe registers a listener for one event type and returns its id
func (b *Bus) Subscribe(t EventType, fn Listener) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.listeners[t] == nil {
		b.listeners[t] = make(map[int]Listener)
	}
	b.listeners[t][b.nextID] = fn
	return b.nextID
}

// Unsubscribe removes a listener by id. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(t EventType, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners[t], id)
}

// Publish delivers an event to all listeners of its type
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]Listener, 0, len(b.listeners[ev.Type]))
	for _, fn := range b.listeners[ev.Type] {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
