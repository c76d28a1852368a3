package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(PlayerJoinedEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case PlayerJoinedEvent:
		event.Publish(b.dispatcher, e)
	case PlayerLeftEvent:
		event.Publish(b.dispatcher, e)
	case ServerAddressEvent:
		event.Publish(b.dispatcher, e)
	case ServerOpenedEvent:
		event.Publish(b.dispatcher, e)
	case WorldSavedEvent:
		event.Publish(b.dispatcher, e)
	case SaveRequestedEvent:
		event.Publish(b.dispatcher, e)
	case ServerClosedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e ServerOpenedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(PlayerJoinedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlayerLeftEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ServerAddressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ServerOpenedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(WorldSavedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SaveRequestedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ServerClosedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
