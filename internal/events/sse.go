package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges kelindar/event callback-based subscriptions to channels
// This is needed for SSE integration where Huma expects a channel-based select loop.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			// Drop event if channel is full (non-blocking)
		}
	})
}

// SubscribeAll subscribes ch to every game event type.
// The returned function removes all subscriptions.
func SubscribeAll(bus *Bus, ch chan<- any) func() {
	unsubscribers := []func(){
		SubscribeToChannel[PlayerJoinedEvent](bus, ch),
		SubscribeToChannel[PlayerLeftEvent](bus, ch),
		SubscribeToChannel[ServerAddressEvent](bus, ch),
		SubscribeToChannel[ServerOpenedEvent](bus, ch),
		SubscribeToChannel[WorldSavedEvent](bus, ch),
		SubscribeToChannel[SaveRequestedEvent](bus, ch),
		SubscribeToChannel[ServerClosedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubscribers {
			unsub()
		}
	}
}
