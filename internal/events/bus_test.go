package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan PlayerJoinedEvent, 1)

	unsub := bus.Subscribe(func(e PlayerJoinedEvent) {
		received <- e
	})
	defer unsub()

	event := PlayerJoinedEvent{
		Player:     "Alice",
		Sessions:   1,
		Online:     1,
		ServerName: "0.0.0.0:25565",
		Timestamp:  "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Player != event.Player {
		t.Errorf("Expected player %s, got %s", event.Player, got.Player)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan ServerOpenedEvent, 1)
	received2 := make(chan ServerOpenedEvent, 1)

	unsub1 := bus.Subscribe(func(e ServerOpenedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e ServerOpenedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(ServerOpenedEvent{ServerName: "survival"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan PlayerLeftEvent, 1)

	unsub := bus.Subscribe(func(e PlayerLeftEvent) {
		received <- e
	})

	bus.Publish(PlayerLeftEvent{Player: "Alice"})
	<-received

	unsub()

	bus.Publish(PlayerLeftEvent{Player: "Bob"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	joinReceived := make(chan bool, 1)
	saveReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ PlayerJoinedEvent) {
		joinReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ WorldSavedEvent) {
		saveReceived <- true
	})
	defer unsub2()

	bus.Publish(PlayerJoinedEvent{Player: "Alice"})
	<-joinReceived

	select {
	case <-saveReceived:
		t.Fatal("Save subscriber should NOT have received PlayerJoinedEvent")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(WorldSavedEvent{Message: "Saved the game"})
	<-saveReceived

	select {
	case <-joinReceived:
		t.Fatal("Join subscriber should NOT have received WorldSavedEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ WorldSavedEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(WorldSavedEvent{
					Message:   "Saving...",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_AllEventTypes(t *testing.T) {
	bus := New()
	ch := make(chan any, 16)
	unsub := SubscribeAll(bus, ch)
	defer unsub()

	all := []Event{
		PlayerJoinedEvent{Player: "Alice"},
		PlayerLeftEvent{Player: "Alice"},
		ServerAddressEvent{Address: "0.0.0.0:25565"},
		ServerOpenedEvent{ServerName: "survival"},
		WorldSavedEvent{Message: "Saved the game"},
		SaveRequestedEvent{Command: "save-all flush", Sent: true},
		ServerClosedEvent{ExitCode: 0},
	}

	for _, ev := range all {
		bus.Publish(ev)
		select {
		case got := <-ch:
			if got.(Event).Type() != ev.Type() {
				t.Errorf("received type %d, want %d", got.(Event).Type(), ev.Type())
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %T", ev)
		}
	}
}

func TestEventJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(SaveRequestedEvent{Command: "save-all flush", Sent: true, ServerName: "s"})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result map[string]any
	if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
		t.Fatalf("Failed to unmarshal: %v", unmarshalErr)
	}

	for _, key := range []string{"command", "sent", "server_name", "timestamp"} {
		if _, ok := result[key]; !ok {
			t.Errorf("missing JSON field %q in %s", key, data)
		}
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[ServerClosedEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(ServerClosedEvent{ExitCode: 1})
		done <- true
	}()

	<-done
}
