package eventbus

import (
	"testing"
	"time"

	"pkt.systems/tabgrouper/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil, 0)
	ch, cancel := bus.Subscribe()
	defer cancel()

	event := schema.TabEvent{Type: schema.TabCreated, TabID: "1"}
	bus.OnTabEvent(event)

	select {
	case got := <-ch:
		if got.Type != schema.TabCreated {
			t.Fatalf("expected created event, got %v", got.Type)
		}
		if got.TabID != event.TabID {
			t.Fatalf("unexpected payload: %+v", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil, 0)
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	bus.OnTabEvent(schema.TabEvent{Type: schema.TabRemoved})
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil, 1)
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.OnTabEvent(schema.TabEvent{Type: schema.TabCreated, TabID: "1"})
	done := make(chan struct{})
	go func() {
		bus.OnTabEvent(schema.TabEvent{Type: schema.TabCreated, TabID: "2"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full subscriber")
	}
	got := <-ch
	if got.TabID != "1" {
		t.Fatalf("expected first event retained, got %+v", got)
	}
}

func TestFanoutToMultipleSubscribers(t *testing.T) {
	bus := New(nil, 4)
	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	bus.OnTabEvent(schema.TabEvent{Type: schema.TabUpdated, TabID: "7"})
	for _, ch := range []<-chan schema.TabEvent{a, b} {
		select {
		case got := <-ch:
			if got.TabID != "7" {
				t.Fatalf("unexpected payload: %+v", got)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timed out waiting for fanout")
		}
	}
}

func TestNilBusIsSafe(t *testing.T) {
	var bus *Bus
	ch, cancel := bus.Subscribe()
	if ch != nil {
		t.Fatalf("expected nil channel from nil bus")
	}
	cancel()
	bus.OnTabEvent(schema.TabEvent{})
}
