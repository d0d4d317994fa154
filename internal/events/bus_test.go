package events

import (
	"sync"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestBus_Subscribe(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Publish(NewMarkerPlacedEvent(1, core.Marker{WorkoutID: "w1"}))

	ev := receive(t, ch)
	if ev.EventType() != TypeMarkerPlaced {
		t.Errorf("expected %s, got %s", TypeMarkerPlaced, ev.EventType())
	}
	placed, ok := ev.(MarkerPlacedEvent)
	if !ok || placed.Marker.WorkoutID != "w1" || placed.Revision != 1 {
		t.Errorf("unexpected event %#v", ev)
	}
	if ev.Timestamp().IsZero() {
		t.Error("timestamp not set")
	}
}

func TestBus_SubscribeByType(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	noticeCh := bus.Subscribe(TypeNotice)
	allCh := bus.Subscribe()

	bus.Publish(NewListRenderedEvent(1, 3))
	bus.Publish(NewNoticeEvent("Could not get your position"))

	if ev := receive(t, allCh); ev.EventType() != TypeListRendered {
		t.Errorf("allCh first event = %s", ev.EventType())
	}
	if ev := receive(t, allCh); ev.EventType() != TypeNotice {
		t.Errorf("allCh second event = %s", ev.EventType())
	}
	if ev := receive(t, noticeCh); ev.EventType() != TypeNotice {
		t.Errorf("noticeCh got %s", ev.EventType())
	}
	select {
	case ev := <-noticeCh:
		t.Errorf("noticeCh got extra event %s", ev.EventType())
	default:
	}
}

func TestBus_DropsOldestWhenFull(t *testing.T) {
	bus := New(2)
	defer bus.Close()

	ch := bus.Subscribe()
	for i := 1; i <= 5; i++ {
		bus.Publish(NewListRenderedEvent(uint64(i), i))
	}

	if got := bus.DroppedCount(); got != 3 {
		t.Errorf("DroppedCount() = %d, want 3", got)
	}
	first := receive(t, ch).(ListRenderedEvent)
	second := receive(t, ch).(ListRenderedEvent)
	if first.Revision != 4 || second.Revision != 5 {
		t.Errorf("kept revisions %d, %d; want 4, 5", first.Revision, second.Revision)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)
	if bus.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d", bus.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(NewNoticeEvent("x"))
}

func TestBus_Close(t *testing.T) {
	bus := New(10)
	ch := bus.Subscribe()
	bus.Close()
	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	bus.Publish(NewNoticeEvent("after close"))

	late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribing to a closed bus should return a closed channel")
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := New(1000)
	defer bus.Close()
	ch := bus.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(NewNoticeEvent("n"))
			}
		}()
	}
	wg.Wait()

	if n := len(ch); n != 500 {
		t.Errorf("received %d events, want 500", n)
	}
}
