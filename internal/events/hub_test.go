package events

import (
	"testing"
	"time"

	"github.com/chartsbridge/internal/classcharts"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	_, ch1 := hub.Subscribe()
	_, ch2 := hub.Subscribe()

	hub.Publish(classcharts.EventLogin)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != "login" {
				t.Errorf("subscriber %d got event type %q, want login", i, ev.Type)
			}
			if ev.At.IsZero() {
				t.Errorf("subscriber %d got zero timestamp", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Subscribe()

	hub.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if hub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d, want 0", hub.SubscriberCount())
	}

	// Unknown ids are ignored.
	hub.Unsubscribe(id)
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	hub.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(classcharts.EventRefresh)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a subscriber that is not draining")
	}
}
