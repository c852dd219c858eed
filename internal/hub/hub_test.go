package hub

import (
	"testing"
	"time"
)

func TestPublishReachesChannelSubscribers(t *testing.T) {
	h := NewHub()

	sub1 := h.Subscribe(1)
	sub2 := h.Subscribe(1)
	other := h.Subscribe(2)
	defer sub1.Cancel()
	defer sub2.Cancel()
	defer other.Cancel()

	event := Event{Type: EventMessageCreated, Payload: MessageRef{MessageID: "01A", ChannelID: 1}}
	h.Publish(1, event)

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case got := <-sub.C:
			if got.Type != EventMessageCreated {
				t.Errorf("type = %s, want %s", got.Type, EventMessageCreated)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}

	select {
	case got := <-other.C:
		t.Errorf("channel 2 subscriber received channel 1 event: %v", got)
	default:
	}
}

func TestCancelClosesChannelAndStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(1)

	sub.Cancel()
	sub.Cancel() // safe to repeat

	if _, ok := <-sub.C; ok {
		t.Error("event channel still open after cancel")
	}
	if n := h.SubscriberCount(1); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}

	// A publish after cancel must not panic or deliver.
	h.Publish(1, Event{Type: EventMessageCreated})
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(1)
	defer sub.Cancel()

	// Overfill the buffer without ever draining. Publish must keep
	// returning, shedding events for the laggard.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.Publish(1, Event{Type: EventMessageCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a subscriber that never reads")
	}
}

func TestDirectoryTopicIsSeparate(t *testing.T) {
	h := NewHub()
	dir := h.Subscribe(DirectoryTopic)
	channel := h.Subscribe(1)
	defer dir.Cancel()
	defer channel.Cancel()

	h.Publish(DirectoryTopic, Event{Type: EventChannelUpdated, Payload: ChannelRef{ChannelID: 1}})

	select {
	case got := <-dir.C:
		if got.Type != EventChannelUpdated {
			t.Errorf("type = %s, want %s", got.Type, EventChannelUpdated)
		}
	case <-time.After(time.Second):
		t.Fatal("directory subscriber did not receive the event")
	}
	select {
	case <-channel.C:
		t.Error("channel subscriber received a directory event")
	default:
	}
}
