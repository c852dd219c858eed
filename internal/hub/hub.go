package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Event types published on the bus.
const (
	// EventMessageCreated is published after a message row is inserted.
	// Its payload carries the message id only; subscribers are expected to
	// read the full row themselves.
	EventMessageCreated = "message.created"

	// EventChannelUpdated is published when a channel's recency changes,
	// so directory views can re-rank without polling. Only emitted when
	// the directory live-update policy is enabled.
	EventChannelUpdated = "channel.updated"
)

// DirectoryTopic is the reserved channel id used for directory-wide events
// such as channel.updated. No real channel uses id 0.
const DirectoryTopic uint = 0

// Event represents a real-time event to be sent to subscribers.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// MessageRef is the payload of EventMessageCreated. It is deliberately
// partial: the inserted row must be re-read with its joins.
type MessageRef struct {
	MessageID string `json:"message_id"`
	ChannelID uint   `json:"channel_id"`
}

// ChannelRef is the payload of EventChannelUpdated.
type ChannelRef struct {
	ChannelID uint `json:"channel_id"`
}

// Subscription is a live, cancellable feed of one channel's events.
// After Cancel returns, no further event is delivered on C and C is closed.
type Subscription struct {
	ID string
	C  <-chan Event

	hub       *Hub
	channelID uint
	ch        chan Event
	done      chan struct{}
	once      sync.Once
}

// Cancel removes the subscription from the hub and closes its event channel.
// It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if subs, ok := s.hub.channels[s.channelID]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.hub.channels, s.channelID)
			}
		}
		// Publish holds the read lock while sending, so once we hold the
		// write lock nothing can be mid-send and closing is safe.
		close(s.done)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

// Hub manages live event subscriptions for all open channels.
type Hub struct {
	channels map[uint]map[*Subscription]struct{}
	mu       sync.RWMutex
}

// GlobalHub is the singleton instance of our Hub.
var GlobalHub = NewHub()

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[uint]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscription for the given channel. The returned
// handle owns a buffered event channel; the caller must Cancel it when the
// channel is deselected or the session ends.
func (h *Hub) Subscribe(channelID uint) *Subscription {
	ch := make(chan Event, 64)
	sub := &Subscription{
		ID:        uuid.NewString(),
		C:         ch,
		hub:       h,
		channelID: channelID,
		ch:        ch,
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[channelID]; !ok {
		h.channels[channelID] = make(map[*Subscription]struct{})
	}
	h.channels[channelID][sub] = struct{}{}
	return sub
}

// Publish sends an event to all subscriptions of a channel.
func (h *Hub) Publish(channelID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.channels[channelID] {
		// Use a non-blocking send to prevent a slow subscriber from
		// blocking the hub. A subscriber that falls behind recovers by
		// reloading history on reconnect.
		select {
		case <-sub.done:
		case sub.ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many live subscriptions a channel has.
func (h *Hub) SubscriberCount(channelID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channelID])
}
