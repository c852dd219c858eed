package presence

import (
	"context"
	"sync"
)

// State is one participant's keyed presence entry on a topic.
type State struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Typing      bool   `json:"typing"`
}

// Broker is the ephemeral presence transport: publish my current keyed
// state on a topic and receive the merged state of all joined parties.
// Nothing here is persisted; a dropped transport simply loses the signal.
type Broker interface {
	Join(ctx context.Context, topic string, self State) (Session, error)
}

// Session is one party's attachment to a presence topic.
type Session interface {
	// Publish replaces this party's typing flag on the topic.
	Publish(typing bool) error

	// Updates delivers merged snapshots of the topic, keyed by user id.
	// Snapshots may be dropped under load; presence is best-effort.
	Updates() <-chan map[uint]State

	// Leave detaches from the topic and closes Updates.
	Leave()
}

// MemoryBroker is the single-node Broker: topics live in process memory for
// exactly as long as someone is joined to them.
type MemoryBroker struct {
	mu     sync.Mutex
	topics map[string]map[*memorySession]struct{}
}

// NewMemoryBroker creates a MemoryBroker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]map[*memorySession]struct{})}
}

// Join attaches to the topic and announces the party's initial state.
func (b *MemoryBroker) Join(_ context.Context, topic string, self State) (Session, error) {
	s := &memorySession{
		broker:  b,
		topic:   topic,
		state:   self,
		updates: make(chan map[uint]State, 8),
	}

	b.mu.Lock()
	if _, ok := b.topics[topic]; !ok {
		b.topics[topic] = make(map[*memorySession]struct{})
	}
	b.topics[topic][s] = struct{}{}
	b.broadcastLocked(topic)
	b.mu.Unlock()

	return s, nil
}

// broadcastLocked pushes the merged topic state to every joined session.
// Caller holds the lock. Sends are non-blocking: a session that cannot keep
// up misses a snapshot and catches up on the next one.
func (b *MemoryBroker) broadcastLocked(topic string) {
	sessions := b.topics[topic]
	merged := make(map[uint]State, len(sessions))
	for s := range sessions {
		merged[s.state.UserID] = s.state
	}

	for s := range sessions {
		snapshot := make(map[uint]State, len(merged))
		for k, v := range merged {
			snapshot[k] = v
		}
		select {
		case s.updates <- snapshot:
		default:
		}
	}
}

type memorySession struct {
	broker  *MemoryBroker
	topic   string
	state   State
	updates chan map[uint]State
	once    sync.Once
}

func (s *memorySession) Publish(typing bool) error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	if _, ok := s.broker.topics[s.topic][s]; !ok {
		return nil // already left; presence failures stay silent
	}
	s.state.Typing = typing
	s.broker.broadcastLocked(s.topic)
	return nil
}

func (s *memorySession) Updates() <-chan map[uint]State { return s.updates }

func (s *memorySession) Leave() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		if sessions, ok := s.broker.topics[s.topic]; ok {
			delete(sessions, s)
			if len(sessions) == 0 {
				delete(s.broker.topics, s.topic)
			} else {
				s.broker.broadcastLocked(s.topic)
			}
		}
		close(s.updates)
		s.broker.mu.Unlock()
	})
}
