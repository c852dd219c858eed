package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroker carries presence over Redis pub/sub so typing indicators work
// across multiple server instances. Each session keeps its own merged view
// of the topic, built from the state frames other parties publish.
type RedisBroker struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisBroker creates a RedisBroker from a Redis URL.
func NewRedisBroker(ctx context.Context, redisURL string, log zerolog.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBroker{client: client, log: log}, nil
}

// Close closes the Redis connection.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

func presenceKey(topic string) string {
	return fmt.Sprintf("presence:%s", topic)
}

// Join subscribes to the topic's pub/sub channel and announces the party's
// initial state.
func (b *RedisBroker) Join(ctx context.Context, topic string, self State) (Session, error) {
	pubsub := b.client.Subscribe(ctx, presenceKey(topic))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &redisSession{
		broker:  b,
		topic:   topic,
		state:   self,
		pubsub:  pubsub,
		ctx:     ctx,
		cancel:  cancel,
		merged:  map[uint]State{self.UserID: self},
		updates: make(chan map[uint]State, 8),
	}
	go s.receive()

	if err := s.publishState(self); err != nil {
		s.Leave()
		return nil, err
	}
	return s, nil
}

type redisSession struct {
	broker *RedisBroker
	topic  string
	pubsub *redis.PubSub
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu      sync.Mutex
	state   State
	merged  map[uint]State
	updates chan map[uint]State
}

func (s *redisSession) Publish(typing bool) error {
	s.mu.Lock()
	s.state.Typing = typing
	state := s.state
	s.mu.Unlock()
	return s.publishState(state)
}

func (s *redisSession) publishState(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.broker.client.Publish(s.ctx, presenceKey(s.topic), data).Err()
}

func (s *redisSession) Updates() <-chan map[uint]State { return s.updates }

func (s *redisSession) Leave() {
	s.once.Do(func() {
		// Best-effort goodbye so peers clear the indicator promptly;
		// their liveness timeout covers a lost frame.
		s.mu.Lock()
		s.state.Typing = false
		state := s.state
		s.mu.Unlock()
		if err := s.publishState(state); err != nil {
			s.broker.log.Debug().Err(err).Str("topic", s.topic).
				Msg("presence goodbye failed")
		}

		s.cancel()
		_ = s.pubsub.Close()
	})
}

func (s *redisSession) receive() {
	defer close(s.updates)

	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var state State
			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				s.broker.log.Debug().Err(err).Msg("bad presence frame")
				continue
			}

			s.mu.Lock()
			s.merged[state.UserID] = state
			snapshot := make(map[uint]State, len(s.merged))
			for k, v := range s.merged {
				snapshot[k] = v
			}
			s.mu.Unlock()

			select {
			case s.updates <- snapshot:
			default:
			}
		}
	}
}
