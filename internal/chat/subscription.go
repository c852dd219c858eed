package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rosterhub/backend/internal/hub"
)

// SubscriptionState names the lifecycle states of a live subscription.
type SubscriptionState string

const (
	StateClosed       SubscriptionState = "closed"
	StateSubscribing  SubscriptionState = "subscribing"
	StateActive       SubscriptionState = "active"
	StateReconnecting SubscriptionState = "reconnecting"
)

// Feed is one live attachment to the event transport. A closed Events
// channel signals a transport-level drop unless the feed was cancelled.
type Feed interface {
	Events() <-chan hub.Event
	Cancel()
}

// EventSource abstracts the live event transport so the subscription state
// machine can be driven by the in-process hub or a remote stream alike.
type EventSource interface {
	Subscribe(ctx context.Context, channelID uint) (Feed, error)
}

// BusSource adapts the in-process hub to the EventSource contract.
type BusSource struct {
	Hub *hub.Hub
}

// Subscribe attaches to the hub.
func (s BusSource) Subscribe(_ context.Context, channelID uint) (Feed, error) {
	return busFeed{sub: s.Hub.Subscribe(channelID)}, nil
}

type busFeed struct {
	sub *hub.Subscription
}

func (f busFeed) Events() <-chan hub.Event { return f.sub.C }
func (f busFeed) Cancel()                  { f.sub.Cancel() }

// SubscriptionStore is the read side a subscription needs: history reload
// on (re)connect and the full read that follows each insert notification.
type SubscriptionStore interface {
	LoadHistory(ctx context.Context, channelID uint, limit int) ([]MessageView, error)
	GetMessage(ctx context.Context, messageID string) (MessageView, error)
}

// SubscriptionOptions tune an open subscription.
type SubscriptionOptions struct {
	// HistoryLimit bounds the reload issued on connect and reconnect.
	// Zero means the store's default page size.
	HistoryLimit int

	// OnAppend, when set, is invoked for every message newly appended
	// from the live feed (after deduplication).
	OnAppend func(MessageView)

	// RetryDelay is the base reconnect backoff. Zero means one second.
	RetryDelay time.Duration

	Logger zerolog.Logger
}

// Subscription maintains one live feed for an open channel and owns its
// in-memory timeline. On each message.created notification it performs the
// full read of the message and appends it; on a transport drop it
// re-subscribes and re-issues the history load to recover anything missed
// before resuming live delivery. Close cancels the feed and guarantees no
// further timeline mutation.
type Subscription struct {
	channelID uint
	source    EventSource
	store     SubscriptionStore
	timeline  *Timeline
	opts      SubscriptionOptions

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state SubscriptionState
	feed  Feed
}

// OpenSubscription subscribes to the channel's live feed, loads history into
// a fresh timeline, and starts the receive loop.
func OpenSubscription(ctx context.Context, source EventSource, store SubscriptionStore, channelID uint, opts SubscriptionOptions) (*Subscription, error) {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		channelID: channelID,
		source:    source,
		store:     store,
		timeline:  NewTimeline(),
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateSubscribing,
	}

	feed, err := source.Subscribe(ctx, channelID)
	if err != nil {
		cancel()
		s.setState(StateClosed)
		return nil, err
	}
	s.feed = feed

	// History is loaded after the feed is attached so nothing inserted in
	// between can be missed; duplicates are absorbed by the timeline.
	history, err := store.LoadHistory(ctx, channelID, opts.HistoryLimit)
	if err != nil {
		feed.Cancel()
		cancel()
		s.setState(StateClosed)
		return nil, err
	}
	s.timeline.Merge(history)
	s.setState(StateActive)

	go s.run()
	return s, nil
}

// Timeline returns the subscription's message sequence.
func (s *Subscription) Timeline() *Timeline { return s.timeline }

// State returns the current lifecycle state.
func (s *Subscription) State() SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the subscription down. When it returns, the receive loop has
// exited and no further mutation of the timeline will occur.
func (s *Subscription) Close() {
	s.cancel()
	s.mu.Lock()
	if s.feed != nil {
		s.feed.Cancel()
	}
	s.mu.Unlock()
	<-s.done
	s.setState(StateClosed)
}

func (s *Subscription) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		events := s.feed.Events()
		s.mu.Unlock()

		select {
		case <-s.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				// Transport drop. The live feed alone does not
				// guarantee delivery during the outage, so the
				// reconnect path reloads history before resuming.
				if !s.reconnect() {
					return
				}
				continue
			}
			s.handle(ev)
		}
	}
}

func (s *Subscription) handle(ev hub.Event) {
	if ev.Type != hub.EventMessageCreated {
		return
	}
	ref, ok := ev.Payload.(hub.MessageRef)
	if !ok {
		return
	}

	// The notification payload is partial; do the full read with joins.
	view, err := s.store.GetMessage(s.ctx, ref.MessageID)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Str("message_id", ref.MessageID).
			Msg("failed to read notified message")
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	if s.timeline.Append(view) && s.opts.OnAppend != nil {
		s.opts.OnAppend(view)
	}
}

// reconnect re-attaches to the transport with backoff, then reloads history
// to recover messages missed while disconnected. Returns false if the
// subscription was closed while reconnecting.
func (s *Subscription) reconnect() bool {
	s.setState(StateReconnecting)
	delay := s.opts.RetryDelay

	for {
		if s.ctx.Err() != nil {
			return false
		}

		feed, err := s.source.Subscribe(s.ctx, s.channelID)
		if err == nil {
			history, lerr := s.store.LoadHistory(s.ctx, s.channelID, s.opts.HistoryLimit)
			if lerr == nil {
				s.mu.Lock()
				s.feed = feed
				s.mu.Unlock()
				if s.ctx.Err() != nil {
					feed.Cancel()
					return false
				}
				s.timeline.Merge(history)
				s.setState(StateActive)
				return true
			}
			feed.Cancel()
			err = lerr
		}

		s.opts.Logger.Warn().Err(err).Uint("channel_id", s.channelID).
			Msg("reconnect attempt failed")

		select {
		case <-s.ctx.Done():
			return false
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
}

func (s *Subscription) setState(state SubscriptionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
