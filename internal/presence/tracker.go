package presence

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTypingTTL is the hard liveness timeout for typing state: with no
// further keystroke or send, an indicator clears within this window even if
// the typing=false broadcast is lost.
const DefaultTypingTTL = 3 * time.Second

type remoteEntry struct {
	state State
	seen  time.Time
}

// Tracker owns the typing state of one open channel for one user. It
// debounces outbound typing=true broadcasts, clears them on send, clear, or
// inactivity, and maintains the set of other participants currently typing.
// The whole path is best-effort: transport failures are logged at debug
// level and otherwise swallowed, never surfaced to the chat itself.
type Tracker struct {
	session Session
	selfID  uint
	ttl     time.Duration
	log     zerolog.Logger

	// onChange, when set, receives the formatted indicator whenever the
	// typing set may have changed.
	onChange func(users []State, indicator string)

	mu     sync.Mutex
	typing bool
	timer  *time.Timer
	others map[uint]remoteEntry
	closed bool

	done chan struct{}
}

// NewTracker starts a tracker over an already-joined presence session.
// ttl <= 0 means DefaultTypingTTL.
func NewTracker(session Session, selfID uint, ttl time.Duration, log zerolog.Logger, onChange func([]State, string)) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	t := &Tracker{
		session:  session,
		selfID:   selfID,
		ttl:      ttl,
		log:      log,
		onChange: onChange,
		others:   make(map[uint]remoteEntry),
		done:     make(chan struct{}),
	}
	go t.consume()
	return t
}

// Keystroke records draft activity. A non-empty draft broadcasts
// typing=true once per typing burst (repeated keystrokes do not
// re-broadcast) and resets the inactivity timer; an empty draft clears.
func (t *Tracker) Keystroke(draft string) {
	if strings.TrimSpace(draft) == "" {
		t.Stop()
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	if !t.typing {
		t.typing = true
		t.publishLocked(true)
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.ttl, t.expire)
}

// Stop clears typing state immediately. Called on send and on clearing the
// draft.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.typing {
		t.typing = false
		t.publishLocked(false)
	}
}

// Typing returns the other participants currently typing, freshest state
// only: an entry older than the liveness window is treated as not typing.
func (t *Tracker) Typing() []State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typingLocked(time.Now())
}

// Indicator returns the display string for the current typing set.
func (t *Tracker) Indicator() string {
	return FormatTyping(t.Typing())
}

// Close stops the tracker, broadcasts typing=false, and leaves the session.
// No callbacks fire after Close returns.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.typing {
		t.typing = false
		t.publishLocked(false)
	}
	t.mu.Unlock()

	t.session.Leave()
	<-t.done
}

// expire fires when the inactivity timer lapses with no further keystroke.
func (t *Tracker) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || !t.typing {
		return
	}
	t.typing = false
	t.publishLocked(false)
}

// publishLocked broadcasts the flag, degrading silently on failure.
// Caller holds the lock.
func (t *Tracker) publishLocked(typing bool) {
	if err := t.session.Publish(typing); err != nil {
		t.log.Debug().Err(err).Bool("typing", typing).Msg("presence publish failed")
	}
}

// consume folds merged snapshots from the session into the remote map and
// runs the liveness sweep that clears stuck indicators.
func (t *Tracker) consume() {
	defer close(t.done)

	ticker := time.NewTicker(t.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-t.session.Updates():
			if !ok {
				return
			}
			now := time.Now()
			t.mu.Lock()
			for id, state := range snapshot {
				if id == t.selfID {
					continue
				}
				t.others[id] = remoteEntry{state: state, seen: now}
			}
			t.notifyLocked(now)
			t.mu.Unlock()
		case <-ticker.C:
			t.mu.Lock()
			t.notifyLocked(time.Now())
			t.mu.Unlock()
		}
	}
}

// notifyLocked pushes the current typing set to the consumer. Caller holds
// the lock.
func (t *Tracker) notifyLocked(now time.Time) {
	if t.onChange == nil || t.closed {
		return
	}
	users := t.typingLocked(now)
	t.onChange(users, FormatTyping(users))
}

// typingLocked computes the displayed typing set, excluding self and
// entries past the liveness window. Caller holds the lock.
func (t *Tracker) typingLocked(now time.Time) []State {
	var users []State
	for _, entry := range t.others {
		if !entry.state.Typing {
			continue
		}
		if now.Sub(entry.seen) > t.ttl {
			continue
		}
		users = append(users, entry.state)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

// FormatTyping renders the "who is typing" line. More than two typers
// collapse to "X and N others are typing".
func FormatTyping(users []State) string {
	switch len(users) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s is typing", users[0].DisplayName)
	case 2:
		return fmt.Sprintf("%s and %s are typing", users[0].DisplayName, users[1].DisplayName)
	default:
		return fmt.Sprintf("%s and %d others are typing", users[0].DisplayName, len(users)-1)
	}
}
