package chat

import (
	"sort"
	"sync"
)

// Timeline is the in-memory ordered message sequence for one open channel.
// It owns the (created_at, id) total order and deduplicates by message id,
// which guards against the send pipeline's own insert being observed twice:
// once from the write response and once from the live feed.
type Timeline struct {
	mu   sync.Mutex
	byID map[string]int // message id -> index in msgs
	msgs []MessageView
}

// NewTimeline creates an empty Timeline.
func NewTimeline() *Timeline {
	return &Timeline{byID: make(map[string]int)}
}

// Append inserts the message at its sorted position and reports whether it
// was new. A message whose id is already present is ignored, except that its
// reaction map is refreshed, since reactions are the one mutable field.
func (t *Timeline) Append(m MessageView) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i, ok := t.byID[m.ID]; ok {
		t.msgs[i].Reactions = m.Reactions
		return false
	}
	t.insert(m)
	return true
}

// Merge appends every message in views, returning how many were new. Used
// after a history reload to fold recovered messages into the live sequence.
func (t *Timeline) Merge(views []MessageView) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	added := 0
	for _, m := range views {
		if i, ok := t.byID[m.ID]; ok {
			t.msgs[i].Reactions = m.Reactions
			continue
		}
		t.insert(m)
		added++
	}
	return added
}

// Drop removes a message by id, reporting whether it was present. Used when
// a soft delete is observed.
func (t *Timeline) Drop(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byID[messageID]
	if !ok {
		return false
	}
	t.msgs = append(t.msgs[:i], t.msgs[i+1:]...)
	delete(t.byID, messageID)
	for j := i; j < len(t.msgs); j++ {
		t.byID[t.msgs[j].ID] = j
	}
	return true
}

// Messages returns a copy of the current sequence in ascending order.
func (t *Timeline) Messages() []MessageView {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]MessageView, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of messages held.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}

// insert places m at its sorted position. Caller holds the lock.
func (t *Timeline) insert(m MessageView) {
	i := sort.Search(len(t.msgs), func(i int) bool { return m.Before(t.msgs[i]) })
	t.msgs = append(t.msgs, MessageView{})
	copy(t.msgs[i+1:], t.msgs[i:])
	t.msgs[i] = m
	for j := i; j < len(t.msgs); j++ {
		t.byID[t.msgs[j].ID] = j
	}
}
