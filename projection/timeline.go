// Package projection builds local timelines from observed messages.
// Handles ordering and deduplication for client-side rendering.
// Does not emit frames or interact with the connection directly.
package projection

import (
	"sort"
	"sync"

	"chat-video/domain"
)

// Timeline holds a simple local timeline. Messages arrive in fan-out order,
// which across rooms and reconnects is not chronological; the timeline keeps
// them sorted by server timestamp and drops duplicates by id.
type Timeline struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	messages []domain.Message
}

func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[string]struct{})}
}

// Insert adds one observed message, ignoring duplicates.
func (t *Timeline) Insert(msg domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := msg.ID.String()
	if _, dup := t.seen[key]; dup {
		return
	}
	t.seen[key] = struct{}{}

	idx := sort.Search(len(t.messages), func(i int) bool {
		if t.messages[i].CreatedAt.Equal(msg.CreatedAt) {
			return t.messages[i].ID.String() > key
		}
		return t.messages[i].CreatedAt.After(msg.CreatedAt)
	})
	t.messages = append(t.messages, domain.Message{})
	copy(t.messages[idx+1:], t.messages[idx:])
	t.messages[idx] = msg
}

// Messages returns the timeline oldest first.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len reports how many distinct messages were observed.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
