package state

import (
	"sync"

	"github.com/lalith-99/slackbridge/internal/models"
)

// Ring is a bounded FIFO cache of recent messages, used to replay history
// to (re)connecting clients. Entries are deduplicated by message ID;
// replaying a message with an ID already present is a no-op. When the
// buffer is full the oldest entry is evicted first.
type Ring struct {
	mu   sync.Mutex
	cap  int
	msgs []models.Message
	seen map[string]struct{}
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{
		cap:  capacity,
		msgs: make([]models.Message, 0, capacity),
		seen: make(map[string]struct{}, capacity),
	}
}

// Add appends m unless its ID is already buffered. Returns false on a
// duplicate.
func (r *Ring) Add(m models.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[m.ID]; dup {
		return false
	}
	if len(r.msgs) >= r.cap {
		oldest := r.msgs[0]
		r.msgs = r.msgs[1:]
		delete(r.seen, oldest.ID)
	}
	r.msgs = append(r.msgs, m)
	r.seen[m.ID] = struct{}{}
	return true
}

// Snapshot returns a copy of the buffered messages in insertion order.
func (r *Ring) Snapshot() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *Ring) Capacity() int {
	return r.cap
}
