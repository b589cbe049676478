package state

import (
	"sync"

	"github.com/lalith-99/slackbridge/internal/models"
)

// Registry holds the bidirectional mapping between user keys and their
// isolated Slack channels, plus a cache of Slack user display names.
// The forward and reverse indexes are always mutated under one lock so a
// deletion removes both directions atomically.
type Registry struct {
	mu         sync.Mutex
	byKey      map[string]string // userKey -> channelID
	byChannel  map[string]string // channelID -> userKey
	slackUsers map[string]string // slack user ID -> display name
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:      make(map[string]string),
		byChannel:  make(map[string]string),
		slackUsers: make(map[string]string),
	}
}

// Bind records key <-> channelID in both directions. Any previous binding
// for either side is removed first so the 1:1 invariant holds.
func (r *Registry) Bind(key models.UserKey, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key.String()
	if old, ok := r.byKey[k]; ok {
		delete(r.byChannel, old)
	}
	if oldKey, ok := r.byChannel[channelID]; ok {
		delete(r.byKey, oldKey)
	}
	r.byKey[k] = channelID
	r.byChannel[channelID] = k
}

// Channel returns the live binding for key, if any.
func (r *Registry) Channel(key models.UserKey) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[key.String()]
	return id, ok
}

// UserKeyFor reverse-looks-up the owning user key for a channel.
func (r *Registry) UserKeyFor(channelID string) (models.UserKey, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byChannel[channelID]
	if !ok {
		return models.UserKey{}, false
	}
	return models.ParseUserKey(k), true
}

// Invalidate removes the binding that owns channelID, both directions.
// Idempotent: returns false if no binding existed.
func (r *Registry) Invalidate(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byChannel[channelID]
	if !ok {
		return false
	}
	delete(r.byChannel, channelID)
	delete(r.byKey, k)
	return true
}

// Len reports the number of live bindings.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

// SetSlackUser caches the display name for a Slack user ID.
func (r *Registry) SetSlackUser(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slackUsers[id] = name
}

// SlackUser returns the cached display name for a Slack user ID.
func (r *Registry) SlackUser(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.slackUsers[id]
	return name, ok
}
