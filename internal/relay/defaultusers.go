package relay

import "sync"

// DefaultUsers is the runtime-editable set of Slack member IDs invited
// into every newly provisioned channel.
type DefaultUsers struct {
	mu  sync.Mutex
	ids []string
}

func NewDefaultUsers(initial []string) *DefaultUsers {
	d := &DefaultUsers{}
	d.Replace(initial)
	return d
}

// List returns a copy of the current set.
func (d *DefaultUsers) List() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Replace swaps the whole set.
func (d *DefaultUsers) Replace(ids []string) {
	cp := make([]string, len(ids))
	copy(cp, ids)
	d.mu.Lock()
	d.ids = cp
	d.mu.Unlock()
}
