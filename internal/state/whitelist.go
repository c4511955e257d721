package state

import (
	"sort"
	"sync"
)

// Whitelist is the set of bot accounts allowed to post. It is read on every
// message and written only on startup and on Ready.
type Whitelist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewWhitelist(ids ...string) *Whitelist {
	w := &Whitelist{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		w.Add(id)
	}
	return w
}

func (w *Whitelist) Add(id string) {
	if id == "" {
		return
	}
	w.mu.Lock()
	w.ids[id] = struct{}{}
	w.mu.Unlock()
}

func (w *Whitelist) Contains(id string) bool {
	w.mu.RLock()
	_, ok := w.ids[id]
	w.mu.RUnlock()
	return ok
}

func (w *Whitelist) List() []string {
	w.mu.RLock()
	out := make([]string, 0, len(w.ids))
	for id := range w.ids {
		out = append(out, id)
	}
	w.mu.RUnlock()
	sort.Strings(out)
	return out
}
