// Package stores holds the client-side view state. Each store owns one slice
// of fetched data plus its loading and error flags, and exposes actions that
// call the services and update that slice. Stores are safe for concurrent use.
package stores

import (
	"sort"
	"sync"

	"banas-client/internal/metrics"
)

// notifier fans state changes out to subscribers
type notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func()
}

// Subscribe registers fn to run after every state change. The returned
// function removes it.
func (n *notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners == nil {
		n.listeners = make(map[int]func())
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// notify must be called without the store lock held
func (n *notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.listeners))
	ids := make([]int, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, n.listeners[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// generation tags each load so a response that was overtaken by a newer load
// of the same slice is dropped. Guarded by the owning store's lock.
type generation uint64

func (g *generation) next() uint64 {
	*g++
	return uint64(*g)
}

func (g generation) is(n uint64) bool {
	return uint64(g) == n
}

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomeStale = "stale"
)

func record(store, action, outcome string) {
	metrics.StoreAction(store, action, outcome)
}

// selection is an immutable set of entry ids. Every change builds a new set.
type selection map[string]struct{}

func (s selection) has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s selection) toggled(id string) selection {
	next := make(selection, len(s)+1)
	for k := range s {
		next[k] = struct{}{}
	}
	if s.has(id) {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	return next
}

// sorted returns the ids in a stable order for snapshots and payloads
func (s selection) sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func selectionOf(ids []string) selection {
	s := make(selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
