// Package lock provides a mutex keyed by item id, so mutations against
// different items run concurrently while mutations against the same item are
// serialized.
package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

type Keyed struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[int64]*entry)}
}

// Lock blocks until the lock for id is held. Entries are reference counted so
// the map shrinks back once nobody holds or waits on a key.
func (k *Keyed) Lock(id int64) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &entry{}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *Keyed) Unlock(id int64) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		k.mu.Unlock()
		panic("lock: unlock of unheld key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, id)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
