package lock

import (
	"sync"

	"github.com/google/uuid"
)

// Keyed serializes read-then-write sequences per subscription. Advance,
// activate, pause and resume all mutate compound fields, so two concurrent
// requests for the same subscription must not interleave.
type Keyed struct {
	mu      sync.Mutex
	holders map[uuid.UUID]*holder
}

type holder struct {
	mu   sync.Mutex
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{
		holders: make(map[uuid.UUID]*holder),
	}
}

// Acquire blocks until the per-key lock is held and returns the release func.
func (k *Keyed) Acquire(key uuid.UUID) func() {
	k.mu.Lock()
	h, ok := k.holders[key]
	if !ok {
		h = &holder{}
		k.holders[key] = h
	}
	h.refs++
	k.mu.Unlock()

	h.mu.Lock()

	return func() {
		h.mu.Unlock()

		k.mu.Lock()
		h.refs--
		if h.refs == 0 {
			delete(k.holders, key)
		}
		k.mu.Unlock()
	}
}
