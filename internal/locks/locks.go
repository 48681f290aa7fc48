// Package locks serializes mutating work per scope key. The in-process
// implementation covers single-binary deployments; the Redis lease lock
// covers multiple processes sharing one workspace.
package locks

import (
	"context"
	"sync"
)

// ScopeLocker acquires an exclusive lock for a scope key. The returned
// release function must be called exactly once.
type ScopeLocker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Keyed is an in-process ScopeLocker backed by one semaphore per key.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewKeyed creates a new in-process keyed locker.
func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]chan struct{})}
}

func (k *Keyed) slot(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()

	slot, ok := k.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		k.slots[key] = slot
	}
	return slot
}

// Lock blocks until the key is free or the context is cancelled.
func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	slot := k.slot(key)

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
