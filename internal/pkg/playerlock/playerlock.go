// Package playerlock provides the in-memory registry of per-player locks
// that serializes command handling for a single player.
//
// The registry is process-local and never persisted: the store transaction
// is the only durability boundary, so locks held at crash time simply do
// not exist after a restart.
package playerlock

import (
	"context"
	"sync"
)

// Registry maps player identities to mutual-exclusion handles, created
// lazily on first use. Commands for different players proceed
// independently; commands for the same player queue in arrival order.
type Registry struct {
	locks sync.Map // playerID -> chan struct{} (buffered, size 1)
}

// NewRegistry creates an empty lock registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Acquire blocks until the player's lock is held or ctx is done.
// It returns a release function that must be called exactly once.
func (r *Registry) Acquire(ctx context.Context, playerID string) (func(), error) {
	ch := r.lockChan(playerID)

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-ch })
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) lockChan(playerID string) chan struct{} {
	if ch, ok := r.locks.Load(playerID); ok {
		return ch.(chan struct{})
	}
	ch, _ := r.locks.LoadOrStore(playerID, make(chan struct{}, 1))
	return ch.(chan struct{})
}
