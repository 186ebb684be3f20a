package engine

import (
	"context"
	"sync"
	"time"

	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/internal/txn"
)

// lockTable grants exclusive row locks to transactions. A lock is keyed by
// container and row key and is held until its owner releases everything at
// commit, abort or rollback. Waiters block until the owner releases or
// their own deadline passes.
type lockTable struct {
	mu     sync.Mutex
	owners map[string]txn.ID
	held   map[txn.ID]map[string]struct{}
	// waiters are closed on every release so blocked acquirers re-check.
	waiters map[string][]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{
		owners:  make(map[string]txn.ID),
		held:    make(map[txn.ID]map[string]struct{}),
		waiters: make(map[string][]chan struct{}),
	}
}

// acquire takes the exclusive lock on key for owner, blocking while another
// transaction holds it. Re-acquiring an already held lock succeeds
// immediately. The wait is bounded by deadline and by ctx.
func (t *lockTable) acquire(ctx context.Context, key string, owner txn.ID, deadline time.Time) error {
	for {
		t.mu.Lock()
		current, locked := t.owners[key]
		if !locked || current == owner {
			t.owners[key] = owner
			if t.held[owner] == nil {
				t.held[owner] = make(map[string]struct{})
			}
			t.held[owner][key] = struct{}{}
			t.mu.Unlock()
			return nil
		}
		released := make(chan struct{})
		t.waiters[key] = append(t.waiters[key], released)
		t.mu.Unlock()

		wait := time.NewTimer(time.Until(deadline))
		select {
		case <-released:
			wait.Stop()
		case <-wait.C:
			return errors.NewTimeoutError("timed out waiting for row lock")
		case <-ctx.Done():
			wait.Stop()
			return errors.NewTimeoutError("canceled while waiting for row lock")
		}
	}
}

// release drops every lock held by owner and wakes all waiters on those
// keys.
func (t *lockTable) release(owner txn.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.held[owner] {
		if t.owners[key] == owner {
			delete(t.owners, key)
			for _, ch := range t.waiters[key] {
				close(ch)
			}
			delete(t.waiters, key)
		}
	}
	delete(t.held, owner)
}

// holds reports whether owner currently holds the lock on key.
func (t *lockTable) holds(key string, owner txn.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owners[key] == owner
}
