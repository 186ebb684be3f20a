package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesserdb/tesser/internal/errors"
)

func TestLockTableReentrancy(t *testing.T) {
	lt := newLockTable()
	owner := mustUUID()
	ctx := t.Context()

	require.NoError(t, lt.acquire(ctx, "k", owner, soon()))
	require.NoError(t, lt.acquire(ctx, "k", owner, soon()))
	assert.True(t, lt.holds("k", owner))

	lt.release(owner)
	assert.False(t, lt.holds("k", owner))
}

func TestLockTableContention(t *testing.T) {
	lt := newLockTable()
	first, second := mustUUID(), mustUUID()
	ctx := t.Context()

	require.NoError(t, lt.acquire(ctx, "k", first, soon()))

	acquired := make(chan error, 1)
	go func() {
		acquired <- lt.acquire(ctx, "k", second, time.Now().Add(5*time.Second))
	}()

	select {
	case err := <-acquired:
		t.Fatalf("second owner acquired a held lock: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	lt.release(first)
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never woke up after release")
	}
	assert.True(t, lt.holds("k", second))
}

func TestLockTableDeadline(t *testing.T) {
	lt := newLockTable()
	first, second := mustUUID(), mustUUID()
	ctx := t.Context()

	require.NoError(t, lt.acquire(ctx, "k", first, soon()))
	err := lt.acquire(ctx, "k", second, time.Now().Add(30*time.Millisecond))
	assert.True(t, errors.HasCode(err, errors.CodeTimeout))

	// Unrelated keys are independent.
	require.NoError(t, lt.acquire(ctx, "other", second, soon()))
}
