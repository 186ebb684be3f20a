package txn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesserdb/tesser/internal/errors"
)

func frozenSession(timeout time.Duration) (*Session, *time.Time) {
	s := NewSession(timeout)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestAutoCommitMode(t *testing.T) {
	s, _ := frozenSession(time.Minute)
	assert.Equal(t, AutoCommit, s.State())

	id, err := s.Begin()
	require.NoError(t, err)
	assert.Equal(t, Nil, id)

	_, _, err = s.Commit()
	assert.True(t, errors.HasCode(err, errors.CodeModeError))
	_, _, err = s.Abort()
	assert.True(t, errors.HasCode(err, errors.CodeModeError))
}

func TestManualCommitCycle(t *testing.T) {
	s, _ := frozenSession(time.Minute)
	_, _, err := s.SetAutoCommit(false)
	require.NoError(t, err)
	assert.Equal(t, ManualIdle, s.State())

	// Commit with nothing open is a no-op.
	_, had, err := s.Commit()
	require.NoError(t, err)
	assert.False(t, had)

	first, err := s.Begin()
	require.NoError(t, err)
	assert.NotEqual(t, Nil, first)
	assert.Equal(t, ManualUncommitted, s.State())

	// A second locking operation joins the same transaction.
	again, err := s.Begin()
	require.NoError(t, err)
	assert.Equal(t, first, again)

	committed, had, err := s.Commit()
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, first, committed)
	assert.Equal(t, ManualIdle, s.State())

	// The next operation opens a fresh transaction.
	second, err := s.Begin()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	aborted, had, err := s.Abort()
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, second, aborted)
}

func TestSetAutoCommitImplicitlyCommits(t *testing.T) {
	s, _ := frozenSession(time.Minute)
	_, _, err := s.SetAutoCommit(false)
	require.NoError(t, err)
	open, err := s.Begin()
	require.NoError(t, err)

	committed, had, err := s.SetAutoCommit(true)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, open, committed)
	assert.Equal(t, AutoCommit, s.State())

	// Re-enabling the mode already in effect changes nothing.
	_, had, err = s.SetAutoCommit(true)
	require.NoError(t, err)
	assert.False(t, had)
}

func TestDeadlineExpiry(t *testing.T) {
	s, now := frozenSession(30 * time.Second)
	_, _, err := s.SetAutoCommit(false)
	require.NoError(t, err)
	open, err := s.Begin()
	require.NoError(t, err)

	deadline, ok := s.Deadline()
	require.True(t, ok)
	assert.Equal(t, now.Add(30*time.Second), deadline)

	*now = now.Add(31 * time.Second)
	assert.Equal(t, ManualIdle, s.State())

	// The first operation after expiry reports the timeout and carries
	// the dead transaction's ID for lock release.
	dead, err := s.Begin()
	assert.True(t, errors.HasCode(err, errors.CodeTimeout))
	assert.Equal(t, open, dead)

	// The rollback already happened; the session is usable again.
	fresh, err := s.Begin()
	require.NoError(t, err)
	assert.NotEqual(t, Nil, fresh)
	assert.NotEqual(t, open, fresh)
}

func TestCloseIsTerminal(t *testing.T) {
	s, _ := frozenSession(time.Minute)
	_, _, err := s.SetAutoCommit(false)
	require.NoError(t, err)
	open, err := s.Begin()
	require.NoError(t, err)

	aborted, had := s.Close()
	assert.True(t, had)
	assert.Equal(t, open, aborted)
	assert.Equal(t, Closed, s.State())

	_, err = s.Begin()
	assert.True(t, errors.HasCode(err, errors.CodeClosed))
	_, _, err = s.Commit()
	assert.True(t, errors.HasCode(err, errors.CodeClosed))
	_, _, err = s.SetAutoCommit(true)
	assert.True(t, errors.HasCode(err, errors.CodeClosed))

	_, had = s.Close()
	assert.False(t, had)
}
