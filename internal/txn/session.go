// Package txn tracks the commit-mode state machine of a container session:
// autocommit versus manual commit, the identity and deadline of the open
// transaction, and the terminal closed state.
package txn

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tesserdb/tesser/internal/errors"
)

// State identifies where a session sits in the commit-mode machine.
type State int

const (
	// AutoCommit means every mutation commits immediately on its own.
	AutoCommit State = iota
	// ManualIdle means manual-commit mode with no transaction open.
	ManualIdle
	// ManualUncommitted means manual-commit mode with an open transaction
	// holding locks and a deadline.
	ManualUncommitted
	// Closed is terminal. No operation leaves it.
	Closed
)

func (s State) String() string {
	switch s {
	case AutoCommit:
		return "auto-commit"
	case ManualIdle:
		return "manual-idle"
	case ManualUncommitted:
		return "manual-uncommitted"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ID names a transaction for lock ownership and overlay tracking.
type ID = uuid.UUID

// Nil is the zero transaction ID, used for autocommit one-shot work.
var Nil = uuid.Nil

// Session is the per-container commit-mode tracker. It is not safe for
// concurrent use; the owning container serializes access.
type Session struct {
	state    State
	current  ID
	deadline time.Time
	timeout  time.Duration
	now      func() time.Time
}

// NewSession creates a session in autocommit mode. Transactions opened in
// manual mode expire after timeout.
func NewSession(timeout time.Duration) *Session {
	return &Session{
		state:   AutoCommit,
		timeout: timeout,
		now:     time.Now,
	}
}

// State reports the current position in the machine, folding in deadline
// expiry: an expired open transaction reads as ManualIdle.
func (s *Session) State() State {
	if s.state == ManualUncommitted && s.now().After(s.deadline) {
		return ManualIdle
	}
	return s.state
}

// Current returns the open transaction's ID, if one is open and unexpired.
func (s *Session) Current() (ID, bool) {
	if s.State() != ManualUncommitted {
		return Nil, false
	}
	return s.current, true
}

// Deadline returns the open transaction's expiry time.
func (s *Session) Deadline() (time.Time, bool) {
	if s.State() != ManualUncommitted {
		return time.Time{}, false
	}
	return s.deadline, true
}

// check enforces the closed state and surfaces deadline expiry. Expiry
// aborts the dead transaction locally and reports a timeout; the caller
// releases its locks using the returned ID.
func (s *Session) check() (expired ID, err error) {
	if s.state == Closed {
		return Nil, errors.NewClosedError("container is closed")
	}
	if s.state == ManualUncommitted && s.now().After(s.deadline) {
		id := s.current
		s.toIdle()
		return id, errors.NewTimeoutError("transaction timed out and was rolled back")
	}
	return Nil, nil
}

// Begin ensures a transaction context for a locking operation. In manual
// mode the first such operation opens the transaction; later ones join it.
// In autocommit mode it hands out Nil: the operation is one-shot.
//
// A returned timeout error carries the aborted transaction's ID so the
// caller can release its locks.
func (s *Session) Begin() (ID, error) {
	if id, err := s.check(); err != nil {
		return id, err
	}
	switch s.state {
	case AutoCommit:
		return Nil, nil
	case ManualIdle:
		s.current = uuid.New()
		s.deadline = s.now().Add(s.timeout)
		s.state = ManualUncommitted
		return s.current, nil
	default:
		return s.current, nil
	}
}

// Commit closes the open transaction. It is rejected in autocommit mode.
// With no transaction open it succeeds as a no-op.
func (s *Session) Commit() (ID, bool, error) {
	if id, err := s.check(); err != nil {
		return id, false, err
	}
	if s.state == AutoCommit {
		return Nil, false, errors.NewModeError("commit is not allowed in autocommit mode")
	}
	if s.state != ManualUncommitted {
		return Nil, false, nil
	}
	id := s.current
	s.toIdle()
	return id, true, nil
}

// Abort discards the open transaction. It is rejected in autocommit mode.
// With no transaction open it succeeds as a no-op.
func (s *Session) Abort() (ID, bool, error) {
	if id, err := s.check(); err != nil {
		return id, false, err
	}
	if s.state == AutoCommit {
		return Nil, false, errors.NewModeError("abort is not allowed in autocommit mode")
	}
	if s.state != ManualUncommitted {
		return Nil, false, nil
	}
	id := s.current
	s.toIdle()
	return id, true, nil
}

// SetAutoCommit switches commit modes. Enabling autocommit while a
// transaction is open commits it implicitly; the committed ID is returned.
// Setting the mode already in effect changes nothing.
func (s *Session) SetAutoCommit(enabled bool) (ID, bool, error) {
	if id, err := s.check(); err != nil {
		return id, false, err
	}
	if enabled {
		committed := Nil
		had := false
		if s.state == ManualUncommitted {
			committed = s.current
			had = true
		}
		s.toIdle()
		s.state = AutoCommit
		return committed, had, nil
	}
	if s.state == AutoCommit {
		s.state = ManualIdle
	}
	return Nil, false, nil
}

// Close moves the session to its terminal state. Any open transaction is
// reported back so the caller can abort it; closing an already closed
// session does nothing.
func (s *Session) Close() (ID, bool) {
	if s.state == Closed {
		return Nil, false
	}
	aborted := Nil
	had := false
	if s.state == ManualUncommitted {
		// An expired transaction still hands its ID back so stale locks
		// get released.
		aborted = s.current
		had = true
	}
	s.state = Closed
	s.current = Nil
	return aborted, had
}

func (s *Session) toIdle() {
	s.state = ManualIdle
	s.current = Nil
	s.deadline = time.Time{}
}
